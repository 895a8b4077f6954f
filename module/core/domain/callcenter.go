package domain

// CoverageArea is a polygon-bounded region owned by one call center.
// Priority is unique within the call center and dense: a center with N
// areas holds priorities exactly 1..N.
type CoverageArea struct {
	ID           int64      `json:"call_center_area_id"`
	CallCenterID int64      `json:"call_center_id"`
	Description  string     `json:"description"`
	Center       Coordinate `json:"center"`
	AreaSize     float64    `json:"area_size"`
	Priority     int        `json:"priority"`
	Polygon      Polygon    `json:"coordinates"`
}

// CategoryRef is a supported emergency category with its display priority.
// The category priority sequence is independent of the area priority
// sequence and is never consulted during dispatch.
type CategoryRef struct {
	EmergencyCatID int64 `json:"emergency_cat_id"`
	Priority       int   `json:"priority"`
}

type CallCenter struct {
	ID              int64         `json:"call_center_id"`
	Name            string        `json:"name"`
	DefaultLocation Coordinate    `json:"default_location"`
	CountryID       int64         `json:"country_id"`
	Categories      []CategoryRef `json:"categories"`
	// Areas is sorted ascending by priority.
	Areas []CoverageArea `json:"areas"`
}

// SupportsCategory reports whether the center's category set contains catID.
func (c *CallCenter) SupportsCategory(catID int64) bool {
	for _, ref := range c.Categories {
		if ref.EmergencyCatID == catID {
			return true
		}
	}
	return false
}
