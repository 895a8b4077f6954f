package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sayvu/dispatch/module/core/domain"
)

type areaService interface {
	Create(ctx context.Context, callCenterID int64, polygon domain.Polygon, description string) (*domain.CoverageArea, error)
	Promote(ctx context.Context, areaID int64) (bool, error)
	Demote(ctx context.Context, areaID int64) (bool, error)
	SetDescription(ctx context.Context, areaID int64, description string) error
	Remove(ctx context.Context, areaID int64) error
	OrderedAreas(ctx context.Context, callCenterID int64) ([]domain.CoverageArea, error)
}

type categoryService interface {
	SetCategories(ctx context.Context, callCenterID int64, emergencyCatIDs []int64) error
}

type createAreaRequest struct {
	Description string `json:"description"`
	Coordinates []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
}

type CallCenterHandler struct {
	areaSvc areaService
	catSvc  categoryService
}

func NewCallCenterHandler(areaSvc areaService, catSvc categoryService) *CallCenterHandler {
	return &CallCenterHandler{areaSvc: areaSvc, catSvc: catSvc}
}

func (h *CallCenterHandler) Register(r *gin.RouterGroup) {
	r.GET("/call-centers/:call_center_id/areas", h.ListAreas)
	r.POST("/call-centers/:call_center_id/areas", h.CreateArea)
	r.PUT("/call-centers/:call_center_id/categories", h.SetCategories)
	r.POST("/areas/:area_id/promote", h.PromoteArea)
	r.POST("/areas/:area_id/demote", h.DemoteArea)
	r.PATCH("/areas/:area_id", h.RenameArea)
	r.DELETE("/areas/:area_id", h.DeleteArea)
}

func (h *CallCenterHandler) ListAreas(c *gin.Context) {
	callCenterID, err := strconv.ParseInt(c.Param("call_center_id"), 10, 64)
	if err != nil || callCenterID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid call_center_id"})
		return
	}

	areas, err := h.areaSvc.OrderedAreas(c.Request.Context(), callCenterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch areas"})
		return
	}

	c.JSON(http.StatusOK, areas)
}

func (h *CallCenterHandler) CreateArea(c *gin.Context) {
	callCenterID, err := strconv.ParseInt(c.Param("call_center_id"), 10, 64)
	if err != nil || callCenterID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid call_center_id"})
		return
	}

	var req createAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	polygon := make(domain.Polygon, len(req.Coordinates))
	for i, coord := range req.Coordinates {
		polygon[i] = domain.Coordinate{Lat: coord.Latitude, Lng: coord.Longitude}
	}

	area, err := h.areaSvc.Create(c.Request.Context(), callCenterID, polygon, req.Description)
	var geomErr *domain.GeometryError
	if errors.As(err, &geomErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": geomErr.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create area"})
		return
	}

	c.JSON(http.StatusCreated, area)
}

func (h *CallCenterHandler) SetCategories(c *gin.Context) {
	callCenterID, err := strconv.ParseInt(c.Param("call_center_id"), 10, 64)
	if err != nil || callCenterID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid call_center_id"})
		return
	}

	var req struct {
		EmergencyCatIDs []int64 `json:"emergency_cat_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.catSvc.SetCategories(c.Request.Context(), callCenterID, req.EmergencyCatIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"call_center_id": callCenterID, "emergency_cat_ids": req.EmergencyCatIDs})
}

func (h *CallCenterHandler) PromoteArea(c *gin.Context) {
	h.moveArea(c, h.areaSvc.Promote)
}

func (h *CallCenterHandler) DemoteArea(c *gin.Context) {
	h.moveArea(c, h.areaSvc.Demote)
}

func (h *CallCenterHandler) moveArea(c *gin.Context, move func(context.Context, int64) (bool, error)) {
	areaID, err := strconv.ParseInt(c.Param("area_id"), 10, 64)
	if err != nil || areaID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid area_id"})
		return
	}

	moved, err := move(c.Request.Context(), areaID)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "area not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to move area"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"area_id": areaID, "moved": moved})
}

func (h *CallCenterHandler) RenameArea(c *gin.Context) {
	areaID, err := strconv.ParseInt(c.Param("area_id"), 10, 64)
	if err != nil || areaID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid area_id"})
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	err = h.areaSvc.SetDescription(c.Request.Context(), areaID, req.Description)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "area not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rename area"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"area_id": areaID, "description": req.Description})
}

func (h *CallCenterHandler) DeleteArea(c *gin.Context) {
	areaID, err := strconv.ParseInt(c.Param("area_id"), 10, 64)
	if err != nil || areaID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid area_id"})
		return
	}

	err = h.areaSvc.Remove(c.Request.Context(), areaID)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "area not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete area"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"area_id": areaID, "deleted": true})
}
