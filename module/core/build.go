package core

import (
	"database/sql"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handler "github.com/sayvu/dispatch/module/core/internal/handler/http"
	"github.com/sayvu/dispatch/module/core/internal/handler/subscriber"
	"github.com/sayvu/dispatch/module/core/internal/repository/database/postgres"
	"github.com/sayvu/dispatch/module/core/internal/repository/publisher/rabbitmq"
	"github.com/sayvu/dispatch/module/core/service"
)

type Module struct {
	ReportSvc   *service.ReportService
	DispatchSvc *service.DispatchEngine
	AreaSvc     *service.AreaService
	CatalogSvc  *service.CatalogService

	reportHandler     *handler.ReportHandler
	callCenterHandler *handler.CallCenterHandler
	subscriber        *subscriber.ReportSubscriber
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *redis.Client, catalogTTL time.Duration, log *logrus.Logger) (*Module, error) {
	callCenterRepo := postgres.NewCallCenterRepo(db)
	areaRepo := postgres.NewAreaRepo(db)
	reportRepo := postgres.NewReportRepo(db)

	notifier, err := rabbitmq.NewReportNotifier(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("report notifier: %w", err)
	}

	catalogSvc := service.NewCatalogService(callCenterRepo, redisClient, catalogTTL)
	areaSvc := service.NewAreaService(areaRepo, catalogSvc)
	reportSvc := service.NewReportService(reportRepo, notifier)
	dispatchSvc := service.NewDispatchEngine(catalogSvc, reportRepo, notifier, log)

	reportHandler := handler.NewReportHandler(reportSvc, dispatchSvc)
	callCenterHandler := handler.NewCallCenterHandler(areaSvc, catalogSvc)
	sub := subscriber.NewReportSubscriber(mqttClient, reportSvc, dispatchSvc)

	return &Module{
		ReportSvc:         reportSvc,
		DispatchSvc:       dispatchSvc,
		AreaSvc:           areaSvc,
		CatalogSvc:        catalogSvc,
		reportHandler:     reportHandler,
		callCenterHandler: callCenterHandler,
		subscriber:        sub,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.reportHandler.Register(r)
	m.callCenterHandler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}
