package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/audit"
	auditdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/audit/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/billing"
	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/cache"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/checkout"
	checkoutdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/clock"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/config"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/locks"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/observability"
	obsmiddleware "github.com/Biniyam0911/HospitalManager-sub001/internal/observability/logger"
	obsmetrics "github.com/Biniyam0911/HospitalManager-sub001/internal/observability/metrics"
	obstracing "github.com/Biniyam0911/HospitalManager-sub001/internal/observability/tracing"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/patient"
	patientdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/patient/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/recorder"
	recorderdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/recorder/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	cache.Module,
	locks.Module,
	clock.Module,
	audit.Module,
	patient.Module,
	billing.Module,
	recorder.Module,
	checkout.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	auditSvc    auditdomain.Service
	patientSvc  patientdomain.Service
	billingSvc  billingdomain.Service
	recorderSvc recorderdomain.Service
	checkoutSvc checkoutdomain.Service
	cacheStore  *cache.Store
	policy      *config.BillingPolicyHolder
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	AuditSvc    auditdomain.Service
	PatientSvc  patientdomain.Service
	BillingSvc  billingdomain.Service
	RecorderSvc recorderdomain.Service
	CheckoutSvc checkoutdomain.Service
	Policy      *config.BillingPolicyHolder
	CacheStore  *cache.Store `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		auditSvc:    p.AuditSvc,
		patientSvc:  p.PatientSvc,
		billingSvc:  p.BillingSvc,
		recorderSvc: p.RecorderSvc,
		checkoutSvc: p.CheckoutSvc,
		cacheStore:  p.CacheStore,
		policy:      p.Policy,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/patients", s.CreatePatient)
	api.GET("/patients", s.ListPatients)
	api.GET("/patients/:id", s.GetPatient)

	api.POST("/bills", s.CreateBill)
	api.GET("/bills", s.ListBills)
	api.GET("/bills/:id", s.GetBill)
	api.GET("/bills/:id/payments", s.ListBillPayments)
	api.POST("/bills/:id/payments", s.RecordPayment)

	api.POST("/bills/:id/checkout/intent", s.CreateCheckoutIntent)
	api.POST("/bills/:id/checkout/confirm", s.ConfirmCheckout)

	api.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/gateway", s.HandleGatewayWebhook)
}
