package router

import (
	"hersis/internal/config"
	"hersis/internal/handler"
	"hersis/internal/middleware"
	"hersis/internal/repository"
	"hersis/internal/service"
	"hersis/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Store ← DB/Redis
// db and rdb may be nil (memory store, no Redis); dispatcher is nil without
// Redis, in which case audit entries are written synchronously and no close
// report is scheduled.
func New(cfg *config.Config, store repository.Store, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins...))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimit(middleware.NewLimiter(cfg.RateLimitRPM)))

	// ── Services ─────────────────────────────────────────────────────────────
	// Interfaces stay nil rather than wrapping a nil *Dispatcher
	var auditQueue service.AuditEnqueuer
	var reportes service.ReporteEnqueuer
	if dispatcher != nil {
		auditQueue = dispatcher
		reportes = dispatcher
	}
	auditoria := service.NewAuditoria(auditQueue, store.Repos().Logs)

	cajaSvc := service.NewCajaService(store, auditoria, reportes)
	ventaSvc := service.NewVentaService(store, auditoria, cfg.PrecioDesdeCatalogo)
	inventarioSvc := service.NewInventarioService(store, auditoria)
	conciliacionSvc := service.NewConciliacionService(store)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cajaH := handler.NewCajaHandler(cajaSvc, conciliacionSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	notificacionesH := handler.NewNotificacionesHandler(rdb, store.Repos().Notificaciones)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	todos := middleware.RequireRole(middleware.RolCajero, middleware.RolSupervisor, middleware.RolAdministrador)
	supervision := middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador)
	admin := middleware.RequireRole(middleware.RolAdministrador)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		cajas := v1.Group("/cajas")
		{
			cajas.POST("/abrir", todos, cajaH.Abrir)
			cajas.POST("/:id/cerrar", todos, cajaH.Cerrar)
			cajas.GET("/activa", todos, cajaH.GetActiva)
			cajas.GET("", supervision, cajaH.Listar)
			cajas.GET("/:id", todos, cajaH.Obtener)
			cajas.GET("/:id/resumen", todos, cajaH.Resumen)
			cajas.GET("/:id/ventas", todos, cajaH.Ventas)
			cajas.GET("/:id/auditoria", supervision, cajaH.Auditoria)
			cajas.POST("/:id/sincronizar", supervision, cajaH.Sincronizar)
			cajas.PATCH("/:id/observaciones", supervision, cajaH.ActualizarObservaciones)
			cajas.DELETE("/:id", admin, cajaH.Eliminar)
		}

		ventas := v1.Group("/ventas")
		{
			ventas.POST("", todos, ventasH.RegistrarVenta)
			ventas.GET("/:id", todos, ventasH.ObtenerVenta)
			ventas.POST("/:id/anular", supervision, ventasH.AnularVenta)
		}

		inv := v1.Group("/inventario")
		{
			inv.GET("/:tipo/:id/disponibilidad", todos, inventarioH.Disponibilidad)
			inv.GET("/:tipo/:id/movimientos", supervision, inventarioH.ListarMovimientos)
			inv.POST("/entradas", supervision, inventarioH.RegistrarEntrada)
		}

		v1.GET("/notificaciones/stream", todos, notificacionesH.Stream)
		v1.PATCH("/notificaciones/:id/leida", todos, notificacionesH.MarcarLeida)
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
