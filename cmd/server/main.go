package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"platform-service/internal/authz"
	"platform-service/internal/handler"
	"platform-service/internal/middleware"
	"platform-service/internal/model"
	"platform-service/internal/tenancy"
	"platform-service/pkg/config"
	"platform-service/pkg/database"
	"platform-service/pkg/jwtutil"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("platform-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting platform service...", cfg.LogConfig()...)

	// The tenancy plugin carries the closed allow-list of tenant-owned
	// models. Everything else passes through unscoped.
	tenancyPlugin := tenancy.New(
		&model.Page{},
		&model.Product{},
		&model.Booking{},
		&model.Employee{},
	)

	db, err := database.Connect(&cfg.DB, tenancyPlugin)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established",
		zap.Strings("tenant_scoped_tables", tenancyPlugin.Tables()))

	if err := database.Migrate(db,
		&model.User{},
		&model.Tenant{},
		&model.TenantMembership{},
		&model.Currency{},
		&model.Page{},
		&model.Product{},
		&model.Booking{},
		&model.Employee{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})

	guard := authz.NewGuard(authz.PlatformTable(), log)

	authMW := middleware.NewAuthMiddleware(jwtUtil, db)
	tenantMW := middleware.NewTenantResolver(db, cfg.Server.BaseDomain)

	authHandler := handler.NewAuthHandler(db, jwtUtil)
	tenantHandler := handler.NewTenantHandler(db)
	userHandler := handler.NewUserHandler(db, guard)
	pageHandler := handler.NewPageHandler(db)
	productHandler := handler.NewProductHandler(db)
	bookingHandler := handler.NewBookingHandler(db)
	employeeHandler := handler.NewEmployeeHandler(db)
	currencyHandler := handler.NewCurrencyHandler(db)

	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// API routes - authentication resolves the actor, then the tenant
	// resolver binds the tenant scope onto the request context
	api := e.Group("/api")
	api.Use(authMW.Authenticate)
	api.Use(tenantMW.Resolve)

	api.POST("/tenant-auth/select", authHandler.SelectTenant)

	users := api.Group("/users")
	users.GET("/profile", userHandler.GetProfile)
	users.GET("/:id/email", userHandler.GetEmail)

	tenants := api.Group("/tenants")
	tenants.POST("", tenantHandler.Create, middleware.Authorize(guard, authz.Mutation, "tenants.create"))
	tenants.GET("", tenantHandler.List, middleware.Authorize(guard, authz.Query, "tenants"))
	tenants.GET("/:id", tenantHandler.Get, middleware.Authorize(guard, authz.Query, "tenants"))

	tenantUsers := api.Group("/tenant-users")
	tenantUsers.Use(middleware.RequireTenantContext)
	tenantUsers.POST("", tenantHandler.AddMember, middleware.Authorize(guard, authz.Mutation, "tenants.members.add"))

	currencies := api.Group("/currencies")
	currencies.GET("", currencyHandler.List, middleware.Authorize(guard, authz.Query, "currencies"))

	// Tenant-scoped engines - all require a bound tenant
	pages := api.Group("/pages")
	pages.Use(middleware.RequireTenantContext)
	pages.GET("", pageHandler.List, middleware.Authorize(guard, authz.Query, "pages"))
	pages.GET("/:id", pageHandler.Get, middleware.Authorize(guard, authz.Query, "pages"))
	pages.POST("", pageHandler.Create, middleware.Authorize(guard, authz.Mutation, "pages.create"))
	pages.PATCH("/:id", pageHandler.Update, middleware.Authorize(guard, authz.Mutation, "pages.update"))
	pages.DELETE("/:id", pageHandler.Delete, middleware.Authorize(guard, authz.Mutation, "pages.delete"))

	products := api.Group("/products")
	products.Use(middleware.RequireTenantContext)
	products.GET("", productHandler.List, middleware.Authorize(guard, authz.Query, "products"))
	products.GET("/:id", productHandler.Get, middleware.Authorize(guard, authz.Query, "products"))
	products.POST("", productHandler.Create, middleware.Authorize(guard, authz.Mutation, "products.create"))
	products.PUT("", productHandler.Upsert, middleware.Authorize(guard, authz.Mutation, "products.upsert"))
	products.PATCH("/:id/stock", productHandler.UpdateStock, middleware.Authorize(guard, authz.Mutation, "products.update"))
	products.DELETE("/:id", productHandler.Delete, middleware.Authorize(guard, authz.Mutation, "products.delete"))

	bookings := api.Group("/bookings")
	bookings.Use(middleware.RequireTenantContext)
	bookings.GET("", bookingHandler.List, middleware.Authorize(guard, authz.Query, "bookings"))
	bookings.POST("", bookingHandler.Create, middleware.Authorize(guard, authz.Mutation, "bookings.create"))
	bookings.POST("/:id/confirm", bookingHandler.Confirm, middleware.Authorize(guard, authz.Mutation, "bookings.create"))
	bookings.POST("/:id/cancel", bookingHandler.Cancel, middleware.Authorize(guard, authz.Mutation, "bookings.cancel"))

	employees := api.Group("/employees")
	employees.Use(middleware.RequireTenantContext)
	employees.GET("", employeeHandler.List, middleware.Authorize(guard, authz.Query, "employees"))
	employees.GET("/:id", employeeHandler.Get, middleware.Authorize(guard, authz.Query, "employees"))
	employees.POST("", employeeHandler.Create, middleware.Authorize(guard, authz.Mutation, "employees.create"))
	employees.PATCH("/:id", employeeHandler.Update, middleware.Authorize(guard, authz.Mutation, "employees.update"))
	employees.DELETE("/:id", employeeHandler.Delete, middleware.Authorize(guard, authz.Mutation, "employees.delete"))

	// Platform admin routes run in explicit no-scoping mode. The tenant
	// resolver is deliberately absent here: binding a tenant and entering
	// no-scoping mode on the same request is a fatal misconfiguration the
	// tenancy plugin rejects.
	admin := e.Group("/admin")
	admin.Use(authMW.Authenticate)
	admin.Use(middleware.PlatformScope)
	admin.GET("/pages", pageHandler.AdminList, middleware.Authorize(guard, authz.Query, "admin.pages"))
	admin.PATCH("/tenants/:id/features", tenantHandler.UpdateFeatures, middleware.Authorize(guard, authz.Mutation, "tenants.features"))
	admin.PATCH("/tenants/:id/status", tenantHandler.UpdateStatus, middleware.Authorize(guard, authz.Mutation, "tenants.status"))

	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
