package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/esgdiag/esg-engine/pkg/auth"
	"github.com/esgdiag/esg-engine/pkg/config"
	"github.com/esgdiag/esg-engine/pkg/database"
	"github.com/esgdiag/esg-engine/pkg/handlers"
	"github.com/esgdiag/esg-engine/pkg/logging"
	"github.com/esgdiag/esg-engine/pkg/middleware"
	"github.com/esgdiag/esg-engine/pkg/repositories"
	"github.com/esgdiag/esg-engine/pkg/retry"
	"github.com/esgdiag/esg-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	// The database may still be starting when the service comes up.
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories
	catalogRepo := repositories.NewCatalogRepository()
	diagnosisRepo := repositories.NewDiagnosisRepository()
	responseRepo := repositories.NewResponseRepository()
	certificateRepo := repositories.NewCertificateRepository()
	planRepo := repositories.NewPlanRepository()

	// Services
	catalogService := services.NewCatalogService(catalogRepo, logger)
	entitlementService := services.NewEntitlementService(planRepo, diagnosisRepo, logger)
	diagnosisService := services.NewDiagnosisService(
		diagnosisRepo, responseRepo, catalogRepo, certificateRepo, entitlementService, logger)

	if err := seedCatalog(ctx, db, catalogService, cfg.CatalogSeedPath); err != nil {
		logger.Fatal("Failed to seed questionnaire catalog", zap.Error(err))
	}

	// Authentication
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	tenantMiddleware := handlers.TenantMiddleware(database.WithTenantContext(db, logger))

	// Handlers
	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	catalogHandler := handlers.NewCatalogHandler(catalogService, logger)
	catalogHandler.RegisterRoutes(mux, authMiddleware, tenantMiddleware)

	diagnosisHandler := handlers.NewDiagnosisHandler(diagnosisService, logger)
	diagnosisHandler.RegisterRoutes(mux, authMiddleware, tenantMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting esg-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a production logger for deployed environments and a
// development logger locally.
func newLogger(env string) (*zap.Logger, error) {
	if env == "production" || env == "staging" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// runMigrations applies pending migrations through database/sql, which
// golang-migrate requires.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.MigrationsPath, logger)
}

// seedCatalog upserts the questionnaire catalog inside an untenanted scope;
// catalog tables are global reference data.
func seedCatalog(ctx context.Context, db *database.DB, catalogService services.CatalogService, seedPath string) error {
	scope, err := db.WithoutTenant(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()

	return catalogService.SeedFromFile(database.SetTenantScope(ctx, scope), seedPath)
}
