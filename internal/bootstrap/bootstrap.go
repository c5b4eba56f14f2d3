package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/academia/internal/app/controllers"
	appMigrations "github.com/yigit/academia/internal/app/migrations"
	"github.com/yigit/academia/internal/app/models"
	appRepos "github.com/yigit/academia/internal/app/repositories"
	appRoutes "github.com/yigit/academia/internal/app/routes"
	appServices "github.com/yigit/academia/internal/app/services"
	"github.com/yigit/academia/internal/config"
	"github.com/yigit/academia/internal/db"
	appMiddleware "github.com/yigit/academia/internal/middleware"
	pkgAuth "github.com/yigit/academia/internal/pkg/auth"
	"github.com/yigit/academia/internal/pkg/helpers"
	"github.com/yigit/academia/internal/pkg/logger"
	"github.com/yigit/academia/internal/pkg/metrics"
	"github.com/yigit/academia/internal/pkg/validation"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware // nil when no JWT secret is configured
	Metrics        *metrics.Metrics              // nil when metrics are disabled
	Logger         zerolog.Logger
}

// ConfigPath returns the YAML config location, overridable with CONFIG_PATH.
func ConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join("configs", "config.yaml")
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: "academia",
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase opens the connection pool and applies pending migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(pool).Up(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		pool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return pool, nil
}

// BuildDependencies wires repositories, services and controllers on top of the pool.
func BuildDependencies(cfg *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(pool)
	deps.Services = appServices.NewServices(deps.Repos, validation.New())

	deps.Controllers = appRoutes.Controllers{
		Health:     appControllers.NewHealthController(pool),
		Students:   appControllers.NewEntityController[models.Student](deps.Services.Students),
		Professors: appControllers.NewEntityController[models.Professor](deps.Services.Professors),
		Employees:  appControllers.NewEntityController[models.Employee](deps.Services.Employees),
	}

	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.New()
		if pool != nil {
			deps.Metrics.RegisterPool(pool)
		}
	}

	if cfg.JWT.Secret == "" {
		lgr.Warn().Msg("JWT_SECRET not set, requests stay anonymous")
		return deps
	}
	jwtService := pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(jwtService)

	return deps
}

// CORSConfig builds the CORS policy for the configured origins.
func CORSConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	// Cookies carry the access token
	c.AllowCredentials = true
	return c
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger())
	router.Use(cors.New(CORSConfig(cfg.CORS.AllowedOrigins)))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(deps.Metrics.Handler()))
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)
	return router
}
