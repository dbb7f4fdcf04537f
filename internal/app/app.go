package app

import (
	"fmt"
	"net/http"

	"pocket-ledger-go/internal/config"
	"pocket-ledger-go/internal/db"
	fxdomain "pocket-ledger-go/internal/domain/fx"
	ledgerdomain "pocket-ledger-go/internal/domain/ledger"
	userdomain "pocket-ledger-go/internal/domain/user"
	"pocket-ledger-go/internal/repository/fxapi"
	"pocket-ledger-go/internal/repository/inmemory"
	ledgerrepo "pocket-ledger-go/internal/repository/ledger"
	userrepo "pocket-ledger-go/internal/repository/user"
	"pocket-ledger-go/internal/transport/httpserver"
	"pocket-ledger-go/internal/transport/httpserver/handler"
	"pocket-ledger-go/pkg/logger"

	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database", "driver", cfg.DB.Driver)
	dbConn, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := dbConn.DB()
	if err != nil {
		return nil, err
	}

	if cfg.DB.AutoMigrate {
		log.Info("app: applying migrations")
		if err := db.Migrate(dbConn); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	log.Info("app: initializing services")
	ledgerService := ledgerdomain.NewServiceWithCategoriesCache(
		ledgerrepo.NewGorm(dbConn),
		inmemory.NewInMemoryCategoriesCache(),
		cfg.CategoriesCacheTTL,
	)
	userService := userdomain.NewService(userrepo.NewGorm(dbConn))

	var provider fxdomain.Provider
	if cfg.FX.Enabled {
		provider = fxapi.NewClient(cfg.FX.BaseURL, cfg.FX.Timeout)
	} else {
		log.Warn("app: exchange rate provider disabled")
	}
	fxService := fxdomain.NewService(provider, inmemory.NewInMemoryRatesCache(), cfg.FX.CacheTTL)

	log.Info("app: initializing router")
	handlers := handler.New(ledgerService, userService, fxService, sqlDB.PingContext, log)
	router := httpserver.NewRouter(cfg, handlers, userService, log)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
