package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iotgw/config"
	"iotgw/internal/db"
	"iotgw/internal/devices"
	"iotgw/internal/gateways"
	"iotgw/internal/health"
	"iotgw/internal/logs"
	"iotgw/internal/middleware"
	"iotgw/internal/models"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	db     *gorm.DB
	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	// 1) Логи
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	// 2) БД. Ошибка подключения не роняет процесс: пишем в отдельный лог
	// и поднимаемся без БД (останутся только health-ручки).
	if drv := a.cfg.Database.Driver; drv != "" {
		d, err := db.Open(drv, a.cfg.Database.DSN)
		if err != nil {
			logs.DBError(err, drv)
		} else {
			a.db = d
		}
	}

	// ---- DB migrations (only if DB is connected) ----
	if a.db != nil {
		if err := a.db.AutoMigrate(
			&models.Gateway{},
			&models.Device{},
		); err != nil {
			logs.Logger.Errorf("automigrate: %v", err)
		}
		// уникальные индексы-страховки поверх app-уровневых проверок
		if err := db.MigrateUniqueIndexes(a.db); err != nil {
			logs.Logger.Warnf("unique indexes migration: %v", err)
		}
	}

	// 3) Роутер + middleware
	a.Router = mux.NewRouter()
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(middleware.LoggerMW)

	// 4) Health маршруты
	if a.db != nil {
		health.RegisterRoutesWithDB(a.Router, a.db) // /healthz и /readyz
	} else {
		health.RegisterRoutes(a.Router) // только /healthz
	}

	// 5) Шлюзы и устройства
	if a.db != nil {
		gwHTTP := gateways.NewHTTP(gateways.NewRepo(a.db))
		gwHTTP.RegisterRoutes(a.Router)

		devHTTP := devices.NewHTTP(devices.NewRepo(a.db, a.cfg.Devices.MaxPerGateway))
		devHTTP.RegisterRoutes(a.Router)
	}

	a.Router.Walk(func(rt *mux.Route, r *mux.Router, ancestors []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigs; a.cancel() }()

	a.httpServer = &http.Server{
		Addr:         bind,
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.httpServer.Shutdown(ctx)
	return nil
}

var ErrNotInitialized = &initError{"server not initialized (call Initialize(cfg) first)"}

type initError struct{ s string }

func (e *initError) Error() string { return e.s }
