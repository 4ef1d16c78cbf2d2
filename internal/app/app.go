package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/quietday/quietday/internal/config"
	"github.com/quietday/quietday/internal/database"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, database, router, cron, and server lifecycle.
type Application struct {
	cfg    config.Application
	router *mux.Router
	srv    *http.Server
	cron   *cron.Cron
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	// DB + migrations
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	// db will be closed when server shuts down; defer not possible here, leave to process exit.
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// Build dependencies (services, handlers...)
	deps, err := BuildDependencies(db, cfg)
	if err != nil {
		return nil, err
	}

	// Middleware chain
	SetupMiddleware(r, deps, cfg)

	// Routes
	RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	app := &Application{cfg: cfg, router: r, srv: srv}

	// Optional background refresh keeps the cache warm without request traffic.
	if cfg.Refresh.Schedule != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.Refresh.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := deps.ScheduleService.Refresh(ctx, cfg.Feed.Url); err != nil {
				log.Errorf("background refresh failed: %v", err)
			}
		})
		if err != nil {
			return nil, err
		}
		app.cron = c
	}

	return app, nil
}

// Run starts the background refresh (if configured) and the HTTP server, and blocks.
func (a *Application) Run() error {
	if a.cron != nil {
		log.Infof("Starting background refresh with schedule %q", a.cfg.Refresh.Schedule)
		a.cron.Start()
	}
	log.Infof("Starting server on %s", a.srv.Addr)
	return a.srv.ListenAndServe()
}
