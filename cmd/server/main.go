package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request logging, recovery, body limits
	"github.com/labstack/gommon/log"                // leveled logger shared with echo

	"github.com/iliyamo/venue-seatmap/internal/cart"       // Redis backed seat carts
	"github.com/iliyamo/venue-seatmap/internal/config"     // Internal config loader
	"github.com/iliyamo/venue-seatmap/internal/database"   // MySQL connection
	"github.com/iliyamo/venue-seatmap/internal/handler"    // HTTP handlers
	"github.com/iliyamo/venue-seatmap/internal/middleware" // cache + rate limit
	"github.com/iliyamo/venue-seatmap/internal/queue"      // selection event consumer
	"github.com/iliyamo/venue-seatmap/internal/repository" // venue stores
	"github.com/iliyamo/venue-seatmap/internal/router"     // Internal router setup
	"github.com/iliyamo/venue-seatmap/internal/service"    // selection event publisher
	"github.com/iliyamo/venue-seatmap/internal/session"    // interactive sessions
)

func main() {
	cfg := config.Load() // Load environment config
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	e.HTTPErrorHandler = handler.NewErrorHandler(cfg.Env != "prod")
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))

	venues, closeVenues, err := openVenues(cfg)
	if err != nil {
		e.Logger.Fatalf("venues: %v", err)
	}
	defer closeVenues()

	rdb := config.NewRedisClient() // nil disables carts, caching and rate limiting
	if rdb != nil {
		defer rdb.Close()
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}

	sessions := session.NewManager(0)
	go janitor(ctx, sessions, cfg.Session)

	cacheCfg := config.LoadCacheConfig()
	vh := &handler.VenueHandler{
		Venues:        venues,
		Sessions:      sessions,
		DefaultWidth:  cfg.Session.DefaultWidth,
		DefaultHeight: cfg.Session.DefaultHeight,
		MaxWidth:      cfg.Session.MaxWidth,
		MaxHeight:     cfg.Session.MaxHeight,
	}
	sh := &handler.SessionHandler{
		Venues:        venues,
		Sessions:      sessions,
		Logger:        e.Logger,
		DefaultWidth:  cfg.Session.DefaultWidth,
		DefaultHeight: cfg.Session.DefaultHeight,
		MaxWidth:      cfg.Session.MaxWidth,
		MaxHeight:     cfg.Session.MaxHeight,
	}
	ready := &handler.ReadyHandler{Venues: venues, Sessions: sessions}

	var cache echo.MiddlewareFunc
	if rdb != nil {
		cache = middleware.NewRedisCache(cacheCfg, rdb)
		vh.Purge = func(ctx context.Context, venueID string) error {
			return middleware.PurgeVenue(ctx, cacheCfg, rdb, venueID)
		}
		sh.Carts = cart.NewStore(rdb, cfg.Cart.Prefix, cfg.Cart.TTL)
		ready.Ping = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	if cfg.Events {
		pub := service.NewPublisher(cfg.AMQPURL, 0)
		sh.OnSelect = append(sh.OnSelect, pub.SelectionListener())
		go pub.Run(ctx)
		go func() {
			if err := queue.StartSelectionConsumer(ctx, cfg.AMQPURL, cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("selection consumer stopped: %v", err)
			}
		}()
	}

	router.RegisterRoutes(e, ready)
	router.RegisterPublic(e, vh, cache)
	router.RegisterOwner(e, vh, cfg.JWTSecret)
	router.RegisterSessions(e, sh, cfg.JWTSecret)

	addr := ":" + cfg.Port // Address string with port
	e.Logger.Infof("listening on %s (env=%s, venues=%s, redis=%t)", addr, cfg.Env, cfg.VenueSource, rdb != nil)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Errorf("shutdown: %v", err)
	}
}

// openVenues returns the configured venue source and a close func.
func openVenues(cfg config.Config) (handler.VenueStore, func(), error) {
	if cfg.VenueSource == config.VenueSourceMySQL {
		db, err := database.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewVenueRepo(db), func() { db.Close() }, nil
	}
	store, err := repository.LoadVenueDir(cfg.VenueDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// janitor purges idle sessions until ctx is cancelled.
func janitor(ctx context.Context, sessions *session.Manager, cfg config.SessionConfig) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.CleanupOldSessions(cfg.TTL); n > 0 {
				log.Infof("purged %d idle sessions", n)
			}
		}
	}
}
