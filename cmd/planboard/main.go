package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/dukerupert/planboard/internal/calendar"
	"github.com/dukerupert/planboard/internal/config"
	"github.com/dukerupert/planboard/internal/database"
	"github.com/dukerupert/planboard/internal/i18n"
	"github.com/dukerupert/planboard/internal/logging"
	"github.com/dukerupert/planboard/internal/server"
	"github.com/dukerupert/planboard/internal/source/booking"
	"github.com/dukerupert/planboard/internal/source/holiday"
	"github.com/dukerupert/planboard/internal/source/ics"
	"github.com/dukerupert/planboard/internal/store"
	ws "github.com/dukerupert/planboard/internal/websocket"
)

func main() {
	rt, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(rt.LogLevel, rt.LogFormat)

	loc, err := time.LoadLocation(rt.TimeZone)
	if err != nil {
		logger.Error("failed to load time zone", "timezone", rt.TimeZone, "error", err)
		os.Exit(1)
	}

	file, err := config.LoadFile(rt.OptionsFile)
	if err != nil {
		logger.Error("failed to load options file", "path", rt.OptionsFile, "error", err)
		os.Exit(1)
	}
	if file.Options.Locale == "" {
		file.Options.Locale = rt.Locale
	}

	db, err := database.Open(rt.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hub := ws.NewHub(logger.With("component", "websocket"))
	tr := i18n.New(file.Options.Locale)

	cal := calendar.New(rt.Calendar, file.Options,
		calendar.WithLogger(logger.With("component", "calendar")),
		calendar.WithTranslator(tr),
		calendar.WithParallelFetch(),
	)

	// Options changed at runtime win over the file.
	ctx := context.Background()
	if saved, err := store.NewSettingsStore(db).GetAll(ctx, rt.Calendar); err != nil {
		logger.Warn("failed to load saved options", "error", err)
	} else if len(saved) > 0 {
		if err := cal.SetParams(saved); err != nil {
			logger.Warn("ignoring saved options", "error", err)
		} else {
			logger.Info("applied saved options", "params", len(saved))
		}
	}

	bookings := booking.New(store.NewBookingStore(db), store.NewRoomStore(db),
		booking.WithBaseURL(rt.BaseURL),
		booking.WithBroadcaster(hub),
		booking.WithLogger(logger.With("component", "booking")),
	)
	if err := cal.AddSource(holiday.New(), ""); err != nil {
		logger.Error("failed to add holiday source", "error", err)
		os.Exit(1)
	}
	if err := cal.AddSource(bookings, ""); err != nil {
		logger.Error("failed to add booking source", "error", err)
		os.Exit(1)
	}

	feeds := make([]*ics.Source, 0, len(file.Feeds))
	for _, f := range file.Feeds {
		src := ics.New(f, ics.WithLocation(loc), ics.WithLogger(logger.With("component", "ics", "feed", f.Name)))
		if err := cal.AddSource(src, f.Name); err != nil {
			logger.Error("failed to add feed", "feed", f.Name, "error", err)
			os.Exit(1)
		}
		feeds = append(feeds, src)
	}

	cal.SetClickHandler(func(ctx context.Context, at time.Time) error {
		hub.Broadcast(ws.NewMessage(rt.Calendar, "", "slot_selected", 0, map[string]any{
			"start": at.Format(time.RFC3339),
		}))
		return nil
	})

	var refresher *ics.Refresher
	if len(feeds) > 0 {
		refresher, err = ics.NewRefresher(rt.RefreshCron, loc, hub, logger.With("component", "ics"), feeds...)
		if err != nil {
			logger.Error("failed to schedule feed refresh", "error", err)
			os.Exit(1)
		}
		go refresher.RefreshAll(ctx)
		refresher.Start()
	}

	srv := server.New(db, hub, server.Config{
		Calendar:   cal,
		Translator: tr,
		Location:   loc,
		Origins:    rt.Origins,
		WriteLimit: rt.WriteLimit,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + rt.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	go func() {
		logger.Info("planboard running", "addr", "http://localhost:"+rt.Port, "calendar", rt.Calendar, "feeds", len(feeds))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(cleanupDone)
	if refresher != nil {
		select {
		case <-refresher.Stop().Done():
		case <-time.After(10 * time.Second):
			logger.Warn("feed refresh still running at shutdown")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
