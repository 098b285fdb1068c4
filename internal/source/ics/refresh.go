package ics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dukerupert/planboard/internal/websocket"
)

// Broadcaster pushes change notifications to open calendars.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

// Refresher reloads feeds on a cron schedule and tells open calendars to
// fetch again.
type Refresher struct {
	cron    *cron.Cron
	feeds   []*Source
	hub     Broadcaster
	timeout time.Duration
	logger  *slog.Logger
}

// NewRefresher schedules a reload of every feed. spec is a standard five
// field cron expression or a descriptor such as "@every 15m".
func NewRefresher(spec string, loc *time.Location, hub Broadcaster, logger *slog.Logger, feeds ...*Source) (*Refresher, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &Refresher{
		cron:    cron.New(cron.WithLocation(loc)),
		feeds:   feeds,
		hub:     hub,
		timeout: time.Minute,
		logger:  logger,
	}
	if _, err := r.cron.AddFunc(spec, func() { r.RefreshAll(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule feed refresh %q: %w", spec, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("feed refresh scheduled", "feeds", len(r.feeds))
}

// Stop cancels future runs. The returned context is done once a running
// refresh has finished.
func (r *Refresher) Stop() context.Context {
	return r.cron.Stop()
}

// RefreshAll reloads every feed. A feed that fails keeps its previous events.
func (r *Refresher) RefreshAll(ctx context.Context) {
	for _, src := range r.feeds {
		fctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := src.Refresh(fctx)
		cancel()
		if err != nil {
			r.logger.Error("refresh feed", "feed", src.Feed().Name, "error", err)
			continue
		}
		if r.hub != nil {
			r.hub.Broadcast(websocket.NewMessage(src.Attached(), src.Name(), "refreshed", 0, nil))
		}
	}
}
