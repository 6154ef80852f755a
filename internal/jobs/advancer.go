package jobs

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/mioplatform/mio-backend/internal/platform/envutil"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
	"github.com/mioplatform/mio-backend/internal/services"
)

// Advancer runs the wall-clock advancement sweep on an interval. The
// distributed lease inside the service keeps concurrent instances from
// double-sweeping, so every instance can run one of these.
type Advancer struct {
	log      *logger.Logger
	svc      services.AdvancementService
	interval time.Duration
}

func NewAdvancer(baseLog *logger.Logger, svc services.AdvancementService) *Advancer {
	interval := time.Hour
	if raw := strings.TrimSpace(envutil.Str("ADVANCER_INTERVAL_MINUTES", "")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			interval = time.Duration(n) * time.Minute
		}
	}
	return &Advancer{
		log:      baseLog.With("component", "Advancer"),
		svc:      svc,
		interval: interval,
	}
}

func (a *Advancer) Start(ctx context.Context) {
	go func() {
		a.log.Info("advancer started", "interval", a.interval.String())
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				a.log.Info("advancer stopped")
				return
			case <-ticker.C:
				a.runOnce(ctx)
			}
		}
	}()
}

func (a *Advancer) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("advancement sweep panic", "panic", r)
		}
	}()
	report, err := a.svc.Tick(ctx, time.Now())
	if err != nil {
		a.log.Error("advancement sweep failed", "error", err)
		return
	}
	if report.Skipped {
		return
	}
	if report.Failed > 0 {
		a.log.Warn("advancement sweep finished with failures",
			"failed", report.Failed,
			"processed", report.Processed)
	}
}
