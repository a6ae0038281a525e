/*
scheduler.go - Background document expiry sweep

PURPOSE:
  Documents change status without anyone editing them: a visa that is
  "valid" today is "expiring" thirty-one days before it lapses and
  "expired" the day after. The sweep recomputes the expiring/expired set on
  an interval and, when the set differs from the previous sweep, writes an
  audit entry and publishes a documents change so open dashboards refresh.

DESIGN:
  - One background goroutine driven by a ticker
  - Sweeps once immediately on Start
  - The first sweep after start always announces (nothing to compare with)
  - RunNow sweeps synchronously for admins and tests

USAGE:
  scheduler := documents.NewExpiryScheduler(svc, bus, audit, logger, time.Hour)
  scheduler.Start()
  defer scheduler.Stop()
*/
package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"go.uber.org/zap"
)

// SweepResult is the outcome of one sweep.
type SweepResult struct {
	AsOf     string `json:"as_of"`
	Expiring int    `json:"expiring"`
	Expired  int    `json:"expired"`
	Changed  bool   `json:"changed"`
}

// ExpiryScheduler periodically sweeps document expiry.
type ExpiryScheduler struct {
	Service  *Service
	Bus      notify.Publisher
	Audit    generic.AuditLog
	Logger   *zap.Logger
	Interval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	sweepMu sync.Mutex
	last    string
	swept   bool
}

// NewExpiryScheduler creates a scheduler. A non-positive interval means hourly.
func NewExpiryScheduler(svc *Service, bus notify.Publisher, audit generic.AuditLog, logger *zap.Logger, interval time.Duration) *ExpiryScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiryScheduler{
		Service:  svc,
		Bus:      bus,
		Audit:    audit,
		Logger:   logger.Named("expiry"),
		Interval: interval,
	}
}

// Start begins sweeping in the background.
func (es *ExpiryScheduler) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		return
	}
	es.ticker = time.NewTicker(es.Interval)
	es.stop = make(chan struct{})
	es.wg.Add(1)

	go es.run()

	es.Logger.Info("scheduler started", zap.Duration("interval", es.Interval))
}

// Stop stops the scheduler and waits for an in-flight sweep.
func (es *ExpiryScheduler) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker == nil {
		return
	}
	es.ticker.Stop()
	close(es.stop)
	es.wg.Wait()
	es.ticker = nil
	es.Logger.Info("scheduler stopped")
}

func (es *ExpiryScheduler) run() {
	defer es.wg.Done()

	es.sweepLogged()
	for {
		select {
		case <-es.ticker.C:
			es.sweepLogged()
		case <-es.stop:
			return
		}
	}
}

func (es *ExpiryScheduler) sweepLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := es.RunNow(ctx); err != nil {
		es.Logger.Error("sweep failed", zap.Error(err))
	}
}

// RunNow sweeps immediately.
func (es *ExpiryScheduler) RunNow(ctx context.Context) (*SweepResult, error) {
	es.sweepMu.Lock()
	defer es.sweepMu.Unlock()

	entries, err := es.Service.Expiring(ctx)
	if err != nil {
		return nil, err
	}

	res := &SweepResult{AsOf: es.Service.Today().String()}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Status == StatusExpired {
			res.Expired++
		} else {
			res.Expiring++
		}
		keys = append(keys, e.ID+":"+string(e.Status))
	}
	sort.Strings(keys)
	fingerprint := strings.Join(keys, ",")

	res.Changed = !es.swept || fingerprint != es.last
	es.last, es.swept = fingerprint, true

	if res.Changed {
		ctx = generic.WithActor(ctx, generic.SystemActor)
		generic.Record(ctx, es.Audit, generic.AuditExpirySweep, subject, "", map[string]any{
			"as_of":    res.AsOf,
			"expiring": res.Expiring,
			"expired":  res.Expired,
		})
		notify.Publish(ctx, es.Bus, notify.TopicDocuments)
	}

	es.Logger.Info("sweep completed",
		zap.String("as_of", res.AsOf),
		zap.Int("expiring", res.Expiring),
		zap.Int("expired", res.Expired),
		zap.Bool("changed", res.Changed),
	)
	return res, nil
}

// NextRunTime returns when the next scheduled sweep will occur.
func (es *ExpiryScheduler) NextRunTime() time.Time {
	return time.Now().Add(es.Interval)
}
