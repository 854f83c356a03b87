package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TriggerFunc is called once a day by DailyTrigger
type TriggerFunc func(ctx context.Context) error

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultDailyTriggerConfig returns default daily trigger configuration
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		Hour:          2,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

// DailyTrigger calls a function once per day at a configured wall-clock time
type DailyTrigger struct {
	config DailyTriggerConfig
	fn     TriggerFunc
	logger *zap.Logger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger creates a new daily trigger
func NewDailyTrigger(config DailyTriggerConfig, fn TriggerFunc, logger *zap.Logger) *DailyTrigger {
	return &DailyTrigger{
		config: config,
		fn:     fn,
		logger: logger,
		now:    time.Now,
	}
}

// Start starts the trigger loop
func (d *DailyTrigger) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = true
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.runLoop(ctx)

	d.logger.Info("Daily trigger started",
		zap.Int("hour", d.config.Hour),
		zap.Int("minute", d.config.Minute),
		zap.Duration("check_interval", d.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger loop
func (d *DailyTrigger) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Daily trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *DailyTrigger) runLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger fires fn when the clock reaches the configured time,
// at most once per date. Returns true when fn was called.
func (d *DailyTrigger) checkAndTrigger(ctx context.Context) bool {
	now := d.now()
	currentDate := now.Format("2006-01-02")

	d.mu.Lock()
	if d.lastRunDate == currentDate {
		d.mu.Unlock()
		return false
	}
	if now.Hour() != d.config.Hour || now.Minute() != d.config.Minute {
		d.mu.Unlock()
		return false
	}
	d.lastRunDate = currentDate
	d.mu.Unlock()

	d.logger.Info("Daily trigger fired", zap.String("date", currentDate))
	if err := d.fn(ctx); err != nil {
		d.logger.Error("Daily trigger failed", zap.Error(err))
	}
	return true
}
