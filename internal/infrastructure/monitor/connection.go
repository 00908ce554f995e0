package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool and the bbolt store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct {
	client *redislib.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// RedisPinger adapts a go-redis client to Pinger.
func RedisPinger(client *redislib.Client) Pinger {
	if client == nil {
		return nil
	}
	return redisPinger{client: client}
}

// Monitor pings the task store and Redis on a cron schedule and keeps the
// latest result for the health endpoint.
type Monitor struct {
	storage Pinger
	driver  string
	redis   Pinger

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

func New(storage Pinger, driver string, redis Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		storage:  storage,
		driver:   driver,
		redis:    redis,
		interval: interval,
		timeout:  3 * time.Second,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start runs one check synchronously, then schedules the rest.
func (m *Monitor) Start() error {
	m.Refresh()
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", m.interval), m.Refresh); err != nil {
		return fmt.Errorf("schedule health check: %w", err)
	}
	m.cron.Start()
	m.logger.Info("health monitor started", zap.Duration("interval", m.interval))
	return nil
}

// Stop waits for a running check to finish or ctx to expire.
func (m *Monitor) Stop(ctx context.Context) error {
	done := m.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Storage && m.status.Redis
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) Refresh() {
	status := Status{
		Driver:    m.driver,
		Storage:   m.check("storage", m.storage),
		Redis:     m.check("redis", m.redis),
		LastCheck: time.Now().UTC(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && (previous.Storage != status.Storage || previous.Redis != status.Redis) {
		m.logger.Warn("dependency status changed",
			zap.Bool("storage", status.Storage),
			zap.Bool("redis", status.Redis))
	}
}

func (m *Monitor) check(name string, p Pinger) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		m.logger.Debug("health check failed", zap.String("dependency", name), zap.Error(err))
		return false
	}
	return true
}
