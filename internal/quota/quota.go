package quota

import (
	"sync"
	"time"

	"github.com/xaenox/assistant-relay/internal/models"
	"github.com/xaenox/assistant-relay/internal/storage"
	"go.uber.org/zap"
)

// DefaultDailyLimit is the global number of questions answered per calendar day.
const DefaultDailyLimit = 100

// Keeper enforces the daily message cap on top of a UsageStore. The stored
// date is compared lazily on each check, so a counter left over from
// yesterday counts as zero without any midnight reset job. All
// read-modify-write cycles run under one mutex so concurrent answers never
// lose an increment.
type Keeper struct {
	mu     sync.Mutex
	store  storage.UsageStore
	limit  int
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Keeper)

// WithClock replaces the wall clock, used by day-rollover tests.
func WithClock(now func() time.Time) Option {
	return func(k *Keeper) {
		k.now = now
	}
}

func NewKeeper(store storage.UsageStore, limit int, logger *zap.Logger, opts ...Option) *Keeper {
	k := &Keeper{
		store:  store,
		limit:  limit,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Allow reports whether another question fits under today's cap, along with
// the effective count so far. An unreadable counter is treated as a fresh
// day rather than blocking the chat.
func (k *Keeper) Allow() (bool, int) {
	k.mu.Lock()
	defer k.mu.Unlock()

	count := k.effectiveCount()
	return count < k.limit, count
}

// Record bumps today's counter by one. Called only after a successful
// answer; a failed write must not block delivery, so the caller just logs
// the returned error.
func (k *Keeper) Record() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	count := k.effectiveCount()
	return k.store.SetCounter(models.UsageCounter{
		Date:  k.today(),
		Count: count + 1,
	})
}

func (k *Keeper) effectiveCount() int {
	counter, err := k.store.GetCounter()
	if err != nil {
		k.logger.Warn("Failed to read usage counter, treating as fresh", zap.Error(err))
		return 0
	}
	return counter.EffectiveCount(k.today())
}

func (k *Keeper) today() string {
	return k.now().Format(models.DateLayout)
}
