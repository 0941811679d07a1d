package engine

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/srscore/internal/forgetting"
	"github.com/example/srscore/internal/queue"
	"github.com/example/srscore/internal/spaced_repetition"
)

var (
	// ErrCardSuspended is returned when a review is submitted for a suspended card
	ErrCardSuspended = errors.New("engine: card is suspended")
	// ErrInvalidCard is returned when a card cannot be created from the given input
	ErrInvalidCard = errors.New("engine: invalid card")
)

// Config bundles the settings of every component
type Config struct {
	Scheduling spaced_repetition.Config `mapstructure:"scheduling"`
	Queue      queue.Config             `mapstructure:"queue"`
	Curve      forgetting.Config        `mapstructure:"curve"`
}

// DefaultConfig returns the stock configuration
func DefaultConfig() Config {
	return Config{
		Scheduling: spaced_repetition.DefaultConfig(),
		Queue:      queue.DefaultConfig(),
		Curve:      forgetting.DefaultConfig(),
	}
}

// Engine is the facade over scheduling, curve modelling and queue assembly.
// The curve store is its only mutable state; callers sharing an Engine across
// goroutines must serialise calls.
type Engine struct {
	cfg    Config
	sm2    *spaced_repetition.SM2
	curves *forgetting.Store
	queue  *queue.Manager
	now    func() time.Time
	logger *zap.Logger
}

// Option customises an Engine
type Option func(*Engine)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger; nil keeps the no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCurveStore shares an existing curve store, e.g. one restored from a snapshot
func WithCurveStore(store *forgetting.Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.curves = store
		}
	}
}

// New validates cfg and builds an engine
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Scheduling.Validate(); err != nil {
		return nil, fmt.Errorf("scheduling config: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		sm2:    spaced_repetition.NewSM2(cfg.Scheduling),
		curves: forgetting.NewStore(cfg.Curve),
		queue:  queue.NewManager(cfg.Queue),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.queue.Now = e.now
	return e, nil
}

// Config returns the engine settings
func (e *Engine) Config() Config {
	return e.cfg
}

// Curves exposes the curve store for persistence
func (e *Engine) Curves() *forgetting.Store {
	return e.curves
}

// Now returns the engine clock's current time
func (e *Engine) Now() time.Time {
	return e.now()
}
