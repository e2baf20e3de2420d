package inventory

import (
	"log/slog"
	"time"

	"github.com/Jujulu67/djlarian-react-sub002/internal/clock"
	"github.com/Jujulu67/djlarian-react-sub002/internal/engine"
)

// Option configures an adapter or reconciler.
type Option func(*settings)

type settings struct {
	resyncDelay  time.Duration
	fetchTimeout time.Duration
	sched        clock.Scheduler
	logger       *slog.Logger
	engineOpts   []engine.Option
}

func newSettings(opts []Option) settings {
	s := settings{
		resyncDelay:  DefaultResyncDelay,
		fetchTimeout: DefaultFetchTimeout,
		sched:        clock.Real{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// dispatcherOptions returns the engine options an adapter passes to its
// dispatcher. Caller-supplied engine options come last and win.
func (s settings) dispatcherOptions(name string, observer engine.Observer) []engine.Option {
	base := []engine.Option{
		engine.WithName(name),
		engine.WithScheduler(s.sched),
		engine.WithLogger(s.logger),
		engine.WithObserver(observer),
	}
	return append(base, s.engineOpts...)
}

// WithResyncDelay sets the debounce before a post-success resync.
// Default: 50ms.
func WithResyncDelay(d time.Duration) Option {
	return func(s *settings) {
		s.resyncDelay = d
	}
}

// WithFetchTimeout bounds background resync fetches. Default: 15s.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.fetchTimeout = d
	}
}

// WithScheduler drives both the dispatcher and the resync timer.
func WithScheduler(sched clock.Scheduler) Option {
	return func(s *settings) {
		s.sched = sched
	}
}

// WithLogger sets the structured logger for the adapter and its dispatcher.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithEngineOptions forwards options to the adapter's dispatcher.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *settings) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}
