package pool

import "go.uber.org/zap"

// settings collects the values every constructor's functional options can
// set: a private struct filled in by Option closures before the pool is
// built, so new knobs never need a new constructor signature.
type settings struct {
	logger         *zap.Logger
	onWorkItemFail func(workerID int, recovered any)
}

func defaultSettings() *settings {
	return &settings{
		logger:         zap.NewNop(),
		onWorkItemFail: func(int, any) {},
	}
}

// Option configures a pool at construction time.
type Option func(*settings)

// WithLogger attaches a structured logger. Pools log start, worker spawn,
// idle-timeout retirement, and close at Debug (steals are not logged); a
// contained work-item panic logs at Warn. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOnWorkItemPanic registers an observer called, in addition to the
// Warn-level log line, whenever a work item panics. The worker loop has
// already recovered by the time the observer runs; it exists purely for
// side-channel visibility (metrics, tests) and cannot affect containment.
func WithOnWorkItemPanic(fn func(workerID int, recovered any)) Option {
	return func(s *settings) {
		if fn != nil {
			s.onWorkItemFail = fn
		}
	}
}

func applyOptions(opts []Option) *settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	return s
}
