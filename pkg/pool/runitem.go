package pool

import (
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// newPoolID stamps a pool with a correlation id used only in log fields, so
// worker log lines from several pools in the same process can be told
// apart.
func newPoolID() string {
	return uuid.NewString()
}

var poolSeq atomic.Uint64

// newPoolSeq returns a small process-unique, non-zero numeric pool id for
// use as the gls registry key, which needs a cheap comparable value rather
// than a uuid string.
func newPoolSeq() uint64 {
	return poolSeq.Add(1)
}

// runContained invokes item, recovering any panic so a misbehaving work
// item can never take its worker down with it: contain, never abort the
// worker loop. A nil item is a no-op, matching Submit's "silently dropped"
// contract one layer up for any code path that reaches here with one
// anyway.
func runContained(item WorkItem, workerID int, logger *zap.Logger, onFail func(int, any)) {
	if item == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("work item panicked; worker contained it and continues",
				zap.Int("worker_id", workerID),
				zap.Any("recovered", r),
			)
			onFail(workerID, r)
		}
	}()
	item()
}
