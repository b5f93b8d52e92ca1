// Package server hosts the HTTP demo's handler and wiring: an admission
// gate bounds how many requests are dispatched into the pool at once, and
// each admitted request runs as a cooperative Task whose body alternates
// CPU-bound spinning with a SleepFor suspension, simulating a handler that
// does some computation, awaits an I/O-bound step, then finishes with more
// computation.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/taskforge/taskforge/internal/admission"
	"github.com/taskforge/taskforge/pkg/pool"
	"github.com/taskforge/taskforge/pkg/poolconfig"
	"github.com/taskforge/taskforge/pkg/runtime"
)

// Config collects everything Run needs to start serving.
type Config struct {
	Addr         string
	PoolKind     string
	Workers      int
	MinWorkers   int
	AdmissionCap int
	IdleTimeout  time.Duration
	Logger       *zap.Logger
}

// Run builds the pool, the cooperative scheduler, and the HTTP server
// described by cfg, and serves until the listener fails or is closed. It
// never returns nil: http.ListenAndServe's own shutdown contract applies.
func Run(cfg Config) error {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 2 * time.Second
	}

	p, err := poolconfig.Build(poolconfig.Config{
		Kind:        poolconfig.Kind(cfg.PoolKind),
		N:           cfg.Workers,
		Min:         cfg.MinWorkers,
		Max:         cfg.Workers,
		IdleTimeout: cfg.IdleTimeout,
	}, pool.WithLogger(cfg.Logger))
	if err != nil {
		return fmt.Errorf("server: build pool: %w", err)
	}
	defer p.Close() //nolint:errcheck

	sched := runtime.NewScheduler(p, runtime.WithLogger(cfg.Logger))
	gate := admission.New(cfg.AdmissionCap)
	defer gate.Close()

	h := &workHandler{sched: sched, gate: gate, logger: cfg.Logger}

	mux := http.NewServeMux()
	mux.Handle("/work", h)

	cfg.Logger.Info("httpdemo: listening",
		zap.String("addr", cfg.Addr),
		zap.String("pool_kind", cfg.PoolKind),
	)
	return http.ListenAndServe(cfg.Addr, mux)
}

type workHandler struct {
	sched  *runtime.Scheduler
	gate   *admission.Gate
	logger *zap.Logger
}

type workResponse struct {
	Endpoint string `json:"endpoint"`
	CPU1US   int64  `json:"cpu1_us"`
	IOUS     int64  `json:"io_us"`
	CPU2US   int64  `json:"cpu2_us"`
	TotalUS  int64  `json:"total_us"`
}

func (h *workHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusBadRequest)
		return
	}

	cpu1, err1 := parseMicros(r.URL.Query().Get("cpu1"))
	ioUS, err2 := parseMicros(r.URL.Query().Get("io"))
	cpu2, err3 := parseMicros(r.URL.Query().Get("cpu2"))
	if err1 != nil || err2 != nil || err3 != nil {
		http.Error(w, "malformed query", http.StatusBadRequest)
		return
	}

	h.gate.Acquire()
	defer h.gate.Release()

	task := runtime.NewTask(h.sched, func(c *runtime.Ctx, fin func(workResponse, error)) {
		busySpin(cpu1)
		c.SleepFor(time.Duration(ioUS)*time.Microsecond, func() {
			busySpin(cpu2)
			fin(workResponse{
				Endpoint: "/work",
				CPU1US:   cpu1,
				IOUS:     ioUS,
				CPU2US:   cpu2,
				TotalUS:  cpu1 + ioUS + cpu2,
			}, nil)
		})
	})

	resp, err := runtime.SyncWait(h.sched, task)
	if err != nil {
		h.logger.Warn("httpdemo: task failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func parseMicros(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("server: invalid microsecond value %q", s)
	}
	return v, nil
}

// busySpin burns approximately us microseconds of CPU time, a deliberately
// wasteful stand-in for "cpu work" in the work endpoint.
func busySpin(us int64) {
	if us <= 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}
