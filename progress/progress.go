package progress

import (
	"sync"
	"time"

	"github.com/kbukum/stagekit/logger"
)

// Reporter receives completion updates for one stage run. Update may be
// called from multiple goroutines; implementations must tolerate that.
type Reporter interface {
	// Start announces the run: total records, and how many were already
	// complete before any work was scheduled (the cache-replay share).
	Start(total, initial int)
	// Update reports that completed of total records are done.
	Update(completed, total int)
	// Done marks the run finished, successfully or not.
	Done()
}

// Factory builds a Reporter for a named stage. Context holds one
// factory so every mapper call gets a fresh reporter.
type Factory func(stage string) Reporter

// Nop returns a factory whose reporters discard all updates.
func Nop() Factory {
	return func(string) Reporter { return nopReporter{} }
}

type nopReporter struct{}

func (nopReporter) Start(int, int) {}
func (nopReporter) Update(int, int) {}
func (nopReporter) Done()           {}

// Log returns a factory producing reporters that log progress through
// log, at most once per interval. An interval of 0 logs every update.
func Log(log *logger.Logger, interval time.Duration) Factory {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return func(stage string) Reporter {
		return &logReporter{
			log:      log.WithComponent("progress").WithStage(stage),
			interval: interval,
		}
	}
}

type logReporter struct {
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	lastLog time.Time
}

func (r *logReporter) Start(total, initial int) {
	r.log.Info("stage started", logger.Fields(
		logger.FieldRecords, total,
		logger.FieldCached, initial,
		logger.FieldPending, total-initial,
	))
}

func (r *logReporter) Update(completed, total int) {
	r.mu.Lock()
	now := time.Now()
	if r.interval > 0 && now.Sub(r.lastLog) < r.interval {
		r.mu.Unlock()
		return
	}
	r.lastLog = now
	r.mu.Unlock()

	r.log.Info("stage progress", logger.Fields(
		logger.FieldComputed, completed,
		logger.FieldRecords, total,
	))
}

func (r *logReporter) Done() {
	r.log.Info("stage finished")
}
