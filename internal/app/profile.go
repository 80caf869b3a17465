package app

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// profiler appends per-frame timings to a CSV file.
type profiler struct {
	mu   sync.Mutex
	file *os.File
	log  *zap.Logger
}

func newProfiler(path string, logger *zap.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Warn("profiler disabled", zap.String("path", path), zap.Error(err))
		return nil
	}
	p := &profiler{file: f, log: logger}
	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		fmt.Fprintln(f, "timestamp,frame,interval_ms,present_ms")
	}
	return p
}

// record logs one frame: the time since the previous frame and how long
// presenting took.
func (p *profiler) record(frame uint64, interval, present time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return
	}
	_, err := fmt.Fprintf(p.file, "%s,%d,%.3f,%.3f\n",
		time.Now().Format(time.RFC3339Nano), frame, ms(interval), ms(present))
	if err != nil {
		p.log.Warn("profiler write failed; disabling", zap.Error(err))
		_ = p.file.Close()
		p.file = nil
	}
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}

func ms(d time.Duration) float64 { return d.Seconds() * 1000 }
