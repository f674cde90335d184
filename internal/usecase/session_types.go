package usecase

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"tapedeck/internal/ports"
)

const (
	sourceMicrophone  = "mic"
	sourceSystemAudio = "system"
)

type captureStream struct {
	source string
	audio  ports.AudioSession
	out    io.WriteCloser
	done   chan struct{}
}

type activeRecording struct {
	id     string
	modeID string
	cancel func()

	streams  []*captureStream
	tickDone chan struct{}
	paused   atomic.Bool
	stopping atomic.Bool

	mu        sync.Mutex
	elapsed   time.Duration
	resumedAt time.Time
}

// duration is the recorded time excluding paused spans.
func (r *activeRecording) duration(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused.Load() {
		return r.elapsed
	}
	return r.elapsed + now.Sub(r.resumedAt)
}

func (r *activeRecording) pause(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused.Load() {
		return false
	}
	r.elapsed += now.Sub(r.resumedAt)
	r.paused.Store(true)
	return true
}

func (r *activeRecording) resume(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.paused.Load() {
		return false
	}
	r.resumedAt = now
	r.paused.Store(false)
	return true
}
