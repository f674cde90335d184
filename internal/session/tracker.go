// Package session tracks recording sessions and which one has UI focus.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"tapedeck/internal/domain"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrDuplicateSession = errors.New("session already tracked")
	ErrInvalidSession   = errors.New("invalid session")
)

// Tracker holds the open sessions in insertion order plus the current session pointer.
// Updates for unknown ids are ignored so timer ticks for a removed session are harmless.
type Tracker struct {
	mu       sync.Mutex
	sessions []domain.SessionInfo
	current  string
	onChange func(domain.SessionsSnapshot)
	version  uint64

	notifyMu  sync.Mutex
	delivered uint64
}

// change is a snapshot taken in the same critical section as the mutation it follows.
type change struct {
	version  uint64
	snapshot domain.SessionsSnapshot
	notify   func(domain.SessionsSnapshot)
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// OnChange registers a listener called with a snapshot after every mutation. Calls are
// serialized in mutation order and the listener must not mutate the tracker.
func (t *Tracker) OnChange(fn func(domain.SessionsSnapshot)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Add appends a session in the created state. It becomes current if none is.
func (t *Tracker) Add(info domain.SessionInfo) error {
	if info.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidSession)
	}
	if info.State == "" {
		info.State = domain.SessionStateCreated
	}

	t.mu.Lock()
	if t.indexLocked(info.ID) >= 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateSession, info.ID)
	}
	t.sessions = append(t.sessions, info)
	if t.current == "" {
		t.current = info.ID
	}
	c := t.commitLocked()
	t.mu.Unlock()

	t.publish(c)
	return nil
}

func (t *Tracker) UpdateState(id string, state domain.SessionState) {
	t.mutate(id, func(info *domain.SessionInfo) { info.State = state })
}

func (t *Tracker) UpdateDuration(id string, duration time.Duration) {
	t.mutate(id, func(info *domain.SessionInfo) { info.Duration = duration })
}

// Remove drops a session. If it was current, the first remaining session takes over.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	index := t.indexLocked(id)
	if index < 0 {
		t.mu.Unlock()
		return
	}
	t.sessions = append(t.sessions[:index], t.sessions[index+1:]...)
	if t.current == id {
		t.current = ""
		if len(t.sessions) > 0 {
			t.current = t.sessions[0].ID
		}
	}
	c := t.commitLocked()
	t.mu.Unlock()

	t.publish(c)
}

// SetCurrent moves UI focus. An empty id clears it; an unknown id is rejected.
func (t *Tracker) SetCurrent(id string) error {
	t.mu.Lock()
	if id != "" && t.indexLocked(id) < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	t.current = id
	c := t.commitLocked()
	t.mu.Unlock()

	t.publish(c)
	return nil
}

func (t *Tracker) Clear() {
	t.mu.Lock()
	t.sessions = nil
	t.current = ""
	c := t.commitLocked()
	t.mu.Unlock()

	t.publish(c)
}

func (t *Tracker) Get(id string) (domain.SessionInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	index := t.indexLocked(id)
	if index < 0 {
		return domain.SessionInfo{}, false
	}
	return t.sessions[index], true
}

func (t *Tracker) Current() (domain.SessionInfo, bool) {
	t.mu.Lock()
	id := t.current
	t.mu.Unlock()
	if id == "" {
		return domain.SessionInfo{}, false
	}
	return t.Get(id)
}

func (t *Tracker) Sessions() []domain.SessionInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.SessionInfo{}, t.sessions...)
}

func (t *Tracker) Snapshot() domain.SessionsSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) HasRecording() bool {
	return t.any(domain.SessionStateRecording)
}

func (t *Tracker) HasPaused() bool {
	return t.any(domain.SessionStatePaused)
}

func (t *Tracker) HasActive() bool {
	return t.any(domain.SessionStateRecording, domain.SessionStatePaused)
}

// Recording returns the first session in the recording state. The tracker does not
// enforce a single recording session.
func (t *Tracker) Recording() (domain.SessionInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, info := range t.sessions {
		if info.State == domain.SessionStateRecording {
			return info, true
		}
	}
	return domain.SessionInfo{}, false
}

func (t *Tracker) any(states ...domain.SessionState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, info := range t.sessions {
		for _, state := range states {
			if info.State == state {
				return true
			}
		}
	}
	return false
}

func (t *Tracker) mutate(id string, apply func(info *domain.SessionInfo)) {
	t.mu.Lock()
	index := t.indexLocked(id)
	if index < 0 {
		t.mu.Unlock()
		return
	}
	apply(&t.sessions[index])
	c := t.commitLocked()
	t.mu.Unlock()

	t.publish(c)
}

func (t *Tracker) indexLocked(id string) int {
	for i, info := range t.sessions {
		if info.ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) snapshotLocked() domain.SessionsSnapshot {
	return domain.SessionsSnapshot{
		Sessions:         append([]domain.SessionInfo{}, t.sessions...),
		CurrentSessionID: t.current,
	}
}

func (t *Tracker) commitLocked() change {
	t.version++
	return change{version: t.version, snapshot: t.snapshotLocked(), notify: t.onChange}
}

// publish delivers a committed snapshot unless a newer one already went out.
func (t *Tracker) publish(c change) {
	if c.notify == nil {
		return
	}
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()
	if c.version <= t.delivered {
		return
	}
	t.delivered = c.version
	c.notify(c.snapshot)
}
