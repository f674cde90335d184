package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapedeck/internal/domain"
)

func TestTrackerAddSetsFirstSessionCurrent(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	require.NoError(t, tracker.Add(info("a")))
	require.NoError(t, tracker.Add(info("b")))

	current, ok := tracker.Current()
	require.True(t, ok)
	assert.Equal(t, "a", current.ID)
	assert.Equal(t, domain.SessionStateCreated, current.State)
	assert.Len(t, tracker.Sessions(), 2)
}

func TestTrackerAddRejectsInvalidIDs(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	require.NoError(t, tracker.Add(info("a")))
	assert.ErrorIs(t, tracker.Add(info("a")), ErrDuplicateSession)
	assert.ErrorIs(t, tracker.Add(info("")), ErrInvalidSession)
	assert.Len(t, tracker.Sessions(), 1)
}

func TestTrackerRemovePromotesFirstRemaining(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	require.NoError(t, tracker.Add(info("a")))
	require.NoError(t, tracker.Add(info("b")))

	tracker.Remove("a")
	current, ok := tracker.Current()
	require.True(t, ok)
	assert.Equal(t, "b", current.ID)

	tracker.Remove("b")
	_, ok = tracker.Current()
	assert.False(t, ok)
	assert.Empty(t, tracker.Snapshot().CurrentSessionID)
}

func TestTrackerRemoveNonCurrentKeepsFocus(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	require.NoError(t, tracker.Add(info("a")))
	require.NoError(t, tracker.Add(info("b")))
	require.NoError(t, tracker.Add(info("c")))
	require.NoError(t, tracker.SetCurrent("c"))

	tracker.Remove("a")
	tracker.Remove("missing")
	current, _ := tracker.Current()
	assert.Equal(t, "c", current.ID)
}

func TestTrackerUpdatesIgnoreUnknownIDs(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	require.NoError(t, tracker.Add(info("a")))

	tracker.UpdateState("a", domain.SessionStateRecording)
	tracker.UpdateDuration("a", 3*time.Second)
	tracker.UpdateState("ghost", domain.SessionStateCompleted)
	tracker.UpdateDuration("ghost", time.Minute)

	got, ok := tracker.Get("a")
	require.True(t, ok)
	assert.Equal(t, domain.SessionStateRecording, got.State)
	assert.Equal(t, 3*time.Second, got.Duration)
	assert.Len(t, tracker.Sessions(), 1)
}

func TestTrackerSetCurrentIsStrict(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	require.NoError(t, tracker.Add(info("a")))
	require.NoError(t, tracker.Add(info("b")))

	assert.ErrorIs(t, tracker.SetCurrent("ghost"), ErrSessionNotFound)
	current, _ := tracker.Current()
	assert.Equal(t, "a", current.ID)

	require.NoError(t, tracker.SetCurrent("b"))
	current, _ = tracker.Current()
	assert.Equal(t, "b", current.ID)

	require.NoError(t, tracker.SetCurrent(""))
	_, ok := tracker.Current()
	assert.False(t, ok)
}

func TestTrackerDerivedFlags(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	assert.False(t, tracker.HasActive())

	require.NoError(t, tracker.Add(info("a")))
	require.NoError(t, tracker.Add(info("b")))
	assert.False(t, tracker.HasRecording())
	assert.False(t, tracker.HasPaused())
	assert.False(t, tracker.HasActive())

	tracker.UpdateState("b", domain.SessionStatePaused)
	assert.True(t, tracker.HasPaused())
	assert.True(t, tracker.HasActive())
	assert.False(t, tracker.HasRecording())
	_, ok := tracker.Recording()
	assert.False(t, ok)

	tracker.UpdateState("a", domain.SessionStateRecording)
	tracker.UpdateState("b", domain.SessionStateRecording)
	recording, ok := tracker.Recording()
	require.True(t, ok)
	assert.Equal(t, "a", recording.ID)
	assert.True(t, tracker.HasRecording())

	tracker.UpdateState("a", domain.SessionStateCompleted)
	tracker.UpdateState("b", domain.SessionStateError)
	assert.False(t, tracker.HasActive())
}

func TestTrackerClearAndListener(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	var snapshots []domain.SessionsSnapshot
	tracker.OnChange(func(s domain.SessionsSnapshot) { snapshots = append(snapshots, s) })

	require.NoError(t, tracker.Add(info("a")))
	tracker.UpdateState("a", domain.SessionStateRecording)
	tracker.UpdateState("ghost", domain.SessionStateRecording)
	tracker.Clear()

	require.Len(t, snapshots, 3)
	assert.Equal(t, "a", snapshots[0].CurrentSessionID)
	assert.Equal(t, domain.SessionStateRecording, snapshots[1].Sessions[0].State)
	assert.Empty(t, snapshots[2].Sessions)
	assert.Empty(t, snapshots[2].CurrentSessionID)
	assert.Empty(t, tracker.Sessions())
}

func TestTrackerListenerSeesMutationOrder(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	require.NoError(t, tracker.Add(info("a")))

	var mu sync.Mutex
	var snapshots []domain.SessionsSnapshot
	tracker.OnChange(func(s domain.SessionsSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, s)
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 200; i++ {
			tracker.UpdateDuration("a", time.Duration(i)*time.Second)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			state := domain.SessionStatePaused
			if i%2 == 1 {
				state = domain.SessionStateRecording
			}
			tracker.UpdateState("a", state)
		}
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snapshots)
	for i := 1; i < len(snapshots); i++ {
		assert.GreaterOrEqual(t, snapshots[i].Sessions[0].Duration, snapshots[i-1].Sessions[0].Duration, "delivery %d", i)
	}
	assert.Equal(t, tracker.Snapshot(), snapshots[len(snapshots)-1])
}

func info(id string) domain.SessionInfo {
	return domain.SessionInfo{
		ID:        id,
		ModeID:    "meeting",
		StartTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
