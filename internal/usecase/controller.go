package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tapedeck/internal/domain"
	"tapedeck/internal/mode"
	"tapedeck/internal/ports"
	"tapedeck/internal/session"
)

var (
	ErrNoActiveMode    = errors.New("no primary mode is active")
	ErrNoActiveSession = errors.New("no active recording session")
	ErrNoCaptureDevice = errors.New("no capture device available")
)

// Modes is the slice of the orchestrator the recorder needs.
type Modes interface {
	CurrentPrimary() (mode.Definition, bool)
	NotifySessionStart(ctx context.Context, modeID string, sessionID string)
	NotifySessionEnd(ctx context.Context, modeID string, sessionID string)
}

// Config controls capture and duration tracking.
type Config struct {
	Microphone   ports.AudioConfig
	SystemAudio  ports.AudioConfig
	ChunkSize    int
	TickInterval time.Duration
}

// RecordingController opens tracked sessions under the current primary mode and drives
// their capture processes.
type RecordingController struct {
	tracker *session.Tracker
	modes   Modes
	audio   ports.AudioCapture
	devices ports.DeviceLister
	sink    ports.RecordingSink
	events  ports.EventSink
	log     zerolog.Logger
	cfg     Config

	newID func() string
	now   func() time.Time

	mu     sync.Mutex
	active map[string]*activeRecording
}

func NewRecordingController(
	tracker *session.Tracker,
	modes Modes,
	audio ports.AudioCapture,
	devices ports.DeviceLister,
	sink ports.RecordingSink,
	events ports.EventSink,
	log zerolog.Logger,
	cfg Config,
) *RecordingController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &RecordingController{
		tracker: tracker,
		modes:   modes,
		audio:   audio,
		devices: devices,
		sink:    sink,
		events:  events,
		log:     log.With().Str("component", "recorder").Logger(),
		cfg:     cfg,
		newID:   uuid.NewString,
		now:     time.Now,
		active:  make(map[string]*activeRecording),
	}
}

// Start opens a session under the current primary mode and begins capturing the inputs
// its capabilities ask for.
func (c *RecordingController) Start(ctx context.Context, title string) (domain.SessionInfo, error) {
	def, ok := c.modes.CurrentPrimary()
	if !ok {
		return domain.SessionInfo{}, ErrNoActiveMode
	}

	id := c.newID()
	started := c.now()
	if err := c.tracker.Add(domain.SessionInfo{
		ID:        id,
		ModeID:    def.ID,
		State:     domain.SessionStateCreated,
		StartTime: started,
		Title:     title,
	}); err != nil {
		return domain.SessionInfo{}, err
	}
	c.modes.NotifySessionStart(ctx, def.ID, id)

	// Capture outlives the request context; Stop or a stream failure ends it.
	captureCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rec := &activeRecording{
		id:        id,
		modeID:    def.ID,
		cancel:    cancel,
		tickDone:  make(chan struct{}),
		resumedAt: started,
	}

	streams, err := c.startCapture(captureCtx, id, def.Capabilities)
	if err != nil {
		cancel()
		c.tracker.UpdateState(id, domain.SessionStateError)
		c.events.BackendError(domain.ErrorCodeAudioStart, err.Error())
		c.modes.NotifySessionEnd(ctx, def.ID, id)
		return domain.SessionInfo{}, err
	}
	rec.streams = streams

	c.mu.Lock()
	c.active[id] = rec
	c.mu.Unlock()

	// State is set before the pumps start so an early stream failure wins.
	c.tracker.UpdateState(id, domain.SessionStateRecording)
	_ = c.tracker.SetCurrent(id)

	for _, stream := range streams {
		go c.runPump(rec, stream)
	}
	go tickDuration(c.cfg.TickInterval, captureCtx.Done(), rec.tickDone, func() {
		c.tracker.UpdateDuration(id, rec.duration(c.now()))
	})

	c.log.Info().Str("session", id).Str("mode", def.ID).Int("streams", len(streams)).Msg("Recording started")

	info, _ := c.tracker.Get(id)
	return info, nil
}

// Pause keeps capture running but drops audio and stops the duration clock.
func (c *RecordingController) Pause(id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	now := c.now()
	if rec.pause(now) {
		c.tracker.UpdateState(id, domain.SessionStatePaused)
		c.tracker.UpdateDuration(id, rec.duration(now))
	}
	return nil
}

func (c *RecordingController) Resume(id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	if rec.resume(c.now()) {
		c.tracker.UpdateState(id, domain.SessionStateRecording)
	}
	return nil
}

// Stop ends capture and marks the session completed.
func (c *RecordingController) Stop(ctx context.Context, id string) (domain.SessionInfo, error) {
	rec, err := c.take(id)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	c.finish(ctx, rec, domain.SessionStateCompleted)
	info, _ := c.tracker.Get(id)
	return info, nil
}

// Abort stops capture and drops the session from the tracker.
func (c *RecordingController) Abort(ctx context.Context, id string) error {
	rec, err := c.take(id)
	if err != nil {
		return err
	}
	c.finish(ctx, rec, domain.SessionStateCompleted)
	c.tracker.Remove(id)
	return nil
}

// StopAll completes every running session. Used on shutdown.
func (c *RecordingController) StopAll(ctx context.Context) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		_, _ = c.Stop(ctx, id)
	}
}

func (c *RecordingController) startCapture(ctx context.Context, id string, caps domain.Capabilities) ([]*captureStream, error) {
	type input struct {
		source string
		cfg    ports.AudioConfig
	}
	var configs []input
	if caps.Microphone {
		configs = append(configs, input{sourceMicrophone, c.cfg.Microphone})
	}
	if caps.SystemAudio {
		cfg, ok := c.systemAudioConfig(ctx)
		if ok {
			configs = append(configs, input{sourceSystemAudio, cfg})
		} else {
			c.log.Warn().Str("session", id).Msg("No system audio source found, recording without it")
		}
	}
	if len(configs) == 0 {
		if caps.NeedsCapture() {
			return nil, ErrNoCaptureDevice
		}
		return nil, nil
	}

	streams := make([]*captureStream, 0, len(configs))
	for _, entry := range configs {
		stream, err := c.openStream(ctx, id, entry.source, entry.cfg)
		if err != nil {
			for _, started := range streams {
				_ = started.audio.Stop()
				_ = started.out.Close()
			}
			return nil, err
		}
		streams = append(streams, stream)
	}
	return streams, nil
}

func (c *RecordingController) openStream(ctx context.Context, id string, source string, cfg ports.AudioConfig) (*captureStream, error) {
	out, err := c.sink.Open(id + "." + source)
	if err != nil {
		return nil, fmt.Errorf("open %s recording: %w", source, err)
	}
	audioSession, err := c.audio.Start(ctx, cfg)
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("start %s capture: %w", source, err)
	}
	return &captureStream{source: source, audio: audioSession, out: out, done: make(chan struct{})}, nil
}

func (c *RecordingController) systemAudioConfig(ctx context.Context) (ports.AudioConfig, bool) {
	cfg := c.cfg.SystemAudio
	if cfg.InputDevice != "" {
		return cfg, true
	}
	if c.devices == nil {
		return cfg, false
	}
	sources, err := c.devices.ListAudioSources(ctx)
	if err != nil || len(sources) == 0 {
		if err != nil {
			c.log.Warn().Err(err).Msg("Failed to list system audio sources")
		}
		return cfg, false
	}
	cfg.InputDevice = sources[0].Name
	return cfg, true
}

func (c *RecordingController) runPump(rec *activeRecording, stream *captureStream) {
	err := pumpAudioChunks(stream.audio, stream.out, c.cfg.ChunkSize, rec.paused.Load, stream.done)
	if rec.stopping.Load() {
		return
	}
	// Capture only ends on its own when ffmpeg exits or the device goes away. Whoever
	// takes the recording first decides how it ends.
	taken, takeErr := c.take(rec.id)
	if takeErr != nil {
		return
	}

	detail := fmt.Sprintf("%s capture ended unexpectedly", stream.source)
	if err != nil {
		detail = fmt.Sprintf("%s stream: %v", stream.source, err)
	}
	c.log.Warn().Err(err).Str("session", rec.id).Str("source", stream.source).Msg("Capture stream ended")
	c.events.BackendError(domain.ErrorCodeAudioStream, detail)
	c.finish(context.Background(), taken, domain.SessionStateError)
}

func (c *RecordingController) finish(ctx context.Context, rec *activeRecording, state domain.SessionState) {
	rec.stopping.Store(true)
	final := rec.duration(c.now())

	// Interrupt capture before cancelling its context so ffmpeg can flush.
	for _, stream := range rec.streams {
		if err := stream.audio.Stop(); err != nil {
			c.log.Warn().Err(err).Str("session", rec.id).Str("source", stream.source).Msg("Capture did not stop cleanly")
			c.events.BackendError(domain.ErrorCodeAudioStop, fmt.Sprintf("failed to stop %s capture cleanly", stream.source))
		}
	}
	rec.cancel()
	for _, stream := range rec.streams {
		<-stream.done
		_ = stream.out.Close()
	}
	<-rec.tickDone

	c.tracker.UpdateDuration(rec.id, final)
	c.tracker.UpdateState(rec.id, state)
	c.modes.NotifySessionEnd(ctx, rec.modeID, rec.id)
	c.log.Info().Str("session", rec.id).Str("state", string(state)).Dur("duration", final).Msg("Recording finished")
}

func (c *RecordingController) lookup(id string) (*activeRecording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.active[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoActiveSession, id)
	}
	return rec, nil
}

// take removes the recording from the active set; only the caller that takes it
// may finish it.
func (c *RecordingController) take(id string) (*activeRecording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.active[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoActiveSession, id)
	}
	delete(c.active, id)
	return rec, nil
}
