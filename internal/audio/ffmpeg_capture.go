package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"tapedeck/internal/ports"
)

const (
	startupProbe = 250 * time.Millisecond
	stopGrace    = 1200 * time.Millisecond
	stderrTail   = 4 << 10
)

// FFMPEGCapture records one input device as raw s16le PCM on ffmpeg's stdout. Monitor
// sources work the same way as microphones, so one capture type serves both inputs of a
// meeting.
type FFMPEGCapture struct {
	command string
}

func NewFFMPEGCapture(command string) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command}
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	args := captureArgs(cfg)
	device := args[slices.Index(args, "-i")+1]

	cmd := exec.CommandContext(ctx, c.command, args...)
	stderr := &tailWriter{limit: stderrTail}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture %s: stdout pipe: %w", device, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture %s: %w", device, err)
	}

	session := &ffmpegSession{
		device: device,
		stdout: stdout,
		stderr: stderr,
		proc:   cmd.Process,
		exited: make(chan struct{}),
	}
	go func() {
		session.exitErr = cmd.Wait()
		close(session.exited)
	}()

	// A device that cannot be opened makes ffmpeg exit right away.
	select {
	case <-session.exited:
		if session.exitErr != nil {
			return nil, fmt.Errorf("capture %s: ffmpeg exited before capture started: %w: %s", device, session.exitErr, stderr.String())
		}
		return nil, fmt.Errorf("capture %s: ffmpeg exited before capture started", device)
	case <-time.After(startupProbe):
	}
	return session, nil
}

func captureArgs(cfg ports.AudioConfig) []string {
	format := cfg.InputFormat
	if format == "" {
		format = "pulse"
	}
	device := cfg.InputDevice
	if device == "" {
		device = "default"
	}
	channels := cfg.Channels
	if channels <= 0 {
		channels = 1
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", format,
		"-i", device,
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(rate),
		"-f", "s16le",
		"-",
	}
}

type ffmpegSession struct {
	device string
	stdout io.ReadCloser
	stderr *tailWriter
	proc   *os.Process

	exited  chan struct{}
	exitErr error

	stopOnce sync.Once
	stopErr  error
}

func (s *ffmpegSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *ffmpegSession) Close() error {
	return s.Stop()
}

// Stop sends an interrupt so ffmpeg flushes its output, and kills it after stopGrace.
func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		_ = s.proc.Signal(os.Interrupt)

		select {
		case <-s.exited:
		case <-time.After(stopGrace):
			_ = s.proc.Kill()
			<-s.exited
		}

		err := interruptedExit(s.exitErr)
		if closeErr := s.stdout.Close(); err == nil && closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			err = closeErr
		}
		if err != nil {
			err = fmt.Errorf("capture %s: %w: %s", s.device, err, s.stderr.String())
		}
		s.stopErr = err
	})
	return s.stopErr
}

// interruptedExit drops the non-zero exit status ffmpeg reports after an interrupt.
func interruptedExit(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// tailWriter keeps the last limit bytes written to it.
type tailWriter struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.limit; over > 0 {
		w.buf = w.buf[over:]
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.TrimSpace(string(w.buf))
}
