package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"tapedeck/internal/ports"
)

// pumpAudioChunks copies capture output into out until the capture ends. Chunks read
// while paused are dropped so the capture process never blocks on a full pipe.
func pumpAudioChunks(
	audio ports.AudioSession,
	out io.Writer,
	chunkSize int,
	paused func() bool,
	done chan struct{},
) error {
	defer close(done)

	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 && !paused() {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("write audio chunk: %w", writeErr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("audio capture error: %w", err)
		}
	}
}

// tickDuration publishes the running duration until stop is closed.
func tickDuration(interval time.Duration, stop <-chan struct{}, done chan struct{}, publish func()) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			publish()
		}
	}
}
