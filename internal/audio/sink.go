package audio

import (
	"io"
	"os"
	"path/filepath"
)

// FileSink writes each session's raw PCM capture to <dir>/<session id>.pcm.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Open(sessionID string) (io.WriteCloser, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(s.PathFor(sessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

func (s *FileSink) PathFor(sessionID string) string {
	return filepath.Join(s.dir, filepath.Base(sessionID)+".pcm")
}
