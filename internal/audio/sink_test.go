package audio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSinkAppendsPerSession(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "recordings")
	sink := NewFileSink(dir)

	for _, chunk := range []string{"ab", "cd"} {
		w, err := sink.Open("s1")
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	contents, err := os.ReadFile(filepath.Join(dir, "s1.pcm"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(contents) != "abcd" {
		t.Fatalf("unexpected contents: %q", contents)
	}
	if got := sink.PathFor("../escape"); got != filepath.Join(dir, "escape.pcm") {
		t.Fatalf("expected path confined to sink dir, got %q", got)
	}
}
