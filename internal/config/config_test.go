package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TAPEDECK_CONFIG_DIR", "")
	t.Setenv("TAPEDECK_DATA_DIR", "")
	t.Setenv("TAPEDECK_AUDIO_INPUT_DEVICE", "")
	t.Setenv("PULSE_SOURCE", "")
	t.Setenv("TAPEDECK_LOG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	dataDir := filepath.Join(home, ".local", "share", "tapedeck")
	if cfg.Paths.ConfigDir != filepath.Join(home, ".config", "tapedeck") {
		t.Fatalf("unexpected config dir: %q", cfg.Paths.ConfigDir)
	}
	if cfg.Paths.DataDir != dataDir || cfg.Paths.StatePath != filepath.Join(dataDir, "state.db") {
		t.Fatalf("unexpected data paths: %+v", cfg.Paths)
	}
	if cfg.Paths.RecordingsDir != filepath.Join(dataDir, "recordings") {
		t.Fatalf("unexpected recordings dir: %q", cfg.Paths.RecordingsDir)
	}
	if cfg.Log.File != filepath.Join(dataDir, "logs", "tapedeck.log") {
		t.Fatalf("unexpected log file: %q", cfg.Log.File)
	}
	if cfg.Audio.InputDevice != "default" || cfg.Audio.InputFormat != "pulse" {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Modes.DefaultMode != "meeting" || cfg.Modes.HookTimeout != 5*time.Second {
		t.Fatalf("unexpected modes config: %+v", cfg.Modes)
	}
	if cfg.Session.TickInterval != time.Second || cfg.Audio.DeviceCacheTTL != 30*time.Second {
		t.Fatalf("unexpected intervals: %+v %+v", cfg.Session, cfg.Audio)
	}
}

func TestLoadRespectsOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TAPEDECK_CONFIG_DIR", filepath.Join(home, "cfg"))
	t.Setenv("TAPEDECK_DATA_DIR", filepath.Join(home, "data"))
	t.Setenv("TAPEDECK_FFMPEG_COMMAND", "my-ffmpeg")
	t.Setenv("TAPEDECK_AUDIO_INPUT_FORMAT", "alsa")
	t.Setenv("TAPEDECK_AUDIO_INPUT_DEVICE", "mic0")
	t.Setenv("TAPEDECK_SYSTEM_AUDIO_DEVICE", "out.monitor")
	t.Setenv("TAPEDECK_SAMPLE_RATE", "48000")
	t.Setenv("TAPEDECK_CHANNELS", "2")
	t.Setenv("TAPEDECK_AUDIO_CHUNK_SIZE", "512")
	t.Setenv("TAPEDECK_TICK_INTERVAL_MS", "250")
	t.Setenv("TAPEDECK_HOOK_TIMEOUT_MS", "1500")
	t.Setenv("TAPEDECK_DEFAULT_MODE", "interviewer")
	t.Setenv("TAPEDECK_LOG_LEVEL", "debug")
	t.Setenv("TAPEDECK_LOG_FILE", filepath.Join(home, "x.log"))
	t.Setenv("TAPEDECK_PACTL_COMMAND", "my-pactl")
	t.Setenv("TAPEDECK_DEVICE_CACHE_TTL_MS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.RecorderCommand != "my-ffmpeg" || cfg.Audio.InputFormat != "alsa" || cfg.Audio.InputDevice != "mic0" {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Audio.SystemAudioDevice != "out.monitor" || cfg.Audio.SampleRate != 48000 || cfg.Audio.Channels != 2 {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Audio.PactlCommand != "my-pactl" || cfg.Audio.DeviceCacheTTL != 0 {
		t.Fatalf("unexpected device config: %+v", cfg.Audio)
	}
	if cfg.Session.ChunkSize != 512 || cfg.Session.TickInterval != 250*time.Millisecond {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Modes.DefaultMode != "interviewer" || cfg.Modes.HookTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected modes config: %+v", cfg.Modes)
	}
	if cfg.Paths.ConfigDir != filepath.Join(home, "cfg") || cfg.Paths.DataDir != filepath.Join(home, "data") {
		t.Fatalf("unexpected paths: %+v", cfg.Paths)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != filepath.Join(home, "x.log") {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadInvalidNumericValuesFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TAPEDECK_SAMPLE_RATE", "bad")
	t.Setenv("TAPEDECK_CHANNELS", "-1")
	t.Setenv("TAPEDECK_AUDIO_CHUNK_SIZE", "5")
	t.Setenv("TAPEDECK_TICK_INTERVAL_MS", "0")
	t.Setenv("TAPEDECK_HOOK_TIMEOUT_MS", "bad")
	t.Setenv("TAPEDECK_DEVICE_CACHE_TTL_MS", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected default sample rate, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Fatalf("expected default channels, got %d", cfg.Audio.Channels)
	}
	if cfg.Session.ChunkSize != 4096 {
		t.Fatalf("expected chunk size fallback, got %d", cfg.Session.ChunkSize)
	}
	if cfg.Session.TickInterval != time.Second {
		t.Fatalf("expected tick fallback, got %s", cfg.Session.TickInterval)
	}
	if cfg.Modes.HookTimeout != 5*time.Second {
		t.Fatalf("expected hook timeout fallback, got %s", cfg.Modes.HookTimeout)
	}
	if cfg.Audio.DeviceCacheTTL != 30*time.Second {
		t.Fatalf("expected cache ttl fallback, got %s", cfg.Audio.DeviceCacheTTL)
	}
}
