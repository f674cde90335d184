package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration resolved at startup.
type Config struct {
	Audio   AudioConfig
	Modes   ModesConfig
	Session SessionConfig
	Paths   PathsConfig
	Log     LogConfig
}

type AudioConfig struct {
	RecorderCommand   string
	InputFormat       string
	InputDevice       string
	SystemAudioDevice string
	SampleRate        int
	Channels          int
	PactlCommand      string
	DeviceCacheTTL    time.Duration
}

type ModesConfig struct {
	DefaultMode string
	HookTimeout time.Duration
}

type SessionConfig struct {
	ChunkSize    int
	TickInterval time.Duration
}

type PathsConfig struct {
	ConfigDir     string
	DataDir       string
	RecordingsDir string
	StatePath     string
}

type LogConfig struct {
	Level string
	File  string
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	configDir := firstNonEmpty(os.Getenv("TAPEDECK_CONFIG_DIR"), filepath.Join(home, ".config", "tapedeck"))
	dataDir := firstNonEmpty(os.Getenv("TAPEDECK_DATA_DIR"), filepath.Join(home, ".local", "share", "tapedeck"))

	cfg := Config{
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("TAPEDECK_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("TAPEDECK_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice: firstNonEmpty(
				os.Getenv("TAPEDECK_AUDIO_INPUT_DEVICE"),
				os.Getenv("PULSE_SOURCE"),
				"default",
			),
			SystemAudioDevice: strings.TrimSpace(os.Getenv("TAPEDECK_SYSTEM_AUDIO_DEVICE")),
			SampleRate:        envOrDefaultInt("TAPEDECK_SAMPLE_RATE", 16000),
			Channels:          envOrDefaultInt("TAPEDECK_CHANNELS", 1),
			PactlCommand:      envOrDefault("TAPEDECK_PACTL_COMMAND", "pactl"),
			DeviceCacheTTL:    envOrDefaultMillis("TAPEDECK_DEVICE_CACHE_TTL_MS", 30*time.Second),
		},
		Modes: ModesConfig{
			DefaultMode: envOrDefault("TAPEDECK_DEFAULT_MODE", "meeting"),
			HookTimeout: envOrDefaultMillis("TAPEDECK_HOOK_TIMEOUT_MS", 5*time.Second),
		},
		Session: SessionConfig{
			ChunkSize:    envOrDefaultInt("TAPEDECK_AUDIO_CHUNK_SIZE", 4096),
			TickInterval: envOrDefaultMillis("TAPEDECK_TICK_INTERVAL_MS", time.Second),
		},
		Paths: PathsConfig{
			ConfigDir:     configDir,
			DataDir:       dataDir,
			RecordingsDir: filepath.Join(dataDir, "recordings"),
			StatePath:     filepath.Join(dataDir, "state.db"),
		},
		Log: LogConfig{
			Level: envOrDefault("TAPEDECK_LOG_LEVEL", "info"),
			File:  firstNonEmpty(os.Getenv("TAPEDECK_LOG_FILE"), filepath.Join(dataDir, "logs", "tapedeck.log")),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if cfg.Session.TickInterval <= 0 {
		cfg.Session.TickInterval = time.Second
	}
	if cfg.Modes.HookTimeout <= 0 {
		cfg.Modes.HookTimeout = 5 * time.Second
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultMillis(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}
