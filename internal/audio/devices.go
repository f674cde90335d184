package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"tapedeck/internal/domain"
)

const sourcesCacheKey = "pulse_sources"

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// PulseDevices enumerates PulseAudio/PipeWire sources with pactl. Monitor sources carry
// system audio; the rest are microphones. Results are cached because pactl is slow to
// spawn and the UI lists devices on every settings render.
type PulseDevices struct {
	command string
	run     commandRunner
	cache   *cache.Cache
	ttl     time.Duration
}

func NewPulseDevices(command string, ttl time.Duration) *PulseDevices {
	if command == "" {
		command = "pactl"
	}
	return &PulseDevices{
		command: command,
		run:     runCommand,
		cache:   cache.New(ttl, 2*ttl),
		ttl:     ttl,
	}
}

func (d *PulseDevices) ListAudioSources(ctx context.Context) ([]domain.AudioDevice, error) {
	return d.filter(ctx, true)
}

func (d *PulseDevices) ListMicrophones(ctx context.Context) ([]domain.AudioDevice, error) {
	return d.filter(ctx, false)
}

// Refresh drops cached results so the next listing re-runs pactl.
func (d *PulseDevices) Refresh(ctx context.Context) error {
	d.cache.Delete(sourcesCacheKey)
	_, err := d.sources(ctx)
	return err
}

func (d *PulseDevices) filter(ctx context.Context, monitors bool) ([]domain.AudioDevice, error) {
	all, err := d.sources(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AudioDevice, 0, len(all))
	for _, device := range all {
		if device.Monitor == monitors {
			out = append(out, device)
		}
	}
	return out, nil
}

func (d *PulseDevices) sources(ctx context.Context) ([]domain.AudioDevice, error) {
	if d.ttl > 0 {
		if cached, ok := d.cache.Get(sourcesCacheKey); ok {
			return cached.([]domain.AudioDevice), nil
		}
	}

	output, err := d.run(ctx, d.command, "list", "short", "sources")
	if err != nil {
		return nil, fmt.Errorf("list audio sources: %w", err)
	}
	devices := parseShortSources(string(output))

	if d.ttl > 0 {
		d.cache.Set(sourcesCacheKey, devices, cache.DefaultExpiration)
	}
	return devices, nil
}

// parseShortSources reads `pactl list short sources` output:
// index, name, driver, sample spec, state separated by tabs.
func parseShortSources(output string) []domain.AudioDevice {
	var devices []domain.AudioDevice
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) < 2 || fields[1] == "" {
			continue
		}
		device := domain.AudioDevice{
			Name:    fields[1],
			Monitor: strings.HasSuffix(fields[1], ".monitor"),
		}
		if len(fields) > 2 {
			device.Driver = fields[2]
		}
		if len(fields) > 4 {
			device.State = fields[4]
		}
		devices = append(devices, device)
	}
	return devices
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
