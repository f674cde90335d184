package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

const sampleSources = "0\talsa_output.pci-0000_00_1f.3.analog-stereo.monitor\tmodule-alsa-card.c\ts16le 2ch 48000Hz\tSUSPENDED\n" +
	"1\talsa_input.pci-0000_00_1f.3.analog-stereo\tmodule-alsa-card.c\ts16le 2ch 48000Hz\tRUNNING\n" +
	"\n" +
	"2\tbluez_input.headset\tmodule-bluez5-device.c\ts16le 1ch 16000Hz\tIDLE\n"

func TestPulseDevicesSplitsMonitorsAndMicrophones(t *testing.T) {
	t.Parallel()

	devices := NewPulseDevices("pactl", time.Minute)
	devices.run = fixedRunner(sampleSources, nil, new(int))

	sources, err := devices.ListAudioSources(context.Background())
	if err != nil {
		t.Fatalf("list sources: %v", err)
	}
	if len(sources) != 1 || !sources[0].Monitor || sources[0].State != "SUSPENDED" {
		t.Fatalf("unexpected sources: %+v", sources)
	}

	mics, err := devices.ListMicrophones(context.Background())
	if err != nil {
		t.Fatalf("list microphones: %v", err)
	}
	if len(mics) != 2 || mics[0].Name != "alsa_input.pci-0000_00_1f.3.analog-stereo" || mics[1].Driver != "module-bluez5-device.c" {
		t.Fatalf("unexpected microphones: %+v", mics)
	}
}

func TestPulseDevicesCachesUntilRefresh(t *testing.T) {
	t.Parallel()

	calls := 0
	devices := NewPulseDevices("pactl", time.Minute)
	devices.run = fixedRunner(sampleSources, nil, &calls)

	for i := 0; i < 3; i++ {
		if _, err := devices.ListMicrophones(context.Background()); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single pactl call, got %d", calls)
	}

	if err := devices.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refresh to re-run pactl, got %d calls", calls)
	}
}

func TestPulseDevicesZeroTTLDisablesCache(t *testing.T) {
	t.Parallel()

	calls := 0
	devices := NewPulseDevices("pactl", 0)
	devices.run = fixedRunner(sampleSources, nil, &calls)

	_, _ = devices.ListAudioSources(context.Background())
	_, _ = devices.ListAudioSources(context.Background())
	if calls != 2 {
		t.Fatalf("expected uncached calls, got %d", calls)
	}
}

func TestPulseDevicesReportsCommandFailure(t *testing.T) {
	t.Parallel()

	devices := NewPulseDevices("pactl", time.Minute)
	devices.run = fixedRunner("", errors.New("pactl not found"), new(int))

	if _, err := devices.ListMicrophones(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func fixedRunner(output string, err error, calls *int) commandRunner {
	return func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		*calls++
		return []byte(output), err
	}
}
