package voice

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMeterSamplesLevels(t *testing.T) {
	provider := &fakeProvider{level: 180}
	stream := audioVideoStream(false)

	var last atomic.Int64
	meter, err := StartMeter(provider, stream, time.Millisecond, func(level int) {
		last.Store(int64(level))
	})
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for last.Load() != 180 {
		if time.Now().After(deadline) {
			t.Fatal("meter never delivered a sample")
		}
		time.Sleep(time.Millisecond)
	}

	meter.Stop()
	if provider.openAnalysers() != 0 {
		t.Error("analyser not closed after Stop")
	}
}

func TestMeterStopIsIdempotent(t *testing.T) {
	provider := &fakeProvider{}
	meter, err := StartMeter(provider, audioVideoStream(false), time.Millisecond, func(int) {})
	if err != nil {
		t.Fatal(err)
	}
	meter.Stop()
	meter.Stop()
}

func TestMeterClampsLevels(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{128, 128},
		{255, 255},
		{400, 255},
	}
	for _, tc := range tests {
		if got := clampLevel(tc.in); got != tc.want {
			t.Errorf("clampLevel(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// The sampling loop must be torn down whenever stream, mute or deafen input
// changes, otherwise each stale loop pins an analyser.
func TestSessionRestartsMeterOnInputChanges(t *testing.T) {
	provider := &fakeProvider{}
	notifier := &fakeNotifier{}
	session := NewSession(provider, notifier, zap.NewNop().Sugar())
	session.SetLevelFunc(func(int) {})

	if err := session.JoinCall(context.Background(), "ch5", false); err != nil {
		t.Fatal(err)
	}
	if provider.openAnalysers() != 1 {
		t.Fatalf("open analysers after join = %d, want 1", provider.openAnalysers())
	}

	session.ToggleMic() // muted: loop must stop, nothing left open
	if provider.openAnalysers() != 0 {
		t.Errorf("open analysers while muted = %d, want 0", provider.openAnalysers())
	}

	session.ToggleMic() // unmuted: fresh loop
	if provider.openAnalysers() != 1 {
		t.Errorf("open analysers after unmute = %d, want 1", provider.openAnalysers())
	}

	session.ToggleDeafen()
	if provider.openAnalysers() != 0 {
		t.Errorf("open analysers while deafened = %d, want 0", provider.openAnalysers())
	}
	session.ToggleDeafen()

	session.LeaveCall()
	if provider.openAnalysers() != 0 {
		t.Errorf("open analysers after leave = %d, want 0", provider.openAnalysers())
	}
}

// Registering the level listener after the call is already up must start
// metering right away, not wait for the next mute/deafen toggle.
func TestSetLevelFuncMidCallStartsMeter(t *testing.T) {
	provider := &fakeProvider{level: 90}
	notifier := &fakeNotifier{}
	session := NewSession(provider, notifier, zap.NewNop().Sugar())

	if err := session.JoinCall(context.Background(), "ch5", false); err != nil {
		t.Fatal(err)
	}
	if provider.openAnalysers() != 0 {
		t.Fatalf("open analysers without a listener = %d, want 0", provider.openAnalysers())
	}

	var last atomic.Int64
	session.SetLevelFunc(func(level int) {
		last.Store(int64(level))
	})

	if provider.openAnalysers() != 1 {
		t.Fatalf("open analysers after mid-call register = %d, want 1", provider.openAnalysers())
	}

	deadline := time.Now().Add(time.Second)
	for last.Load() != 90 {
		if time.Now().After(deadline) {
			t.Fatal("no level sample after mid-call register")
		}
		time.Sleep(time.Millisecond)
	}

	session.LeaveCall()
	if provider.openAnalysers() != 0 {
		t.Errorf("open analysers after leave = %d, want 0", provider.openAnalysers())
	}
}
