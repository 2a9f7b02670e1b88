package voice

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const meterInterval = 16 * time.Millisecond // roughly one animation frame

// Session owns the local and screen-share streams. Exactly one call can be
// active; joining while in a call releases the previous streams first.
type Session struct {
	provider MediaProvider
	notifier Notifier
	sugar    *zap.SugaredLogger

	// soundsEnabled gates the cue sounds on the user's notification setting.
	soundsEnabled func() bool

	// onActiveChange fires after the active voice channel changes, with ""
	// on disconnect. The state controller derives presence from this.
	onActiveChange func(channelID string)

	// onLevel receives speaking-intensity samples while metering runs.
	onLevel func(level int)

	mutex           sync.Mutex
	local           Stream
	screen          Stream
	activeChannelID string
	micMuted        bool
	deafened        bool
	cameraOn        bool
	minimized       bool
	meter           *Meter
}

func NewSession(provider MediaProvider, notifier Notifier, sugar *zap.SugaredLogger) *Session {
	return &Session{
		provider:      provider,
		notifier:      notifier,
		sugar:         sugar,
		soundsEnabled: func() bool { return true },
	}
}

func (s *Session) SetSoundsEnabledFunc(fn func() bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.soundsEnabled = fn
}

func (s *Session) SetActiveChangeFunc(fn func(channelID string)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onActiveChange = fn
}

// SetLevelFunc registers the speaking-intensity listener. Registering
// mid-call takes effect immediately, the meter restarts with the new sink.
func (s *Session) SetLevelFunc(fn func(level int)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onLevel = fn
	s.restartMeterLocked()
}

// JoinCall acquires the microphone (plus camera when wanted or already
// toggled on) and makes channelID the active call. When the combined
// audio+video request fails it retries audio-only before giving up; only if
// that also fails is the failure surfaced through the notifier's alert.
func (s *Session) JoinCall(ctx context.Context, channelID string, wantsVideo bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.activeChannelID == channelID && s.local != nil {
		return nil
	}

	// replacing an active call: release the old streams before acquiring
	if s.local != nil || s.screen != nil {
		s.releaseLocked()
	}

	wantVideo := wantsVideo || s.cameraOn

	stream, err := s.provider.GetUserMedia(ctx, true, wantVideo)
	if err != nil && wantVideo {
		// camera absence or denial must not block voice-only participation
		s.sugar.Error(err)
		stream, err = s.provider.GetUserMedia(ctx, true, false)
		if err == nil {
			s.cameraOn = false
		}
	}
	if err != nil {
		s.sugar.Error(err)
		s.notifier.Alert("Couldn't access your microphone. Check your device permissions.")
		return err
	}

	for _, track := range tracksOfKind(stream, TrackAudio) {
		track.SetEnabled(!s.micMuted)
	}

	s.local = stream
	s.activeChannelID = channelID
	s.minimized = false
	s.cameraOn = wantVideo && len(tracksOfKind(stream, TrackVideo)) > 0

	s.playLocked(SoundJoin)
	s.restartMeterLocked()
	s.notifyActiveLocked()
	return nil
}

// LeaveCall stops every track on both streams and clears the active call.
// This is the one strict resource-release point; calling it with no active
// call is a safe no-op.
func (s *Session) LeaveCall() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.local == nil && s.screen == nil && s.activeChannelID == "" {
		return
	}

	s.releaseLocked()
	s.minimized = false
	s.playLocked(SoundLeave)
	s.notifyActiveLocked()
}

func (s *Session) releaseLocked() {
	s.stopMeterLocked()
	stopAll(s.local)
	stopAll(s.screen)
	s.local = nil
	s.screen = nil
	s.activeChannelID = ""
}

// ToggleScreenShare starts or stops the display-media stream. Permission
// denial is logged and ignored: the user simply continues without sharing.
func (s *Session) ToggleScreenShare(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.screen != nil {
		stopAll(s.screen)
		s.screen = nil
		return
	}

	stream, err := s.provider.GetDisplayMedia(ctx)
	if err != nil {
		s.sugar.Error(err)
		return
	}

	// the platform's own stop-sharing control ends the track without going
	// through this controller; mirror that into our state
	videoTracks := tracksOfKind(stream, TrackVideo)
	if len(videoTracks) > 0 {
		videoTracks[0].OnEnded(func() {
			s.mutex.Lock()
			defer s.mutex.Unlock()
			s.screen = nil
		})
	}

	s.screen = stream
}

func (s *Session) ToggleMic() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.micMuted = !s.micMuted
	for _, track := range tracksOfKind(s.local, TrackAudio) {
		track.SetEnabled(!s.micMuted)
	}

	if s.micMuted {
		s.playLocked(SoundMute)
	} else {
		s.playLocked(SoundUnmute)
	}
	s.restartMeterLocked()
}

func (s *Session) ToggleDeafen() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.deafened = !s.deafened
	if s.deafened {
		s.playLocked(SoundMute)
	} else {
		s.playLocked(SoundUnmute)
	}
	s.restartMeterLocked()
}

// ToggleCamera only flips the flag; video enablement is decided at join time.
func (s *Session) ToggleCamera() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cameraOn = !s.cameraOn
}

func (s *Session) SetMinimized(minimized bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.minimized = minimized
}

func (s *Session) ActiveChannelID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.activeChannelID
}

func (s *Session) State() (micMuted bool, deafened bool, cameraOn bool, minimized bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.micMuted, s.deafened, s.cameraOn, s.minimized
}

func (s *Session) LocalStream() Stream {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.local
}

func (s *Session) ScreenStream() Stream {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.screen
}

func (s *Session) playLocked(sound Sound) {
	if s.soundsEnabled == nil || s.soundsEnabled() {
		s.notifier.Play(sound)
	}
}

func (s *Session) notifyActiveLocked() {
	if s.onActiveChange != nil {
		// invoked without the lock so the listener can call back in
		fn := s.onActiveChange
		id := s.activeChannelID
		go fn(id)
	}
}

// restartMeterLocked tears down the sampling loop and starts a fresh one for
// the current stream/mute/deafen inputs. Keeping the old loop alive would
// leak its analyser's audio resources.
func (s *Session) restartMeterLocked() {
	s.stopMeterLocked()

	if s.local == nil || s.onLevel == nil || s.micMuted || s.deafened {
		return
	}

	meter, err := StartMeter(s.provider, s.local, meterInterval, s.onLevel)
	if err != nil {
		s.sugar.Error(err)
		return
	}
	s.meter = meter
}

func (s *Session) stopMeterLocked() {
	if s.meter != nil {
		s.meter.Stop()
		s.meter = nil
	}
}
