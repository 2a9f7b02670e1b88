package main

import (
	"context"
	"math/rand/v2"
	"sync"

	"cordis/internal/voice"

	"go.uber.org/zap"
)

// nullMedia satisfies the voice platform interfaces without touching real
// devices, so the headless client can exercise the full call lifecycle.
type nullMedia struct{}

func (nullMedia) GetUserMedia(_ context.Context, audio bool, video bool) (voice.Stream, error) {
	var tracks []voice.Track
	if audio {
		tracks = append(tracks, newNullTrack(voice.TrackAudio))
	}
	if video {
		tracks = append(tracks, newNullTrack(voice.TrackVideo))
	}
	return &nullStream{tracks: tracks}, nil
}

func (nullMedia) GetDisplayMedia(_ context.Context) (voice.Stream, error) {
	return &nullStream{tracks: []voice.Track{newNullTrack(voice.TrackVideo)}}, nil
}

func (nullMedia) NewAnalyser(_ voice.Stream) (voice.Analyser, error) {
	return &nullAnalyser{}, nil
}

type nullStream struct {
	tracks []voice.Track
}

func (s *nullStream) Tracks() []voice.Track { return s.tracks }

type nullTrack struct {
	mutex   sync.Mutex
	kind    voice.TrackKind
	live    bool
	enabled bool
	onEnded func()
}

func newNullTrack(kind voice.TrackKind) *nullTrack {
	return &nullTrack{kind: kind, live: true, enabled: true}
}

func (t *nullTrack) Kind() voice.TrackKind { return t.kind }

func (t *nullTrack) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.live = false
}

func (t *nullTrack) SetEnabled(enabled bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabled = enabled
}

func (t *nullTrack) Enabled() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.enabled
}

func (t *nullTrack) Live() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.live
}

func (t *nullTrack) OnEnded(fn func()) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.onEnded = fn
}

// nullAnalyser produces low random levels so the meter loop has something
// to report.
type nullAnalyser struct{}

func (*nullAnalyser) Level() int { return rand.IntN(32) }
func (*nullAnalyser) Close()     {}

// logNotifier routes sound cues and alerts to the log.
type logNotifier struct {
	sugar *zap.SugaredLogger
}

func (n logNotifier) Play(sound voice.Sound) {
	n.sugar.Debugf("Sound cue: %s", sound)
}

func (n logNotifier) Alert(message string) {
	n.sugar.Warnf("Alert: %s", message)
}
