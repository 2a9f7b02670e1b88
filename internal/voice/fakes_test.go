package voice

import (
	"context"
	"errors"
	"sync"
)

type fakeTrack struct {
	mutex   sync.Mutex
	kind    TrackKind
	live    bool
	enabled bool
	onEnded func()
}

func newFakeTrack(kind TrackKind) *fakeTrack {
	return &fakeTrack{kind: kind, live: true, enabled: true}
}

func (t *fakeTrack) Kind() TrackKind { return t.kind }

func (t *fakeTrack) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.live = false
}

func (t *fakeTrack) SetEnabled(enabled bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabled = enabled
}

func (t *fakeTrack) Enabled() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.enabled
}

func (t *fakeTrack) Live() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.live
}

func (t *fakeTrack) OnEnded(fn func()) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.onEnded = fn
}

// endExternally simulates the platform ending the track out-of-band.
func (t *fakeTrack) endExternally() {
	t.mutex.Lock()
	t.live = false
	fn := t.onEnded
	t.mutex.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeStream struct {
	tracks []Track
}

func (s *fakeStream) Tracks() []Track { return s.tracks }

func audioVideoStream(video bool) *fakeStream {
	tracks := []Track{newFakeTrack(TrackAudio)}
	if video {
		tracks = append(tracks, newFakeTrack(TrackVideo))
	}
	return &fakeStream{tracks: tracks}
}

type fakeProvider struct {
	mutex sync.Mutex

	denyAudio   bool
	denyVideo   bool
	denyDisplay bool

	userMediaCalls []struct{ audio, video bool }
	analysers      []*fakeAnalyser
	level          int
}

func (p *fakeProvider) GetUserMedia(_ context.Context, audio bool, video bool) (Stream, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.userMediaCalls = append(p.userMediaCalls, struct{ audio, video bool }{audio, video})

	if video && p.denyVideo {
		return nil, errors.New("NotAllowedError: camera")
	}
	if audio && p.denyAudio {
		return nil, errors.New("NotAllowedError: microphone")
	}
	return audioVideoStream(video), nil
}

func (p *fakeProvider) GetDisplayMedia(_ context.Context) (Stream, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.denyDisplay {
		return nil, errors.New("NotAllowedError: display")
	}
	return &fakeStream{tracks: []Track{newFakeTrack(TrackVideo)}}, nil
}

func (p *fakeProvider) NewAnalyser(_ Stream) (Analyser, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	analyser := &fakeAnalyser{provider: p}
	p.analysers = append(p.analysers, analyser)
	return analyser, nil
}

func (p *fakeProvider) openAnalysers() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	open := 0
	for _, a := range p.analysers {
		if !a.isClosed() {
			open++
		}
	}
	return open
}

type fakeAnalyser struct {
	mutex    sync.Mutex
	provider *fakeProvider
	closed   bool
}

func (a *fakeAnalyser) Level() int {
	a.provider.mutex.Lock()
	defer a.provider.mutex.Unlock()
	return a.provider.level
}

func (a *fakeAnalyser) Close() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.closed = true
}

func (a *fakeAnalyser) isClosed() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.closed
}

type fakeNotifier struct {
	mutex  sync.Mutex
	sounds []Sound
	alerts []string
}

func (n *fakeNotifier) Play(sound Sound) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.sounds = append(n.sounds, sound)
}

func (n *fakeNotifier) Alert(message string) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.alerts = append(n.alerts, message)
}

func (n *fakeNotifier) alertCount() int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return len(n.alerts)
}

func (n *fakeNotifier) playedSounds() []Sound {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return append([]Sound(nil), n.sounds...)
}
