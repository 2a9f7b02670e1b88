// Package voice manages the local participant's media resources for at most
// one active call at a time. The platform media layer sits behind the
// MediaProvider interface, permission denial is its primary failure mode.
package voice

import "context"

type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// Track is a single live media track. Stop ends it permanently and releases
// the OS-level handle, SetEnabled pauses it without releasing anything.
type Track interface {
	Kind() TrackKind
	Stop()
	SetEnabled(enabled bool)
	Enabled() bool
	Live() bool

	// OnEnded registers a handler fired when the track ends outside of this
	// controller, e.g. the platform's own stop-sharing control.
	OnEnded(fn func())
}

type Stream interface {
	Tracks() []Track
}

// MediaProvider is the platform capability layer for acquiring media.
type MediaProvider interface {
	GetUserMedia(ctx context.Context, audio bool, video bool) (Stream, error)
	GetDisplayMedia(ctx context.Context) (Stream, error)

	// NewAnalyser attaches an audio analysis node to the stream. Each
	// analyser holds OS audio resources until closed.
	NewAnalyser(stream Stream) (Analyser, error)
}

// Analyser samples frequency-domain energy of a live stream.
type Analyser interface {
	// Level returns the current intensity in the 0-255 range.
	Level() int
	Close()
}

type Sound string

const (
	SoundJoin   Sound = "join"
	SoundLeave  Sound = "leave"
	SoundMute   Sound = "mute"
	SoundUnmute Sound = "unmute"
)

// Notifier plays sound cues and raises the blocking alert used for call
// setup failures. Everything else degrades silently.
type Notifier interface {
	Play(sound Sound)
	Alert(message string)
}

func tracksOfKind(stream Stream, kind TrackKind) []Track {
	if stream == nil {
		return nil
	}
	var out []Track
	for _, track := range stream.Tracks() {
		if track.Kind() == kind {
			out = append(out, track)
		}
	}
	return out
}

func stopAll(stream Stream) {
	if stream == nil {
		return
	}
	for _, track := range stream.Tracks() {
		track.Stop()
	}
}
