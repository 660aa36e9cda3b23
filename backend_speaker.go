package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// speakerBackend plays through beep's speaker package. There is one speaker
// per process, which matches the one Context an Engine owns.
type speakerBackend struct {
	bufferSize time.Duration
}

func NewSpeakerBackend(bufferSize time.Duration) Backend {
	return &speakerBackend{bufferSize: bufferSize}
}

func (b *speakerBackend) Open(sr beep.SampleRate, src beep.Streamer) error {
	if err := speaker.Init(sr, sr.N(b.bufferSize)); err != nil {
		return err
	}
	speaker.Play(src)
	return speaker.Suspend()
}

func (b *speakerBackend) Resume() error {
	return speaker.Resume()
}

func (b *speakerBackend) Suspend() error {
	return speaker.Suspend()
}

func (b *speakerBackend) Close() error {
	speaker.Close()
	return nil
}
