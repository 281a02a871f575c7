// Package engine plays clips one at a time per Session, chaining ordered
// sequences of sources and reporting every outcome through callbacks.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/d1nch8g/chime/source"
	"github.com/d1nch8g/chime/sound"
)

var (
	// ErrInterrupted is reported for a clip whose handle was stopped or
	// replaced by newer playback before it finished.
	ErrInterrupted = errors.New("playback interrupted")

	// ErrNoValidSourcesFound is reported by PlayFirst and PlayLast when the
	// markup has no playable audio element.
	ErrNoValidSourcesFound = errors.New("no valid audio sources found")
)

// playback is the occupant of the session's active slot.
type playback struct {
	handle sound.Handle
	once   sync.Once
	done   func(error)
}

// finish reports the clip's outcome. Only the first call has any effect.
func (p *playback) finish(err error) {
	p.once.Do(func() { notify(p.done, err) })
}

// Session owns one active playback slot and a resolver cache. Callbacks run
// on goroutines owned by the session and never while its lock is held.
type Session struct {
	resolver *source.Resolver
	decoder  sound.Decoder
	log      zerolog.Logger

	mu     sync.Mutex
	active *playback
	// issued counts play requests in call order. claimed is the newest
	// request that has taken the slot; anything older loses.
	issued  uint64
	claimed uint64
}

func NewSession(resolver *source.Resolver, decoder sound.Decoder, logger zerolog.Logger) *Session {
	return &Session{
		resolver: resolver,
		decoder:  decoder,
		log:      logger,
	}
}

// Play resolves req and plays it, replacing whatever is playing. It returns
// immediately; done receives exactly one outcome. A resolution failure
// leaves current playback untouched.
func (s *Session) Play(ctx context.Context, req source.Request, done func(error)) {
	gen := s.nextGeneration()
	go s.play(ctx, gen, req, done)
}

// PlayData plays an in-memory buffer.
func (s *Session) PlayData(data []byte, done func(error)) {
	s.Play(context.Background(), source.Bytes(data), done)
}

// nextGeneration stamps a play request at call time.
func (s *Session) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// play returns once the clip is installed or has failed; done fires later
// for a started clip.
func (s *Session) play(ctx context.Context, gen uint64, req source.Request, done func(error)) {
	data, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		s.log.Warn().Err(err).Stringer("source", req).Msg("failed to resolve source")
		notify(done, err)
		return
	}
	s.install(gen, req, data, done)
}

// install swaps the active slot. The previous handle is stopped and
// released before the new one is decoded; decoding runs without the lock.
// A request older than the one holding the slot is reported as interrupted
// and never replaces newer playback.
func (s *Session) install(gen uint64, req source.Request, data []byte, done func(error)) {
	s.mu.Lock()
	if gen < s.claimed {
		s.mu.Unlock()
		s.log.Debug().Stringer("source", req).Msg("superseded before start")
		notify(done, ErrInterrupted)
		return
	}
	s.claimed = gen
	prev := s.active
	s.active = nil
	if prev != nil {
		prev.handle.Stop()
	}
	s.mu.Unlock()
	s.interrupt(prev)

	handle, err := s.decoder.Decode(data)
	if err != nil {
		s.log.Warn().Err(err).Stringer("source", req).Msg("failed to decode audio")
		notify(done, err)
		return
	}

	s.mu.Lock()
	if gen != s.claimed {
		s.mu.Unlock()
		handle.Stop()
		s.log.Debug().Stringer("source", req).Msg("superseded while decoding")
		notify(done, ErrInterrupted)
		return
	}
	pb := &playback{handle: handle, done: done}
	s.active = pb
	if err := handle.Start(func(ok bool) { s.finished(pb, ok) }); err != nil {
		s.active = nil
		s.mu.Unlock()
		s.log.Warn().Err(err).Stringer("source", req).Msg("failed to start playback")
		pb.finish(err)
		return
	}
	s.mu.Unlock()

	s.log.Debug().Stringer("source", req).Msg("playback started")
}

func (s *Session) interrupt(pb *playback) {
	if pb == nil {
		return
	}
	s.log.Debug().Msg("playback interrupted")
	pb.finish(ErrInterrupted)
}

// finished is the handle's completion callback. The slot is cleared before
// the caller hears about it so IsPlaying is already false in the callback.
func (s *Session) finished(pb *playback, ok bool) {
	s.mu.Lock()
	if s.active == pb {
		s.active = nil
	}
	s.mu.Unlock()

	if ok {
		pb.finish(nil)
		return
	}
	pb.finish(sound.ErrPlaybackFailed)
}

// Pause pauses the active clip, if any.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.handle.Pause()
	}
}

// Resume resumes the active clip, if any.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.handle.Resume()
	}
}

// Stop stops and releases the active clip; its callback receives
// ErrInterrupted. Requests still resolving or decoding are interrupted too.
// A running sequence moves on to its next item.
func (s *Session) Stop() {
	s.mu.Lock()
	s.issued++
	s.claimed = s.issued
	pb := s.active
	s.active = nil
	if pb != nil {
		pb.handle.Stop()
	}
	s.mu.Unlock()

	s.interrupt(pb)
}

func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil && s.active.handle.IsPlaying()
}

func (s *Session) ClearLocalCache() {
	s.resolver.ClearCache(source.TierLocal)
}

func (s *Session) ClearRemoteCache() {
	s.resolver.ClearCache(source.TierRemote)
}

func (s *Session) ClearCache() {
	s.resolver.ClearCache(source.TierAll)
}
