package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/d1nch8g/chime/markup"
	"github.com/d1nch8g/chime/source"
)

// StepFunc receives one call per finished item. final is true exactly once,
// for the last item, and err is that item's outcome.
type StepFunc func(final bool, err error)

// PlaySequence plays reqs strictly in order: item n+1 is resolved only after
// item n has reported. Item errors are passed to step and never halt the
// sequence. An empty list reports step(true, nil) before returning.
//
// There is no cancellation beyond ctx, which is checked before each item
// after the first; a cancelled sequence reports step(true, ctx.Err()).
// Newer playback on the session interrupts the current item, but the
// sequence itself carries on with its next item.
func (s *Session) PlaySequence(ctx context.Context, reqs []source.Request, step StepFunc) {
	if step == nil {
		step = func(bool, error) {}
	}
	if len(reqs) == 0 {
		step(true, nil)
		return
	}

	queue := make([]source.Request, len(reqs))
	copy(queue, reqs)
	go s.runSequence(ctx, queue, step)
}

func (s *Session) runSequence(ctx context.Context, queue []source.Request, step StepFunc) {
	log := s.log.With().Str("sequence", uuid.NewString()).Logger()
	log.Debug().Int("items", len(queue)).Msg("sequence started")
	started := time.Now()

	for i, req := range queue {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				log.Debug().Err(err).Int("item", i).Msg("sequence cancelled")
				step(true, err)
				return
			}
		}

		err := s.playAndWait(ctx, req)
		final := i == len(queue)-1
		if err != nil {
			log.Debug().Err(err).Int("item", i).Msg("sequence item failed")
		}
		step(final, err)
	}

	log.Debug().Dur("elapsed", time.Since(started)).Msg("sequence finished")
}

// playAndWait plays one item and blocks until its callback fires.
func (s *Session) playAndWait(ctx context.Context, req source.Request) error {
	result := make(chan error, 1)
	s.play(ctx, s.nextGeneration(), req, func(err error) { result <- err })
	return <-result
}

// PlayHTML plays every audio source found in html, in document order.
func (s *Session) PlayHTML(ctx context.Context, html string, useCache bool, step StepFunc) {
	s.PlaySequence(ctx, htmlRequests(markup.ExtractURLs(html), useCache), step)
}

// PlayFirst plays the first audio source found in html.
func (s *Session) PlayFirst(ctx context.Context, html string, useCache bool, done func(error)) {
	urls := markup.ExtractURLs(html)
	if len(urls) == 0 {
		notify(done, ErrNoValidSourcesFound)
		return
	}
	s.Play(ctx, htmlRequests(urls[:1], useCache)[0], done)
}

// PlayLast plays the last audio source found in html.
func (s *Session) PlayLast(ctx context.Context, html string, useCache bool, done func(error)) {
	urls := markup.ExtractURLs(html)
	if len(urls) == 0 {
		notify(done, ErrNoValidSourcesFound)
		return
	}
	s.Play(ctx, htmlRequests(urls[len(urls)-1:], useCache)[0], done)
}

func htmlRequests(urls []string, useCache bool) []source.Request {
	reqs := make([]source.Request, len(urls))
	for i, u := range urls {
		reqs[i] = source.URL(u)
		reqs[i].UseCache = useCache
	}
	return reqs
}

func notify(done func(error), err error) {
	if done != nil {
		done(err)
	}
}
