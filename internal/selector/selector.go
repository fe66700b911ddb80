// Package selector blends the user joke table and the external joke API into
// a single random-joke operation.
package selector

import (
	"context"
	"errors"
	"math/rand/v2"

	"jokehub/internal/models"
	"jokehub/pkg/logger"
)

// ErrNoJokes means both sources came up empty for this draw.
var ErrNoJokes = errors.New("no jokes available")

// Store yields a uniform-random user joke, or an error when the table is empty.
type Store interface {
	GetRandom(ctx context.Context) (*models.Joke, error)
}

// External yields a joke from the remote provider, or an error when it is
// unreachable or returns garbage.
type External interface {
	Random(ctx context.Context) (*models.ExternalJoke, error)
}

type Selector struct {
	store    Store
	external External
	randFunc func() float64
}

func New(store Store, external External, opts ...Option) *Selector {
	s := &Selector{
		store:    store,
		external: external,
		randFunc: rand.Float64,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type Option func(*Selector)

// WithRandFunc replaces the uniform draw, for deterministic tests.
func WithRandFunc(f func() float64) Option {
	return func(s *Selector) {
		s.randFunc = f
	}
}

// Random draws r once per call: r < 0.5 tries the external source first,
// otherwise the store. A miss on the primary gets exactly one try against the
// other source; a miss on both is ErrNoJokes. A miss is a missing row or a
// provider failure, never an empty text: a stored joke with empty text is
// still a hit.
func (s *Selector) Random(ctx context.Context) (string, error) {
	r := s.randFunc()

	var text string
	var ok bool
	if r < 0.5 {
		text, ok = s.fromExternal(ctx)
	} else {
		text, ok = s.fromStore(ctx)
	}

	if !ok {
		if r > 0.5 {
			text, ok = s.fromExternal(ctx)
		} else {
			text, ok = s.fromStore(ctx)
		}
	}

	if !ok {
		return "", ErrNoJokes
	}
	return text, nil
}

func (s *Selector) fromExternal(ctx context.Context) (string, bool) {
	joke, err := s.external.Random(ctx)
	if err != nil {
		return "", false
	}
	return joke.Render(), true
}

func (s *Selector) fromStore(ctx context.Context) (string, bool) {
	joke, err := s.store.GetRandom(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Debug("No user joke for this draw", logger.Err(err))
		}
		return "", false
	}
	return joke.JokeText, true
}
