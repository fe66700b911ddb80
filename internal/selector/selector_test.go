package selector

import (
	"context"
	"errors"
	"testing"

	"jokehub/internal/models"
)

type fakeStore struct {
	joke *models.Joke
	err  error
}

func (f *fakeStore) GetRandom(ctx context.Context) (*models.Joke, error) {
	return f.joke, f.err
}

type fakeExternal struct {
	joke *models.ExternalJoke
	err  error
}

func (f *fakeExternal) Random(ctx context.Context) (*models.ExternalJoke, error) {
	return f.joke, f.err
}

var (
	errEmpty       = errors.New("no jokes in database")
	errUnavailable = errors.New("external joke source unavailable")

	storedJoke   = &models.Joke{ID: 1, TgID: 42, JokeText: "a user joke"}
	externalJoke = &models.ExternalJoke{Setup: "setup", Punchline: "punchline"}
)

func TestRandom_PrimaryBySplit(t *testing.T) {
	tests := []struct {
		name string
		r    float64
		want string
	}{
		{"low r picks external", 0.1, externalJoke.Render()},
		{"high r picks store", 0.9, storedJoke.JokeText},
		{"just under the split", 0.499, externalJoke.Render()},
		{"exactly at the split", 0.5, storedJoke.JokeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(
				&fakeStore{joke: storedJoke},
				&fakeExternal{joke: externalJoke},
				WithRandFunc(func() float64 { return tt.r }),
			)

			got, err := s.Random(context.Background())
			if err != nil {
				t.Fatalf("Random() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Random() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRandom_FallbackToExternal(t *testing.T) {
	// Empty store, working external: the external joke comes back no matter
	// which source was primary.
	for _, r := range []float64{0.1, 0.9} {
		s := New(
			&fakeStore{err: errEmpty},
			&fakeExternal{joke: externalJoke},
			WithRandFunc(func() float64 { return r }),
		)

		got, err := s.Random(context.Background())
		if err != nil {
			t.Fatalf("Random() with r=%v error = %v", r, err)
		}
		if got != externalJoke.Render() {
			t.Errorf("Random() with r=%v = %q, want external joke", r, got)
		}
	}
}

func TestRandom_FallbackToStore(t *testing.T) {
	for _, r := range []float64{0.1, 0.9} {
		s := New(
			&fakeStore{joke: storedJoke},
			&fakeExternal{err: errUnavailable},
			WithRandFunc(func() float64 { return r }),
		)

		got, err := s.Random(context.Background())
		if err != nil {
			t.Fatalf("Random() with r=%v error = %v", r, err)
		}
		if got != storedJoke.JokeText {
			t.Errorf("Random() with r=%v = %q, want stored joke", r, got)
		}
	}
}

func TestRandom_EmptyTextJokeIsAHit(t *testing.T) {
	emptyJoke := &models.Joke{ID: 2, TgID: 42, JokeText: ""}

	// External down, store holding only an empty-text row: that row is still
	// a result, not a miss.
	s := New(
		&fakeStore{joke: emptyJoke},
		&fakeExternal{err: errUnavailable},
		WithRandFunc(func() float64 { return 0.9 }),
	)

	got, err := s.Random(context.Background())
	if err != nil {
		t.Fatalf("Random() error = %v, want empty result", err)
	}
	if got != "" {
		t.Errorf("Random() = %q, want empty text", got)
	}

	// Healthy external source: the stored empty-text row was the primary hit,
	// so no fallback fires.
	s = New(
		&fakeStore{joke: emptyJoke},
		&fakeExternal{joke: externalJoke},
		WithRandFunc(func() float64 { return 0.9 }),
	)

	got, err = s.Random(context.Background())
	if err != nil {
		t.Fatalf("Random() error = %v", err)
	}
	if got != "" {
		t.Errorf("Random() = %q, want the stored empty text, not the external joke", got)
	}
}

func TestRandom_BothMiss(t *testing.T) {
	for _, r := range []float64{0.1, 0.9} {
		s := New(
			&fakeStore{err: errEmpty},
			&fakeExternal{err: errUnavailable},
			WithRandFunc(func() float64 { return r }),
		)

		_, err := s.Random(context.Background())
		if !errors.Is(err, ErrNoJokes) {
			t.Errorf("Random() with r=%v error = %v, want ErrNoJokes", r, err)
		}
	}
}

func TestRandom_RedrawsEachCall(t *testing.T) {
	// Alternate the draw between the two sources and check both get used.
	draws := []float64{0.1, 0.9}
	i := 0
	s := New(
		&fakeStore{joke: storedJoke},
		&fakeExternal{joke: externalJoke},
		WithRandFunc(func() float64 {
			r := draws[i%len(draws)]
			i++
			return r
		}),
	)

	first, err := s.Random(context.Background())
	if err != nil {
		t.Fatalf("Random() error = %v", err)
	}
	second, err := s.Random(context.Background())
	if err != nil {
		t.Fatalf("Random() error = %v", err)
	}

	if first != externalJoke.Render() || second != storedJoke.JokeText {
		t.Errorf("expected external then stored, got %q then %q", first, second)
	}
}
