// Package server exposes the joke service over HTTP.
package server

import (
	"context"
	"net/http"

	"jokehub/internal/config"
	"jokehub/internal/models"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// JokeStore is the slice of the joke repository the handlers call.
type JokeStore interface {
	Create(ctx context.Context, joke *models.Joke) error
	Get(ctx context.Context, id int64) (*models.Joke, error)
	Update(ctx context.Context, id int64, patch models.JokePatch) error
	Delete(ctx context.Context, id int64, secret string) error
}

// RandomSource produces one random joke text per call.
type RandomSource interface {
	Random(ctx context.Context) (string, error)
}

type Server struct {
	jokes  JokeStore
	random RandomSource
	cfg    config.ServerConfig
}

func New(cfg config.ServerConfig, jokes JokeStore, random RandomSource) *Server {
	return &Server{
		cfg:    cfg,
		jokes:  jokes,
		random: random,
	}
}

// Router wires the HTTP surface. The {id} segment is digits-only, so
// non-numeric ids fall through to chi's 404.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/randomjoke", s.handleRandomJoke)

	r.Route("/userjoke", func(r chi.Router) {
		r.Post("/", s.handleCreateJoke)
		r.Get("/{id:[0-9]+}", s.handleGetJoke)
		r.Put("/{id:[0-9]+}", s.handleUpdateJoke)
		r.Delete("/{id:[0-9]+}", s.handleDeleteJoke)
	})

	return r
}
