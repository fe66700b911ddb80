package server

import (
	"errors"
	"net/http"
	"strconv"

	"jokehub/internal/database"
	"jokehub/internal/models"
	"jokehub/internal/selector"
	"jokehub/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type createRequest struct {
	TgID     int64  `json:"tgid"`
	Secret   string `json:"secret"`
	JokeText string `json:"joketext"`
}

type deleteRequest struct {
	Secret string `json:"secret"`
}

func (s *Server) handleRandomJoke(w http.ResponseWriter, r *http.Request) {
	text, err := s.random.Random(r.Context())
	if err != nil {
		if errors.Is(err, selector.ErrNoJokes) {
			writeError(w, http.StatusNotFound, "No jokes available")
			return
		}
		logger.Error("Random joke selection failed", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": text})
}

func (s *Server) handleGetJoke(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Joke not found")
		return
	}

	joke, err := s.jokes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrJokeNotFound) {
			writeError(w, http.StatusNotFound, "Joke not found")
			return
		}
		logger.Error("Failed to get joke", logger.Int64("id", id), logger.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       joke.ID,
		"tgid":     joke.TgID,
		"joketext": joke.JokeText,
	})
}

func (s *Server) handleCreateJoke(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	joke := &models.Joke{
		TgID:     req.TgID,
		Secret:   req.Secret,
		JokeText: req.JokeText,
	}
	if err := s.jokes.Create(r.Context(), joke); err != nil {
		logger.Error("Failed to create joke", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("Joke created",
		logger.Int64("joke_id", joke.ID),
		logger.Int64("tgid", joke.TgID),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"result": "Joke added",
		"jokeid": joke.ID,
	})
}

func (s *Server) handleUpdateJoke(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Joke not found")
		return
	}

	var patch models.JokePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.jokes.Update(r.Context(), id, patch); err != nil {
		if errors.Is(err, database.ErrJokeNotFound) {
			writeError(w, http.StatusNotFound, "Joke not found")
			return
		}
		logger.Error("Failed to update joke", logger.Int64("id", id), logger.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": "Joke updated"})
}

func (s *Server) handleDeleteJoke(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Joke not found")
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.jokes.Delete(r.Context(), id, req.Secret); err != nil {
		switch {
		case errors.Is(err, database.ErrJokeNotFound):
			writeError(w, http.StatusNotFound, "Joke not found")
		case errors.Is(err, database.ErrWrongSecret):
			writeError(w, http.StatusForbidden, "Incorrect secret")
		default:
			logger.Error("Failed to delete joke", logger.Int64("id", id), logger.Err(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	logger.Info("Joke deleted", logger.Int64("joke_id", id))

	writeJSON(w, http.StatusOK, map[string]string{"result": "Joke deleted"})
}
