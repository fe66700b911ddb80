package jokeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"jokehub/internal/config"
	"jokehub/internal/models"

	"github.com/goccy/go-json"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	cfg := config.BotConfig{APIURL: srv.URL}
	return New(cfg, WithHTTPClient(srv.Client())), srv
}

func TestRandom(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/randomjoke" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"result": "a joke"})
	})
	defer srv.Close()

	text, err := c.Random(context.Background())
	if err != nil {
		t.Fatalf("Random() error = %v", err)
	}
	if text != "a joke" {
		t.Errorf("Random() = %q, want %q", text, "a joke")
	}
}

func TestRandom_NotFound(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, err := c.Random(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Random() error = %v, want ErrNotFound", err)
	}
}

func TestCreate(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/userjoke" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["secret"] != "K7Q2M9XA" {
			t.Errorf("secret = %v", req["secret"])
		}
		json.NewEncoder(w).Encode(map[string]any{"result": "Joke added", "jokeid": 5})
	})
	defer srv.Close()

	id, err := c.Create(context.Background(), 42, "K7Q2M9XA", "why")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != 5 {
		t.Errorf("Create() id = %d, want 5", id)
	}
}

func TestDelete_Forbidden(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	defer srv.Close()

	err := c.Delete(context.Background(), 1, "wrong")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete() error = %v, want ErrForbidden", err)
	}
}

func TestUpdate_SendsPatch(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/userjoke/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var patch map[string]any
		json.NewDecoder(r.Body).Decode(&patch)
		if patch["joketext"] != "new text" {
			t.Errorf("joketext = %v", patch["joketext"])
		}
		json.NewEncoder(w).Encode(map[string]string{"result": "Joke updated"})
	})
	defer srv.Close()

	text := "new text"
	err := c.Update(context.Background(), 7, models.JokePatch{JokeText: &text})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func TestGet_UnexpectedStatus(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := c.Get(context.Background(), 1)
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
		t.Errorf("Get() error = %v, want generic failure", err)
	}
}
