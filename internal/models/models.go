package models

import "time"

type Joke struct {
	ID        int64     `json:"id"`
	TgID      int64     `json:"tgid"`
	Secret    string    `json:"-"`
	JokeText  string    `json:"joketext"`
	CreatedAt time.Time `json:"created_at"`
}

// JokePatch carries a partial update. Nil fields keep the stored value.
type JokePatch struct {
	TgID     *int64  `json:"tgid"`
	Secret   *string `json:"secret"`
	JokeText *string `json:"joketext"`
}

// ExternalJoke is the payload of the external joke API. Never persisted.
type ExternalJoke struct {
	Type      string `json:"type"`
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
	ID        int64  `json:"id"`
}

// Render joins setup and punchline into a single display string.
func (j *ExternalJoke) Render() string {
	return j.Setup + "\n\n\n" + j.Punchline
}

// Registration maps a Telegram user to the secret issued on first contact.
type Registration struct {
	TgID      int64     `json:"tgid"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}
