package database

import (
	"context"
	"errors"

	"jokehub/internal/models"
)

var (
	ErrJokeNotFound = errors.New("joke not found")
	ErrWrongSecret  = errors.New("incorrect secret")
	ErrNoJokes      = errors.New("no jokes in database")
)

type JokeRepository struct {
	db *DB
}

func NewJokeRepository(db *DB) *JokeRepository {
	return &JokeRepository{db: db}
}

func (r *JokeRepository) Create(ctx context.Context, joke *models.Joke) error {
	query := `
		INSERT INTO jokes (tgid, secret, joketext)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.db.Pool.QueryRow(ctx, query, joke.TgID, joke.Secret, joke.JokeText).
		Scan(&joke.ID, &joke.CreatedAt)
}

func (r *JokeRepository) Get(ctx context.Context, id int64) (*models.Joke, error) {
	query := `
		SELECT id, tgid, secret, joketext, created_at
		FROM jokes
		WHERE id = $1
	`
	var joke models.Joke
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&joke.ID, &joke.TgID, &joke.Secret, &joke.JokeText, &joke.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrJokeNotFound
		}
		return nil, err
	}
	return &joke, nil
}

// Update merges the patch over the stored row. Nil patch fields keep their
// current values. The read and the write are separate statements, same as the
// rest of the service: the last writer wins on a concurrent update.
func (r *JokeRepository) Update(ctx context.Context, id int64, patch models.JokePatch) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	tgid := current.TgID
	secret := current.Secret
	text := current.JokeText
	if patch.TgID != nil {
		tgid = *patch.TgID
	}
	if patch.Secret != nil {
		secret = *patch.Secret
	}
	if patch.JokeText != nil {
		text = *patch.JokeText
	}

	query := `
		UPDATE jokes
		SET tgid = $1, secret = $2, joketext = $3
		WHERE id = $4
	`
	_, err = r.db.Pool.Exec(ctx, query, tgid, secret, text, id)
	return err
}

// Delete removes the joke after checking the supplied secret against the
// stored one by exact string comparison.
func (r *JokeRepository) Delete(ctx context.Context, id int64, secret string) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	if current.Secret != secret {
		return ErrWrongSecret
	}

	_, err = r.db.Pool.Exec(ctx, "DELETE FROM jokes WHERE id = $1", id)
	return err
}

func (r *JokeRepository) GetRandom(ctx context.Context) (*models.Joke, error) {
	query := `
		SELECT id, tgid, secret, joketext, created_at
		FROM jokes
		ORDER BY RANDOM()
		LIMIT 1
	`
	var joke models.Joke
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&joke.ID, &joke.TgID, &joke.Secret, &joke.JokeText, &joke.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNoJokes
		}
		return nil, err
	}
	return &joke, nil
}

func (r *JokeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM jokes").Scan(&count)
	return count, err
}
