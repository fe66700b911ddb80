package database

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
)

var ErrNotRegistered = errors.New("user is not registered")

const (
	secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	secretLength   = 8
)

// NewSecret draws an 8-character credential uniformly from uppercase letters
// and digits. Not a cryptographic identity, just a write token. Bytes at or
// above the largest multiple of the alphabet size are redrawn so the draw
// stays uniform.
func NewSecret() (string, error) {
	const limit = byte(256 - 256%len(secretAlphabet))

	out := make([]byte, 0, secretLength)
	buf := make([]byte, secretLength)
	for len(out) < secretLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate secret: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, secretAlphabet[int(b)%len(secretAlphabet)])
			if len(out) == secretLength {
				break
			}
		}
	}
	return string(out), nil
}

type RegistrationRepository struct {
	db *DB
}

func NewRegistrationRepository(db *DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Register issues a secret for the user on first contact. If the user already
// has one, the stored secret stays authoritative and is returned unchanged.
func (r *RegistrationRepository) Register(ctx context.Context, tgID int64) (string, error) {
	secret, err := NewSecret()
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO registrations (tgid, secret)
		VALUES ($1, $2)
		ON CONFLICT (tgid) DO NOTHING
	`
	if _, err := r.db.Pool.Exec(ctx, query, tgID, secret); err != nil {
		return "", err
	}

	return r.Get(ctx, tgID)
}

func (r *RegistrationRepository) Get(ctx context.Context, tgID int64) (string, error) {
	var secret string
	err := r.db.Pool.QueryRow(ctx, "SELECT secret FROM registrations WHERE tgid = $1", tgID).
		Scan(&secret)
	if err != nil {
		if isNoRows(err) {
			return "", ErrNotRegistered
		}
		return "", err
	}
	return secret, nil
}

func (r *RegistrationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM registrations").Scan(&count)
	return count, err
}
