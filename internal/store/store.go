// Package store is the server-side stand-in for the browser's local
// storage: logged-in sessions and per-user preferences, persisted in
// a local sqlite file. Secret keys are sealed before they touch disk.
package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	_ "modernc.org/sqlite"

	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/logger"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNoStoreSecret = errors.New("store secret not configured")
)

type Store struct {
	db      *sql.DB
	sealKey []byte
	// canSeal guards against persisting secret keys sealed with a key
	// derived from the empty string
	canSeal bool
}

func New(dbPath, secret string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			pubkey TEXT NOT NULL,
			sealed_key BLOB,
			readonly INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			pubkey TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (pubkey, name)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preferences table: %w", err)
	}

	key := sha256.Sum256([]byte(secret))
	return &Store{db: db, sealKey: key[:], canSeal: secret != ""}, nil
}

func (s *Store) seal(plaintext string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.sealKey)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

func (s *Store) unseal(sealed []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.sealKey)
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize() {
		return "", errors.New("sealed key too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("unsealing secret key: %w", err)
	}
	return string(plaintext), nil
}

// CreateSession persists a session. secretKey is empty for read-only
// sessions and sealed at rest otherwise; signing sessions are refused
// when no store secret is configured.
func (s *Store) CreateSession(sess domain.Session, secretKey string) error {
	var sealed []byte
	if secretKey != "" {
		if !s.canSeal {
			return ErrNoStoreSecret
		}
		var err error
		sealed, err = s.seal(secretKey)
		if err != nil {
			return fmt.Errorf("sealing session key: %w", err)
		}
	}

	readonly := 0
	if sess.ReadOnly {
		readonly = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, pubkey, sealed_key, readonly, created_at) VALUES (?, ?, ?, ?, ?)`,
		sess.Id, sess.Pubkey, sealed, readonly, sess.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// GetSession returns the session and its unsealed secret key (empty
// for read-only sessions).
func (s *Store) GetSession(id string) (domain.Session, string, error) {
	var (
		sess      domain.Session
		sealed    []byte
		readonly  int
		createdAt int64
	)
	err := s.db.QueryRow(
		`SELECT id, pubkey, sealed_key, readonly, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.Id, &sess.Pubkey, &sealed, &readonly, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, "", ErrNotFound
	}
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("loading session: %w", err)
	}

	sess.ReadOnly = readonly == 1
	sess.CreatedAt = time.Unix(createdAt, 0)

	var secretKey string
	if len(sealed) > 0 {
		secretKey, err = s.unseal(sealed)
		if err != nil {
			return domain.Session{}, "", err
		}
	}
	return sess, secretKey, nil
}

func (s *Store) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteSessionsBefore removes sessions created before the cutoff and
// reports how many rows went away.
func (s *Store) DeleteSessionsBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	return res.RowsAffected()
}

// StartSessionSweeper periodically deletes sessions older than the JWT
// TTL plus a 10% buffer for clock skew. Expired tokens already fail
// auth; the sweep keeps abandoned rows from piling up on disk.
func (s *Store) StartSessionSweeper(ctx context.Context, jwtTTL, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started session sweeper",
		"component", "store",
		"interval", interval,
		"jwt_ttl", jwtTTL)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().Add(-time.Duration(float64(jwtTTL) * 1.1))
				deleted, err := s.DeleteSessionsBefore(cutoff)
				if err != nil {
					logger.Log.Error("session sweep failed",
						"component", "store",
						"error", err)
					continue
				}
				if deleted > 0 {
					logger.Log.Info("swept expired sessions",
						"component", "store",
						"deleted", deleted)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// SetPreference stores one opaque preference value for a pubkey.
func (s *Store) SetPreference(pubkey, name, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (pubkey, name, value) VALUES (?, ?, ?)
		 ON CONFLICT (pubkey, name) DO UPDATE SET value = excluded.value`,
		pubkey, name, value,
	)
	if err != nil {
		return fmt.Errorf("saving preference: %w", err)
	}
	return nil
}

// GetPreference returns "" without error when the preference is unset.
func (s *Store) GetPreference(pubkey, name string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM preferences WHERE pubkey = ? AND name = ?`, pubkey, name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading preference: %w", err)
	}
	return value, nil
}

// Preferences returns all stored preferences for a pubkey.
func (s *Store) Preferences(pubkey string) (map[string]string, error) {
	rows, err := s.db.Query(`SELECT name, value FROM preferences WHERE pubkey = ?`, pubkey)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		prefs[name] = value
	}
	return prefs, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
