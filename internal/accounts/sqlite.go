package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fossabot/DropOut/internal/accounts/migrations"
	"github.com/fossabot/DropOut/internal/encryption"
	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const activeAccountKey = "active_account"

// SQLiteStore implements launcher.AccountStore backed by SQLite. Access and
// refresh tokens are encrypted at rest with the configured Encryptor; all
// other columns are plaintext so listing accounts does not touch key material.
type SQLiteStore struct {
	db  *sql.DB
	enc encryption.Encryptor
}

var _ launcher.AccountStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the account database at path and brings
// its schema up to date: when the status check reports a stale or missing
// schema version, pending migrations run; a current schema opens without
// touching the migration machinery. path can be ":memory:" for tests.
func NewSQLiteStore(path string, enc encryption.Encryptor) (*SQLiteStore, error) {
	db, err := openConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		if err := migrations.MigrateUp(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating account database: %w", err)
		}
	}

	return &SQLiteStore{db: db, enc: enc}, nil
}

// openConnection opens and configures a SQLite connection.
func openConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Save upserts the account by UUID and marks it active. An account that just
// signed in (or refreshed) is the one the user wants to play with.
func (s *SQLiteStore) Save(a *model.Account) error {
	accessToken, err := s.seal(a.AccessToken)
	if err != nil {
		return fmt.Errorf("sealing access token: %w", err)
	}
	refreshToken, err := s.seal(a.RefreshToken)
	if err != nil {
		return fmt.Errorf("sealing refresh token: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO accounts (uuid, type, username, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			type = excluded.type,
			username = excluded.username,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		a.UUID, a.Type, a.Username, accessToken, refreshToken, a.ExpiresAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("saving account %s: %w", a.UUID, err)
	}

	return s.setActiveID(a.UUID)
}

// Active returns the active account, or (nil, nil) when none is signed in.
func (s *SQLiteStore) Active() (*model.Account, error) {
	id, err := s.activeID()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}

	account, err := s.load(id)
	if err != nil {
		var nf *launcher.NotFoundError
		if errors.As(err, &nf) {
			// Stale pointer; the account row was removed out of band.
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

// SetActive marks the given account as active.
func (s *SQLiteStore) SetActive(id string) error {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM accounts WHERE uuid = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return &launcher.NotFoundError{Kind: "account", ID: id}
	}
	if err != nil {
		return fmt.Errorf("looking up account %s: %w", id, err)
	}
	return s.setActiveID(id)
}

// Remove deletes the account. When the active account is removed, the first
// remaining account (by most recent update) is promoted.
func (s *SQLiteStore) Remove(id string) error {
	if _, err := s.db.Exec("DELETE FROM accounts WHERE uuid = ?", id); err != nil {
		return fmt.Errorf("removing account %s: %w", id, err)
	}

	active, err := s.activeID()
	if err != nil {
		return err
	}
	if active != id {
		return nil
	}

	var next string
	err = s.db.QueryRow("SELECT uuid FROM accounts ORDER BY updated_at DESC LIMIT 1").Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		next = ""
	} else if err != nil {
		return fmt.Errorf("selecting replacement account: %w", err)
	}
	return s.setActiveID(next)
}

// List returns every stored account, most recently updated first.
func (s *SQLiteStore) List() ([]*model.Account, error) {
	rows, err := s.db.Query(`
		SELECT uuid, type, username, access_token, refresh_token, expires_at
		FROM accounts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []*model.Account
	for rows.Next() {
		account, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) load(id string) (*model.Account, error) {
	row := s.db.QueryRow(`
		SELECT uuid, type, username, access_token, refresh_token, expires_at
		FROM accounts WHERE uuid = ?`, id)
	account, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &launcher.NotFoundError{Kind: "account", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(row rowScanner) (*model.Account, error) {
	var (
		account      model.Account
		accessToken  []byte
		refreshToken []byte
	)
	if err := row.Scan(&account.UUID, &account.Type, &account.Username, &accessToken, &refreshToken, &account.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning account row: %w", err)
	}

	var err error
	if account.AccessToken, err = s.open(accessToken); err != nil {
		return nil, fmt.Errorf("opening access token for %s: %w", account.UUID, err)
	}
	if account.RefreshToken, err = s.open(refreshToken); err != nil {
		return nil, fmt.Errorf("opening refresh token for %s: %w", account.UUID, err)
	}
	return &account, nil
}

// seal encrypts a token for storage. Empty tokens (offline accounts) are
// stored as empty blobs so the column stays distinguishable from corruption.
func (s *SQLiteStore) seal(token string) ([]byte, error) {
	if token == "" {
		return nil, nil
	}
	return encryption.EncryptBytes(s.enc, []byte(token))
}

func (s *SQLiteStore) open(blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", nil
	}
	plaintext, err := encryption.DecryptBytes(s.enc, blob)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (s *SQLiteStore) activeID() (string, error) {
	var id string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", activeAccountKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading active account: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) setActiveID(id string) error {
	if id == "" {
		if _, err := s.db.Exec("DELETE FROM settings WHERE key = ?", activeAccountKey); err != nil {
			return fmt.Errorf("clearing active account: %w", err)
		}
		return nil
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		activeAccountKey, id)
	if err != nil {
		return fmt.Errorf("setting active account: %w", err)
	}
	return nil
}
