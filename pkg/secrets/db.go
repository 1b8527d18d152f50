package secrets

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/umputun/lext/pkg/dsn"
)

const secretsTable = "lext_secrets"

// DBProvider keeps secrets in a database table, encrypted with a key derived from the master key.
// Supported databases are sqlite, postgres, mysql and duckdb.
type DBProvider struct {
	db     *sql.DB
	key    []byte
	driver string
}

// NewDBProvider opens the database and makes the secrets table if missing
func NewDBProvider(conn string, key []byte) (*DBProvider, error) {
	if len(key) == 0 {
		return nil, errors.New("empty encryption key")
	}
	db, drv, err := dsn.Open(conn)
	if err != nil {
		return nil, fmt.Errorf("can't open secrets database: %w", err)
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS ` + secretsTable + ` (skey VARCHAR(255) PRIMARY KEY, sval TEXT)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("can't make secrets table: %w", err)
	}
	log.Printf("[INFO] secrets provider: using %s database", drv)
	return &DBProvider{db: db, driver: drv, key: key}, nil
}

// Get retrieves a secret from the database and decrypts it
func (p *DBProvider) Get(key string) (string, error) {
	var sealed string
	query := "SELECT sval FROM " + secretsTable + " WHERE skey = " + dsn.Placeholder(p.driver, 1)
	if err := p.db.QueryRow(query, key).Scan(&sealed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("can't read secret %s: %w", key, err)
	}

	res, err := p.decrypt(sealed)
	if err != nil {
		return "", fmt.Errorf("can't get secret for %s: %w", key, err)
	}
	return res, nil
}

// Set stores a secret in the database, encrypted
func (p *DBProvider) Set(key, value string) error {
	sealed, err := p.encrypt(value)
	if err != nil {
		return fmt.Errorf("can't set secret for %s: %w", key, err)
	}

	var stmt string
	switch p.driver {
	case dsn.SQLite, dsn.DuckDB:
		stmt = "INSERT OR REPLACE INTO " + secretsTable + " (skey, sval) VALUES ($1, $2)"
	case dsn.Postgres:
		stmt = "INSERT INTO " + secretsTable + " (skey, sval) VALUES ($1, $2) ON CONFLICT (skey) DO UPDATE SET sval = $2"
	case dsn.MySQL:
		stmt = "REPLACE INTO " + secretsTable + " (skey, sval) VALUES (?, ?)"
	default:
		return fmt.Errorf("unsupported database type: %s", p.driver)
	}

	if _, err = p.db.Exec(stmt, key, sealed); err != nil {
		return fmt.Errorf("can't insert secret: %w", err)
	}
	return nil
}

// Delete removes a secret from the database
func (p *DBProvider) Delete(key string) error {
	res, err := p.db.Exec("DELETE FROM "+secretsTable+" WHERE skey = "+dsn.Placeholder(p.driver, 1), key)
	if err != nil {
		return fmt.Errorf("can't delete secret for %s: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

// List returns keys with the prefix, empty or "*" prefix lists all keys
func (p *DBProvider) List(prefix string) ([]string, error) {
	var rows *sql.Rows
	var err error

	query := "SELECT skey FROM " + secretsTable
	if prefix != "*" && prefix != "" {
		rows, err = p.db.Query(query+" WHERE skey LIKE "+dsn.Placeholder(p.driver, 1)+" ORDER BY skey", prefix+"%")
	} else {
		rows, err = p.db.Query(query + " ORDER BY skey")
	}
	if err != nil {
		return nil, fmt.Errorf("can't list secrets: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("can't scan secret key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't retrieve secret keys: %w", err)
	}
	return keys, nil
}

// Close closes the database
func (p *DBProvider) Close() error {
	return p.db.Close()
}

// encrypt seals data with secretbox. The result is base64 of nonce(24) + salt(16) + sealed box,
// the box key is derived from the master key and the salt.
func (p *DBProvider) encrypt(data string) (string, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	boxKey := new([32]byte)
	copy(boxKey[:], deriveKey(p.key, salt))

	nonce := new([24]byte)
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}

	out := make([]byte, 24+16)
	copy(out, nonce[:])
	copy(out[24:], salt)
	return base64.StdEncoding.EncodeToString(secretbox.Seal(out, []byte(data), nonce, boxKey)), nil
}

func (p *DBProvider) decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(sealed) < 24+16+secretbox.Overhead {
		return "", errors.New("sealed value is too short")
	}

	nonce := new([24]byte)
	copy(nonce[:], sealed[:24])
	boxKey := new([32]byte)
	copy(boxKey[:], deriveKey(p.key, sealed[24:40]))

	res, ok := secretbox.Open(nil, sealed[40:], nonce, boxKey)
	if !ok {
		return "", errors.New("failed to decrypt")
	}
	return string(res), nil
}

// deriveKey makes a 32 bytes key with argon2id, 1 pass over 64MiB with 4 threads
func deriveKey(key, salt []byte) []byte {
	return argon2.IDKey(key, salt, 1, 64*1024, 4, 32)
}
