package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/princekumarofficial/familybook/internal/config"
	"github.com/princekumarofficial/familybook/internal/storage"
)

type Postgres struct {
	Db *sql.DB
}

var _ storage.Storage = (*Postgres)(nil)

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.PGSQL.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}

func (p *Postgres) CreateTables(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(64) NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(200) NOT NULL,
			invite_code VARCHAR(32) UNIQUE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMPTZ
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS account_members (
			account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(16) NOT NULL CHECK (role IN ('owner', 'member', 'guest', 'pending')),
			can_add BOOLEAN NOT NULL DEFAULT FALSE,
			can_edit BOOLEAN NOT NULL DEFAULT FALSE,
			can_delete BOOLEAN NOT NULL DEFAULT FALSE,
			joined_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (account_id, user_id)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS albums (
			id SERIAL PRIMARY KEY,
			account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			title VARCHAR(200) NOT NULL,
			created_by INTEGER NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMPTZ
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS photos (
			id SERIAL PRIMARY KEY,
			album_id INTEGER NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
			account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			author_id INTEGER NOT NULL REFERENCES users(id),
			url TEXT NOT NULL,
			object_key TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMPTZ
		);
		`,
		`CREATE TABLE IF NOT EXISTS photo_likes (
			id SERIAL PRIMARY KEY,
			photo_id INTEGER NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (photo_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS photo_comments (
			id SERIAL PRIMARY KEY,
			photo_id INTEGER NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMPTZ
		);`,
		`
		CREATE TABLE IF NOT EXISTS stories (
			id SERIAL PRIMARY KEY,
			account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			author_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			object_key TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMPTZ
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_stories_account_created ON stories (account_id, created_at DESC) WHERE deleted_at IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_photos_album_created ON photos (album_id, created_at DESC) WHERE deleted_at IS NULL;`,
		`
		CREATE OR REPLACE VIEW active_albums AS
		SELECT a.id, a.account_id, a.title, a.created_by, a.created_at,
			(SELECT COUNT(*) FROM photos p WHERE p.album_id = a.id AND p.deleted_at IS NULL) AS photos_count
		FROM albums a
		WHERE a.deleted_at IS NULL;
		`,
		`
		CREATE OR REPLACE VIEW photos_with_likes AS
		SELECT p.id, p.album_id, p.account_id, p.author_id, u.username, p.url, p.object_key, p.created_at,
			(SELECT COUNT(*) FROM photo_likes l WHERE l.photo_id = p.id) AS likes_count
		FROM photos p
		JOIN users u ON u.id = p.author_id
		WHERE p.deleted_at IS NULL;
		`,
		`
		CREATE OR REPLACE VIEW comments_with_users AS
		SELECT c.id, c.photo_id, c.user_id, u.username, c.text, c.created_at
		FROM photo_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.deleted_at IS NULL;
		`,
		`
		CREATE OR REPLACE FUNCTION soft_delete(table_name TEXT, row_id INTEGER) RETURNS BOOLEAN AS $$
		DECLARE
			affected INTEGER;
		BEGIN
			IF table_name NOT IN ('albums', 'photos', 'stories', 'photo_comments') THEN
				RAISE EXCEPTION 'soft_delete: table % is not soft-deletable', table_name;
			END IF;
			EXECUTE format('UPDATE %I SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL', table_name)
				USING row_id;
			GET DIAGNOSTICS affected = ROW_COUNT;
			RETURN affected > 0;
		END;
		$$ LANGUAGE plpgsql;
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	return nil
}

// SoftDelete calls the soft_delete procedure for one row.
func (p *Postgres) SoftDelete(ctx context.Context, table, rowID string) (bool, error) {
	switch table {
	case storage.TableAlbums, storage.TablePhotos, storage.TableStories, storage.TableComments:
	default:
		return false, fmt.Errorf("soft delete: table %q is not soft-deletable", table)
	}

	var deleted bool
	err := p.Db.QueryRowContext(ctx, `SELECT soft_delete($1, $2)`, table, rowID).Scan(&deleted)
	if err != nil {
		return false, fmt.Errorf("soft delete %s/%s: %w", table, rowID, err)
	}

	return deleted, nil
}

// ReferencedObjectKeys returns the subset of keys that some story or photo
// row points at, soft-deleted rows included.
func (p *Postgres) ReferencedObjectKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	referenced := make(map[string]bool)
	if len(keys) == 0 {
		return referenced, nil
	}

	query := `
	SELECT object_key FROM stories WHERE object_key = ANY($1)
	UNION
	SELECT object_key FROM photos WHERE object_key = ANY($1)
	`

	rows, err := p.Db.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("referenced object keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan object key: %w", err)
		}
		referenced[key] = true
	}

	return referenced, rows.Err()
}

// notFound maps sql.ErrNoRows to storage.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// isUniqueViolation reports a Postgres 23505 error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
