package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/target/prestataires-ui/internal/data/pgxutil"
	apperrors "github.com/target/prestataires-ui/internal/errors"
)

// ErrProfileIDRequired is returned when a profile row is written without a user id.
var ErrProfileIDRequired = errors.New("user id is required")

// ProfileRepo writes the public profile row mirrored from the identity provider.
type ProfileRepo struct {
	DB *sql.DB
	// Now stamps rows inserted without a creation time. Defaults to time.Now.
	Now func() time.Time
}

// NewProfileRepo creates a ProfileRepo backed by db.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, Now: time.Now}
}

// InsertUserRow inserts (id, email, created_at) into users.
// A zero createdAt falls back to the repository clock.
func (r *ProfileRepo) InsertUserRow(ctx context.Context, id, email string, createdAt time.Time) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrProfileIDRequired
	}
	if createdAt.IsZero() {
		now := r.Now
		if now == nil {
			now = time.Now
		}
		createdAt = now()
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx,
			`INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)`,
			id, strings.TrimSpace(email), createdAt.UTC(),
		)
		return execErr
	})
	return apperrors.MapDBError(err)
}

// Profile is a row of the users table.
type Profile struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// ListProfiles returns every profile row, newest first, up to limit (0 means no limit).
func (r *ProfileRepo) ListProfiles(ctx context.Context, limit int) ([]Profile, error) {
	query := `SELECT id, email, created_at FROM users ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var out []Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectStructs[Profile](ctx, conn, query, args...)
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}
