package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"videotube/internal/models"
)

type UserSQLite struct {
	db *sql.DB
}

func NewUserSQLite(db *sql.DB) *UserSQLite {
	return &UserSQLite{db: db}
}

// Ensure implementation of Users interface at compile time.
var _ Users = (*UserSQLite)(nil)

const userColumns = `id, username, email, full_name, avatar, cover_image, password_hash, access_token, refresh_token, created_at, updated_at`

const (
	insertUserSQL                  = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	selectUserByIDSQL              = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	selectUserByUsernameOrEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE username = ? OR email = ? LIMIT 1`
)

// Create inserts u. The caller assigns ID and timestamps.
func (r *UserSQLite) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.ExecContext(ctx, insertUserSQL,
		u.ID,
		u.Username,
		u.Email,
		u.FullName,
		u.Avatar,
		nullString(u.CoverImage),
		u.PasswordHash,
		nullString(u.AccessToken),
		nullString(u.RefreshToken),
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return nil
}

func (r *UserSQLite) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserByIDSQL, id))
	if err != nil {
		return nil, fmt.Errorf("select user by id %q: %w", id, err)
	}
	return u, nil
}

func (r *UserSQLite) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	if username == "" && email == "" {
		return nil, nil
	}
	// An empty value never matches a stored row, so both placeholders stay bound.
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserByUsernameOrEmailSQL, username, email))
	if err != nil {
		return nil, fmt.Errorf("select user by username %q or email %q: %w", username, email, err)
	}
	return u, nil
}

// Update writes the non-nil fields of upd and bumps updated_at. An empty
// update writes nothing and returns the current record.
func (r *UserSQLite) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if upd.IsEmpty() {
		return r.FindByID(ctx, id)
	}
	query, args := buildUpdateSQL(id, upd, time.Now().UTC())

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("update user %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected for user %q: %w", id, err)
	}
	if n == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

// buildUpdateSQL renders the SET list in a fixed column order. A set
// IfRefreshToken narrows the WHERE clause so a stale token matches no row.
func buildUpdateSQL(id string, upd models.UserUpdate, now time.Time) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v *string, nullable bool) {
		if v == nil {
			return
		}
		sets = append(sets, col+" = ?")
		if nullable {
			args = append(args, nullString(*v))
		} else {
			args = append(args, *v)
		}
	}
	add("full_name", upd.FullName, false)
	add("email", upd.Email, false)
	add("avatar", upd.Avatar, false)
	add("cover_image", upd.CoverImage, true)
	add("password_hash", upd.PasswordHash, false)
	add("access_token", upd.AccessToken, true)
	add("refresh_token", upd.RefreshToken, true)

	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)
	where := " WHERE id = ?"
	if upd.IfRefreshToken != nil {
		where += " AND refresh_token = ?"
		args = append(args, *upd.IfRefreshToken)
	}
	return "UPDATE users SET " + strings.Join(sets, ", ") + where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser returns (nil, nil) on sql.ErrNoRows.
func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                      models.User
		cover, access, refresh sql.NullString
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.Avatar,
		&cover,
		&u.PasswordHash,
		&access,
		&refresh,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CoverImage = cover.String
	u.AccessToken = access.String
	u.RefreshToken = refresh.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
