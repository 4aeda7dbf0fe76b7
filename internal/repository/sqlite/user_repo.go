package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jmoiron/sqlx"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/model"
)

// UserRepo implements UserRepository on sqlite.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

type userRow struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	PwdHash   []byte `db:"pwd_hash"`
	SaltAuth  []byte `db:"salt_auth"`
	CreatedAt string `db:"created_at"`
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users (id, email, name, pwd_hash, salt_auth, created_at) VALUES (?,?,?,?,?,?)`
	_, err := r.db.X.ExecContext(ctx, q, u.ID.String(), u.Email, u.Name, u.PwdHash, u.SaltAuth, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.get(ctx, "id=?", id.String())
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, "email=?", email)
}

func (r *UserRepo) get(ctx context.Context, where string, arg any) (*model.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.db.X, &row,
		`SELECT id, email, name, pwd_hash, salt_auth, created_at FROM users WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	id, err := uuid.FromString(row.ID)
	if err != nil {
		return nil, err
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &model.User{
		ID:        id,
		Email:     row.Email,
		Name:      row.Name,
		PwdHash:   row.PwdHash,
		SaltAuth:  row.SaltAuth,
		CreatedAt: created,
	}, nil
}
