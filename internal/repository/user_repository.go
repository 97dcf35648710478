package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Romanticus/TRexpress/internal/model"
)

const userColumns = "id,full_name,birth_date,email,password_hash,role,is_active,refresh_token_hash,created_at,updated_at"

// UserRepo implements UserStore on top of the MySQL 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user row. The caller supplies the generated id, the
// bcrypt password hash and the refresh token digest; created_at/updated_at
// are maintained by the table defaults.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, full_name, birth_date, email, password_hash, role, is_active, refresh_token_hash) VALUES (?,?,?,?,?,?,?,?)",
		u.ID, u.FullName, u.BirthDate, u.Email, u.PasswordHash, u.Role, u.IsActive, nullable(u.RefreshTokenHash))
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// List returns one page of users (newest first) plus the total count.
func (r *UserRepo) List(ctx context.Context, page, limit int) ([]model.User, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		var (
			u    model.User
			hash sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.FullName, &u.BirthDate, &u.Email, &u.PasswordHash,
			&u.Role, &u.IsActive, &hash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		u.RefreshTokenHash = hash.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateActive flips the is_active flag.
func (r *UserRepo) UpdateActive(ctx context.Context, id string, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=? WHERE id=?", active, id)
	return err
}

// UpdateRefreshHash overwrites the stored refresh token digest.
func (r *UserRepo) UpdateRefreshHash(ctx context.Context, id, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=?", nullable(hash), id)
	return err
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u    model.User
		hash sql.NullString
	)
	err := row.Scan(&u.ID, &u.FullName, &u.BirthDate, &u.Email, &u.PasswordHash,
		&u.Role, &u.IsActive, &hash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.RefreshTokenHash = hash.String
	return u, nil
}

// isDuplicateEntry reports whether err is a MySQL duplicate-key violation
// (error 1062). The raw driver error is never surfaced to clients.
func isDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
