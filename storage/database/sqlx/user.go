package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ayalat/maarekhet/core/user"
)

type userRow struct {
	ID                string      `db:"id"`
	Name              string      `db:"name"`
	Username          string      `db:"username"`
	Email             string      `db:"email"`
	Role              string      `db:"role"`
	IsActive          bool        `db:"is_active"`
	PasswordHash      []byte      `db:"password_hash"`
	ResetToken        null.String `db:"reset_token"`
	ResetTokenExpires null.Time   `db:"reset_token_expires"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
	LastLogin         null.Time   `db:"last_login"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:                usr.ID,
		Name:              usr.Name,
		Username:          usr.Username,
		Email:             usr.Email,
		Role:              usr.Role,
		IsActive:          usr.IsActive,
		PasswordHash:      usr.PasswordHash,
		ResetToken:        null.NewString(usr.ResetToken, usr.ResetToken != ""),
		ResetTokenExpires: null.NewTime(usr.ResetTokenExpires.UTC(), !usr.ResetTokenExpires.IsZero()),
		CreatedAt:         usr.CreatedAt.UTC(),
		UpdatedAt:         usr.UpdatedAt.UTC(),
		LastLogin:         null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:                r.ID,
		Name:              r.Name,
		Username:          r.Username,
		Email:             r.Email,
		Role:              r.Role,
		IsActive:          r.IsActive,
		PasswordHash:      r.PasswordHash,
		ResetToken:        r.ResetToken.String,
		ResetTokenExpires: r.ResetTokenExpires.Time,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		LastLogin:         r.LastLogin.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if isNoRows(err) {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM app_user WHERE username = ?)`
	args := []interface{}{username}

	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		var err error
		query, args, err = sqlx.In(`SELECT EXISTS (SELECT 1 FROM app_user WHERE username = ? AND id NOT IN (?))`, username, ids)
		if err != nil {
			return errors.Wrap(err, "checking username uniqueness")
		}
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return user.ErrUsernameExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := newUserRow(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO app_user (id, name, username, email, role, is_active, password_hash, reset_token, reset_token_expires, created_at, updated_at, last_login)
		VALUES (:id, :name, :username, :email, :role, :is_active, :password_hash, :reset_token, :reset_token_expires, :created_at, :updated_at, :last_login)`,
		row,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM app_user ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, msg, query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, msg)
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "getting user by id", `SELECT * FROM app_user WHERE id = $1`, id)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "getting user by username", `SELECT * FROM app_user WHERE username = $1`, username)
}

func (repo userRepository) GetUserByResetToken(ctx context.Context, token string) (user.User, error) {
	return repo.getUser(ctx, "getting user by reset token", `SELECT * FROM app_user WHERE reset_token = $1`, token)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	if isActive != nil {
		usr.IsActive = *isActive
	}
	row := newUserRow(usr)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE app_user
		SET name = :name, username = :username, email = :email, role = :role, is_active = :is_active,
		    password_hash = :password_hash, reset_token = :reset_token, reset_token_expires = :reset_token_expires,
		    updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		row,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return row.toUser(), nil
}

func (repo userRepository) DeleteUserByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}
