package users

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/rapidfit/internal/telemetry/tracing"
	"github.com/2beens/rapidfit/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user *User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if user.ID == "" || user.Email == "" || user.PasswordHash == "" {
		return errors.New("user id, email or password hash empty")
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO app_user (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6);`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailTaken
		}
		return err
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return r.getBy(ctx, `id`, id)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getbyemail")
	defer func() {
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return r.getBy(ctx, `email`, email)
}

// column is never user input
func (r *Repo) getBy(ctx context.Context, column, value string) (*User, error) {
	var user User
	err := r.db.QueryRow(
		ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		FROM app_user WHERE `+column+` = $1;`,
		value,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pkg.IsNoRowsError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repo) UpdateProfile(ctx context.Context, id, name, email string, updatedAt time.Time) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updateprofile")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var user User
	err = r.db.QueryRow(
		ctx,
		`UPDATE app_user SET name = $1, email = $2, updated_at = $3 WHERE id = $4
		RETURNING id, name, email, password_hash, created_at, updated_at;`,
		name, email, updatedAt, id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case pkg.IsNoRowsError(err):
			return nil, ErrUserNotFound
		case pkg.IsUniqueViolationError(err):
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updatepassword")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE app_user SET password_hash = $1, updated_at = $2 WHERE id = $3;`,
		passwordHash, updatedAt, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
