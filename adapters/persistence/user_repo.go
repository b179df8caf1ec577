package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type postgresUserRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresUserRepo(db *pgxpool.Pool, log logger.Logger) user.Repository {
	return &postgresUserRepo{db: db, logger: log}
}

var userColumns = []string{"id", "external_id", "COALESCE(email, '')", "name", "avatar_url", "created_at", "updated_at"}

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresUserRepo) findOne(ctx context.Context, column string, value any, identifier string) (*user.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(column+" = ?", value).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build user query", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", identifier)
		}
		r.logger.Error("Failed to query user", err, zap.String("by", column))
		return nil, apperror.NewInternal("failed to query user", err)
	}
	return u, nil
}

func (r *postgresUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, "id", id, id.String())
}

func (r *postgresUserRepo) FindByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	return r.findOne(ctx, "external_id", externalID, externalID)
}

// EnsureByExternalID relies on ON CONFLICT DO NOTHING so concurrent first
// requests for the same identity converge on one row.
func (r *postgresUserRepo) EnsureByExternalID(ctx context.Context, u *user.User) (*user.User, error) {
	query := `
		INSERT INTO users (id, external_id, email, name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		ON CONFLICT (external_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, u.ID, u.ExternalID, u.Email, u.Name, u.AvatarURL, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, r.mapWriteError(err, u)
	}
	return r.FindByExternalID(ctx, u.ExternalID)
}

func (r *postgresUserRepo) Upsert(ctx context.Context, u *user.User) (*user.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (id, external_id, email, name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $6)
		ON CONFLICT (external_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at
		RETURNING %s
	`, joinColumns(userColumns))

	stored, err := scanUser(r.db.QueryRow(ctx, query, u.ID, u.ExternalID, u.Email, u.Name, u.AvatarURL, time.Now().UTC()))
	if err != nil {
		return nil, r.mapWriteError(err, u)
	}
	return stored, nil
}

func (r *postgresUserRepo) DeleteByExternalID(ctx context.Context, externalID string) error {
	query, args, err := psql.Delete("users").Where("external_id = ?", externalID).ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build user delete", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewInternal("failed to delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", externalID)
	}
	return nil
}

func (r *postgresUserRepo) mapWriteError(err error, u *user.User) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "users_email_key" {
		return apperror.NewConflict("user", "email", u.Email)
	}
	r.logger.Error("Failed to write user", err, zap.String("external_id", u.ExternalID))
	return apperror.NewInternal("failed to write user", err)
}
