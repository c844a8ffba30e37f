package token

import (
	"context"
	"database/sql"
	"errors"
	c "setpass/internal/core/domain/common"
	"setpass/internal/core/domain/token"
	"setpass/internal/db"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

const (
	PG_UNIQUE_CONSTRAINT_ERR_CODE = "23505"
	IDENTITY_CONSTRAINT_NAME      = "setpass_token_pkey"
	TOKEN_CONSTRAINT_NAME         = "setpass_token_token_key"
)

const recordColumns = "identity, token, pin_digest, password, updated_at"

const getByTokenQuery = "SELECT " + recordColumns + " FROM setpass_token WHERE token = $1"

const getByIdentityQuery = "SELECT " + recordColumns + " FROM setpass_token WHERE identity = $1"

const createQuery = `
INSERT INTO setpass_token (identity, token, pin_digest, password, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + recordColumns

const updateQuery = `
UPDATE setpass_token SET
    token = $2,
    pin_digest = CASE WHEN $3::boolean THEN $4::varchar ELSE pin_digest END,
    password = CASE WHEN $5::boolean THEN $6::text ELSE password END,
    updated_at = $7
WHERE identity = $1
RETURNING ` + recordColumns

const deleteQuery = "DELETE FROM setpass_token WHERE token = $1"

type PgxTokenRepository struct {
	db db.DBTX
}

func NewPgxTokenRepository(db db.DBTX) *PgxTokenRepository {
	if db == nil {
		panic("Argument db must not be nil.")
	}
	return &PgxTokenRepository{db: db}
}

func (r *PgxTokenRepository) GetByToken(ctx context.Context, t token.Token) (token.Record, error) {
	return r.get(ctx, getByTokenQuery, string(t))
}

func (r *PgxTokenRepository) GetByTokenForUpdate(ctx context.Context, t token.Token) (token.Record, error) {
	return r.get(ctx, getByTokenQuery+" FOR UPDATE", string(t))
}

func (r *PgxTokenRepository) GetByIdentity(ctx context.Context, identity token.Identity) (token.Record, error) {
	return r.get(ctx, getByIdentityQuery, string(identity))
}

func (r *PgxTokenRepository) GetByIdentityForUpdate(
	ctx context.Context,
	identity token.Identity,
) (token.Record, error) {
	return r.get(ctx, getByIdentityQuery+" FOR UPDATE", string(identity))
}

func (r *PgxTokenRepository) Create(ctx context.Context, input token.CreateInput) (record token.Record, err error) {
	row := r.db.QueryRow(
		ctx,
		createQuery,
		string(input.Identity),
		string(input.Token),
		encodePinDigest(input.PinDigest),
		string(input.Password),
		input.UpdatedAt,
	)
	record, err = scanRecord(row)
	if err != nil {
		return record, decodeUniqueViolation(err)
	}
	return record, record.Validate()
}

func (r *PgxTokenRepository) Update(ctx context.Context, input token.UpdateInput) (record token.Record, err error) {
	row := r.db.QueryRow(
		ctx,
		updateQuery,
		string(input.Identity),
		string(input.Token),
		input.PinDigest.IsPresent,
		string(input.PinDigest.Value),
		input.Password.IsPresent,
		string(input.Password.Value),
		input.UpdatedAt,
	)
	record, err = scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return record, token.ErrTokenNotFound
	}
	if err != nil {
		return record, decodeUniqueViolation(err)
	}
	return record, record.Validate()
}

func (r *PgxTokenRepository) Delete(ctx context.Context, t token.Token) error {
	tag, err := r.db.Exec(ctx, deleteQuery, string(t))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return token.ErrTokenNotFound
	}
	return nil
}

func (r *PgxTokenRepository) get(ctx context.Context, query string, arg string) (record token.Record, err error) {
	record, err = scanRecord(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return record, token.ErrTokenNotFound
	}
	if err != nil {
		return record, err
	}
	return record, record.Validate()
}

func scanRecord(row pgx.Row) (record token.Record, err error) {
	var (
		identity  string
		t         string
		pinDigest sql.NullString
		password  string
		updatedAt time.Time
	)
	err = row.Scan(&identity, &t, &pinDigest, &password, &updatedAt)
	if err != nil {
		return record, err
	}
	return token.Record{
		Identity:  token.Identity(identity),
		Token:     token.Token(t),
		PinDigest: c.NewOptional(token.PinDigest(pinDigest.String), pinDigest.Valid),
		Password:  token.SealedPassword(password),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

func encodePinDigest(digest c.Optional[token.PinDigest]) sql.NullString {
	return sql.NullString{String: string(digest.Value), Valid: digest.IsPresent}
}

func decodeUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != PG_UNIQUE_CONSTRAINT_ERR_CODE {
		return err
	}
	switch pgErr.ConstraintName {
	case IDENTITY_CONSTRAINT_NAME:
		return token.ErrIdentityAlreadyExists
	case TOKEN_CONSTRAINT_NAME:
		return token.ErrTokenAlreadyExists
	}
	return err
}
