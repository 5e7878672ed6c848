package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/swing-terminal/backend/internal/model"
)

const tokenColumns = `id, user_id, access_token, refresh_token, expires_at, created_at, updated_at`

func scanToken(row pgx.Row) (*model.FyersToken, error) {
	var token model.FyersToken
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.AccessToken,
		&token.RefreshToken,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// GetLatestToken returns the most recently created token row for the
// user, which is the current token by definition.
func (db *Postgres) GetLatestToken(ctx context.Context, userID int64) (*model.FyersToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM fyers_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	return scanToken(db.Pool.QueryRow(ctx, query, userID))
}

func (db *Postgres) InsertToken(ctx context.Context, userID int64, accessToken, refreshToken string, expiresAt time.Time) (*model.FyersToken, error) {
	query := `
		INSERT INTO fyers_tokens (user_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + tokenColumns + `
	`
	return scanToken(db.Pool.QueryRow(ctx, query, userID, accessToken, refreshToken, expiresAt))
}

// SwapToken inserts the freshly refreshed token and deletes the row it
// supersedes in the same transaction. The old row is only ever removed
// after the replacement is durably in place.
func (db *Postgres) SwapToken(ctx context.Context, oldTokenID, userID int64, accessToken, refreshToken string, expiresAt time.Time) (*model.FyersToken, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	token, err := scanToken(tx.QueryRow(ctx, `
		INSERT INTO fyers_tokens (user_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+tokenColumns+`
	`, userID, accessToken, refreshToken, expiresAt))
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `
		DELETE FROM fyers_tokens
		WHERE id = $1
	`, oldTokenID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return token, nil
}

func (db *Postgres) DeleteAllTokens(ctx context.Context, userID int64) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM fyers_tokens
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
