package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/swing-terminal/backend/internal/model"
)

const credentialColumns = `id, user_id, app_id, app_secret, redirect_url, is_active, created_at, updated_at`

func scanCredential(row pgx.Row) (*model.APICredential, error) {
	var cred model.APICredential
	err := row.Scan(
		&cred.ID,
		&cred.UserID,
		&cred.AppID,
		&cred.AppSecret,
		&cred.RedirectURL,
		&cred.IsActive,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (db *Postgres) ListCredentials(ctx context.Context, userID int64) ([]model.APICredential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM api_credentials
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []model.APICredential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *cred)
	}
	return creds, rows.Err()
}

func (db *Postgres) GetActiveCredential(ctx context.Context, userID int64) (*model.APICredential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM api_credentials
		WHERE user_id = $1 AND is_active
	`
	return scanCredential(db.Pool.QueryRow(ctx, query, userID))
}

// InsertActiveCredential deactivates every credential the user has and
// inserts the new one as active, all in one transaction so no two rows
// are ever active at a committed point.
func (db *Postgres) InsertActiveCredential(ctx context.Context, userID int64, appID, appSecret, redirectURL string) (*model.APICredential, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx, `
		UPDATE api_credentials
		SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND is_active
	`, userID); err != nil {
		return nil, err
	}

	cred, err := scanCredential(tx.QueryRow(ctx, `
		INSERT INTO api_credentials (user_id, app_id, app_secret, redirect_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		RETURNING `+credentialColumns+`
	`, userID, appID, appSecret, redirectURL))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return cred, nil
}

// ActivateCredential makes the target row the single active credential
// for the user. Returns pgx.ErrNoRows when the target does not exist.
func (db *Postgres) ActivateCredential(ctx context.Context, userID, credentialID int64) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx, `
		UPDATE api_credentials
		SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND is_active
	`, userID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE api_credentials
		SET is_active = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, credentialID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (db *Postgres) DeactivateCredential(ctx context.Context, userID, credentialID int64) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE api_credentials
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, credentialID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (db *Postgres) UpdateCredential(ctx context.Context, userID, credentialID int64, appID, appSecret, redirectURL string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE api_credentials
		SET app_id = $3, app_secret = $4, redirect_url = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, credentialID, userID, appID, appSecret, redirectURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (db *Postgres) DeleteCredential(ctx context.Context, userID, credentialID int64) error {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM api_credentials
		WHERE id = $1 AND user_id = $2
	`, credentialID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
