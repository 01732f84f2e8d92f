package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/pastebridge/internal/model"
)

// PostgresPasswordResetRepo はPostgreSQLを使用したパスワード再設定トークンリポジトリ。
type PostgresPasswordResetRepo struct {
	db *sql.DB
}

// NewPostgresPasswordResetRepo はPostgresPasswordResetRepoを生成する。
func NewPostgresPasswordResetRepo(db *sql.DB) *PostgresPasswordResetRepo {
	return &PostgresPasswordResetRepo{db: db}
}

// Create は再設定トークンを作成する。
func (r *PostgresPasswordResetRepo) Create(ctx context.Context, reset *model.PasswordReset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_resets (token, user_id, used, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		reset.Token, reset.UserID, reset.Used, reset.ExpiresAt, reset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert password reset: %w", err)
	}
	return nil
}

// FindByToken はトークンで再設定情報を取得する。見つからない場合はnilを返す。
func (r *PostgresPasswordResetRepo) FindByToken(ctx context.Context, token string) (*model.PasswordReset, error) {
	reset := &model.PasswordReset{}
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, used, expires_at, created_at FROM password_resets WHERE token = $1`,
		token,
	).Scan(&reset.Token, &reset.UserID, &reset.Used, &reset.ExpiresAt, &reset.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find password reset: %w", err)
	}
	return reset, nil
}

// MarkUsed はトークンを使用済みにする。
func (r *PostgresPasswordResetRepo) MarkUsed(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE password_resets SET used = true WHERE token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("password reset not found: %s", token)
	}
	return nil
}

// DeleteExpired は期限切れ・使用済みトークンを削除し、削除件数を返す。
func (r *PostgresPasswordResetRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM password_resets WHERE expires_at < $1 OR used = true`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password resets: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ PasswordResetRepository = (*PostgresPasswordResetRepo)(nil)
