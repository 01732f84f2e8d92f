package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/pastebridge/internal/model"
)

// PostgresPushTokenRepo はPostgreSQLを使用したプッシュ通知トークンリポジトリ。
type PostgresPushTokenRepo struct {
	db *sql.DB
}

// NewPostgresPushTokenRepo はPostgresPushTokenRepoを生成する。
func NewPostgresPushTokenRepo(db *sql.DB) *PostgresPushTokenRepo {
	return &PostgresPushTokenRepo{db: db}
}

// Upsert はトークンを冪等に登録する。同一(user_id, token)の再登録は無視する。
func (r *PostgresPushTokenRepo) Upsert(ctx context.Context, token *model.PushToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO push_tokens (id, user_id, token, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, token) DO NOTHING`,
		token.ID, token.UserID, token.Token, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert push token: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの登録トークン一覧を返す。
func (r *PostgresPushTokenRepo) ListByUserID(ctx context.Context, userID string) ([]*model.PushToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, token, created_at FROM push_tokens WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*model.PushToken
	for rows.Next() {
		t := &model.PushToken{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate push tokens: %w", err)
	}
	return tokens, nil
}

// Delete は指定トークンを削除する。
func (r *PostgresPushTokenRepo) Delete(ctx context.Context, userID, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM push_tokens WHERE user_id = $1 AND token = $2`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete push token: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PushTokenRepository = (*PostgresPushTokenRepo)(nil)
