package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/pastebridge/internal/model"
)

// PostgresWebhookRepo はPostgreSQLを使用したWebhookリポジトリ。
// eventsカラムはTEXT[]で、pq.Arrayで読み書きする。
type PostgresWebhookRepo struct {
	db *sql.DB
}

// NewPostgresWebhookRepo はPostgresWebhookRepoを生成する。
func NewPostgresWebhookRepo(db *sql.DB) *PostgresWebhookRepo {
	return &PostgresWebhookRepo{db: db}
}

// Create はWebhookを作成する。
func (r *PostgresWebhookRepo) Create(ctx context.Context, webhook *model.Webhook) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webhooks (id, user_id, url, events, secret, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		webhook.ID, webhook.UserID, webhook.URL, pq.Array(webhook.Events),
		webhook.Secret, webhook.Active, webhook.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert webhook: %w", err)
	}
	return nil
}

// FindByID は指定IDのWebhookを取得する。見つからない場合はnilを返す。
func (r *PostgresWebhookRepo) FindByID(ctx context.Context, id string) (*model.Webhook, error) {
	w := &model.Webhook{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, url, events, secret, active, created_at FROM webhooks WHERE id = $1`,
		id,
	).Scan(&w.ID, &w.UserID, &w.URL, pq.Array(&w.Events), &w.Secret, &w.Active, &w.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find webhook by ID: %w", err)
	}
	return w, nil
}

// ListByUserID はユーザーのWebhook一覧を返す。
func (r *PostgresWebhookRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Webhook, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, url, events, secret, active, created_at FROM webhooks
		 WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*model.Webhook
	for rows.Next() {
		w := &model.Webhook{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.URL, pq.Array(&w.Events), &w.Secret, &w.Active, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhooks: %w", err)
	}
	return webhooks, nil
}

// Delete は指定ユーザー所有のWebhookを削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresWebhookRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM webhooks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete webhook: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ WebhookRepository = (*PostgresWebhookRepo)(nil)
