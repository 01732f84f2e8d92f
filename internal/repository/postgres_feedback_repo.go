package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/pastebridge/internal/model"
)

// PostgresFeedbackRepo はPostgreSQLを使用したフィードバックリポジトリ。
type PostgresFeedbackRepo struct {
	db *sql.DB
}

// NewPostgresFeedbackRepo はPostgresFeedbackRepoを生成する。
func NewPostgresFeedbackRepo(db *sql.DB) *PostgresFeedbackRepo {
	return &PostgresFeedbackRepo{db: db}
}

const feedbackColumns = `id, user_id, email, category, title, description, severity, status, created_at, updated_at`

func scanFeedback(scan func(dest ...any) error) (*model.Feedback, error) {
	fb := &model.Feedback{}
	var userID, email sql.NullString
	if err := scan(&fb.ID, &userID, &email, &fb.Category, &fb.Title, &fb.Description,
		&fb.Severity, &fb.Status, &fb.CreatedAt, &fb.UpdatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		fb.UserID = &userID.String
	}
	if email.Valid {
		fb.Email = &email.String
	}
	return fb, nil
}

// Create はフィードバックを作成する。
func (r *PostgresFeedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (id, user_id, email, category, title, description, severity, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		fb.ID, fb.UserID, fb.Email, fb.Category, fb.Title, fb.Description,
		fb.Severity, fb.Status, fb.CreatedAt, fb.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// FindByID は指定IDのフィードバックを取得する。見つからない場合はnilを返す。
func (r *PostgresFeedbackRepo) FindByID(ctx context.Context, id string) (*model.Feedback, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback WHERE id = $1`,
		id,
	)
	fb, err := scanFeedback(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find feedback by ID: %w", err)
	}
	return fb, nil
}

// ListByUserID はユーザーが投稿したフィードバック一覧を作成日時降順で返す。
func (r *PostgresFeedbackRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var items []*model.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return items, nil
}

// List は全フィードバックをステータスで絞り込んで返す（管理用）。
func (r *PostgresFeedbackRepo) List(ctx context.Context, status model.FeedbackStatus, limit, offset int) ([]*model.Feedback, int, error) {
	// statusが空文字の場合は全件対象。条件をSQL側で吸収する。
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM feedback WHERE ($1 = '' OR status = $1)`,
		string(status),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		string(status), limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var items []*model.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan feedback: %w", err)
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return items, total, nil
}

// UpdateStatus は対応状況を更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresFeedbackRepo) UpdateStatus(ctx context.Context, id string, status model.FeedbackStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE feedback SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update feedback status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は指定IDのフィードバックを削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresFeedbackRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM feedback WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete feedback: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountByStatus は指定ステータスのフィードバック件数を返す。
func (r *PostgresFeedbackRepo) CountByStatus(ctx context.Context, status model.FeedbackStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM feedback WHERE status = $1`,
		string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feedback by status: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ FeedbackRepository = (*PostgresFeedbackRepo)(nil)
