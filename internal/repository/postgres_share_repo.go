package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/pastebridge/internal/model"
)

// PostgresShareRepo はPostgreSQLを使用したノートパッド共有リポジトリ。
type PostgresShareRepo struct {
	db *sql.DB
}

// NewPostgresShareRepo はPostgresShareRepoを生成する。
func NewPostgresShareRepo(db *sql.DB) *PostgresShareRepo {
	return &PostgresShareRepo{db: db}
}

// Create は共有を冪等に作成する。既に共有済みの場合は何もしない。
func (r *PostgresShareRepo) Create(ctx context.Context, share *model.NotepadShare) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notepad_shares (notepad_id, user_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (notepad_id, user_id) DO NOTHING`,
		share.NotepadID, share.UserID, share.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert share: %w", err)
	}
	return nil
}

// ListSharedWithUser はユーザーに共有されたノートパッド一覧を返す。
func (r *PostgresShareRepo) ListSharedWithUser(ctx context.Context, userID string) ([]*model.Notepad, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT n.id, n.code, n.entries, n.account_type, n.user_id, n.expires_at, n.created_at, n.updated_at
		 FROM notepads n
		 JOIN notepad_shares s ON s.notepad_id = n.id
		 WHERE s.user_id = $1
		 ORDER BY n.updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared notepads: %w", err)
	}
	defer rows.Close()

	var notepads []*model.Notepad
	for rows.Next() {
		n, err := scanNotepad(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shared notepad: %w", err)
		}
		notepads = append(notepads, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shared notepads: %w", err)
	}
	return notepads, nil
}

// ListUsersByNotepadID はノートパッドの共有先アカウント一覧を返す。
func (r *PostgresShareRepo) ListUsersByNotepadID(ctx context.Context, notepadID string) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+`
		 FROM accounts a
		 JOIN notepad_shares s ON s.user_id = a.id
		 WHERE s.notepad_id = $1
		 ORDER BY s.created_at ASC`,
		notepadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list share users: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share user: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate share users: %w", err)
	}
	return accounts, nil
}

// Delete は共有を解除する。対象が存在しない場合はfalseを返す。
func (r *PostgresShareRepo) Delete(ctx context.Context, notepadID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notepad_shares WHERE notepad_id = $1 AND user_id = $2`,
		notepadID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete share: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ShareRepository = (*PostgresShareRepo)(nil)
