package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/pastebridge/internal/model"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const pgUniqueViolation = "23505"

// isUniqueViolation はerrが一意制約違反かを返す。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// PostgresNotepadRepo はPostgreSQLを使用したノートパッドリポジトリ。
// entriesカラムはJSONB配列で、追記は entries || $n::jsonb で行単位にアトミックに行う。
type PostgresNotepadRepo struct {
	db *sql.DB
}

// NewPostgresNotepadRepo はPostgresNotepadRepoを生成する。
func NewPostgresNotepadRepo(db *sql.DB) *PostgresNotepadRepo {
	return &PostgresNotepadRepo{db: db}
}

const notepadColumns = `id, code, entries, account_type, user_id, expires_at, created_at, updated_at`

// scanNotepad は1行分のノートパッドをスキャンする。
func scanNotepad(scan func(dest ...any) error) (*model.Notepad, error) {
	n := &model.Notepad{}
	var entriesJSON []byte
	var userID sql.NullString
	var expiresAt sql.NullTime

	if err := scan(&n.ID, &n.Code, &entriesJSON, &n.AccountType, &userID, &expiresAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(entriesJSON, &n.Entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
	}
	if userID.Valid {
		n.UserID = &userID.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		n.ExpiresAt = &t
	}

	return n, nil
}

// FindByCode は指定コードのノートパッドを取得する。見つからない場合はnilを返す。
func (r *PostgresNotepadRepo) FindByCode(ctx context.Context, code string) (*model.Notepad, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+notepadColumns+` FROM notepads WHERE code = $1`,
		code,
	)
	n, err := scanNotepad(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notepad by code: %w", err)
	}
	return n, nil
}

// FindByID は指定IDのノートパッドを取得する。見つからない場合はnilを返す。
func (r *PostgresNotepadRepo) FindByID(ctx context.Context, id string) (*model.Notepad, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+notepadColumns+` FROM notepads WHERE id = $1`,
		id,
	)
	n, err := scanNotepad(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notepad by ID: %w", err)
	}
	return n, nil
}

// Create はノートパッドを作成する。コードが既存の場合はErrDuplicateCodeを返す。
func (r *PostgresNotepadRepo) Create(ctx context.Context, notepad *model.Notepad) error {
	entriesJSON, err := json.Marshal(notepad.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notepads (id, code, entries, account_type, user_id, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		notepad.ID, notepad.Code, entriesJSON, notepad.AccountType,
		notepad.UserID, notepad.ExpiresAt, notepad.CreatedAt, notepad.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("failed to insert notepad: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのノートパッドを削除する。
func (r *PostgresNotepadRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notepads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notepad: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("notepad not found: %s", id)
	}
	return nil
}

// AppendEntry はエントリをJSONB配列の末尾にアトミックに追記し、追記後のエントリ数を返す。
// read-modify-writeではなくDB側の連結演算子を使うため、並行追記でも全エントリが保存される。
func (r *PostgresNotepadRepo) AppendEntry(ctx context.Context, notepadID string, entry model.Entry) (int, error) {
	entryJSON, err := json.Marshal([]model.Entry{entry})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal entry: %w", err)
	}

	var count int
	err = r.db.QueryRowContext(ctx,
		`UPDATE notepads
		 SET entries = entries || $2::jsonb, updated_at = now()
		 WHERE id = $1
		 RETURNING jsonb_array_length(entries)`,
		notepadID, entryJSON,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("notepad not found: %s", notepadID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to append entry: %w", err)
	}
	return count, nil
}

// ClearEntries は全エントリを削除し空配列に戻す。
func (r *PostgresNotepadRepo) ClearEntries(ctx context.Context, notepadID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notepads SET entries = '[]'::jsonb, updated_at = now() WHERE id = $1`,
		notepadID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("notepad not found: %s", notepadID)
	}
	return nil
}

// Link はノートパッドをアカウントに連携する（compare-and-set）。
// user_idがNULLの行だけが更新対象になるため、2アカウントからの同時連携でも
// 勝者は1つに決まる。falseが返った場合の冪等判定は呼び出し側が行う。
func (r *PostgresNotepadRepo) Link(ctx context.Context, notepadID, userID string, accountType model.AccountType, expiresAt *time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notepads
		 SET user_id = $2, account_type = $3, expires_at = $4, updated_at = now()
		 WHERE id = $1 AND user_id IS NULL`,
		notepadID, userID, accountType, expiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to link notepad: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// UpdateRetention は所有ノートパッドの保持ポリシーを一括更新する。
func (r *PostgresNotepadRepo) UpdateRetention(ctx context.Context, userID string, accountType model.AccountType, expiresAt *time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notepads SET account_type = $2, expires_at = $3, updated_at = now() WHERE user_id = $1`,
		userID, accountType, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update retention: %w", err)
	}
	return nil
}

// ListByUserID はユーザーが所有するノートパッド一覧を更新日時降順で返す。
func (r *PostgresNotepadRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Notepad, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notepadColumns+` FROM notepads WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notepads: %w", err)
	}
	defer rows.Close()

	var notepads []*model.Notepad
	for rows.Next() {
		n, err := scanNotepad(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notepad: %w", err)
		}
		notepads = append(notepads, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notepads: %w", err)
	}
	return notepads, nil
}

// Search はユーザーの所有ノートパッドをコードまたはエントリ本文で検索する。
// エントリ本文の一致判定はJSONBを文字列展開して行う。大規模データでの
// 全文検索インデックス対応は将来の課題とし、ここでは所有分のみを対象とする。
func (r *PostgresNotepadRepo) Search(ctx context.Context, userID, query string, limit, offset int) ([]*model.Notepad, int, error) {
	pattern := "%" + query + "%"

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM notepads
		 WHERE user_id = $1
		   AND (code ILIKE $2 OR EXISTS (
		       SELECT 1 FROM jsonb_array_elements(entries) e WHERE e->>'text' ILIKE $2))`,
		userID, pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notepadColumns+` FROM notepads
		 WHERE user_id = $1
		   AND (code ILIKE $2 OR EXISTS (
		       SELECT 1 FROM jsonb_array_elements(entries) e WHERE e->>'text' ILIKE $2))
		 ORDER BY updated_at DESC
		 LIMIT $3 OFFSET $4`,
		userID, pattern, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search notepads: %w", err)
	}
	defer rows.Close()

	var notepads []*model.Notepad
	for rows.Next() {
		n, err := scanNotepad(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notepad: %w", err)
		}
		notepads = append(notepads, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate search results: %w", err)
	}
	return notepads, total, nil
}

// DeleteExpiredBefore は保持期限がcutoffより前のノートパッドを物理削除する。
func (r *PostgresNotepadRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notepads WHERE expires_at IS NOT NULL AND expires_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notepads: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ NotepadRepository = (*PostgresNotepadRepo)(nil)
