package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresAnalyticsRepo は管理ダッシュボード用の集計クエリ実装。
// 書き込みは行わず、既存テーブルへの読み取り専用クエリのみを持つ。
type PostgresAnalyticsRepo struct {
	db *sql.DB
}

// NewPostgresAnalyticsRepo はPostgresAnalyticsRepoを生成する。
func NewPostgresAnalyticsRepo(db *sql.DB) *PostgresAnalyticsRepo {
	return &PostgresAnalyticsRepo{db: db}
}

// Totals はユーザー数・ノートパッド数・エントリ総数・当日アクティブ数を返す。
// エントリ総数はJSONB配列長の合計。当日アクティブは当日更新のあったノートパッド数。
func (r *PostgresAnalyticsRepo) Totals(ctx context.Context) (*AnalyticsTotals, error) {
	totals := &AnalyticsTotals{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM accounts),
			(SELECT count(*) FROM notepads),
			(SELECT coalesce(sum(jsonb_array_length(entries)), 0) FROM notepads),
			(SELECT count(*) FROM notepads WHERE updated_at >= date_trunc('day', now()))
	`).Scan(&totals.Users, &totals.Notepads, &totals.Entries, &totals.ActiveToday)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	return totals, nil
}

// EntriesByDay は指定日時以降のエントリ追加数を日別に集計する。
// エントリのtimestampはJSONB内のRFC 3339文字列なので、先頭10文字（YYYY-MM-DD）で集計する。
func (r *PostgresAnalyticsRepo) EntriesByDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(e->>'timestamp', 1, 10) AS day, count(*)
		FROM notepads, jsonb_array_elements(entries) e
		WHERE e->>'timestamp' >= $1
		GROUP BY day
		ORDER BY day
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries by day: %w", err)
	}
	defer rows.Close()

	return scanDayCounts(rows)
}

// UsersByDay は指定日時以降のアカウント登録数を日別に集計する。
func (r *PostgresAnalyticsRepo) UsersByDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day, count(*)
		FROM accounts
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by day: %w", err)
	}
	defer rows.Close()

	return scanDayCounts(rows)
}

// TopNotepads はエントリ数上位のノートパッドを返す。
func (r *PostgresAnalyticsRepo) TopNotepads(ctx context.Context, limit int) ([]TopNotepad, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, jsonb_array_length(entries) AS entry_count, updated_at
		FROM notepads
		ORDER BY entry_count DESC, updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top notepads: %w", err)
	}
	defer rows.Close()

	var tops []TopNotepad
	for rows.Next() {
		var t TopNotepad
		if err := rows.Scan(&t.Code, &t.EntryCount, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan top notepad: %w", err)
		}
		tops = append(tops, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top notepads: %w", err)
	}
	return tops, nil
}

func scanDayCounts(rows *sql.Rows) ([]DayCount, error) {
	var counts []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate day counts: %w", err)
	}
	return counts, nil
}

// compile-time interface check
var _ AnalyticsRepository = (*PostgresAnalyticsRepo)(nil)
