// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 保持期限を超過したノートパッドと期限切れのパスワード再設定トークンを
// 日次バッチで削除する。エントリと共有はCASCADE削除で自動的に処理される。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultGraceDays は論理期限切れから物理削除までのデフォルト猶予日数。
// 期限切れ直後のノートパッドはAPI上は410を返しつつ、連携による復活の余地を残すため
// 即時削除はしない。
const DefaultGraceDays = 7

// ExpiredNotepadDeleter は期限切れノートパッドの削除を抽象化するインターフェース。
type ExpiredNotepadDeleter interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpiredResetDeleter は期限切れパスワード再設定トークンの削除を抽象化するインターフェース。
type ExpiredResetDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryMetrics はクリーンアップジョブが記録するメトリクスのインターフェース。
type ExpiryMetrics interface {
	RecordNotepadExpired(count int)
}

// CleanupJob は期限切れデータの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	notepads  ExpiredNotepadDeleter
	resets    ExpiredResetDeleter
	metrics   ExpiryMetrics
	logger    *slog.Logger
	GraceDays int // 論理期限切れから物理削除までの猶予日数（デフォルト: 7）

	now func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの猶予日数は7日。
func NewCleanupJob(notepads ExpiredNotepadDeleter, resets ExpiredResetDeleter, metrics ExpiryMetrics, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		notepads:  notepads,
		resets:    resets,
		metrics:   metrics,
		logger:    logger,
		GraceDays: DefaultGraceDays,
		now:       time.Now,
	}
}

// Run は猶予期間を過ぎた期限切れノートパッドと期限切れトークンを削除する。
// expires_atが(現在時刻 - GraceDays日)より前のノートパッドをDELETEする。
// エントリと共有はCASCADE削除により自動的に削除される。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()

	cutoff := start.Add(-time.Duration(j.GraceDays) * 24 * time.Hour)

	deletedNotepads, err := j.notepads.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("ノートパッドクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("grace_days", j.GraceDays),
		)
		return fmt.Errorf("期限切れノートパッドの削除に失敗: %w", err)
	}

	j.metrics.RecordNotepadExpired(int(deletedNotepads))

	deletedResets, err := j.resets.DeleteExpired(ctx, start)
	if err != nil {
		j.logger.Error("パスワード再設定トークンのクリーンアップに失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れトークンの削除に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_notepads", deletedNotepads),
		slog.Int64("deleted_resets", deletedResets),
		slog.Int("grace_days", j.GraceDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
