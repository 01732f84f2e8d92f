// Package analytics は管理画面向けの利用統計の集計を提供する。
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
)

// DefaultReportDays はレポートの集計対象日数。
const DefaultReportDays = 30

// TopNotepadLimit は上位ノートパッドの件数。
const TopNotepadLimit = 10

// Report は管理画面に表示する利用統計。
type Report struct {
	Totals       repository.AnalyticsTotals `json:"totals"`
	EntriesByDay []repository.DayCount      `json:"entries_by_day"`
	UsersByDay   []repository.DayCount      `json:"users_by_day"`
	TopNotepads  []repository.TopNotepad    `json:"top_notepads"`
}

// FeedbackCounter はステータス別のフィードバック件数を提供する。
type FeedbackCounter interface {
	CountByStatus(ctx context.Context, status model.FeedbackStatus) (int, error)
}

// Stats はヘルスダッシュボード向けの要約値。
type Stats struct {
	Totals       repository.AnalyticsTotals `json:"totals"`
	OpenFeedback int                        `json:"open_feedback"`
}

// Service は利用統計のサービス層。
type Service struct {
	analytics repository.AnalyticsRepository
	feedback  FeedbackCounter
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(analytics repository.AnalyticsRepository, feedback FeedbackCounter) *Service {
	return &Service{
		analytics: analytics,
		feedback:  feedback,
		now:       time.Now,
	}
}

// BuildReport は直近DefaultReportDays日分の利用統計を集計する。
func (s *Service) BuildReport(ctx context.Context) (*Report, error) {
	since := s.now().AddDate(0, 0, -DefaultReportDays)

	totals, err := s.analytics.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("全体集計の取得に失敗しました: %w", err)
	}

	entriesByDay, err := s.analytics.EntriesByDay(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("日別エントリ数の取得に失敗しました: %w", err)
	}

	usersByDay, err := s.analytics.UsersByDay(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("日別登録ユーザー数の取得に失敗しました: %w", err)
	}

	topNotepads, err := s.analytics.TopNotepads(ctx, TopNotepadLimit)
	if err != nil {
		return nil, fmt.Errorf("上位ノートパッドの取得に失敗しました: %w", err)
	}

	// JSONでnullではなく空配列を返す
	if entriesByDay == nil {
		entriesByDay = []repository.DayCount{}
	}
	if usersByDay == nil {
		usersByDay = []repository.DayCount{}
	}
	if topNotepads == nil {
		topNotepads = []repository.TopNotepad{}
	}

	return &Report{
		Totals:       *totals,
		EntriesByDay: entriesByDay,
		UsersByDay:   usersByDay,
		TopNotepads:  topNotepads,
	}, nil
}

// BuildStats は累計値と未対応フィードバック数の要約を返す。
func (s *Service) BuildStats(ctx context.Context) (*Stats, error) {
	totals, err := s.analytics.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("全体集計の取得に失敗しました: %w", err)
	}

	open, err := s.feedback.CountByStatus(ctx, model.FeedbackStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("未対応フィードバック数の取得に失敗しました: %w", err)
	}

	return &Stats{Totals: *totals, OpenFeedback: open}, nil
}
