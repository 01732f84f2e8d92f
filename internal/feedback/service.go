// Package feedback は利用者フィードバックの受付と管理のドメインロジックを提供する。
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
)

// MaxDescriptionLength は詳細本文の最大文字数。
const MaxDescriptionLength = 10000

// validSeverities は受け付ける重要度。
var validSeverities = map[string]bool{
	"low":      true,
	"medium":   true,
	"high":     true,
	"critical": true,
}

// Service はフィードバックのサービス層。
// ゲスト投稿（連絡先メール任意）とログイン投稿の両方を受け付ける。
type Service struct {
	feedback repository.FeedbackRepository
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(feedback repository.FeedbackRepository) *Service {
	return &Service{
		feedback: feedback,
		now:      time.Now,
	}
}

// SubmitInput はフィードバック投稿の入力。
type SubmitInput struct {
	UserID      *string // ログイン済みの場合のみ
	Email       *string // ゲストの連絡先（任意）
	Category    model.FeedbackCategory
	Title       string
	Description string
	Severity    string
}

// Submit はフィードバックを受け付ける。
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*model.Feedback, error) {
	if !model.ValidFeedbackCategory(input.Category) {
		return nil, model.NewValidationError(fmt.Sprintf("未定義のカテゴリです: %s", input.Category))
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, model.NewValidationError("タイトルが空です")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, model.NewValidationError("詳細が空です")
	}
	if len([]rune(description)) > MaxDescriptionLength {
		return nil, model.NewValidationError(fmt.Sprintf("詳細が最大長（%d文字）を超えています", MaxDescriptionLength))
	}

	severity := input.Severity
	if severity == "" {
		severity = "medium"
	}
	if !validSeverities[severity] {
		return nil, model.NewValidationError(fmt.Sprintf("未定義の重要度です: %s", severity))
	}

	if input.Email != nil && *input.Email != "" {
		if _, err := mail.ParseAddress(*input.Email); err != nil {
			return nil, model.NewValidationError("連絡先メールアドレスの形式が不正です")
		}
	}

	now := s.now()
	fb := &model.Feedback{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		Email:       input.Email,
		Category:    input.Category,
		Title:       title,
		Description: description,
		Severity:    severity,
		Status:      model.FeedbackStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("フィードバックの保存に失敗しました: %w", err)
	}

	slog.Info("feedback submitted",
		slog.String("feedback_id", fb.ID),
		slog.String("category", string(fb.Category)),
		slog.String("severity", fb.Severity),
	)
	return fb, nil
}

// Delete はフィードバックを削除する（管理用）。
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.feedback.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("フィードバックの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewFeedbackNotFoundError(id)
	}

	slog.Info("feedback deleted", slog.String("feedback_id", id))
	return nil
}

// ListMine はユーザーが投稿したフィードバック一覧を返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]*model.Feedback, error) {
	items, err := s.feedback.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フィードバック一覧の取得に失敗しました: %w", err)
	}
	return items, nil
}

// ListPage は管理用のフィードバック一覧の1ページ。
type ListPage struct {
	Items []*model.Feedback
	Total int
	Page  int
	Pages int
}

// List は全フィードバックをステータスで絞り込んで返す（管理用）。
func (s *Service) List(ctx context.Context, status model.FeedbackStatus, page, perPage int) (*ListPage, error) {
	if status != "" && !model.ValidFeedbackStatus(status) {
		return nil, model.NewValidationError(fmt.Sprintf("未定義のステータスです: %s", status))
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	items, total, err := s.feedback.List(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("フィードバック一覧の取得に失敗しました: %w", err)
	}

	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	return &ListPage{Items: items, Total: total, Page: page, Pages: pages}, nil
}

// UpdateStatus は対応状況を更新する（管理用）。
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.FeedbackStatus) (*model.Feedback, error) {
	if !model.ValidFeedbackStatus(status) {
		return nil, model.NewValidationError(fmt.Sprintf("未定義のステータスです: %s", status))
	}

	ok, err := s.feedback.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("ステータスの更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewFeedbackNotFoundError(id)
	}

	fb, err := s.feedback.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("更新後のフィードバック取得に失敗しました: %w", err)
	}
	if fb == nil {
		return nil, model.NewFeedbackNotFoundError(id)
	}

	slog.Info("feedback status updated",
		slog.String("feedback_id", id),
		slog.String("status", string(status)),
	)
	return fb, nil
}
