// Package notepad はノートパッドのライフサイクル管理のドメインロジックを提供する。
package notepad

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
)

// MaxEntryLength はエントリ本文の最大文字数。
const MaxEntryLength = 100000

// createMaxAttempts はコード衝突時の再試行上限。
// 組み合わせ空間に対して登録数が十分小さい前提の値。
const createMaxAttempts = 5

// Service はノートパッドのライフサイクル管理のサービス層。
// 作成、取得、エントリ追記・全削除、検索、一覧のビジネスロジックを提供する。
type Service struct {
	notepads  repository.NotepadRepository
	retention model.RetentionPolicy
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(notepads repository.NotepadRepository, retention model.RetentionPolicy) *Service {
	return &Service{
		notepads:  notepads,
		retention: retention,
		now:       time.Now,
	}
}

// Create は新しいノートパッドを作成する。
// userIDがnilの場合はゲスト所有として作成し、ゲスト向け保持期限を設定する。
// 生成コードが既存と衝突した場合、その既存が期限切れならコードを再利用する
// （期限切れノートパッドを削除して同じコードで作り直す）。
func (s *Service) Create(ctx context.Context, userID *string, accountType model.AccountType) (*model.Notepad, error) {
	now := s.now()

	for attempt := 0; attempt < createMaxAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("コードの生成に失敗しました: %w", err)
		}

		n := &model.Notepad{
			ID:          uuid.New().String(),
			Code:        code,
			Entries:     []model.Entry{},
			AccountType: accountType,
			UserID:      userID,
			ExpiresAt:   s.retention.ExpiryFor(accountType, now),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = s.notepads.Create(ctx, n)
		if err == nil {
			return n, nil
		}
		if err != repository.ErrDuplicateCode {
			return nil, fmt.Errorf("ノートパッドの作成に失敗しました: %w", err)
		}

		// コード衝突。既存が期限切れならコードを再利用する。
		existing, err := s.notepads.FindByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("衝突コードの確認に失敗しました: %w", err)
		}
		if existing != nil && existing.IsExpired(now) {
			if err := s.notepads.DeleteByID(ctx, existing.ID); err != nil {
				return nil, fmt.Errorf("期限切れノートパッドの削除に失敗しました: %w", err)
			}
			if err := s.notepads.Create(ctx, n); err == nil {
				slog.Info("expired notepad code reclaimed", slog.String("code", code))
				return n, nil
			}
			// 削除と再作成の間に他のリクエストが同じコードを取得した。次の試行へ。
		}
	}

	return nil, fmt.Errorf("ノートパッドコードの採番に%d回失敗しました", createMaxAttempts)
}

// Get は指定コードのノートパッドを取得する。コードは大文字小文字を区別しない。
// 存在しない場合はNOTEPAD_NOT_FOUND、期限切れの場合はNOTEPAD_EXPIREDを返す。
// 両者はクライアントのUI分岐のため必ず区別する。
func (s *Service) Get(ctx context.Context, code string) (*model.Notepad, error) {
	code = model.NormalizeCode(code)
	n, err := s.notepads.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("ノートパッドの取得に失敗しました: %w", err)
	}
	if n == nil {
		return nil, model.NewNotepadNotFoundError(code)
	}
	if n.IsExpired(s.now()) {
		return nil, model.NewNotepadExpiredError(code)
	}
	return n, nil
}

// AppendEntry はエントリをノートパッドの末尾に追記し、更新後のノートパッドを返す。
// 追記はDB側でアトミックに行われ、並行追記でも全エントリが保存される。
func (s *Service) AppendEntry(ctx context.Context, code, text string) (*model.Notepad, error) {
	code = model.NormalizeCode(code)
	if strings.TrimSpace(text) == "" {
		return nil, model.NewValidationError("エントリ本文が空です")
	}
	if utf8.RuneCountInString(text) > MaxEntryLength {
		return nil, model.NewValidationError(fmt.Sprintf("エントリ本文が最大長（%d文字）を超えています", MaxEntryLength))
	}

	n, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	entry := model.Entry{Text: text, Timestamp: s.now().UTC()}
	count, err := s.notepads.AppendEntry(ctx, n.ID, entry)
	if err != nil {
		return nil, fmt.Errorf("エントリの追記に失敗しました: %w", err)
	}

	slog.Info("entry appended",
		slog.String("notepad_code", code),
		slog.Int("entry_count", count),
	)

	// 追記後の状態を返す。並行追記があった場合は自エントリ以外も含まれる。
	updated, err := s.notepads.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("追記後のノートパッド取得に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewNotepadNotFoundError(code)
	}
	return updated, nil
}

// ClearEntries は全エントリを削除する。ノートパッド自体とコードは維持される。
// アカウント所有のノートパッドは所有者のみが実行できる。
// ゲスト所有はコードを知っていれば誰でも実行できる。
func (s *Service) ClearEntries(ctx context.Context, code string, requesterID *string) (*model.Notepad, error) {
	n, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if n.UserID != nil && (requesterID == nil || *requesterID != *n.UserID) {
		return nil, model.NewForbiddenError("エントリの全削除")
	}

	if err := s.notepads.ClearEntries(ctx, n.ID); err != nil {
		return nil, fmt.Errorf("エントリの全削除に失敗しました: %w", err)
	}

	slog.Info("entries cleared", slog.String("notepad_code", code))

	n.Entries = []model.Entry{}
	n.UpdatedAt = s.now()
	return n, nil
}

// Delete はノートパッドを物理削除する。所有権の扱いはClearEntriesと同じ。
func (s *Service) Delete(ctx context.Context, code string, requesterID *string) error {
	n, err := s.Get(ctx, code)
	if err != nil {
		return err
	}

	if n.UserID != nil && (requesterID == nil || *requesterID != *n.UserID) {
		return model.NewForbiddenError("ノートパッドの削除")
	}

	if err := s.notepads.DeleteByID(ctx, n.ID); err != nil {
		return fmt.Errorf("ノートパッドの削除に失敗しました: %w", err)
	}

	slog.Info("notepad deleted", slog.String("notepad_code", code))
	return nil
}

// List はユーザーが所有するノートパッド一覧を返す。
// 期限切れは一覧に含めない。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Notepad, error) {
	notepads, err := s.notepads.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ノートパッド一覧の取得に失敗しました: %w", err)
	}

	now := s.now()
	visible := make([]*model.Notepad, 0, len(notepads))
	for _, n := range notepads {
		if !n.IsExpired(now) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

// previewLength は検索結果プレビューの最大文字数。
const previewLength = 120

// SearchPage は検索結果の1ページ。
type SearchPage struct {
	Items []model.SearchResult
	Total int
	Page  int
	Pages int
}

// Search はユーザーの所有ノートパッドをコードまたはエントリ本文で検索する。
// 一致エントリ数と最初に一致したエントリのプレビューを結果に含める。
func (s *Service) Search(ctx context.Context, userID, query string, page, perPage int) (*SearchPage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, model.NewValidationError("検索クエリが空です")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	notepads, total, err := s.notepads.Search(ctx, userID, query, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("検索に失敗しました: %w", err)
	}

	lowered := strings.ToLower(query)
	now := s.now()
	results := make([]model.SearchResult, 0, len(notepads))
	for _, n := range notepads {
		if n.IsExpired(now) {
			continue
		}
		r := model.SearchResult{Notepad: *n}
		for _, e := range n.Entries {
			if strings.Contains(strings.ToLower(e.Text), lowered) {
				r.MatchingEntries++
				if r.Preview == "" {
					r.Preview = truncate(e.Text, previewLength)
				}
			}
		}
		results = append(results, r)
	}

	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}

	return &SearchPage{
		Items: results,
		Total: total,
		Page:  page,
		Pages: pages,
	}, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
