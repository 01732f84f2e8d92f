// Package linker はゲスト作成ノートパッドのアカウント連携（所有権付与）を提供する。
package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
)

// MaxBulkCodes は一括連携で一度に受け付けるコード数の上限。
const MaxBulkCodes = 100

// Service はノートパッド連携のサービス層。
// 単体連携と一括連携を提供する。連携は所有権の初回付与のみで、移転は行わない。
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

// Link はノートパッドをアカウントに連携する。
// 連携すると保持期限がアカウント種別のポリシーで引き直される。ただし既存の期限の方が
// 長い場合は短縮しない。同一アカウントへの再連携は冪等に成功する。
// 他アカウントに連携済みの場合はALREADY_LINKEDを返し、所有権は移転しない。
func (s *Service) Link(ctx context.Context, code string, account *model.Account) (*model.Notepad, error) {
	n, _, err := s.linkOne(ctx, code, account)
	return n, err
}

// linkOne は1件の連携を行い、新規に連携が成立したかを返す。
// 既に自分に連携済みの場合は現状をそのまま返し、newlyはfalseになる。
func (s *Service) linkOne(ctx context.Context, code string, account *model.Account) (n *model.Notepad, newly bool, err error) {
	code = model.NormalizeCode(code)
	now := s.now()

	n, err = s.notepads.FindByCode(ctx, code)
	if err != nil {
		return nil, false, fmt.Errorf("ノートパッドの取得に失敗しました: %w", err)
	}
	if n == nil {
		return nil, false, model.NewNotepadNotFoundError(code)
	}
	if n.IsExpired(now) {
		return nil, false, model.NewNotepadExpiredError(code)
	}

	if n.UserID != nil {
		if *n.UserID == account.ID {
			// 冪等: 同一アカウントの再連携は現状をそのまま返す
			return n, false, nil
		}
		return nil, false, model.NewAlreadyLinkedError(code)
	}

	expiresAt := s.linkExpiry(n, account.AccountType)

	ok, err := s.notepads.Link(ctx, n.ID, account.ID, account.AccountType, expiresAt)
	if err != nil {
		return nil, false, fmt.Errorf("ノートパッドの連携に失敗しました: %w", err)
	}
	if !ok {
		// compare-and-setに敗れた。再読み取りして冪等か競合かを判定する。
		current, err := s.notepads.FindByID(ctx, n.ID)
		if err != nil {
			return nil, false, fmt.Errorf("連携結果の確認に失敗しました: %w", err)
		}
		if current != nil && current.UserID != nil && *current.UserID == account.ID {
			return current, false, nil
		}
		return nil, false, model.NewAlreadyLinkedError(code)
	}

	slog.Info("notepad linked",
		slog.String("notepad_code", code),
		slog.String("user_id", account.ID),
		slog.String("account_type", string(account.AccountType)),
	)

	n.UserID = &account.ID
	n.AccountType = account.AccountType
	n.ExpiresAt = expiresAt
	n.UpdatedAt = now
	return n, true, nil
}

// linkExpiry は連携後の保持期限を計算する。
// 期限は常に作成日時起点でアカウント種別のポリシーで引き直す
// （expires_at = created_at + 保持期間）。既存の期限を短縮することはない。
func (s *Service) linkExpiry(n *model.Notepad, accountType model.AccountType) *time.Time {
	candidate := s.retention.ExpiryFor(accountType, n.CreatedAt)
	if candidate == nil {
		return nil
	}
	if n.ExpiresAt != nil && n.ExpiresAt.After(*candidate) {
		return n.ExpiresAt
	}
	return candidate
}

// BulkResult は一括連携の結果。
type BulkResult struct {
	Linked      []*model.Notepad
	LinkedCount int
	Skipped     []BulkSkip
}

// BulkSkip は一括連携で連携されなかった1件。
type BulkSkip struct {
	Code   string
	Reason string
}

// 一括連携のスキップ理由。連携できなかったコードはAPIエラーコードを
// そのまま理由に使い、エラーではないスキップは以下の理由を使う。
const (
	// SkipReasonAlreadyYours は既に自分に連携済みのコード。
	SkipReasonAlreadyYours = "ALREADY_YOURS"
	// SkipReasonBatchLimit は上限超過で処理されなかったコード。
	SkipReasonBatchLimit = "BATCH_LIMIT_EXCEEDED"
)

// LinkMany は複数コードを一括で連携する。
// 1件の失敗で全体を止めず、新規に連携できたものとスキップ理由を両方返す。
// 空リストは空の結果を返す。既に自分に連携済みのコードは新規連携には数えず、
// ALREADY_YOURSとしてスキップする。MaxBulkCodesを超えた分は処理せず
// BATCH_LIMIT_EXCEEDEDとしてスキップする。
func (s *Service) LinkMany(ctx context.Context, codes []string, account *model.Account) (*BulkResult, error) {
	result := &BulkResult{
		Linked:  []*model.Notepad{},
		Skipped: []BulkSkip{},
	}
	seen := make(map[string]bool, len(codes))
	processed := 0

	for _, code := range codes {
		code = model.NormalizeCode(code)
		if seen[code] {
			continue
		}
		seen[code] = true

		if processed >= MaxBulkCodes {
			result.Skipped = append(result.Skipped, BulkSkip{Code: code, Reason: SkipReasonBatchLimit})
			continue
		}
		processed++

		n, newly, err := s.linkOne(ctx, code, account)
		if err != nil {
			var apiErr *model.APIError
			if errors.As(err, &apiErr) {
				result.Skipped = append(result.Skipped, BulkSkip{Code: code, Reason: apiErr.Code})
				continue
			}
			return nil, err
		}
		if !newly {
			result.Skipped = append(result.Skipped, BulkSkip{Code: code, Reason: SkipReasonAlreadyYours})
			continue
		}
		result.Linked = append(result.Linked, n)
	}

	result.LinkedCount = len(result.Linked)

	slog.Info("bulk link completed",
		slog.String("user_id", account.ID),
		slog.Int("requested", len(codes)),
		slog.Int("linked", result.LinkedCount),
		slog.Int("skipped", len(result.Skipped)),
	)

	return result, nil
}
