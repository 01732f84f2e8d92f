// Package share はノートパッドの他ユーザーへの共有のドメインロジックを提供する。
package share

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
)

// Service はノートパッド共有のサービス層。
// 共有は読み取り専用で、共有先はエントリの追記・削除はできない。
type Service struct {
	notepads repository.NotepadRepository
	accounts repository.AccountRepository
	shares   repository.ShareRepository
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(notepads repository.NotepadRepository, accounts repository.AccountRepository, shares repository.ShareRepository) *Service {
	return &Service{
		notepads: notepads,
		accounts: accounts,
		shares:   shares,
		now:      time.Now,
	}
}

// Share はノートパッドを指定メールアドレスのユーザーに共有する。
// 所有者のみが実行でき、共有先は登録済みユーザーである必要がある。
// 同一ユーザーへの再共有は冪等に成功する。
func (s *Service) Share(ctx context.Context, code, ownerID, targetEmail string) (*model.NotepadShare, error) {
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
	if n.UserID == nil || *n.UserID != ownerID {
		return nil, model.NewForbiddenError("ノートパッドの共有")
	}

	targetEmail = strings.TrimSpace(strings.ToLower(targetEmail))
	target, err := s.accounts.FindByEmail(ctx, targetEmail)
	if err != nil {
		return nil, fmt.Errorf("共有先アカウントの取得に失敗しました: %w", err)
	}
	if target == nil {
		return nil, model.NewUserNotFoundError()
	}
	if target.ID == ownerID {
		return nil, model.NewValidationError("自分自身への共有はできません")
	}

	sh := &model.NotepadShare{
		NotepadID: n.ID,
		UserID:    target.ID,
		CreatedAt: s.now(),
	}
	if err := s.shares.Create(ctx, sh); err != nil {
		return nil, fmt.Errorf("共有の保存に失敗しました: %w", err)
	}

	slog.Info("notepad shared",
		slog.String("notepad_code", code),
		slog.String("owner_id", ownerID),
		slog.String("target_id", target.ID),
	)
	return sh, nil
}

// ListSharedWithMe はユーザーに共有されたノートパッド一覧を返す。
// 期限切れは含めない。
func (s *Service) ListSharedWithMe(ctx context.Context, userID string) ([]*model.Notepad, error) {
	notepads, err := s.shares.ListSharedWithUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("共有ノートパッド一覧の取得に失敗しました: %w", err)
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

// ListCollaborators はノートパッドの共有先アカウント一覧を返す。
// 所有者と共有先本人のみが閲覧できる。
func (s *Service) ListCollaborators(ctx context.Context, code, requesterID string) ([]*model.Account, error) {
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

	collaborators, err := s.shares.ListUsersByNotepadID(ctx, n.ID)
	if err != nil {
		return nil, fmt.Errorf("共有先一覧の取得に失敗しました: %w", err)
	}

	isOwner := n.UserID != nil && *n.UserID == requesterID
	isCollaborator := false
	for _, a := range collaborators {
		if a.ID == requesterID {
			isCollaborator = true
			break
		}
	}
	if !isOwner && !isCollaborator {
		return nil, model.NewForbiddenError("共有先一覧の閲覧")
	}
	return collaborators, nil
}

// Unshare は共有を解除する。所有者本人と共有先本人のどちらからでも解除できる。
func (s *Service) Unshare(ctx context.Context, code, requesterID, targetUserID string) error {
	code = model.NormalizeCode(code)
	n, err := s.notepads.FindByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("ノートパッドの取得に失敗しました: %w", err)
	}
	if n == nil {
		return model.NewNotepadNotFoundError(code)
	}

	isOwner := n.UserID != nil && *n.UserID == requesterID
	isTarget := requesterID == targetUserID
	if !isOwner && !isTarget {
		return model.NewForbiddenError("共有の解除")
	}

	ok, err := s.shares.Delete(ctx, n.ID, targetUserID)
	if err != nil {
		return fmt.Errorf("共有の解除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewValidationError("指定されたユーザーには共有されていません")
	}

	slog.Info("notepad unshared",
		slog.String("notepad_code", code),
		slog.String("target_id", targetUserID),
	)
	return nil
}
