// Package subscription は料金プランの参照とプラン変更のドメインロジックを提供する。
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
)

// Plan は料金プランの定義。
type Plan struct {
	ID          string
	Name        string
	PriceCents  int
	Currency    string
	AccountType model.AccountType
	Features    []string
}

// plans は提供中のプラン。決済処理は外部コラボレータの責務で、
// 本サービスはプラン定義とアカウント種別の切り替えのみを管理する。
var plans = []Plan{
	{
		ID:          "free",
		Name:        "Free",
		PriceCents:  0,
		Currency:    "usd",
		AccountType: model.AccountTypeUser,
		Features: []string{
			"ノートパッド作成無制限",
			"保持期間365日",
			"テキスト検索",
		},
	},
	{
		ID:          "pro",
		Name:        "Pro",
		PriceCents:  499,
		Currency:    "usd",
		AccountType: model.AccountTypePremium,
		Features: []string{
			"保持期間無制限",
			"エクスポート（txt / json / md）",
			"共有とWebhook連携",
		},
	},
	{
		ID:          "business",
		Name:        "Business",
		PriceCents:  1499,
		Currency:    "usd",
		AccountType: model.AccountTypePremium,
		Features: []string{
			"Proの全機能",
			"チーム共有",
			"優先サポート",
		},
	},
}

// Service はプラン管理のサービス層。
type Service struct {
	accounts  repository.AccountRepository
	notepads  repository.NotepadRepository
	retention model.RetentionPolicy
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accounts repository.AccountRepository, notepads repository.NotepadRepository, retention model.RetentionPolicy) *Service {
	return &Service{
		accounts:  accounts,
		notepads:  notepads,
		retention: retention,
		now:       time.Now,
	}
}

// Plans は提供中のプラン一覧を返す。
func (s *Service) Plans() []Plan {
	return plans
}

// FindPlan はプランIDでプランを検索する。見つからない場合はnilを返す。
func FindPlan(id string) *Plan {
	for i := range plans {
		if plans[i].ID == id {
			return &plans[i]
		}
	}
	return nil
}

// ChangePlan はアカウントのプランを変更し、更新後のアカウントを返す。
// 所有ノートパッドの保持ポリシーも新プランで引き直す。
// ダウングレード時は保持期限が現在時刻起点で再設定される（即時削除はしない）。
func (s *Service) ChangePlan(ctx context.Context, account *model.Account, planID string) (*model.Account, error) {
	plan := FindPlan(planID)
	if plan == nil {
		return nil, model.NewInvalidPlanError(planID)
	}

	if account.AccountType == plan.AccountType {
		// アカウント種別が変わらない場合は何もしない（free→freeなど）
		return account, nil
	}

	if err := s.accounts.UpdateAccountType(ctx, account.ID, plan.AccountType); err != nil {
		return nil, fmt.Errorf("プランの変更に失敗しました: %w", err)
	}

	now := s.now()
	expiresAt := s.retention.ExpiryFor(plan.AccountType, now)
	if err := s.notepads.UpdateRetention(ctx, account.ID, plan.AccountType, expiresAt); err != nil {
		return nil, fmt.Errorf("保持ポリシーの更新に失敗しました: %w", err)
	}

	updated, err := s.accounts.FindByID(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("更新後のアカウント取得に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("plan changed",
		slog.String("user_id", account.ID),
		slog.String("plan", planID),
		slog.String("account_type", string(plan.AccountType)),
	)
	return updated, nil
}
