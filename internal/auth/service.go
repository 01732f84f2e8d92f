// Package auth はアカウント登録・ログイン・トークン検証のドメインロジックを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 8

// Config は認証サービスの設定。
type Config struct {
	JWTSecret   []byte
	TokenMaxAge time.Duration
	ResetTTL    time.Duration
}

// Service は認証のサービス層。
// パスワードはbcryptでハッシュし、セッションは状態を持たないJWTで表現する。
type Service struct {
	accounts repository.AccountRepository
	resets   repository.PasswordResetRepository
	config   Config
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accounts repository.AccountRepository, resets repository.PasswordResetRepository, config Config) *Service {
	return &Service{
		accounts: accounts,
		resets:   resets,
		config:   config,
		now:      time.Now,
	}
}

// Session は認証成功時にハンドラへ返すアカウントとトークンの組。
type Session struct {
	Account *model.Account
	Token   string
}

// Register は新規アカウントを登録し、即ログイン状態のセッションを返す。
func (s *Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, model.NewValidationError("表示名が空です")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := s.now()
	account := &model.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		AccountType:  model.AccountTypeUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}

	token, err := GenerateToken(account.ID, s.config.JWTSecret, s.config.TokenMaxAge)
	if err != nil {
		return nil, fmt.Errorf("トークンの生成に失敗しました: %w", err)
	}

	slog.Info("account registered", slog.String("user_id", account.ID))
	return &Session{Account: account, Token: token}, nil
}

// Login はメールアドレスとパスワードで認証し、セッションを返す。
// メールアドレスの存在有無を漏らさないよう、失敗理由は常に同一のエラーにする。
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := GenerateToken(account.ID, s.config.JWTSecret, s.config.TokenMaxAge)
	if err != nil {
		return nil, fmt.Errorf("トークンの生成に失敗しました: %w", err)
	}

	slog.Info("login succeeded", slog.String("user_id", account.ID))
	return &Session{Account: account, Token: token}, nil
}

// Authenticate はBearerトークンを検証してアカウントを返す。
// トークン不正・アカウント削除済みはUNAUTHORIZED。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Account, error) {
	userID, err := ParseToken(token, s.config.JWTSecret)
	if err != nil {
		return nil, model.NewUnauthorizedError()
	}

	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUnauthorizedError()
	}
	return account, nil
}

// UpdateProfile は表示名とメールアドレスを更新し、更新後のアカウントを返す。
func (s *Service) UpdateProfile(ctx context.Context, userID, name, email string) (*model.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("表示名が空です")
	}

	if err := s.accounts.UpdateProfile(ctx, userID, name, email); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("更新後のアカウント取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUserNotFoundError()
	}
	return account, nil
}

// ChangePassword は現在のパスワードを確認してから新パスワードに変更する。
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return model.NewUserNotFoundError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)); err != nil {
		return model.NewInvalidCredentialsError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}

	slog.Info("password changed", slog.String("user_id", userID))
	return nil
}

// ForgotPassword はパスワード再設定トークンを発行する。
// メールアドレスの存在有無を漏らさないため、未登録でもエラーにせず空トークンを返す。
// メール配信は外部コラボレータの責務で、本サービスはトークン発行のみを行う。
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if account == nil {
		return "", nil
	}

	token, err := generateResetToken()
	if err != nil {
		return "", fmt.Errorf("再設定トークンの生成に失敗しました: %w", err)
	}

	now := s.now()
	reset := &model.PasswordReset{
		Token:     token,
		UserID:    account.ID,
		Used:      false,
		ExpiresAt: now.Add(s.config.ResetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return "", fmt.Errorf("再設定トークンの保存に失敗しました: %w", err)
	}

	slog.Info("password reset token issued", slog.String("user_id", account.ID))
	return token, nil
}

// ResetPassword は再設定トークンでパスワードを変更する。トークンは1回限り有効。
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	reset, err := s.resets.FindByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("再設定トークンの取得に失敗しました: %w", err)
	}
	if reset == nil || reset.Used || s.now().After(reset.ExpiresAt) {
		return model.NewResetTokenInvalidError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, reset.UserID, string(hash)); err != nil {
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}
	if err := s.resets.MarkUsed(ctx, token); err != nil {
		return fmt.Errorf("再設定トークンの無効化に失敗しました: %w", err)
	}

	slog.Info("password reset completed", slog.String("user_id", reset.UserID))
	return nil
}

// DeleteAccount はアカウントを退会処理する。
// 所有ノートパッドは削除せずゲスト所有に戻る（DBの外部キーでuser_idがNULLになる）。
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.accounts.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}

	slog.Info("account deleted", slog.String("user_id", userID))
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return model.NewValidationError("メールアドレスが空です")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewValidationError("メールアドレスの形式が不正です")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上にしてください", MinPasswordLength))
	}
	return nil
}

// generateResetToken は暗号的に安全な再設定トークンを生成する。
func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
