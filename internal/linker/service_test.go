package linker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/repository"
)

// --- モック ---

type mockNotepadRepo struct {
	findByCodeFn func(ctx context.Context, code string) (*model.Notepad, error)
	findByIDFn   func(ctx context.Context, id string) (*model.Notepad, error)
	linkFn       func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error)
}

func (m *mockNotepadRepo) FindByCode(ctx context.Context, code string) (*model.Notepad, error) {
	return m.findByCodeFn(ctx, code)
}
func (m *mockNotepadRepo) FindByID(ctx context.Context, id string) (*model.Notepad, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockNotepadRepo) Create(ctx context.Context, n *model.Notepad) error { return nil }
func (m *mockNotepadRepo) DeleteByID(ctx context.Context, id string) error    { return nil }
func (m *mockNotepadRepo) AppendEntry(ctx context.Context, id string, e model.Entry) (int, error) {
	return 0, nil
}
func (m *mockNotepadRepo) ClearEntries(ctx context.Context, id string) error { return nil }
func (m *mockNotepadRepo) Link(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
	return m.linkFn(ctx, notepadID, userID, at, exp)
}
func (m *mockNotepadRepo) UpdateRetention(ctx context.Context, userID string, at model.AccountType, exp *time.Time) error {
	return nil
}
func (m *mockNotepadRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Notepad, error) {
	return nil, nil
}
func (m *mockNotepadRepo) Search(ctx context.Context, userID, query string, limit, offset int) ([]*model.Notepad, int, error) {
	return nil, 0, nil
}
func (m *mockNotepadRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

var _ repository.NotepadRepository = (*mockNotepadRepo)(nil)

var testRetention = model.RetentionPolicy{
	Guest: 90 * 24 * time.Hour,
	User:  365 * 24 * time.Hour,
}

func newTestService(repo *mockNotepadRepo, now time.Time) *Service {
	s := NewService(repo, testRetention)
	s.now = func() time.Time { return now }
	return s
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func userAccount(id string) *model.Account {
	return &model.Account{ID: id, AccountType: model.AccountTypeUser}
}

func assertAPIError(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}

// --- テスト ---

// TestService_Link_Success はゲストノートパッドの連携を検証する。
// 保持期限が作成日時起点でユーザー向けポリシーに引き直されることも確認する。
func TestService_Link_Success(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := createdAt.Add(30 * 24 * time.Hour)
	guestExpiry := createdAt.Add(90 * 24 * time.Hour)

	var gotExpiry *time.Time
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			return &model.Notepad{
				ID:          "np-1",
				Code:        code,
				AccountType: model.AccountTypeGuest,
				ExpiresAt:   timePtr(guestExpiry),
				CreatedAt:   createdAt,
			}, nil
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			if notepadID != "np-1" || userID != "user-1" {
				t.Errorf("Link(%q, %q)", notepadID, userID)
			}
			gotExpiry = exp
			return true, nil
		},
	}
	svc := newTestService(repo, now)

	n, err := svc.Link(context.Background(), "happy-panda-42", userAccount("user-1"))
	if err != nil {
		t.Fatalf("Link returned error: %v", err)
	}

	if n.UserID == nil || *n.UserID != "user-1" {
		t.Errorf("UserID = %v, want user-1", n.UserID)
	}
	// 連携時点（作成30日後）ではなく作成日時を起点に引き直す
	want := createdAt.Add(365 * 24 * time.Hour)
	if gotExpiry == nil || !gotExpiry.Equal(want) {
		t.Errorf("expiry = %v, want created_at+365d = %v", gotExpiry, want)
	}
}

// TestService_Link_DoesNotShortenExpiry は既存の期限がポリシーより長い場合に
// 短縮されないことを検証する。
func TestService_Link_DoesNotShortenExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	farExpiry := now.Add(500 * 24 * time.Hour)

	var gotExpiry *time.Time
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			return &model.Notepad{ID: "np-1", Code: code, ExpiresAt: timePtr(farExpiry), CreatedAt: now}, nil
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			gotExpiry = exp
			return true, nil
		},
	}
	svc := newTestService(repo, now)

	if _, err := svc.Link(context.Background(), "happy-panda-42", userAccount("user-1")); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if gotExpiry == nil || !gotExpiry.Equal(farExpiry) {
		t.Errorf("expiry = %v, want existing %v", gotExpiry, farExpiry)
	}
}

// TestService_Link_PremiumUnlimited はpremiumアカウントへの連携で無期限になることを検証する。
func TestService_Link_PremiumUnlimited(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var gotExpiry *time.Time
	called := false
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			return &model.Notepad{ID: "np-1", Code: code, ExpiresAt: timePtr(now.Add(time.Hour)), CreatedAt: now.Add(-time.Hour)}, nil
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			called = true
			gotExpiry = exp
			return true, nil
		},
	}
	svc := newTestService(repo, now)

	account := &model.Account{ID: "user-1", AccountType: model.AccountTypePremium}
	n, err := svc.Link(context.Background(), "happy-panda-42", account)
	if err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if !called {
		t.Fatal("expected repo.Link to be called")
	}
	if gotExpiry != nil {
		t.Errorf("expiry = %v, want nil for premium", *gotExpiry)
	}
	if n.ExpiresAt != nil {
		t.Errorf("notepad ExpiresAt = %v, want nil", *n.ExpiresAt)
	}
}

// TestService_Link_Idempotent は同一アカウントへの再連携が冪等に成功することを検証する。
func TestService_Link_Idempotent(t *testing.T) {
	linkCalled := false
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			return &model.Notepad{ID: "np-1", Code: code, UserID: strPtr("user-1")}, nil
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			linkCalled = true
			return false, nil
		},
	}
	svc := newTestService(repo, time.Now())

	n, err := svc.Link(context.Background(), "happy-panda-42", userAccount("user-1"))
	if err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if linkCalled {
		t.Error("repo.Link should not be called for already-linked-to-same-account")
	}
	if n.UserID == nil || *n.UserID != "user-1" {
		t.Errorf("UserID = %v, want user-1", n.UserID)
	}
}

// TestService_Link_AlreadyLinked は他アカウント連携済みでALREADY_LINKEDが返り、
// 所有権が移転しないことを検証する。
func TestService_Link_AlreadyLinked(t *testing.T) {
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			return &model.Notepad{ID: "np-1", Code: code, UserID: strPtr("other-user")}, nil
		},
	}
	svc := newTestService(repo, time.Now())

	_, err := svc.Link(context.Background(), "happy-panda-42", userAccount("user-1"))
	assertAPIError(t, err, model.ErrCodeAlreadyLinked)
}

// TestService_Link_NotFoundAndExpired は未存在と期限切れが区別されることを検証する。
func TestService_Link_NotFoundAndExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("未存在", func(t *testing.T) {
		repo := &mockNotepadRepo{
			findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
				return nil, nil
			},
		}
		svc := newTestService(repo, now)
		_, err := svc.Link(context.Background(), "missing-code-00", userAccount("user-1"))
		assertAPIError(t, err, model.ErrCodeNotepadNotFound)
	})

	t.Run("期限切れ", func(t *testing.T) {
		repo := &mockNotepadRepo{
			findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
				return &model.Notepad{ID: "np-1", Code: code, ExpiresAt: timePtr(now.Add(-time.Hour))}, nil
			},
		}
		svc := newTestService(repo, now)
		_, err := svc.Link(context.Background(), "calm-river-17", userAccount("user-1"))
		assertAPIError(t, err, model.ErrCodeNotepadExpired)
	})
}

// TestService_Link_RaceLostToSameUser はCAS敗北後の再読み取りで自分が所有者なら
// 成功扱いになることを検証する（同一アカウントからの同時連携）。
func TestService_Link_RaceLostToSameUser(t *testing.T) {
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			return &model.Notepad{ID: "np-1", Code: code}, nil
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			return false, nil
		},
		findByIDFn: func(ctx context.Context, id string) (*model.Notepad, error) {
			return &model.Notepad{ID: id, Code: "happy-panda-42", UserID: strPtr("user-1")}, nil
		},
	}
	svc := newTestService(repo, time.Now())

	n, err := svc.Link(context.Background(), "happy-panda-42", userAccount("user-1"))
	if err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if n.UserID == nil || *n.UserID != "user-1" {
		t.Errorf("UserID = %v, want user-1", n.UserID)
	}
}

// TestService_Link_RaceLostToOtherUser はCAS敗北後に他人が所有者なら
// ALREADY_LINKEDになることを検証する。
func TestService_Link_RaceLostToOtherUser(t *testing.T) {
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			return &model.Notepad{ID: "np-1", Code: code}, nil
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			return false, nil
		},
		findByIDFn: func(ctx context.Context, id string) (*model.Notepad, error) {
			return &model.Notepad{ID: id, Code: "happy-panda-42", UserID: strPtr("other-user")}, nil
		},
	}
	svc := newTestService(repo, time.Now())

	_, err := svc.Link(context.Background(), "happy-panda-42", userAccount("user-1"))
	assertAPIError(t, err, model.ErrCodeAlreadyLinked)
}

// TestService_LinkMany は一括連携の新規・スキップの混在を検証する。
func TestService_LinkMany(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			switch code {
			case "free-code-01":
				return &model.Notepad{ID: "np-1", Code: code, CreatedAt: now}, nil
			case "taken-code-02":
				return &model.Notepad{ID: "np-2", Code: code, UserID: strPtr("other-user")}, nil
			case "mine-code-03":
				return &model.Notepad{ID: "np-3", Code: code, UserID: strPtr("user-1")}, nil
			default:
				return nil, nil
			}
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo, now)

	codes := []string{"free-code-01", "taken-code-02", "mine-code-03", "missing-code-04"}
	result, err := svc.LinkMany(context.Background(), codes, userAccount("user-1"))
	if err != nil {
		t.Fatalf("LinkMany returned error: %v", err)
	}

	// 新規に連携したのはfreeのみ。mine（連携済み）・taken・missingはスキップ。
	if result.LinkedCount != 1 {
		t.Errorf("LinkedCount = %d, want 1", result.LinkedCount)
	}
	if len(result.Skipped) != 3 {
		t.Fatalf("len(Skipped) = %d, want 3", len(result.Skipped))
	}

	reasons := map[string]string{}
	for _, sk := range result.Skipped {
		reasons[sk.Code] = sk.Reason
	}
	if reasons["mine-code-03"] != SkipReasonAlreadyYours {
		t.Errorf("mine-code-03 reason = %q, want %q", reasons["mine-code-03"], SkipReasonAlreadyYours)
	}
	if reasons["taken-code-02"] != model.ErrCodeAlreadyLinked {
		t.Errorf("taken-code-02 reason = %q, want %q", reasons["taken-code-02"], model.ErrCodeAlreadyLinked)
	}
	if reasons["missing-code-04"] != model.ErrCodeNotepadNotFound {
		t.Errorf("missing-code-04 reason = %q, want %q", reasons["missing-code-04"], model.ErrCodeNotepadNotFound)
	}
}

// TestService_LinkMany_AlreadyOwnedNotCounted は自分に連携済みのコードが
// 新規連携に数えられないことを検証する。
func TestService_LinkMany_AlreadyOwnedNotCounted(t *testing.T) {
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			return &model.Notepad{ID: "np-1", Code: code, UserID: strPtr("user-1")}, nil
		},
	}
	svc := newTestService(repo, time.Now())

	result, err := svc.LinkMany(context.Background(), []string{"mine-code-01"}, userAccount("user-1"))
	if err != nil {
		t.Fatalf("LinkMany returned error: %v", err)
	}
	if result.LinkedCount != 0 {
		t.Errorf("LinkedCount = %d, want 0", result.LinkedCount)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != SkipReasonAlreadyYours {
		t.Errorf("Skipped = %+v, want 1 entry with reason %q", result.Skipped, SkipReasonAlreadyYours)
	}
}

// TestService_LinkMany_EmptyInput は空リストがエラーではなく空の結果になることを検証する。
func TestService_LinkMany_EmptyInput(t *testing.T) {
	svc := newTestService(&mockNotepadRepo{}, time.Now())

	for _, codes := range [][]string{nil, {}} {
		result, err := svc.LinkMany(context.Background(), codes, userAccount("user-1"))
		if err != nil {
			t.Fatalf("LinkMany(%v) returned error: %v", codes, err)
		}
		if result.LinkedCount != 0 || len(result.Linked) != 0 || len(result.Skipped) != 0 {
			t.Errorf("result = %+v, want empty", result)
		}
	}
}

// TestService_LinkMany_BatchLimit は上限超過分が処理されずスキップになることを検証する。
func TestService_LinkMany_BatchLimit(t *testing.T) {
	findCalls := 0
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			findCalls++
			return &model.Notepad{ID: code, Code: code, CreatedAt: time.Now()}, nil
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo, time.Now())

	codes := make([]string, MaxBulkCodes+3)
	for i := range codes {
		codes[i] = fmt.Sprintf("code-%03d", i)
	}
	result, err := svc.LinkMany(context.Background(), codes, userAccount("user-1"))
	if err != nil {
		t.Fatalf("LinkMany returned error: %v", err)
	}

	if findCalls != MaxBulkCodes {
		t.Errorf("findCalls = %d, want %d", findCalls, MaxBulkCodes)
	}
	if result.LinkedCount != MaxBulkCodes {
		t.Errorf("LinkedCount = %d, want %d", result.LinkedCount, MaxBulkCodes)
	}
	if len(result.Skipped) != 3 {
		t.Fatalf("len(Skipped) = %d, want 3", len(result.Skipped))
	}
	for _, sk := range result.Skipped {
		if sk.Reason != SkipReasonBatchLimit {
			t.Errorf("reason = %q, want %q", sk.Reason, SkipReasonBatchLimit)
		}
	}
}

// TestService_Link_NormalizesCode は大文字混じりのコードが小文字に正規化されて
// 照合されることを検証する。
func TestService_Link_NormalizesCode(t *testing.T) {
	var lookedUp string
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			lookedUp = code
			return &model.Notepad{ID: "np-1", Code: code, CreatedAt: time.Now()}, nil
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo, time.Now())

	if _, err := svc.Link(context.Background(), " Happy-Panda-42 ", userAccount("user-1")); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if lookedUp != "happy-panda-42" {
		t.Errorf("looked up code = %q, want happy-panda-42", lookedUp)
	}
}

// TestService_LinkMany_DeduplicatesCodes は重複コードが1回だけ処理されることを検証する。
func TestService_LinkMany_DeduplicatesCodes(t *testing.T) {
	findCalls := 0
	repo := &mockNotepadRepo{
		findByCodeFn: func(ctx context.Context, code string) (*model.Notepad, error) {
			findCalls++
			return &model.Notepad{ID: "np-1", Code: code}, nil
		},
		linkFn: func(ctx context.Context, notepadID, userID string, at model.AccountType, exp *time.Time) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo, time.Now())

	result, err := svc.LinkMany(context.Background(), []string{"same-code-01", "same-code-01"}, userAccount("user-1"))
	if err != nil {
		t.Fatalf("LinkMany returned error: %v", err)
	}
	if findCalls != 1 {
		t.Errorf("findCalls = %d, want 1", findCalls)
	}
	if result.LinkedCount != 1 {
		t.Errorf("LinkedCount = %d, want 1", result.LinkedCount)
	}
}
