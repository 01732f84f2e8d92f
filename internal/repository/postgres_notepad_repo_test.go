package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
)

// PostgresNotepadRepoはNotepadRepositoryインターフェースを満たすことを検証
func TestPostgresNotepadRepo_ImplementsInterface(t *testing.T) {
	var _ NotepadRepository = (*PostgresNotepadRepo)(nil)
}

// PostgresShareRepoはShareRepositoryインターフェースを満たすことを検証
func TestPostgresShareRepo_ImplementsInterface(t *testing.T) {
	var _ ShareRepository = (*PostgresShareRepo)(nil)
}

// PostgresAnalyticsRepoはAnalyticsRepositoryインターフェースを満たすことを検証
func TestPostgresAnalyticsRepo_ImplementsInterface(t *testing.T) {
	var _ AnalyticsRepository = (*PostgresAnalyticsRepo)(nil)
}

// NewPostgresNotepadRepoが正しく初期化されることを検証
func TestNewPostgresNotepadRepo_Initializes(t *testing.T) {
	repo := NewPostgresNotepadRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// isUniqueViolationがpqの一意制約違反のみを検出することを検証
func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"一意制約違反", &pq.Error{Code: "23505"}, true},
		{"外部キー違反", &pq.Error{Code: "23503"}, false},
		{"一般エラー", errors.New("boom"), false},
		{"nil", nil, false},
		{"ラップされた一意制約違反", wrapErr(&pq.Error{Code: "23505"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func wrapErr(err error) error {
	return errors.Join(errors.New("wrapped"), err)
}
