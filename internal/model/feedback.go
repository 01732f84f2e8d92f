package model

import "time"

// FeedbackCategory はフィードバックの分類。
type FeedbackCategory string

const (
	FeedbackCategoryBug            FeedbackCategory = "bug"
	FeedbackCategoryFeatureRequest FeedbackCategory = "feature_request"
	FeedbackCategoryMissingFeature FeedbackCategory = "missing_feature"
	FeedbackCategoryOther          FeedbackCategory = "other"
)

// ValidFeedbackCategory はカテゴリが定義済みかを返す。
func ValidFeedbackCategory(c FeedbackCategory) bool {
	switch c {
	case FeedbackCategoryBug, FeedbackCategoryFeatureRequest,
		FeedbackCategoryMissingFeature, FeedbackCategoryOther:
		return true
	}
	return false
}

// FeedbackStatus はフィードバックの対応状況。
type FeedbackStatus string

const (
	FeedbackStatusOpen       FeedbackStatus = "open"
	FeedbackStatusInProgress FeedbackStatus = "in_progress"
	FeedbackStatusResolved   FeedbackStatus = "resolved"
	FeedbackStatusClosed     FeedbackStatus = "closed"
)

// ValidFeedbackStatus はステータスが定義済みかを返す。
func ValidFeedbackStatus(s FeedbackStatus) bool {
	switch s {
	case FeedbackStatusOpen, FeedbackStatusInProgress,
		FeedbackStatusResolved, FeedbackStatusClosed:
		return true
	}
	return false
}

// Feedback は利用者からのフィードバックを表す。
// ゲスト投稿の場合はUserID・Emailはnil。
type Feedback struct {
	ID          string
	UserID      *string
	Email       *string
	Category    FeedbackCategory
	Title       string
	Description string
	Severity    string
	Status      FeedbackStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
