package model

import "time"

// RetentionPolicy はアカウント種別ごとのノートパッド保持期間を表す。
// 期間の実値は設定から注入される。premiumは常に無期限。
type RetentionPolicy struct {
	Guest time.Duration
	User  time.Duration
}

// ExpiryFor は指定アカウント種別の保持期限を返す。
// premiumはnil（無期限）。
func (p RetentionPolicy) ExpiryFor(accountType AccountType, now time.Time) *time.Time {
	var d time.Duration
	switch accountType {
	case AccountTypeGuest:
		d = p.Guest
	case AccountTypeUser:
		d = p.User
	case AccountTypePremium:
		return nil
	default:
		d = p.Guest
	}
	t := now.Add(d)
	return &t
}
