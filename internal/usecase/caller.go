package usecase

import "app/internal/domain/model"

// 認証ミドルウェアが解決した呼び出し元。
// usecaseはグローバルなログイン状態を読まず、これを毎回受け取る。
type Caller struct {
	UserID int64
	Role   model.Role
}
