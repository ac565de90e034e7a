// Package users はユーザーレコードとその保存先を提供します。
package users

import (
	"errors"
	"time"
)

// Type はユーザーの権限種別を表します。
type Type string

const (
	TypeUser  Type = "user"
	TypeAdmin Type = "admin"
)

// Valid は既知の種別かどうかを返します。
func (t Type) Valid() bool {
	return t == TypeUser || t == TypeAdmin
}

var (
	// ErrNotFound は該当するユーザーが存在しないことを示します。
	ErrNotFound = errors.New("user not found")
	// ErrAmbiguous は同じメールアドレスのユーザーが複数存在することを示します。
	ErrAmbiguous = errors.New("multiple users share this email")
	// ErrInvalidType は未知の userType が指定されたことを示します。
	ErrInvalidType = errors.New("invalid user type")
)

// User は保存されるユーザーレコードです。Password は bcrypt ハッシュのみを保持します。
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	UserType  Type      `json:"userType"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin は管理者かどうかを返します。
func (u *User) IsAdmin() bool {
	return u != nil && u.UserType == TypeAdmin
}
