// Package credentials はデータベースに触れる前の入力検証を提供します。
package credentials

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxLength はメールアドレスとパスワードの最大文字数です。
const MaxLength = 20

// LoginInput は POST /loggingIn のフォーム値です。ログイン時はメールアドレスだけを検証します。
type LoginInput struct {
	Email    string `form:"email" validate:"required,max=20"`
	Password string `form:"password"`
}

// SignupInput は POST /signingUp のフォーム値です。
type SignupInput struct {
	Name     string `form:"name"`
	Email    string `form:"email" validate:"required,max=20"`
	Password string `form:"password" validate:"required,max=20"`
}

// ValidationError は検証に失敗したフィールドと規則を表します。
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s (%s)", e.Field, e.Rule)
}

// Message は画面に表示するメッセージを返します。
func (e *ValidationError) Message() string {
	if e.Field == "email" {
		return "Invalid email"
	}
	switch e.Rule {
	case "required":
		return fmt.Sprintf("Please provide a %s", e.Field)
	case "max":
		return fmt.Sprintf("The %s must be at most %d characters", e.Field, MaxLength)
	default:
		return "Validation failed"
	}
}

// IsInvalidEmail は err がメールアドレスの検証エラーかどうかを返します。
func IsInvalidEmail(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr) && vErr.Field == "email"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーのフィールド名をフォームのキー名にそろえる
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// ValidateLogin はログイン入力を検証します。前後の空白は取り除いてから検証します。
func ValidateLogin(in *LoginInput) error {
	in.Email = strings.TrimSpace(in.Email)
	return check(in)
}

// ValidateSignup はサインアップ入力を検証します。
func ValidateSignup(in *SignupInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return check(in)
}

func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		// email のエラーを優先して返す
		first := fieldErrs[0]
		for _, fe := range fieldErrs {
			if fe.Field() == "email" {
				first = fe
				break
			}
		}
		return &ValidationError{Field: first.Field(), Rule: first.Tag()}
	}
	return err
}
