package validator

import (
	"context"
	"errors"
	"net/http"
	"strings"

	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/go-playground/validator/v10"
)

const minPasswordLen = 6

var (
	// 入力が不正
	ErrInvalidInput = usecase.NewHTTPError(http.StatusBadRequest, "invalid input")

	// emailが既に使用済み
	ErrEmailAlreadyUsed = usecase.NewHTTPError(http.StatusConflict, "email already registered")

	// refresh tokenが不正
	ErrInvalidRefresh = usecase.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
)

type authValidator struct {
	users repo.UserRepository
	v     *validator.Validate
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repo.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users, v: validator.New()}
}

// サインアップの入力を検証
func (a *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	if err := a.checkEmail(email); err != nil {
		return err
	}
	if len(password) < minPasswordLen {
		return usecase.NewHTTPError(http.StatusBadRequest, "password must be at least 6 characters")
	}

	// email重複チェック（DBが必要）
	_, err := a.users.FindByEmail(ctx, strings.TrimSpace(email))
	switch {
	case err == nil:
		return ErrEmailAlreadyUsed
	case errors.Is(err, repo.ErrNotFound):
		return nil
	default:
		return err
	}
}

// ログインの入力を検証
func (a *authValidator) ValidateLogin(_ context.Context, email string, password string) error {
	if password == "" {
		return ErrInvalidInput
	}
	return a.checkEmail(email)
}

// refresh 入力を検証
func (a *authValidator) ValidateRefresh(_ context.Context, refreshToken string, _ string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrInvalidRefresh
	}
	return nil
}

func (a *authValidator) ValidateChangePassword(_ context.Context, currentPassword string, newPassword string) error {
	if currentPassword == "" {
		return ErrInvalidInput
	}
	if len(newPassword) < minPasswordLen {
		return usecase.NewHTTPError(http.StatusBadRequest, "password must be at least 6 characters")
	}
	if currentPassword == newPassword {
		return usecase.NewHTTPError(http.StatusBadRequest, "new password must differ from current password")
	}
	return nil
}

// 強制ログアウトの入力を検証
func (a *authValidator) ValidateForceLogout(_ context.Context, targetUserID string) error {
	if err := a.v.Var(targetUserID, "required,uuid"); err != nil {
		return ErrInvalidInput
	}
	return nil
}

func (a *authValidator) checkEmail(email string) error {
	if err := a.v.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	return nil
}
