package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error
	ValidateChangePassword(ctx context.Context, currentPassword string, newPassword string) error
	ValidateForceLogout(ctx context.Context, targetUserID string) error
}

type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type TokenDTO struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type AuthResult struct {
	User  UserDTO  `json:"user"`
	Token TokenDTO `json:"token"`
}

type AuthRegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type ForceLogoutResponse struct {
	UserID          string `json:"userId"`
	NewTokenVersion int    `json:"newTokenVersion"`
}

type AuthUsecase struct {
	cfg       config.Config
	users     repo.UserRepository
	rtRepo    repo.RefreshTokenRepository
	validator AuthValidator
	log       *zap.Logger
}

func NewAuthUsecase(
	cfg config.Config,
	users repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	validator AuthValidator,
	log *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		rtRepo:    rtRepo,
		validator: validator,
		log:       log,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register は作成と同時にログイン状態にする
func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest, userAgent string) (*AuthResult, error) {
	email := normalizeEmail(req.Email)

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, email, req.Password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err)
	}

	role := model.RoleUser
	if u.cfg.AdminEmail != "" && email == u.cfg.AdminEmail {
		role = model.RoleAdmin
	}

	now := time.Now()
	user := &model.User{
		Email:        email,
		PasswordHash: string(pwHash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		TokenVersion: 0,
		IsActive:     true,
		LastLoginAt:  &now,
	}

	//同時登録はunique制約で弾く
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, newCodedError(http.StatusConflict, "CONFLICT", "email already registered")
		}
		return nil, internalError(err)
	}

	u.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return u.startSession(ctx, user, userAgent)
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest, userAgent string) (*AuthResult, error) {
	email := normalizeEmail(req.Email)

	if err := u.validator.ValidateLogin(ctx, email, req.Password); err != nil {
		return nil, err
	}

	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, internalError(err)
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalidCredentials()
	}

	//停止ユーザーはログイン不可
	if user.IsBlocked() {
		return nil, ErrUserBlocked
	}

	//last_login更新
	now := time.Now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		u.log.Warn("last login update failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	return u.startSession(ctx, user, userAgent)
}

func invalidCredentials() error {
	return newCodedError(http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password")
}

// access + refresh を発行
func (u *AuthUsecase) startSession(ctx context.Context, user *model.User, userAgent string) (*AuthResult, error) {
	token, err := u.issueTokens(ctx, user, userAgent)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: toUserDTO(user), Token: token}, nil
}

func (u *AuthUsecase) issueTokens(ctx context.Context, user *model.User, userAgent string) (TokenDTO, error) {
	rt, tok, err := u.mintTokens(user, userAgent)
	if err != nil {
		return TokenDTO{}, err
	}
	if err := u.rtRepo.Create(ctx, rt); err != nil {
		return TokenDTO{}, internalError(err)
	}
	return tok, nil
}

// access tokenとrefresh tokenを作る（保存はしない）。DBにはhashのみ
func (u *AuthUsecase) mintTokens(user *model.User, userAgent string) (*model.RefreshToken, TokenDTO, error) {
	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return nil, TokenDTO{}, internalError(err)
	}

	refreshPlain, err := newRandomToken()
	if err != nil {
		return nil, TokenDTO{}, internalError(err)
	}

	rt := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: u.hashToken(refreshPlain),
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(u.cfg.RefreshTTL),
	}
	return rt, TokenDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshPlain,
		ExpiresIn:    expiresIn,
	}, nil
}

// model.UserをAPI返却用DTOに変換
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (u *AuthUsecase) Me(ctx context.Context, userID string) (*UserDTO, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, internalError(err)
	}
	if user.IsBlocked() {
		return nil, ErrUserBlocked
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// nilの項目は変更しない
func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*UserDTO, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "user not found")
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}

	if err := u.users.Update(ctx, user); err != nil {
		return nil, repoError(err, "user not found")
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// ChangePassword の後は全端末で再ログインが必要
func (u *AuthUsecase) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if err := u.validator.ValidateChangePassword(ctx, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return repoError(err, "user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return newCodedError(http.StatusUnauthorized, "UNAUTHORIZED", "current password is incorrect")
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return internalError(err)
	}
	user.PasswordHash = string(pwHash)

	if err := u.users.Update(ctx, user); err != nil {
		return repoError(err, "user not found")
	}
	if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
		return internalError(err)
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, userID); err != nil {
		return internalError(err)
	}

	u.log.Info("password changed", zap.String("user_id", userID))
	return nil
}

// Refresh はローテーション。使用済みトークンが来たら全セッションを失効させる
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*TokenDTO, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain, userAgent); err != nil {
		return nil, err
	}

	//DB照合
	rt, err := u.rtRepo.FindByTokenHash(ctx, u.hashToken(refreshTokenPlain))
	if errors.Is(err, repo.ErrRefreshTokenNotFound) || errors.Is(err, repo.ErrNotFound) || (err == nil && rt == nil) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, internalError(err)
	}

	if rt.Expired(time.Now()) {
		_ = u.rtRepo.DeleteByID(ctx, rt.ID)
		return nil, ErrUnauthorized
	}

	//used済みが来たら replay → 全削除
	if rt.Used() {
		u.log.Warn("refresh token replay detected", zap.String("user_id", rt.UserID))
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, ErrSecurityIncident
	}

	//user_agent違い（再認証扱い。全削除）
	if userAgent != "" && rt.UserAgent != "" && userAgent != rt.UserAgent {
		u.log.Warn("refresh token user agent mismatch", zap.String("user_id", rt.UserID))
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, ErrSecurityIncident
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, internalError(err)
	}
	if user.IsBlocked() {
		return nil, ErrUserBlocked
	}

	next, token, err := u.mintTokens(user, userAgent)
	if err != nil {
		return nil, err
	}

	//同時に2回来たら片方は失敗する
	err = u.rtRepo.Rotate(ctx, rt.ID, next)
	if errors.Is(err, repo.ErrRefreshTokenNotFound) {
		u.log.Warn("concurrent refresh detected", zap.String("user_id", rt.UserID))
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, ErrSecurityIncident
	}
	if err != nil {
		return nil, internalError(err)
	}
	return &token, nil
}

func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) error {
	if strings.TrimSpace(refreshTokenPlain) == "" {
		return ErrUnauthorized
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, u.hashToken(refreshTokenPlain))
	if errors.Is(err, repo.ErrRefreshTokenNotFound) || errors.Is(err, repo.ErrNotFound) || (err == nil && rt == nil) {
		return ErrUnauthorized
	}
	if err != nil {
		return internalError(err)
	}

	//refreshを削除（失効）
	if err := u.rtRepo.DeleteByID(ctx, rt.ID); err != nil {
		return internalError(err)
	}
	return nil
}

// ForceLogout はトークンバージョンを上げて発行済みのaccess tokenを無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, targetUserID string) (*ForceLogoutResponse, error) {
	if err := u.validator.ValidateForceLogout(ctx, targetUserID); err != nil {
		return nil, err
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return nil, repoError(err, "user not found")
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, targetUserID); err != nil {
		return nil, internalError(err)
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, repoError(err, "user not found")
	}

	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := time.Now()
	exp := now.Add(u.cfg.AccessTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}
	return signed, int(u.cfg.AccessTTL.Seconds()), nil
}

// refresh tokenの平文
func newRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DBにはHMACだけ保存する
func (u *AuthUsecase) hashToken(plain string) string {
	mac := hmac.New(sha256.New, []byte(u.cfg.JWTRefreshSecret))
	mac.Write([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
