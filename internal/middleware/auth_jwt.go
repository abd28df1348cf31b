package middleware

import (
	"errors"
	"strconv"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // string(uuid)
	CtxUserRoleKey     = "user_role"     // model.Role
	CtxTokenVersionKey = "token_version" // int
)

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Bearer形式か確認してtokenを抜く
			rawToken, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return usecase.ErrUnauthorized
			}

			//JWTをパースして検証する
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return usecase.ErrUnauthorized
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return usecase.ErrUnauthorized
			}

			userID, err := parseString(claims["sub"])
			if err != nil {
				return usecase.ErrUnauthorized
			}
			if _, err := uuid.Parse(userID); err != nil {
				return usecase.ErrUnauthorized
			}

			//roleを取り出す（USER/ADMIN）
			role, err := parseString(claims["role"])
			if err != nil || role == "" {
				return usecase.ErrUnauthorized
			}

			tv, err := parseInt(claims["tv"])
			if err != nil || tv < 0 {
				return usecase.ErrUnauthorized
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, model.Role(role))
			c.Set(CtxTokenVersionKey, tv)

			return next(c)
		}
	}
}

// UserID はAuthJWTが入れたユーザーID（未認証なら空）
func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserIDKey).(string)
	return id
}

func UserRole(c echo.Context) model.Role {
	role, _ := c.Get(CtxUserRoleKey).(model.Role)
	return role
}

func bearerToken(authz string) (string, bool) {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.New("invalid string")
	}
	return s, nil
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		i64, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return 0, err
		}
		return int(i64), nil
	default:
		return 0, errors.New("invalid int")
	}
}
