package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/logger"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// 全レスポンス共通の形 {success, data|message}
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func respondMessage(c echo.Context, status int, msg string) error {
	return c.JSON(status, Envelope{Success: true, Message: msg})
}

// unique制約違反
const pgUniqueViolation = "23505"

// NewErrorHandler はechoのHTTPErrorHandler。
// ハンドラ・ミドルウェアが返したエラーをここで1回だけ書く
func NewErrorHandler(log *zap.Logger, isProduction bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := resolveError(err)

		if he.Status >= http.StatusInternalServerError {
			fields := []zap.Field{
				zap.String("request_id", logger.RequestID(c)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			}
			if !isProduction {
				fields = append(fields, zap.Stack("stack"))
			}
			log.Error("request failed", fields...)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Status)
		} else {
			werr = c.JSON(he.Status, Envelope{Success: false, Message: he.Message, Code: he.Code})
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func resolveError(err error) *usecase.HTTPError {
	if he, ok := usecase.AsHTTPError(err); ok {
		return he
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		msg := http.StatusText(ee.Code)
		if ee.Code == http.StatusNotFound {
			msg = "route not found"
		} else if s, ok := ee.Message.(string); ok && s != "" {
			msg = s
		}
		he, _ := usecase.AsHTTPError(usecase.NewHTTPError(ee.Code, msg))
		return he
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &usecase.HTTPError{Status: http.StatusConflict, Code: usecase.ErrConflict.Code, Message: "resource already exists", Err: err}
	}

	return &usecase.HTTPError{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "internal server error", Err: err}
}

// Bind＋タグ検証
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(dst); err != nil {
		return err
	}
	return nil
}

// クエリの整数（未指定ならdef）
func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

// パスのIDはuuidのみ
func pathID(c echo.Context, name string) (string, error) {
	v := c.Param(name)
	if _, err := uuid.Parse(v); err != nil {
		return "", usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}
