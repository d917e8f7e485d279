package presenter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"github.com/one-zero-eight/omnidesk-portal/internal/domain"
)

const (
	headerETag        = "ETag"
	headerIfNoneMatch = "If-None-Match"
)

type errorResponse struct {
	Detail any `json:"detail"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, raw json.RawMessage) error {
	return c.JSONBlob(http.StatusCreated, raw)
}

// OKWithETag writes payload with an ETag derived from its encoding and
// answers 304 when the client already holds the same body.
func OKWithETag(c echo.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return InternalError(c, err)
	}

	etag := `"` + strconv.FormatUint(xxh3.Hash(body), 16) + `"`
	c.Response().Header().Set(headerETag, etag)
	if c.Request().Header.Get(headerIfNoneMatch) == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, body)
}

func Unprocessable(c echo.Context, detail any) error {
	return c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: detail})
}

func NotAuthenticated(c echo.Context) error {
	return c.JSON(http.StatusForbidden, errorResponse{Detail: "Not authenticated"})
}

func Unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, errorResponse{Detail: "Invalid or expired token"})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Detail: msg})
}

func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(
		c.Request().Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("module", "rest"),
	)
	return c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
}

// Error maps usecase errors onto responses. Upstream client errors keep
// their status, everything else from upstream becomes 502.
func Error(c echo.Context, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return Unprocessable(c, validationDetail(validationErr.Err))
	}

	if errors.Is(err, domain.ErrUnauthorized) {
		return Unauthorized(c)
	}

	if errors.Is(err, domain.ErrNotFound) {
		return NotFound(c, err.Error())
	}

	if errors.Is(err, domain.ErrSSODisabled) {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: "SSO is not configured"})
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		slog.WarnContext(
			c.Request().Context(), "upstream request failed",
			slog.String("service", upstream.Service),
			slog.Int("status", upstream.Status),
			slog.String("body", upstream.Body),
			slog.String("module", "rest"),
		)
		if upstream.Status >= 400 && upstream.Status < 500 &&
			upstream.Status != http.StatusUnauthorized && upstream.Status != http.StatusForbidden {
			return c.JSON(upstream.Status, errorResponse{Detail: upstreamDetail(upstream.Body)})
		}
		return c.JSON(http.StatusBadGateway, errorResponse{Detail: upstream.Service + " is unavailable"})
	}

	return InternalError(c, err)
}

func upstreamDetail(body string) any {
	var parsed any
	err := json.Unmarshal([]byte(body), &parsed)
	if err == nil {
		return parsed
	}
	return body
}

func validationDetail(err error) any {
	if marshaler, ok := err.(json.Marshaler); ok {
		return marshaler
	}
	return err.Error()
}
