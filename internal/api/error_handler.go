package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/service"
	"github.com/asverdlov/edushop/internal/storage"
	"github.com/asverdlov/edushop/internal/util"
)

// ErrorHandler maps service/storage sentinels onto HTTP statuses in one
// place; handlers just return errors. The response body is always
// {"error": "..."} with the sentinel's exact wording.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, reason := classify(err)
		if status == http.StatusInternalServerError {
			log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
			reason = "internal server error"
		}

		if err := c.JSON(status, map[string]string{"error": reason}); err != nil {
			log.Errorw("failed to write json response", "error", err)
		}
	}
}

func classify(err error) (int, string) {
	var respErr util.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status, respErr.Msg
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	if isUnauthorizedError(err) {
		return http.StatusUnauthorized, err.Error()
	}
	if isBadRequestError(err) {
		return http.StatusBadRequest, err.Error()
	}
	if isNotFoundError(err) {
		return http.StatusNotFound, "Not found"
	}

	return http.StatusInternalServerError, ""
}

func isUnauthorizedError(err error) bool {
	return errors.Is(err, service.ErrNoAccessToken) ||
		errors.Is(err, service.ErrAccessTokenInvalid) ||
		errors.Is(err, service.ErrMissingFingerprint) ||
		errors.Is(err, service.ErrTokenContextMismatch) ||
		errors.Is(err, service.ErrNoRefreshToken) ||
		errors.Is(err, service.ErrRefreshTokenInvalid) ||
		errors.Is(err, service.ErrRefreshContextMismatch) ||
		errors.Is(err, service.ErrRefreshNotFound) ||
		errors.Is(err, service.ErrInvalidCredentials)
}

func isBadRequestError(err error) bool {
	var stockErr storage.InsufficientStockError
	if errors.As(err, &stockErr) {
		return true
	}
	return errors.Is(err, service.ErrEmailTaken) ||
		errors.Is(err, service.ErrEmailExists) ||
		errors.Is(err, service.ErrPasswordTooShort) ||
		errors.Is(err, service.ErrSoldOut) ||
		errors.Is(err, service.ErrInvalidOrderStatus) ||
		errors.Is(err, storage.ErrCartEmpty)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, storage.ErrUserNotFound) ||
		errors.Is(err, storage.ErrProductNotFound) ||
		errors.Is(err, storage.ErrOrderNotFound) ||
		errors.Is(err, storage.ErrCourseNotFound)
}
