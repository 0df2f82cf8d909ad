package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
)

const (
	msgMethodNotAllowed = "Method not allowed"
	msgBodyTooLarge     = "Request body too large"
	msgInternal         = "Internal Server Error"
)

type errorResponse struct {
	Message string `json:"message"`
}

// errorHandler renders every error returned by a handler or middleware as
// {"message": ...}. Storage details are logged, never sent.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := h.statusOf(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, errorResponse{Message: msg})
	}
	if werr != nil {
		h.log.Error("write error response", zap.Error(werr))
	}
}

func (h *Handler) statusOf(err error) (int, string) {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(appErr, errs.ErrNotFound):
			return http.StatusNotFound, appErr.Error()
		case errors.Is(appErr, errs.ErrInvalidInput), errors.Is(appErr, errs.ErrConflict):
			return http.StatusBadRequest, appErr.Error()
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return http.StatusBadRequest, errs.ErrPathNotFound.Error()
		case http.StatusMethodNotAllowed:
			return http.StatusMethodNotAllowed, msgMethodNotAllowed
		case http.StatusRequestEntityTooLarge:
			return http.StatusRequestEntityTooLarge, msgBodyTooLarge
		}
		if he.Code < http.StatusInternalServerError {
			if m, ok := he.Message.(string); ok {
				return he.Code, m
			}
			return he.Code, http.StatusText(he.Code)
		}
	}
	return http.StatusInternalServerError, msgInternal
}
