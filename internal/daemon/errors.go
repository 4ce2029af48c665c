package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"podcaster/internal/api"
	"podcaster/internal/logging"
	"podcaster/internal/services"
)

// statusForError maps a classified service error onto an HTTP status code.
func statusForError(err error) int {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	switch services.Kind(err) {
	case "invalid_topic", "stage_precondition", "no_content_found", "empty_input", "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) api.ErrorResponse {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return api.ErrorResponse{Error: fmt.Sprint(httpErr.Message), Kind: "http"}
	}
	return api.ErrorResponse{Error: err.Error(), Kind: services.Kind(err)}
}

// errorHandler writes every failed request as an api.ErrorResponse.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := statusForError(err)
		req := c.Request()
		attrs := []logging.Attr{
			logging.String("method", req.Method),
			logging.String("path", req.URL.Path),
			logging.Int("status", code),
			logging.ErrorKind(err),
			logging.Error(err),
		}
		switch {
		case code >= http.StatusInternalServerError:
			logging.ErrorWithContext(logger, "request failed", "request_failed",
				append(attrs, logging.String(logging.FieldErrorHint, "check provider credentials and daemon logs"))...)
		default:
			logger.Info("request rejected", logging.Args(attrs...)...)
		}

		body := errorBody(err)
		if req.Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Warn("write error response", logging.Error(err))
		}
	}
}
