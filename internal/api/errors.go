package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ivlev/beatvideo/internal/engine"
	"github.com/ivlev/beatvideo/internal/store"
)

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type kinded interface {
	ErrorKind() string
}

// newHTTPErrorHandler maps pipeline errors to status codes: bad input is
// 400/422, a saturated queue 503, everything else 500.
func newHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, body := classify(ctx, err)
		if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
			logger.Error("request failed", zap.String("uri", ctx.Request().RequestURI), zap.Error(err))
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, body)
		}
		if err != nil {
			logger.Error("writing error response", zap.Error(err))
		}
	}
}

func classify(ctx echo.Context, err error) (int, errorBody) {
	var (
		verrs   validator.ValidationErrors
		httpErr *echo.HTTPError
		k       kinded
	)

	switch {
	case errors.As(err, &verrs):
		body := errorBody{Error: "invalid request"}
		if v, ok := ctx.Echo().Validator.(*appValidator); ok {
			body.Details = v.fieldErrors(verrs)
		}
		return http.StatusBadRequest, body
	case errors.As(err, &httpErr):
		if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
			httpErr = herr
		}
		return httpErr.Code, errorBody{Error: fmt.Sprint(httpErr.Message)}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error()}
	case errors.As(err, &k):
		switch k.ErrorKind() {
		case engine.KindValidation:
			return http.StatusUnprocessableEntity, errorBody{Error: err.Error()}
		case engine.KindBusy:
			return http.StatusServiceUnavailable, errorBody{Error: err.Error()}
		}
		return http.StatusInternalServerError, errorBody{
			Error:   "video generation failed",
			Details: map[string]string{k.ErrorKind(): err.Error()},
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, errorBody{Error: "video generation timed out"}
	}
	return http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)}
}
