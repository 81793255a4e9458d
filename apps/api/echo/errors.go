package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler maps domain and validation errors to JSON responses.
// Validation failures render as a field->message object; anything unrecognized
// is logged and reported as a 500. signalShutdown is invoked when the error
// carries the shutdown marker so main can stop the server.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := resolveError(err, ctx, logger, signalShutdown)

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func resolveError(err error, ctx echo.Context, logger core.Logger, signalShutdown func()) (int, interface{}) {
	switch cause := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if cause == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, cause.Message
		}
		if herr, ok := cause.Internal.(*echo.HTTPError); ok {
			cause = herr
		}
		return cause.Code, cause.Message

	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(cause))
		for _, vErr := range cause {
			fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
		}
		return http.StatusBadRequest, fldErrs

	case *core.ValidationError:
		if len(cause.Fields) == 0 {
			return http.StatusBadRequest, cause.Error()
		}
		fldErrs := make(map[string]string, len(cause.Fields))
		for _, fErr := range cause.Fields {
			fldErrs[fErr.Field] = fErr.Error
		}
		return http.StatusBadRequest, fldErrs
	}

	// unexpected: log with the authenticated user attached when we have one
	msg := http.StatusText(http.StatusInternalServerError)
	var usr user.User
	if claims, cErr := getContextClaims(ctx); cErr == nil {
		usr.ID = claims.Subject
		usr.Name = claims.Name
		usr.Email = claims.Email
	}
	logger.Error(msg, errors.Wrap(err, msg), usr)

	if core.IsShutdown(err) {
		signalShutdown()
	}
	return http.StatusInternalServerError, msg
}

// notFoundIf hides the listed domain errors behind a generic 404.
func notFoundIf(err error, notFound ...error) error {
	cause := errors.Cause(err)
	for _, nf := range notFound {
		if cause == nf {
			return errHttpNotFound
		}
	}
	return err
}
