// Package middleware holds the echo middleware that resolves the bearer
// token of a request into the authenticated user.
package middleware

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "poketeams/internal/errors"
	"poketeams/internal/logging"
	"poketeams/internal/model"
	"poketeams/internal/service"
)

const (
	principalKey      = "principal"
	principalErrorKey = "principal_error"
)

// Challenge is the WWW-Authenticate value sent with every 401.
const Challenge = "Bearer"

// UnauthenticatedResponse is the body of every rejected request, whichever
// check failed.
var UnauthenticatedResponse = apperrors.ErrorResponse{
	Error: "could not validate credentials",
	Code:  "UNAUTHENTICATED",
}

// Principal returns middleware that requires "Authorization: Bearer <token>",
// resolves it through the auth service and stores the user for PrincipalFrom.
// A missing, malformed, invalid or expired token, or a token for a user that
// no longer exists, gets a uniform 401. Store failures get a 500.
func Principal(authService service.AuthService, log logging.Logger) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  principalKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			user, err := authService.Authenticate(c.Request().Context(), token)
			if err != nil {
				if !errors.Is(err, apperrors.ErrUnauthorized) {
					c.Set(principalErrorKey, err)
				}
				return nil, err
			}
			return user, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if storeErr, ok := c.Get(principalErrorKey).(error); ok {
				log.Error(c.Request().Context(), "resolve principal",
					"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
					"error", storeErr.Error())
				httpErr := apperrors.MapErrorToHTTP(storeErr)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, Challenge)
			return echo.NewHTTPError(http.StatusUnauthorized, UnauthenticatedResponse)
		},
	})
}

// PrincipalFrom returns the user resolved by Principal for this request.
func PrincipalFrom(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(principalKey).(*model.User)
	return user, ok && user != nil
}
