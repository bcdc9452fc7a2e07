package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"poketeams/internal/handler"
	"poketeams/internal/logging"
	authmw "poketeams/internal/middleware"
	"poketeams/internal/service"
)

// WelcomeMessage is returned by the root route.
const WelcomeMessage = "Welcome to the Pokémon Team Builder API!"

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	log logging.Logger,
	authService service.AuthService,
	authHandler *handler.AuthHandler,
	teamHandler *handler.TeamHandler,
) {
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())

	e.Validator = NewValidator()

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.MessageResponse{Message: WelcomeMessage})
	})

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	principal := authmw.Principal(authService, log)

	// Public routes
	authGroup := e.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)

	// Secured routes
	authGroup.GET("/me", authHandler.Me, principal)

	teams := e.Group("/teams", principal)
	teams.GET("", teamHandler.ListTeams)
	teams.POST("", teamHandler.CreateTeam)
	teams.GET("/:id", teamHandler.GetTeam)
	teams.PUT("/:id", teamHandler.UpdateTeam)
	teams.DELETE("/:id", teamHandler.DeleteTeam)
}

// requestLogger routes echo's request log through the service logger. The
// Authorization header and request bodies are never logged.
func requestLogger(log logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				args = append(args, "error", v.Error.Error())
			}
			if v.Status >= http.StatusInternalServerError {
				log.Error(c.Request().Context(), "request", args...)
				return nil
			}
			log.Info(c.Request().Context(), "request", args...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns an echo.Validator backed by go-playground/validator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
