package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"poketeams/internal/logging"
	"poketeams/internal/middleware"
	"poketeams/internal/service"
)

// TeamHandler handles team endpoints. All routes sit behind the principal
// middleware.
type TeamHandler struct {
	teamService service.TeamService
	log         logging.Logger
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(teamService service.TeamService, log logging.Logger) *TeamHandler {
	return &TeamHandler{teamService: teamService, log: log}
}

// PokemonRequest is one roster entry.
type PokemonRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// TeamRequest creates or replaces a team.
type TeamRequest struct {
	Name    string           `json:"name" validate:"required,max=100"`
	Pokemon []PokemonRequest `json:"pokemon" validate:"max=6,dive"`
}

func (r TeamRequest) pokemonNames() []string {
	names := make([]string, 0, len(r.Pokemon))
	for _, p := range r.Pokemon {
		names = append(names, p.Name)
	}
	return names
}

// ListTeams godoc
// @Summary List my teams
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Team
// @Failure 401 {object} errors.ErrorResponse
// @Router /teams [get]
func (h *TeamHandler) ListTeams(c echo.Context) error {
	user, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, middleware.UnauthenticatedResponse)
	}

	teams, err := h.teamService.ListTeams(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, teams)
}

// GetTeam godoc
// @Summary Get one of my teams
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Success 200 {object} model.Team
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /teams/{id} [get]
func (h *TeamHandler) GetTeam(c echo.Context) error {
	user, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, middleware.UnauthenticatedResponse)
	}
	teamID, err := parseID(c)
	if err != nil {
		return err
	}

	team, err := h.teamService.GetTeam(c.Request().Context(), user.ID, teamID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, team)
}

// CreateTeam godoc
// @Summary Create a team
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TeamRequest true "Team"
// @Success 201 {object} model.Team
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /teams [post]
func (h *TeamHandler) CreateTeam(c echo.Context) error {
	user, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, middleware.UnauthenticatedResponse)
	}

	var req TeamRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	team, err := h.teamService.CreateTeam(c.Request().Context(), user.ID, req.Name, req.pokemonNames())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, team)
}

// UpdateTeam godoc
// @Summary Replace a team's name and roster
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Param request body TeamRequest true "Team"
// @Success 200 {object} model.Team
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /teams/{id} [put]
func (h *TeamHandler) UpdateTeam(c echo.Context) error {
	user, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, middleware.UnauthenticatedResponse)
	}
	teamID, err := parseID(c)
	if err != nil {
		return err
	}

	var req TeamRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	team, err := h.teamService.UpdateTeam(c.Request().Context(), user.ID, teamID, req.Name, req.pokemonNames())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, team)
}

// DeleteTeam godoc
// @Summary Delete a team
// @Tags teams
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /teams/{id} [delete]
func (h *TeamHandler) DeleteTeam(c echo.Context) error {
	user, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, middleware.UnauthenticatedResponse)
	}
	teamID, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.teamService.DeleteTeam(c.Request().Context(), user.ID, teamID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, badRequest("invalid team id")
	}
	return uint(id), nil
}
