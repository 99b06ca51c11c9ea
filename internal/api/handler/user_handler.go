package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/choafros/jdm-vault/internal/api/middleware"
	"github.com/choafros/jdm-vault/internal/core/domain"
	"github.com/choafros/jdm-vault/internal/core/ports"
)

// UserHandler serves the admin-only user management routes.
type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     TokenAuth
// @Success      200  {array}   userView
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.userService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserViews(users))
}

// Delete handles DELETE /users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Security     TokenAuth
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	if err := h.userService.Delete(c.Request().Context(), c.Param("id"), claims); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
