package user

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	usersvc "booklend/service/user"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc usersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type StatusReq struct {
	Status string `json:"status" validate:"required,oneof=active blocked"`
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

// GET /v1/users  (admin)
func (h *Controller) List(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Svc.ListMembers(c.Request().Context())
	if err != nil {
		h.Log.Error("user list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// PUT /v1/users/:id/status  (admin)
func (h *Controller) SetStatus(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req StatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "status must be active or blocked"})
	}
	if err := h.Svc.SetStatus(c.Request().Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, usersvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		case errors.Is(err, usersvc.ErrProtected):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "cannot change the status of an admin account"})
		}
		h.Log.Error("user status", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

// DELETE /v1/users/:id  (admin)
func (h *Controller) Delete(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, usersvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		case errors.Is(err, usersvc.ErrProtected):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "cannot delete an admin account"})
		}
		h.Log.Error("user delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
