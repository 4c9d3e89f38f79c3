// Package approval exposes the admin queues and the approve/reject actions,
// mirroring the two-step issue/return workflow.
package approval

import (
	"log/slog"
	"net/http"
	"strconv"

	ls "booklend/service/lifecycle"
	querysvc "booklend/service/query"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc   ls.Service
	Query querysvc.Service
	V     *validator.Validate
	Log   *slog.Logger
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

// GET /v1/approvals/issues
func (h *Controller) PendingIssues(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Query.PendingIssues(c.Request().Context())
	if err != nil {
		h.Log.Error("pending issues", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/approvals/returns
func (h *Controller) PendingReturns(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Query.PendingReturns(c.Request().Context())
	if err != nil {
		h.Log.Error("pending returns", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/approvals/issues/:id  {"action": "approve"|"reject"}
func (h *Controller) HandleIssue(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, req, ok := h.bindHandle(c)
	if !ok {
		return nil
	}

	var err error
	if req.Action == "approve" {
		err = h.Svc.ApproveIssue(c.Request().Context(), id)
	} else {
		err = h.Svc.RejectIssue(c.Request().Context(), id)
	}
	if err != nil {
		switch ls.Code(err) {
		case ls.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case ls.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "request already handled"})
		case ls.ErrOutOfStock:
			return c.JSON(http.StatusConflict, echo.Map{"message": "cannot approve: no available copies"})
		default:
			h.Log.Error("handle issue request", "err", err, "action", req.Action)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	if req.Action == "approve" {
		return c.JSON(http.StatusOK, echo.Map{"message": "issue approved"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "issue rejected"})
}

// POST /v1/approvals/returns/:id  {"action": "approve"|"reject"}
func (h *Controller) HandleReturn(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, req, ok := h.bindHandle(c)
	if !ok {
		return nil
	}

	var err error
	if req.Action == "approve" {
		err = h.Svc.ApproveReturn(c.Request().Context(), id)
	} else {
		err = h.Svc.RejectReturn(c.Request().Context(), id)
	}
	if err != nil {
		switch ls.Code(err) {
		case ls.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case ls.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "request already handled"})
		default:
			h.Log.Error("handle return request", "err", err, "action", req.Action)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	if req.Action == "approve" {
		return c.JSON(http.StatusOK, echo.Map{"message": "return approved"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "return rejected"})
}

// bindHandle parses the :id param and the action body, writing the error
// response itself when either is bad.
func (h *Controller) bindHandle(c echo.Context) (int64, HandleReq, bool) {
	var req HandleReq
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
		return 0, req, false
	}
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
		return 0, req, false
	}
	if err := h.V.Struct(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "action must be approve or reject"})
		return 0, req, false
	}
	return id, req, true
}
