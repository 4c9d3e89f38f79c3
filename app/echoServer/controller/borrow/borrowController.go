package borrow

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

// POST /v1/borrows
func (h *Controller) RequestIssue(c echo.Context) error {
	var req CreateBorrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	id, err := h.Svc.RequestIssue(c.Request().Context(), uid, req.BookID)
	if err != nil {
		switch ls.Code(err) {
		case ls.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case ls.ErrDuplicateActive:
			return c.JSON(http.StatusConflict, echo.Map{"message": "you already have an active request for this book"})
		case ls.ErrOutOfStock:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no available copies"})
		default:
			h.Log.Error("request issue", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"request_id": id,
		"status":     "PENDING_ISSUE",
	})
}

// POST /v1/borrows/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.Cancel(c.Request().Context(), uid, id); err != nil {
		switch ls.Code(err) {
		case ls.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case ls.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case ls.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "request already handled"})
		default:
			h.Log.Error("cancel request", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cancelled"})
}

// POST /v1/borrows/:id/return
func (h *Controller) RequestReturn(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.RequestReturn(c.Request().Context(), uid, id); err != nil {
		switch ls.Code(err) {
		case ls.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		case ls.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case ls.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "request is not issued"})
		default:
			h.Log.Error("request return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "return requested"})
}

// GET /v1/borrows/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)
	role, _ := c.Get("role").(string)

	req, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if ls.Code(err) == ls.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found"})
		}
		h.Log.Error("borrow detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	// a borrower may only see their own requests
	if req.BorrowerID != uid && role != "admin" {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	return c.JSON(http.StatusOK, req)
}

// GET /v1/borrows/my
func (h *Controller) MyBorrows(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Query.MyBorrows(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("my borrows", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/borrows/history
func (h *Controller) MyHistory(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Query.MyHistory(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("my history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
