package echoServer

import (
	"net/http"

	"booklend/app/echoServer/controller/approval"
	"booklend/app/echoServer/controller/auth"
	"booklend/app/echoServer/controller/book"
	"booklend/app/echoServer/controller/borrow"
	"booklend/app/echoServer/controller/user"
	"booklend/app/echoServer/jwtx"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth     *auth.Controller
	Book     *book.Controller
	Borrow   *borrow.Controller
	Approval *approval.Controller
	User     *user.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Authenticated
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	}))
	// user_id / role extraction for handlers
	authed.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			role, err := jwtx.RoleFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			ctx.Set("role", role)
			return next(ctx)
		}
	})

	// Books (catalog)
	authed.GET("/books", c.Book.List)
	authed.GET("/books/:id", c.Book.Detail)
	// Admin endpoints
	authed.POST("/books", c.Book.Create)
	authed.PUT("/books/:id", c.Book.Update)
	authed.POST("/books/:id/resize", c.Book.Resize)
	authed.DELETE("/books/:id", c.Book.Delete)

	// Borrow workflow (borrower side)
	authed.POST("/borrows", c.Borrow.RequestIssue)
	authed.POST("/borrows/:id/cancel", c.Borrow.Cancel)
	authed.POST("/borrows/:id/return", c.Borrow.RequestReturn)
	authed.GET("/borrows/my", c.Borrow.MyBorrows)
	authed.GET("/borrows/:id", c.Borrow.Detail)
	authed.GET("/borrows/history", c.Borrow.MyHistory)

	// Approvals (admin side)
	authed.GET("/approvals/issues", c.Approval.PendingIssues)
	authed.GET("/approvals/returns", c.Approval.PendingReturns)
	authed.POST("/approvals/issues/:id", c.Approval.HandleIssue)
	authed.POST("/approvals/returns/:id", c.Approval.HandleReturn)

	// User administration
	authed.GET("/users", c.User.List)
	authed.PUT("/users/:id/status", c.User.SetStatus)
	authed.DELETE("/users/:id", c.User.Delete)
}
