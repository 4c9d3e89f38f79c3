// Package main booklend API.
//
// @title           booklend API
// @version         1.0
// @description     library lending service (catalog, borrow requests, approvals).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"booklend/app/echoServer"
	approvalctrl "booklend/app/echoServer/controller/approval"
	authctrl "booklend/app/echoServer/controller/auth"
	bookctrl "booklend/app/echoServer/controller/book"
	borrowctrl "booklend/app/echoServer/controller/borrow"
	userctrl "booklend/app/echoServer/controller/user"
	"booklend/app/echoServer/validation"
	"booklend/config"
	"booklend/db"
	bookrepo "booklend/repository/book"
	itemrepo "booklend/repository/item"
	queryrepo "booklend/repository/query"
	requestrepo "booklend/repository/request"
	userrepo "booklend/repository/user"
	authsvc "booklend/service/auth"
	catalogsvc "booklend/service/catalog"
	lifecyclesvc "booklend/service/lifecycle"
	querysvc "booklend/service/query"
	usersvc "booklend/service/user"
	"booklend/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB; a dead store is fatal at startup, nothing may serve without it
	store, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := db.Migrate(ctx, store.SQL); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	// repos
	ir := itemrepo.New(store.SQL)
	rr := requestrepo.New(store.SQL)
	br := bookrepo.New(store.SQL)
	ur := userrepo.New(store.SQL)
	qr := queryrepo.New(sqlx.NewDb(store.SQL, "pgx"))

	// services
	policy := lifecyclesvc.Policy{
		RetainTerminalRequests: cfg.RetainTerminalRequests,
		BlockWhenOutOfStock:    cfg.BlockRequestWhenOutOfStock,
	}
	as := authsvc.New(ur, cfg.JWTSecret)
	cs := catalogsvc.New(br, ir)
	ws := lifecyclesvc.New(store.SQL, ir, rr, policy)
	qs := querysvc.New(qr)
	us := usersvc.New(ur)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: cs, V: v, Log: log}
	borrowC := &borrowctrl.Controller{Svc: ws, Query: qs, V: v, Log: log}
	approvalC := &approvalctrl.Controller{Svc: ws, Query: qs, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:     authC,
		Book:     bookC,
		Borrow:   borrowC,
		Approval: approvalC,
		User:     userC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env,
		"retain_terminal_requests", cfg.RetainTerminalRequests,
		"block_when_out_of_stock", cfg.BlockRequestWhenOutOfStock)

	e.Logger.Fatal(e.Start(":" + port))
}
