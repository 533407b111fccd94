package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/foodcourt/backend/internal/config"
	"github.com/foodcourt/backend/internal/es"
	"github.com/foodcourt/backend/internal/handlers"
	"github.com/foodcourt/backend/internal/handlers/cart"
	orderhandler "github.com/foodcourt/backend/internal/handlers/order"
	"github.com/foodcourt/backend/internal/logging"
	"github.com/foodcourt/backend/internal/mykafka"
	ordersvc "github.com/foodcourt/backend/internal/service/order"
	"github.com/foodcourt/backend/internal/service/token"
	httpserver "github.com/foodcourt/backend/internal/transport/http"
)

const foodIndex = "food"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.IntoContext(c.Request().Context(), logger.With("request_id", reqID))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}

	deps := httpserver.Deps{
		DB:            db,
		JWTSecret:     jwtSecret,
		AuthHandler:   &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		FoodHandler:   &handlers.FoodHandler{DB: db, Producer: prod, ES: esClient, Index: foodIndex},
		SearchHandler: &handlers.SearchHandler{ES: esClient, Index: foodIndex},
		CartHandler:   &cart.CartHandler{DB: db, Producer: prod},
		OrderHandler: &orderhandler.OrderHandler{
			Builder:  &ordersvc.Builder{DB: db},
			Query:    &ordersvc.Query{DB: db},
			Producer: prod,
		},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
