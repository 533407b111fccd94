package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/foodcourt/backend/internal/handlers"
	"github.com/foodcourt/backend/internal/handlers/cart"
	"github.com/foodcourt/backend/internal/handlers/order"
	"github.com/foodcourt/backend/internal/jwtmiddleware"
)

type Deps struct {
	DB            *gorm.DB
	JWTSecret     []byte
	AuthHandler   *handlers.AuthHandler
	FoodHandler   *handlers.FoodHandler
	SearchHandler *handlers.SearchHandler
	CartHandler   *cart.CartHandler
	OrderHandler  *order.OrderHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	api.POST("/auth/register", d.AuthHandler.Register)
	api.POST("/auth/login", d.AuthHandler.Login)
	api.POST("/auth/refresh", d.AuthHandler.Refresh)

	food := api.Group("/food")
	food.GET("", d.FoodHandler.GetFoods)
	food.GET("/search", d.SearchHandler.Search)
	food.GET("/:id", d.FoodHandler.GetFood)

	auth := jwtmiddleware.RequireAuth(d.JWTSecret)

	admin := api.Group("/admin/food", auth, jwtmiddleware.AdminOnly)
	admin.POST("", d.FoodHandler.CreateFood)
	admin.PATCH("/:id", d.FoodHandler.PatchFood)
	admin.DELETE("/:id", d.FoodHandler.DeleteFood)

	cartGroup := api.Group("/cart", auth)
	cartGroup.POST("/add", d.CartHandler.AddItem)
	cartGroup.POST("/remove", d.CartHandler.RemoveItem)
	cartGroup.POST("/get", d.CartHandler.GetCart)
	cartGroup.DELETE("/clear", d.CartHandler.ClearCart)

	orderGroup := api.Group("/order", auth)
	orderGroup.POST("/place", d.OrderHandler.PlaceOrder)
	orderGroup.POST("/userorders", d.OrderHandler.UserOrders)
}
