package router

import (
	"context"
	"net/http"

	"pizzeria-service/internal/handlers"
	"pizzeria-service/internal/middleware"
	"pizzeria-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Orders    service.OrderService
	Customers service.CustomerService
	Catalog   service.CatalogService
	// Ping проверяет зависимости для /health; nil означает "всегда ok".
	Ping func(ctx context.Context) error
}

func Router(d Deps, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	r.GET("/health", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orderH := handlers.NewOrderHandler(d.Orders, log)
	customerH := handlers.NewCustomerHandler(d.Customers, log)
	catalogH := handlers.NewCatalogHandler(d.Catalog, log)

	auth := middleware.AuthRequired(d.Customers, log)
	admin := middleware.AdminOnly()
	self := middleware.SelfOrAdmin("id")

	api := r.Group("/api/v1")
	{
		api.POST("/customers", customerH.Register)
		api.POST("/customers/login", customerH.Login)
		api.GET("/products", catalogH.ListProducts)
		api.GET("/products/:id", catalogH.GetProduct)
		api.GET("/ingredients", catalogH.ListIngredients)
	}

	customers := api.Group("/customers", auth)
	{
		customers.GET("", admin, customerH.List)
		customers.GET("/:id", self, customerH.Get)
		customers.PUT("/:id", self, customerH.Update)
		customers.DELETE("/:id", admin, customerH.Delete)

		customers.POST("/:id/cart", self, orderH.AddToCart)
		customers.GET("/:id/cart", self, orderH.GetCart)
		customers.POST("/:id/cart/finalize", self, orderH.Finalize)
		customers.POST("/:id/cart/cancel", self, orderH.Cancel)
		customers.GET("/:id/orders", self, orderH.ListByCustomer)
	}

	orders := api.Group("/orders", auth)
	{
		orders.GET("", admin, orderH.ListByState)
		orders.GET("/:id", orderH.Get)
		orders.POST("/:id/deliver", admin, orderH.Deliver)
		orders.DELETE("/:id", admin, orderH.Delete)
	}

	catalog := api.Group("", auth, admin)
	{
		catalog.POST("/products", catalogH.CreateProduct)
		catalog.PUT("/products/:id/price", catalogH.UpdatePrice)
		catalog.DELETE("/products/:id", catalogH.DeleteProduct)
		catalog.POST("/ingredients", catalogH.CreateIngredient)
		catalog.DELETE("/ingredients/:id", catalogH.DeleteIngredient)
	}

	return r
}
