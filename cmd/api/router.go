package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/response"
	"library-backend/pkg/container"
)

// SetupRouter registers the middleware chain and every route group against
// the container's handlers.
func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	v1 := router.Group("/api/v1")

	v1.GET("/health", func(ctx *gin.Context) {
		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			response.ServiceUnavailable(ctx, "database unreachable")
			return
		}
		response.Success(ctx, http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.RefreshToken)
	}

	authorized := v1.Group("")
	authorized.Use(middleware.AuthMiddleware(c.JWTManager))

	books := authorized.Group("/books")
	{
		books.GET("", c.BookHandler.List)
		books.GET("/:isbn", c.BookHandler.Get)

		adminBooks := books.Group("")
		adminBooks.Use(middleware.AdminOnly())
		{
			adminBooks.POST("", c.BookHandler.Add)
			adminBooks.PUT("/:isbn", c.BookHandler.Update)
			adminBooks.DELETE("/:isbn", c.BookHandler.Delete)
		}
	}

	users := authorized.Group("/users")
	{
		users.GET("/:email/loans", c.LoanHandler.ListForUser)

		adminUsers := users.Group("")
		adminUsers.Use(middleware.AdminOnly())
		{
			adminUsers.GET("", c.UserHandler.List)
			adminUsers.GET("/:email", c.UserHandler.Get)
			adminUsers.PUT("/:email", c.UserHandler.Update)
			adminUsers.DELETE("/:email", c.UserHandler.Delete)
		}
	}

	loans := authorized.Group("/loans")
	loans.Use(middleware.AdminOnly())
	{
		loans.POST("", c.LoanHandler.Issue)
		loans.POST("/:id/return", c.LoanHandler.Return)
		loans.GET("", c.LoanHandler.ListAll)
		loans.GET("/active", c.LoanHandler.ListActive)
		loans.GET("/overdue", c.LoanHandler.ListOverdue)
	}

	return router
}
