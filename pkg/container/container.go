package container

import (
	"context"
	"fmt"
	"time"

	"library-backend/internal/config"
	"library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/pkg/jwt"

	"library-backend/internal/domains/book"
	bookHandler "library-backend/internal/domains/book/handler"
	bookRepo "library-backend/internal/domains/book/repository"
	bookService "library-backend/internal/domains/book/service"
	"library-backend/internal/domains/loan"
	loanHandler "library-backend/internal/domains/loan/handler"
	loanRepo "library-backend/internal/domains/loan/repository"
	loanService "library-backend/internal/domains/loan/service"
	"library-backend/internal/domains/user"
	userHandler "library-backend/internal/domains/user/handler"
	userRepo "library-backend/internal/domains/user/repository"
	userService "library-backend/internal/domains/user/service"
)

// Container is the root of the dependency graph. Every manager receives its
// store handle at construction; there is no process-wide shared connection
// hidden behind a singleton.
type Container struct {
	// Infrastructure
	Config     *config.Config
	DB         *database.PostgresDB
	Redis      *cache.RedisClient
	JWTManager *jwt.Manager

	// Repositories
	BookRepo book.Repository
	UserRepo user.Repository
	LoanRepo loan.Repository

	// Services
	BookService book.Service
	UserService user.Service
	LoanService loan.Service

	// Handlers
	BookHandler *bookHandler.BookHandler
	UserHandler *userHandler.UserHandler
	LoanHandler *loanHandler.LoanHandler
}

// NewContainer builds the dependency graph in order:
// config → infrastructure → repositories → services → handlers.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c.DB = database.NewPostgresDB(&cfg.Database)
	if err := c.DB.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	c.Redis = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		c.DB.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)

	c.BookRepo = bookRepo.NewPostgresRepository(c.DB.Pool)
	c.UserRepo = userRepo.NewPostgresRepository(c.DB.Pool)
	c.LoanRepo = loanRepo.NewPostgresRepository(c.DB.Pool)

	loginLimiter := cache.NewRedisLoginLimiter(c.Redis)

	c.BookService = bookService.NewBookService(c.BookRepo)
	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager, loginLimiter)
	c.LoanService = loanService.NewLoanService(c.LoanRepo)

	c.BookHandler = bookHandler.NewBookHandler(c.BookService)
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.LoanHandler = loanHandler.NewLoanHandler(c.LoanService)

	return c, nil
}

// Cleanup releases infrastructure connections; deferred from Serve.
func (c *Container) Cleanup() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
