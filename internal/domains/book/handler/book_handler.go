package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"library-backend/internal/domains/book"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"
)

// BookHandler exposes catalog operations over HTTP. It is a thin layer:
// bind, delegate, map errors.
type BookHandler struct {
	service book.Service
}

func NewBookHandler(service book.Service) *BookHandler {
	return &BookHandler{service: service}
}

// Add handles POST /books
func (h *BookHandler) Add(c *gin.Context) {
	var req book.AddBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	created, err := h.service.Add(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/books/"+created.ISBN)
	response.Success(c, http.StatusCreated, created)
}

// Update handles PUT /books/:isbn
func (h *BookHandler) Update(c *gin.Context) {
	isbn := c.Param("isbn")

	var req book.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	updated, err := h.service.Update(c.Request.Context(), isbn, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated)
}

// Delete handles DELETE /books/:isbn
func (h *BookHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("isbn")); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Get handles GET /books/:isbn
func (h *BookHandler) Get(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, b)
}

// List handles GET /books
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.service.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, books, &response.Meta{Total: len(books)})
}

func (h *BookHandler) handleError(c *gin.Context, err error) {
	var vErrs validation.Errors
	switch {
	case errors.Is(err, book.ErrBookNotFound):
		response.NotFound(c, "Book not found")
	case errors.Is(err, book.ErrISBNAlreadyExists):
		response.Conflict(c, "A book with this ISBN already exists")
	case errors.Is(err, book.ErrBookHasActiveLoans):
		response.Conflict(c, "Book has active loans and cannot be deleted")
	case errors.As(err, &vErrs):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", vErrs)
	case database.IsUnavailable(err):
		response.ServiceUnavailable(c, "Storage temporarily unavailable, please retry")
	default:
		logger.Error("book handler: unexpected error", err)
		response.InternalServerError(c, "Internal server error")
	}
}
