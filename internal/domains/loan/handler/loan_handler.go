package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"library-backend/internal/domains/loan"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"
)

// LoanHandler exposes the lending engine and its query views over HTTP.
type LoanHandler struct {
	service loan.Service
}

func NewLoanHandler(service loan.Service) *LoanHandler {
	return &LoanHandler{service: service}
}

// Issue handles POST /loans
func (h *LoanHandler) Issue(c *gin.Context) {
	var req loan.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	l, err := h.service.Issue(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, l)
}

// Return handles POST /loans/:id/return. No request body: the book is
// identified by the stored ledger entry, not by the caller.
func (h *LoanHandler) Return(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid loan id")
		return
	}

	l, err := h.service.Return(c.Request.Context(), loanID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, l)
}

// ListAll handles GET /loans. The full ledger, returned entries included,
// for administrative audit.
func (h *LoanHandler) ListAll(c *gin.Context) {
	loans, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, loans, &response.Meta{Total: len(loans)})
}

// ListActive handles GET /loans/active
func (h *LoanHandler) ListActive(c *gin.Context) {
	loans, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, loans, &response.Meta{Total: len(loans)})
}

// ListOverdue handles GET /loans/overdue
func (h *LoanHandler) ListOverdue(c *gin.Context) {
	loans, err := h.service.ListOverdue(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, loans, &response.Meta{Total: len(loans)})
}

// ListForUser handles GET /users/:email/loans?active=true
func (h *LoanHandler) ListForUser(c *gin.Context) {
	email := c.Param("email")

	// Students read their own history only; admins may read anyone's.
	if c.GetString(middleware.CtxUserEmail) != email && c.GetString(middleware.CtxUserRole) != "admin" {
		response.Forbidden(c, "You may only view your own loans")
		return
	}

	onlyActive := c.Query("active") == "true"

	loans, err := h.service.ListForUser(c.Request.Context(), email, onlyActive)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, loans, &response.Meta{Total: len(loans)})
}

func (h *LoanHandler) handleError(c *gin.Context, err error) {
	var vErrs validation.Errors
	switch {
	case errors.Is(err, loan.ErrBookNotFound):
		response.NotFound(c, "Book not found")
	case errors.Is(err, loan.ErrUserNotFound):
		response.NotFound(c, "User not found")
	case errors.Is(err, loan.ErrBookNotAvailable):
		response.Conflict(c, "Book is currently on loan")
	case errors.Is(err, loan.ErrLoanNotFound):
		response.NotFound(c, "Active loan not found")
	case errors.As(err, &vErrs):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", vErrs)
	case database.IsUnavailable(err):
		response.ServiceUnavailable(c, "Storage temporarily unavailable, please retry")
	default:
		logger.Error("loan handler: unexpected error", err)
		response.InternalServerError(c, "Internal server error")
	}
}
