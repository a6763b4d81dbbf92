package service

import (
	"context"
	"fmt"
	"time"

	"library-backend/internal/domains/loan"
	"library-backend/pkg/logger"
)

type loanServiceImpl struct {
	repository loan.Repository
}

func NewLoanService(repo loan.Repository) loan.Service {
	return &loanServiceImpl{repository: repo}
}

func (s *loanServiceImpl) Issue(ctx context.Context, req loan.IssueRequest) (*loan.Loan, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("issue: %w", err)
	}

	l, err := s.repository.Issue(ctx, req.BookISBN, req.UserEmail, today())
	if err != nil {
		return nil, err
	}

	logger.Info("book issued", map[string]interface{}{
		"loan_id":    l.ID,
		"book_isbn":  l.BookISBN,
		"user_email": l.UserEmail,
		"due_date":   l.DueDate.Format("2006-01-02"),
	})
	return l, nil
}

func (s *loanServiceImpl) Return(ctx context.Context, loanID int64) (*loan.Loan, error) {
	l, err := s.repository.Return(ctx, loanID)
	if err != nil {
		return nil, err
	}

	logger.Info("book returned", map[string]interface{}{
		"loan_id":   l.ID,
		"book_isbn": l.BookISBN,
	})
	return l, nil
}

func (s *loanServiceImpl) ListAll(ctx context.Context) ([]loan.Loan, error) {
	return s.repository.ListAll(ctx)
}

func (s *loanServiceImpl) ListActive(ctx context.Context) ([]loan.Loan, error) {
	return s.repository.ListActive(ctx)
}

func (s *loanServiceImpl) ListForUser(ctx context.Context, email string, onlyActive bool) ([]loan.Loan, error) {
	return s.repository.ListForUser(ctx, email, onlyActive)
}

func (s *loanServiceImpl) ListOverdue(ctx context.Context) ([]loan.Loan, error) {
	return s.repository.ListOverdue(ctx, today())
}

// today truncates to a calendar date in UTC; issue and due dates are dates,
// not instants.
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
