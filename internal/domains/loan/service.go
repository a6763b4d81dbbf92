package loan

import "context"

// Service is the lending engine contract.
type Service interface {
	Issue(ctx context.Context, req IssueRequest) (*Loan, error)
	Return(ctx context.Context, loanID int64) (*Loan, error)
	ListAll(ctx context.Context) ([]Loan, error)
	ListActive(ctx context.Context) ([]Loan, error)
	ListForUser(ctx context.Context, email string, onlyActive bool) ([]Loan, error)
	ListOverdue(ctx context.Context) ([]Loan, error)
}
