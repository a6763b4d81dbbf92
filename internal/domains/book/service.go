package book

import "context"

// Service is the catalog business logic contract.
type Service interface {
	Add(ctx context.Context, req AddBookRequest) (*Book, error)
	Update(ctx context.Context, isbn string, req UpdateBookRequest) (*Book, error)
	Delete(ctx context.Context, isbn string) error
	Get(ctx context.Context, isbn string) (*Book, error)
	List(ctx context.Context) ([]Book, error)
}
