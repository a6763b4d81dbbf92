package service

import (
	"context"
	"fmt"

	"library-backend/internal/domains/book"
	"library-backend/pkg/logger"
)

type bookServiceImpl struct {
	repository book.Repository
}

func NewBookService(repo book.Repository) book.Service {
	return &bookServiceImpl{repository: repo}
}

func (s *bookServiceImpl) Add(ctx context.Context, req book.AddBookRequest) (*book.Book, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}

	// New registrations start available; the flag only leaves true through
	// the lending engine.
	b := &book.Book{
		ISBN:      req.ISBN,
		Title:     req.Title,
		Author:    req.Author,
		Genre:     req.Genre,
		Available: true,
	}

	if err := s.repository.Create(ctx, b); err != nil {
		return nil, err
	}

	logger.Info("book added", map[string]interface{}{"isbn": b.ISBN, "title": b.Title})
	return b, nil
}

func (s *bookServiceImpl) Update(ctx context.Context, isbn string, req book.UpdateBookRequest) (*book.Book, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	current, err := s.repository.FindByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}

	current.Title = req.Title
	current.Author = req.Author
	current.Genre = req.Genre

	if err := s.repository.Update(ctx, current); err != nil {
		return nil, err
	}

	return current, nil
}

func (s *bookServiceImpl) Delete(ctx context.Context, isbn string) error {
	if err := s.repository.Delete(ctx, isbn); err != nil {
		return err
	}

	logger.Info("book deleted", map[string]interface{}{"isbn": isbn})
	return nil
}

func (s *bookServiceImpl) Get(ctx context.Context, isbn string) (*book.Book, error) {
	return s.repository.FindByISBN(ctx, isbn)
}

func (s *bookServiceImpl) List(ctx context.Context) ([]book.Book, error) {
	return s.repository.List(ctx)
}
