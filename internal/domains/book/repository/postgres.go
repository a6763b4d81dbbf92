package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/book"
	"library-backend/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns the catalog repository backed by PostgreSQL.
func NewPostgresRepository(pool *pgxpool.Pool) book.Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, b *book.Book) error {
	const query = `
		INSERT INTO books (isbn, title, author, genre, available)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, b.ISBN, b.Title, b.Author, b.Genre, b.Available)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return book.ErrISBNAlreadyExists
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

func (r *postgresRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	const query = `
		SELECT isbn, title, author, genre, available
		FROM books
		WHERE isbn = $1
	`

	var b book.Book
	err := r.pool.QueryRow(ctx, query, isbn).
		Scan(&b.ISBN, &b.Title, &b.Author, &b.Genre, &b.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, book.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to find book: %w", err)
	}

	return &b, nil
}

func (r *postgresRepository) Update(ctx context.Context, b *book.Book) error {
	// Availability is intentionally absent from the SET list; only the
	// lending engine may flip it.
	const query = `
		UPDATE books
		SET title = $2, author = $3, genre = $4
		WHERE isbn = $1
	`

	tag, err := r.pool.Exec(ctx, query, b.ISBN, b.Title, b.Author, b.Genre)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrBookNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, isbn string) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock the catalog row before looking at the ledger. Issue's
		// conditional UPDATE takes the same row lock, so while we hold it no
		// new loan for this ISBN can commit, and the EXISTS check below sees
		// every committed loan.
		var one int
		err := tx.QueryRow(ctx,
			`SELECT 1 FROM books WHERE isbn = $1 FOR UPDATE`, isbn,
		).Scan(&one)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return book.ErrBookNotFound
			}
			return fmt.Errorf("failed to lock book: %w", err)
		}

		var hasActive bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM loans WHERE book_isbn = $1 AND NOT returned)`,
			isbn,
		).Scan(&hasActive)
		if err != nil {
			return fmt.Errorf("failed to check active loans: %w", err)
		}
		if hasActive {
			return book.ErrBookHasActiveLoans
		}

		if _, err := tx.Exec(ctx, `DELETE FROM books WHERE isbn = $1`, isbn); err != nil {
			return fmt.Errorf("failed to delete book: %w", err)
		}
		return nil
	})
}

func (r *postgresRepository) List(ctx context.Context) ([]book.Book, error) {
	const query = `
		SELECT isbn, title, author, genre, available
		FROM books
		ORDER BY title ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []book.Book
	for rows.Next() {
		var b book.Book
		if err := rows.Scan(&b.ISBN, &b.Title, &b.Author, &b.Genre, &b.Available); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}

	return books, nil
}
