package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/loan"
	"library-backend/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns the ledger repository backed by PostgreSQL.
func NewPostgresRepository(pool *pgxpool.Pool) loan.Repository {
	return &postgresRepository{pool: pool}
}

// Issue runs as one transaction. The availability check IS the write: a
// conditional UPDATE that only matches while the book is available, so two
// concurrent issues race on the row lock and exactly one sees a match.
// No separate read-then-write window exists.
func (r *postgresRepository) Issue(ctx context.Context, isbn, userEmail string, issueDate time.Time) (*loan.Loan, error) {
	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*loan.Loan, error) {
		var title string
		err := tx.QueryRow(ctx,
			`UPDATE books SET available = FALSE WHERE isbn = $1 AND available = TRUE RETURNING title`,
			isbn,
		).Scan(&title)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, r.issueIneligible(ctx, tx, isbn)
			}
			return nil, fmt.Errorf("failed to claim book: %w", err)
		}

		// FOR SHARE holds the roster row until commit, so a concurrent user
		// Delete (FOR UPDATE) cannot remove the borrower while this loan is
		// in flight.
		var userName string
		err = tx.QueryRow(ctx, `SELECT name FROM users WHERE email = $1 FOR SHARE`, userEmail).Scan(&userName)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, loan.ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}

		l := &loan.Loan{
			BookISBN:  isbn,
			BookTitle: title,
			UserEmail: userEmail,
			UserName:  userName,
			IssueDate: issueDate,
			DueDate:   loan.DueDateFor(issueDate),
			Returned:  false,
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO loans (book_isbn, book_title, user_email, user_name, issue_date, due_date, returned)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE)
			RETURNING id`,
			l.BookISBN, l.BookTitle, l.UserEmail, l.UserName, l.IssueDate, l.DueDate,
		).Scan(&l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert loan: %w", err)
		}

		return l, nil
	})
}

// issueIneligible distinguishes "no such book" from "book on loan" for
// caller diagnostics. Either way the surrounding transaction rolls back.
func (r *postgresRepository) issueIneligible(ctx context.Context, tx pgx.Tx, isbn string) error {
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE isbn = $1)`, isbn,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check book existence: %w", err)
	}
	if !exists {
		return loan.ErrBookNotFound
	}
	return loan.ErrBookNotAvailable
}

// Return runs as one transaction. The conditional UPDATE on the ledger row
// rejects unknown ids and double returns alike, and hands back the stored
// ISBN so the availability flip can never hit the wrong book.
func (r *postgresRepository) Return(ctx context.Context, loanID int64) (*loan.Loan, error) {
	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*loan.Loan, error) {
		l := &loan.Loan{ID: loanID, Returned: true}
		err := tx.QueryRow(ctx, `
			UPDATE loans SET returned = TRUE
			WHERE id = $1 AND NOT returned
			RETURNING book_isbn, book_title, user_email, user_name, issue_date, due_date`,
			loanID,
		).Scan(&l.BookISBN, &l.BookTitle, &l.UserEmail, &l.UserName, &l.IssueDate, &l.DueDate)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, loan.ErrLoanNotFound
			}
			return nil, fmt.Errorf("failed to close loan: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE books SET available = TRUE WHERE isbn = $1`, l.BookISBN,
		); err != nil {
			return nil, fmt.Errorf("failed to release book: %w", err)
		}

		return l, nil
	})
}

const loanColumns = `id, book_isbn, book_title, user_email, user_name, issue_date, due_date, returned`

func (r *postgresRepository) ListAll(ctx context.Context) ([]loan.Loan, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM loans
		ORDER BY issue_date DESC, id DESC`, loanColumns)

	return r.queryLoans(ctx, query)
}

func (r *postgresRepository) ListActive(ctx context.Context) ([]loan.Loan, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM loans
		WHERE NOT returned
		ORDER BY issue_date DESC, id DESC`, loanColumns)

	return r.queryLoans(ctx, query)
}

func (r *postgresRepository) ListForUser(ctx context.Context, email string, onlyActive bool) ([]loan.Loan, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM loans
		WHERE user_email = $1`, loanColumns)
	if onlyActive {
		query += ` AND NOT returned`
	}
	query += ` ORDER BY issue_date DESC, id DESC`

	return r.queryLoans(ctx, query, email)
}

func (r *postgresRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]loan.Loan, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM loans
		WHERE NOT returned AND due_date < $1
		ORDER BY due_date ASC, id ASC`, loanColumns)

	return r.queryLoans(ctx, query, asOf)
}

func (r *postgresRepository) queryLoans(ctx context.Context, query string, args ...interface{}) ([]loan.Loan, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []loan.Loan
	for rows.Next() {
		var l loan.Loan
		if err := rows.Scan(
			&l.ID, &l.BookISBN, &l.BookTitle, &l.UserEmail, &l.UserName,
			&l.IssueDate, &l.DueDate, &l.Returned,
		); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}

	return loans, nil
}
