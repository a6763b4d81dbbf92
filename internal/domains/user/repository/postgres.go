package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/user"
	"library-backend/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns the roster repository backed by PostgreSQL.
func NewPostgresRepository(pool *pgxpool.Pool) user.Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, u *user.User) error {
	const query = `
		INSERT INTO users (email, name, password, role, join_date)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, u.Email, u.Name, u.PasswordHash, u.Role, u.JoinDate)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	const query = `
		SELECT email, name, password, role, join_date
		FROM users
		WHERE email = $1
	`

	var u user.User
	err := r.pool.QueryRow(ctx, query, email).
		Scan(&u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.JoinDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &u, nil
}

func (r *postgresRepository) Update(ctx context.Context, u *user.User) error {
	// Email keys the row and password is rotated through a separate path,
	// so neither appears in the SET list.
	const query = `
		UPDATE users
		SET name = $2, role = $3
		WHERE email = $1
	`

	tag, err := r.pool.Exec(ctx, query, u.Email, u.Name, u.Role)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, email string) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock the roster row before looking at the ledger. Issue holds a
		// share lock on it for the duration of its transaction, so this
		// exclusive lock waits until any in-flight loan for the user has
		// committed and the EXISTS check below sees it.
		var one int
		err := tx.QueryRow(ctx,
			`SELECT 1 FROM users WHERE email = $1 FOR UPDATE`, email,
		).Scan(&one)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return user.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		var hasActive bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM loans WHERE user_email = $1 AND NOT returned)`,
			email,
		).Scan(&hasActive)
		if err != nil {
			return fmt.Errorf("failed to check active loans: %w", err)
		}
		if hasActive {
			return user.ErrUserHasActiveLoans
		}

		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE email = $1`, email); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

func (r *postgresRepository) List(ctx context.Context) ([]user.User, error) {
	const query = `
		SELECT email, name, password, role, join_date
		FROM users
		ORDER BY join_date DESC, email ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.JoinDate); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}
