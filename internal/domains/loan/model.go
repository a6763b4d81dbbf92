package loan

import "time"

// LoanPeriodDays is the fixed lending period; the due date is always the
// issue date plus this many calendar days.
const LoanPeriodDays = 14

// Loan is one ledger entry. Entries are append-only: after creation the only
// field that ever changes is Returned, flipped exactly once by Return.
//
// BookTitle and UserName are denormalized snapshots taken at issue time, so
// the ledger stays historically accurate when a book is renamed or a user
// changes their name later, and survives catalog/roster deletions.
type Loan struct {
	ID        int64     `db:"id" json:"id"`
	BookISBN  string    `db:"book_isbn" json:"book_isbn"`
	BookTitle string    `db:"book_title" json:"book_title"`
	UserEmail string    `db:"user_email" json:"user_email"`
	UserName  string    `db:"user_name" json:"user_name"`
	IssueDate time.Time `db:"issue_date" json:"issue_date"`
	DueDate   time.Time `db:"due_date" json:"due_date"`
	Returned  bool      `db:"returned" json:"returned"`
}

// DueDateFor computes the due date for an issue date.
func DueDateFor(issueDate time.Time) time.Time {
	return issueDate.AddDate(0, 0, LoanPeriodDays)
}

// Overdue reports whether the loan is past due and still out.
func (l *Loan) Overdue(asOf time.Time) bool {
	return !l.Returned && l.DueDate.Before(asOf)
}
