package loan

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// IssueRequest lends a book to a user. There is no due date parameter; the
// period is fixed.
type IssueRequest struct {
	BookISBN  string `json:"book_isbn" binding:"required"`
	UserEmail string `json:"user_email" binding:"required"`
}

func (r IssueRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookISBN,
			validation.Required.Error("book_isbn is required"),
			validation.Length(1, 32),
		),
		validation.Field(&r.UserEmail,
			validation.Required.Error("user_email is required"),
			is.Email.Error("invalid email format"),
		),
	)
}
