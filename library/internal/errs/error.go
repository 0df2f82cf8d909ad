package errs

import (
	"errors"
	"strings"
)

// Kinds. Every client-facing error wraps exactly one of them.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrInvalidJSON       = New(ErrInvalidInput, "Invalid JSON format")
	ErrNoValidData       = New(ErrInvalidInput, "Invalid request body, no valid data provided")
	ErrPathNotFound      = New(ErrInvalidInput, "Path not found")
	ErrInvalidBorrowerID = InvalidFormat("Borrower ID")
	ErrInvalidBookID     = InvalidFormat("Book ID")
	ErrTitleAuthor       = New(ErrInvalidInput, "Title and author are required")
	ErrNameEmail         = New(ErrInvalidInput, "Name and email are required")

	ErrBookNotFound     = New(ErrNotFound, "Book not found")
	ErrBorrowerNotFound = New(ErrNotFound, "Borrower not found")
	ErrNoBorrowedBooks  = New(ErrNotFound, "No borrowed books found for this borrower")

	ErrBookBorrowed = New(ErrConflict, "Book is already borrowed")
	ErrEmailTaken   = New(ErrConflict, "Borrower with this email already exists")
)

// Error is a client-facing error: Error() is the message sent in the
// response body, Unwrap() is its kind.
type Error struct {
	kind error
	msg  string
}

func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind && t.msg == e.msg
}

func MissingField(label string) *Error {
	return New(ErrInvalidInput, "Invalid request body, missing "+label)
}

// InvalidFormat reports a malformed identifier, e.g. "Invalid book ID format".
func InvalidFormat(label string) *Error {
	if label != "" {
		label = strings.ToLower(label[:1]) + label[1:]
	}
	return New(ErrInvalidInput, "Invalid "+label+" format")
}
