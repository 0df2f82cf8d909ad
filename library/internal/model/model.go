package model

import (
	"bytes"
	"errors"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

type Book struct {
	ID         int64  `json:"id" db:"id"`
	Title      string `json:"title" db:"title"`
	Author     string `json:"author" db:"author"`
	IsBorrowed bool   `json:"is_borrowed" db:"is_borrowed"`
}

type Borrower struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

type BorrowingRecord struct {
	ID         int64     `json:"id" db:"id"`
	BookID     int64     `json:"book_id" db:"book_id"`
	BorrowerID int64     `json:"borrower_id" db:"borrower_id"`
	BorrowDate time.Time `json:"borrow_date" db:"borrow_date"`
}

// BorrowedBook is the projection of a book joined to its borrowing record.
type BorrowedBook struct {
	ID     int64  `json:"id" db:"id"`
	Title  string `json:"title" db:"title"`
	Author string `json:"author" db:"author"`
}

type CreateBookRequest struct {
	Title  Text `json:"title" label:"Title" validate:"required"`
	Author Text `json:"author" label:"Author" validate:"required"`
}

type CreateBorrowerRequest struct {
	Name  Text `json:"name" label:"Name" validate:"required"`
	Email Text `json:"email" label:"Email" validate:"required"`
}

type BorrowRequest struct {
	BorrowerID Identifier `json:"borrower_id" label:"Borrower ID" validate:"required,digits"`
	BookID     Identifier `json:"book_id" label:"Book ID" validate:"required,digits"`
}

type BorrowResponse struct {
	BorrowerID int64 `json:"borrower_id"`
	BookID     int64 `json:"book_id"`
}

// ErrNotText is returned for a non-falsy, non-string JSON value decoded into Text.
var ErrNotText = errors.New("model: expected a JSON string")

// Text is a required string field. Falsy JSON values (0, false, null, [] and
// {}) decode to the empty Text so they read as missing.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := jsoniter.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	ok, err := falsy(b)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotText
	}
	*t = ""
	return nil
}

// Identifier is an entity id sent either as a JSON number or as a string.
// Falsy JSON values (0, "", false, null, [] and {}) decode to the empty
// Identifier; any other non-digit value is kept verbatim so validation can
// reject its format.
type Identifier string

func (id *Identifier) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := jsoniter.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = Identifier(s)
		return nil
	}
	ok, err := falsy(b)
	if err != nil {
		return err
	}
	if ok {
		*id = ""
		return nil
	}
	*id = Identifier(b)
	return nil
}

func (id Identifier) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// falsy reports whether a non-string JSON value is null, false, zero or an
// empty container.
func falsy(b []byte) (bool, error) {
	switch b[0] {
	case 'n', 'f':
		return true, nil
	case 't':
		return false, nil
	case '[':
		var v []any
		if err := jsoniter.Unmarshal(b, &v); err != nil {
			return false, err
		}
		return len(v) == 0, nil
	case '{':
		var v map[string]any
		if err := jsoniter.Unmarshal(b, &v); err != nil {
			return false, err
		}
		return len(v) == 0, nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return false, err
	}
	return f == 0, nil
}
