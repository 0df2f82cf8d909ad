package handler

import (
	"context"

	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LibraryService interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
	CreateBook(ctx context.Context, title, author string) (model.Book, error)
	ListBorrowers(ctx context.Context) ([]model.Borrower, error)
	GetBorrower(ctx context.Context, id int64) (model.Borrower, error)
	CreateBorrower(ctx context.Context, name, email string) (model.Borrower, error)
	ListBorrowed(ctx context.Context) ([]model.BorrowedBook, error)
	ListBorrowedByBorrower(ctx context.Context, borrowerID int64) ([]model.BorrowedBook, error)
	BorrowBook(ctx context.Context, borrowerID, bookID int64) (model.BorrowingRecord, error)
}

var _ LibraryService = (*service.Service)(nil)
