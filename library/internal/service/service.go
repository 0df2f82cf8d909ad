package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	libraryRepo "github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
)

// Publisher emits domain events after a successful write.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, v any) error
}

type Service struct {
	log  *zap.Logger
	repo libraryRepo.Repository
	pub  Publisher
}

type Option func(*Service)

// WithPublisher enables borrow events. Without it borrows are not announced.
func WithPublisher(pub Publisher) Option {
	return func(s *Service) {
		s.pub = pub
	}
}

func NewService(repo libraryRepo.Repository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:  log.Named("service"),
		repo: repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListBooks(ctx context.Context) ([]model.Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *Service) CreateBook(ctx context.Context, title, author string) (model.Book, error) {
	if title == "" || author == "" {
		return model.Book{}, errs.ErrTitleAuthor
	}
	return s.repo.CreateBook(ctx, title, author)
}

func (s *Service) ListBorrowers(ctx context.Context) ([]model.Borrower, error) {
	return s.repo.ListBorrowers(ctx)
}

func (s *Service) GetBorrower(ctx context.Context, id int64) (model.Borrower, error) {
	return s.repo.GetBorrower(ctx, id)
}

func (s *Service) CreateBorrower(ctx context.Context, name, email string) (model.Borrower, error) {
	if name == "" || email == "" {
		return model.Borrower{}, errs.ErrNameEmail
	}
	return s.repo.CreateBorrower(ctx, name, email)
}

func (s *Service) ListBorrowed(ctx context.Context) ([]model.BorrowedBook, error) {
	return s.repo.ListBorrowed(ctx)
}

func (s *Service) ListBorrowedByBorrower(ctx context.Context, borrowerID int64) ([]model.BorrowedBook, error) {
	books, err := s.repo.ListBorrowedByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, errs.ErrNoBorrowedBooks
	}
	return books, nil
}

func (s *Service) BorrowBook(ctx context.Context, borrowerID, bookID int64) (model.BorrowingRecord, error) {
	rec, err := s.repo.BorrowBook(ctx, borrowerID, bookID)
	if err != nil {
		return model.BorrowingRecord{}, err
	}
	if s.pub != nil {
		ev := kafka.EventBorrowed{
			EventType:  kafka.EventBookBorrowed,
			RecordID:   rec.ID,
			BookID:     rec.BookID,
			BorrowerID: rec.BorrowerID,
			BorrowDate: rec.BorrowDate,
		}
		// publish failures never fail a committed borrow
		if err := s.pub.Publish(ctx, kafka.BorrowingsTopic, strconv.FormatInt(rec.BookID, 10), ev); err != nil {
			s.log.Warn("publish borrow event", zap.Int64("record_id", rec.ID), zap.Error(err))
		}
	}
	return rec, nil
}
