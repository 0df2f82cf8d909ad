package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/library/internal/repository"
	"github.com/Astemirdum/library-catalog/library/internal/service"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
)

type fakeRepo struct {
	repository.Repository
	borrowed []model.BorrowedBook
	rec      model.BorrowingRecord
	err      error
	created  int
}

func (f *fakeRepo) CreateBook(_ context.Context, title, author string) (model.Book, error) {
	f.created++
	return model.Book{ID: 1, Title: title, Author: author}, nil
}

func (f *fakeRepo) CreateBorrower(_ context.Context, name, email string) (model.Borrower, error) {
	f.created++
	return model.Borrower{ID: 1, Name: name, Email: email}, nil
}

func (f *fakeRepo) ListBorrowedByBorrower(context.Context, int64) ([]model.BorrowedBook, error) {
	return f.borrowed, f.err
}

func (f *fakeRepo) BorrowBook(context.Context, int64, int64) (model.BorrowingRecord, error) {
	return f.rec, f.err
}

type fakePublisher struct {
	topic, key string
	events     []any
	err        error
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, v any) error {
	p.topic, p.key = topic, key
	p.events = append(p.events, v)
	return p.err
}

func TestService_CreateRequiresFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &fakeRepo{}
	svc := service.NewService(repo, zap.NewNop())

	_, err := svc.CreateBook(ctx, "Dune", "")
	require.ErrorIs(t, err, errs.ErrTitleAuthor)
	_, err = svc.CreateBorrower(ctx, "", "ann@example.com")
	require.ErrorIs(t, err, errs.ErrNameEmail)
	require.Zero(t, repo.created)

	book, err := svc.CreateBook(ctx, "Dune", "Herbert")
	require.NoError(t, err)
	require.Equal(t, model.Book{ID: 1, Title: "Dune", Author: "Herbert"}, book)
}

func TestService_ListBorrowedByBorrower(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := service.NewService(&fakeRepo{borrowed: []model.BorrowedBook{}}, zap.NewNop())
	_, err := svc.ListBorrowedByBorrower(ctx, 1)
	require.ErrorIs(t, err, errs.ErrNoBorrowedBooks)

	want := []model.BorrowedBook{{ID: 3, Title: "Dune", Author: "Herbert"}}
	svc = service.NewService(&fakeRepo{borrowed: want}, zap.NewNop())
	got, err := svc.ListBorrowedByBorrower(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestService_BorrowBookPublishes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec := model.BorrowingRecord{ID: 7, BookID: 2, BorrowerID: 5, BorrowDate: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}

	pub := &fakePublisher{err: errors.New("broker down")}
	svc := service.NewService(&fakeRepo{rec: rec}, zap.NewNop(), service.WithPublisher(pub))

	got, err := svc.BorrowBook(ctx, 5, 2)
	require.NoError(t, err)
	require.Equal(t, rec, got)
	require.Equal(t, kafka.BorrowingsTopic, pub.topic)
	require.Equal(t, "2", pub.key)
	require.Equal(t, []any{kafka.EventBorrowed{
		EventType:  kafka.EventBookBorrowed,
		RecordID:   7,
		BookID:     2,
		BorrowerID: 5,
		BorrowDate: rec.BorrowDate,
	}}, pub.events)
}

func TestService_BorrowBookFailureNotPublished(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{}
	svc := service.NewService(&fakeRepo{err: errs.ErrBookBorrowed}, zap.NewNop(), service.WithPublisher(pub))

	_, err := svc.BorrowBook(context.Background(), 5, 2)
	require.ErrorIs(t, err, errs.ErrBookBorrowed)
	require.Empty(t, pub.events)
}
