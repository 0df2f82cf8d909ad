package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/telemetry"
)

type Repository interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
	CreateBook(ctx context.Context, title, author string) (model.Book, error)
	ListBorrowers(ctx context.Context) ([]model.Borrower, error)
	GetBorrower(ctx context.Context, id int64) (model.Borrower, error)
	CreateBorrower(ctx context.Context, name, email string) (model.Borrower, error)
	ListBorrowed(ctx context.Context) ([]model.BorrowedBook, error)
	ListBorrowedByBorrower(ctx context.Context, borrowerID int64) ([]model.BorrowedBook, error)
	BorrowBook(ctx context.Context, borrowerID, bookID int64) (model.BorrowingRecord, error)
}

type repository struct {
	db     *sqlx.DB
	log    *zap.Logger
	tracer trace.Tracer
	qb     sq.StatementBuilderType
	system string
}

func NewRepository(db *sqlx.DB, log *zap.Logger, tracer trace.Tracer) (*repository, error) {
	r := &repository{
		db:     db,
		log:    log.Named("repo"),
		tracer: tracer,
		qb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		system: "sqlite",
	}
	if db.DriverName() == "pgx" {
		r.qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
		r.system = "postgresql"
	}
	return r, nil
}

const (
	booksTableName         = `books`
	borrowersTableName     = `borrowers`
	borrowedBooksTableName = `borrowed_books`
)

func (r *repository) ListBooks(ctx context.Context) (books []model.Book, err error) {
	query, args, err := r.qb.Select("id", "title", "author", "is_borrowed").
		From(booksTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartDBSpan(ctx, r.tracer, "ListBooksQuery", r.system, query)
	defer func() { telemetry.FinishSpan(span, err) }()

	books = make([]model.Book, 0)
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, errors.Wrap(err, "ListBooks")
	}
	return books, nil
}

func (r *repository) CreateBook(ctx context.Context, title, author string) (book model.Book, err error) {
	query, args, err := r.qb.Insert(booksTableName).
		Columns("title", "author", "is_borrowed").
		Values(title, author, false).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	ctx, span := telemetry.StartDBSpan(ctx, r.tracer, "CreateBookQuery", r.system, query)
	defer func() { telemetry.FinishSpan(span, err) }()

	if err := r.db.GetContext(ctx, &book.ID, query, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", query), zap.Error(err))
		return model.Book{}, errors.Wrap(err, "CreateBook")
	}
	book.Title, book.Author = title, author
	return book, nil
}

func (r *repository) ListBorrowers(ctx context.Context) (borrowers []model.Borrower, err error) {
	query, args, err := r.qb.Select("id", "name", "email").
		From(borrowersTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartDBSpan(ctx, r.tracer, "ListBorrowersQuery", r.system, query)
	defer func() { telemetry.FinishSpan(span, err) }()

	borrowers = make([]model.Borrower, 0)
	if err := r.db.SelectContext(ctx, &borrowers, query, args...); err != nil {
		return nil, errors.Wrap(err, "ListBorrowers")
	}
	return borrowers, nil
}

func (r *repository) GetBorrower(ctx context.Context, id int64) (borrower model.Borrower, err error) {
	query, args, err := r.qb.Select("id", "name", "email").
		From(borrowersTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Borrower{}, err
	}
	ctx, span := telemetry.StartDBSpan(ctx, r.tracer, "GetBorrowerQuery", r.system, query)
	defer func() { telemetry.FinishSpan(span, err) }()

	if err := r.db.GetContext(ctx, &borrower, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrower{}, errs.ErrBorrowerNotFound
		}
		return model.Borrower{}, errors.Wrap(err, "GetBorrower")
	}
	return borrower, nil
}

func (r *repository) CreateBorrower(ctx context.Context, name, email string) (borrower model.Borrower, err error) {
	query, args, err := r.qb.Insert(borrowersTableName).
		Columns("name", "email").
		Values(name, email).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.Borrower{}, err
	}
	ctx, span := telemetry.StartDBSpan(ctx, r.tracer, "CreateBorrowerQuery", r.system, query)
	defer func() { telemetry.FinishSpan(span, err) }()

	if err := r.db.GetContext(ctx, &borrower.ID, query, args...); err != nil {
		if classify(err) == violationUnique {
			return model.Borrower{}, errs.ErrEmailTaken
		}
		return model.Borrower{}, errors.Wrap(err, "CreateBorrower")
	}
	borrower.Name, borrower.Email = name, email
	return borrower, nil
}

func (r *repository) borrowedQuery() sq.SelectBuilder {
	return r.qb.Select("b.id", "b.title", "b.author").
		From(borrowedBooksTableName + " bb").
		Join(fmt.Sprintf("%s b on b.id = bb.book_id", booksTableName)).
		OrderBy("bb.id")
}

func (r *repository) ListBorrowed(ctx context.Context) (borrowed []model.BorrowedBook, err error) {
	query, args, err := r.borrowedQuery().ToSql()
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartDBSpan(ctx, r.tracer, "ListBorrowedQuery", r.system, query)
	defer func() { telemetry.FinishSpan(span, err) }()

	borrowed = make([]model.BorrowedBook, 0)
	if err := r.db.SelectContext(ctx, &borrowed, query, args...); err != nil {
		return nil, errors.Wrap(err, "ListBorrowed")
	}
	return borrowed, nil
}

func (r *repository) ListBorrowedByBorrower(ctx context.Context, borrowerID int64) (borrowed []model.BorrowedBook, err error) {
	query, args, err := r.borrowedQuery().
		Where(sq.Eq{"bb.borrower_id": borrowerID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartDBSpan(ctx, r.tracer, "ListBorrowedByBorrowerQuery", r.system, query)
	defer func() { telemetry.FinishSpan(span, err) }()

	borrowed = make([]model.BorrowedBook, 0)
	if err := r.db.SelectContext(ctx, &borrowed, query, args...); err != nil {
		return nil, errors.Wrap(err, "ListBorrowedByBorrower")
	}
	return borrowed, nil
}

// BorrowBook marks the book borrowed and inserts the borrowing record in one
// transaction. The flag flip is a compare-and-set, so of two concurrent
// borrows of the same book exactly one commits.
func (r *repository) BorrowBook(ctx context.Context, borrowerID, bookID int64) (rec model.BorrowingRecord, err error) {
	ctx, span := telemetry.StartDBSpan(ctx, r.tracer, "BorrowBookTx", r.system, "BEGIN")
	defer func() { telemetry.FinishSpan(span, err) }()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.BorrowingRecord{}, errors.Wrap(err, "BeginTxx")
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.qb.Update(booksTableName).
		Set("is_borrowed", true).
		Where(sq.Eq{"id": bookID, "is_borrowed": false}).
		ToSql()
	if err != nil {
		return model.BorrowingRecord{}, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return model.BorrowingRecord{}, errors.Wrap(err, "mark borrowed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.BorrowingRecord{}, errors.Wrap(err, "RowsAffected")
	}
	if n == 0 {
		return model.BorrowingRecord{}, r.unavailable(ctx, tx, bookID)
	}

	rec = model.BorrowingRecord{
		BookID:     bookID,
		BorrowerID: borrowerID,
		BorrowDate: time.Now().UTC(),
	}
	query, args, err = r.qb.Insert(borrowedBooksTableName).
		Columns("book_id", "borrower_id", "borrow_date").
		Values(rec.BookID, rec.BorrowerID, rec.BorrowDate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.BorrowingRecord{}, err
	}
	if err := tx.GetContext(ctx, &rec.ID, query, args...); err != nil {
		if classify(err) == violationForeignKey {
			return model.BorrowingRecord{}, errs.ErrBorrowerNotFound
		}
		return model.BorrowingRecord{}, errors.Wrap(err, "insert borrowing record")
	}

	if err := tx.Commit(); err != nil {
		return model.BorrowingRecord{}, errors.Wrap(err, "Commit")
	}
	r.log.Debug("BorrowBook", zap.Int64("record_id", rec.ID),
		zap.Int64("book_id", bookID), zap.Int64("borrower_id", borrowerID))
	return rec, nil
}

// unavailable explains a compare-and-set that touched no row.
func (r *repository) unavailable(ctx context.Context, tx *sqlx.Tx, bookID int64) error {
	query, args, err := r.qb.Select("is_borrowed").
		From(booksTableName).
		Where(sq.Eq{"id": bookID}).
		ToSql()
	if err != nil {
		return err
	}
	var borrowed bool
	if err := tx.GetContext(ctx, &borrowed, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.ErrBookNotFound
		}
		return errors.Wrap(err, "book state")
	}
	return errs.ErrBookBorrowed
}

type violation int

const (
	violationNone violation = iota
	violationUnique
	violationForeignKey
)

// classify maps driver constraint errors of both supported stores.
func classify(err error) violation {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return violationUnique
		case pgerrcode.ForeignKeyViolation:
			return violationForeignKey
		}
		return violationNone
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return violationUnique
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return violationForeignKey
		}
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			msg := liteErr.Error()
			switch {
			case strings.Contains(msg, "UNIQUE"):
				return violationUnique
			case strings.Contains(msg, "FOREIGN KEY"):
				return violationForeignKey
			}
		}
	}
	return violationNone
}
