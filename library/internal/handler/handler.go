package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/Astemirdum/library-catalog/library/docs"
	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/library/internal/model"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
	"github.com/Astemirdum/library-catalog/pkg/telemetry"
	"github.com/Astemirdum/library-catalog/pkg/validate"
)

const DefaultBodyLimit = "1M"

type Handler struct {
	librarySvc LibraryService
	log        *zap.Logger
	bodyLimit  string
	telemetry  *telemetry.Telemetry
}

type Option func(*Handler)

// WithBodyLimit sets the request body ceiling, e.g. "512K" or "1M".
func WithBodyLimit(limit string) Option {
	return func(h *Handler) {
		if limit != "" {
			h.bodyLimit = limit
		}
	}
}

func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(h *Handler) {
		h.telemetry = t
	}
}

func New(librarySvc LibraryService, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		librarySvc: librarySvc,
		log:        log,
		bodyLimit:  DefaultBodyLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const apiRPS = 100

	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = h.errorHandler
	e.Validator = validate.NewCustomValidator()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(md.NewRequestID())
	e.Use(middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)))
	if h.telemetry != nil {
		e.Use(h.telemetry.Middleware())
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPost},
	}))
	e.Use(md.NewRateLimiter(apiRPS))
	e.Use(middleware.BodyLimit(h.bodyLimit))

	e.GET("/manage/health", h.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.GET("/books", h.ListBooks)
	e.POST("/books", h.CreateBook)

	e.GET("/borrowers", h.ListBorrowers)
	e.POST("/borrowers", h.CreateBorrower)
	e.GET("/borrowers/:id", h.GetBorrower)
	e.GET("/borrowers/", h.GetBorrower)

	e.GET("/borrowed-books", h.ListBorrowed)
	e.POST("/borrowed-books", h.BorrowBook)
	e.GET("/borrowed-books/:id", h.ListBorrowedByBorrower)
	e.GET("/borrowed-books/", h.ListBorrowedByBorrower)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) ListBooks(c echo.Context) error {
	books, err := h.librarySvc.ListBooks(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	book, err := h.librarySvc.CreateBook(c.Request().Context(), string(req.Title), string(req.Author))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) ListBorrowers(c echo.Context) error {
	borrowers, err := h.librarySvc.ListBorrowers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, borrowers)
}

func (h *Handler) GetBorrower(c echo.Context) error {
	id, err := borrowerIDParam(c)
	if err != nil {
		return err
	}
	borrower, err := h.librarySvc.GetBorrower(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, borrower)
}

func (h *Handler) CreateBorrower(c echo.Context) error {
	var req model.CreateBorrowerRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	borrower, err := h.librarySvc.CreateBorrower(c.Request().Context(), string(req.Name), string(req.Email))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, borrower)
}

func (h *Handler) ListBorrowed(c echo.Context) error {
	books, err := h.librarySvc.ListBorrowed(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) ListBorrowedByBorrower(c echo.Context) error {
	id, err := borrowerIDParam(c)
	if err != nil {
		return err
	}
	books, err := h.librarySvc.ListBorrowedByBorrower(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) BorrowBook(c echo.Context) error {
	var req model.BorrowRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	borrowerID, err := req.BorrowerID.Int64()
	if err != nil {
		return errs.ErrInvalidBorrowerID
	}
	bookID, err := req.BookID.Int64()
	if err != nil {
		return errs.ErrInvalidBookID
	}
	if _, err := h.librarySvc.BorrowBook(c.Request().Context(), borrowerID, bookID); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, model.BorrowResponse{
		BorrowerID: borrowerID,
		BookID:     bookID,
	})
}

func borrowerIDParam(c echo.Context) (int64, error) {
	raw := c.Param("id")
	if !validate.IsDigits(raw) {
		return 0, errs.ErrInvalidBorrowerID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errs.ErrInvalidBorrowerID
	}
	return id, nil
}
