package errs_test

import (
	"testing"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, errs.ErrBookNotFound, errs.ErrNotFound)
	require.ErrorIs(t, errs.ErrBookBorrowed, errs.ErrConflict)
	require.NotErrorIs(t, errs.ErrBookBorrowed, errs.ErrNotFound)

	wrapped := errors.Wrap(errs.ErrEmailTaken, "CreateBorrower")
	require.ErrorIs(t, wrapped, errs.ErrConflict)
	require.ErrorIs(t, wrapped, errs.ErrEmailTaken)

	require.Equal(t, "Invalid request body, missing Author", errs.MissingField("Author").Error())
	require.Equal(t, "Invalid borrower ID format", errs.ErrInvalidBorrowerID.Error())
	require.ErrorIs(t, errs.InvalidFormat("Book ID"), errs.ErrInvalidBookID)
}
