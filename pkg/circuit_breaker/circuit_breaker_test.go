package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	errService := errors.New("service error")
	ok := func() error { return nil }
	fail := func() error { return errService }

	clock := time.Unix(0, 0)
	cb := New(10, time.Second, 0.3, 2).(*circuitBreaker)
	cb.now = func() time.Time { return clock }

	for i := 0; i < 20; i++ {
		require.NoError(t, cb.Call(ok))
	}
	require.Equal(t, Closed, cb.State())

	// 3 failures out of a window of 10 reach the 30% ratio.
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, cb.Call(fail), errService)
	}
	require.Equal(t, Open, cb.State())
	require.ErrorIs(t, cb.Call(ok), ErrOpenCB)

	clock = clock.Add(2 * time.Second)
	require.NoError(t, cb.Call(ok))
	require.Equal(t, HalfOpen, cb.State())

	require.ErrorIs(t, cb.Call(fail), errService)
	require.Equal(t, Open, cb.State())

	clock = clock.Add(2 * time.Second)
	require.NoError(t, cb.Call(ok))
	require.NoError(t, cb.Call(ok))
	require.Equal(t, Closed, cb.State())
}

func Test_circuitBreaker_Reset(t *testing.T) {
	t.Parallel()
	cb := New(2, time.Hour, 0.5, 1)
	require.Error(t, cb.Call(func() error { return errors.New("boom") }))
	require.Equal(t, Open, cb.State())

	cb.Reset()
	require.Equal(t, Closed, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
}
