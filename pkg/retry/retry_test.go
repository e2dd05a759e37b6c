// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package retry

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswarm-labs/agentswarm/internal/errs"
)

func TestSumFibonacci(t *testing.T) {
	assert.Equal(t, 33, SumFibonacci())
	assert.Equal(t, time.Duration(33000)*time.Millisecond, time.Duration(SumFibonacci())*DefaultBaseInterval)
}

func TestDelayFor_ZeroJitter(t *testing.T) {
	// attempt index 4 (5th retry) -> Fibonacci[4] = 5 -> 5000ms with defaults.
	d := DelayFor(4, DefaultBaseInterval, 0, nil)
	assert.Equal(t, 5000*time.Millisecond, d)
}

func TestDelayFor_WithinJitterBounds(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < len(Fibonacci); i++ {
		d := DelayFor(i, DefaultBaseInterval, DefaultJitter, r)
		base := float64(Fibonacci[i]) * float64(DefaultBaseInterval)
		lower := time.Duration(base * (1 - DefaultJitter))
		upper := time.Duration(base * (1 + DefaultJitter))
		assert.GreaterOrEqual(t, d, lower)
		assert.LessOrEqual(t, d, upper)
	}
}

func TestExecute_FirstSuccessNoDelay(t *testing.T) {
	calls := 0
	res := Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return "ok", nil
	}, Options{})

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, time.Duration(0), res.TotalDelay)
	assert.Equal(t, 1, calls)
}

func TestExecute_ExhaustsAndReturnsLastError(t *testing.T) {
	wantErr := errors.New("boom")
	calls := 0
	res := Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, wantErr
	}, Options{BaseInterval: time.Microsecond, MaxRetries: 2})

	require.False(t, res.Success)
	assert.Equal(t, 3, calls) // 1 initial + 2 retries
	assert.LessOrEqual(t, res.Attempts, MaxRetries+1)
	assert.Equal(t, errs.Exhausted, errs.KindOf(res.Err))
	assert.ErrorIs(t, res.Err, wantErr)
}

func TestExecute_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	res := Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		return 42, nil
	}, Options{BaseInterval: time.Microsecond, MaxRetries: 5})

	require.True(t, res.Success)
	assert.Equal(t, 42, res.Value)
	assert.Equal(t, 3, res.Attempts)
}

func TestExecute_WrapsNonErrorPanics(t *testing.T) {
	res := Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		panic("stringy failure")
	}, Options{BaseInterval: time.Microsecond, MaxRetries: 0})

	require.False(t, res.Success)
	assert.Contains(t, res.Err.Error(), "stringy failure")
}

func TestExecute_CancellationBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	res := Execute(ctx, func(ctx context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			cancel()
		}
		return nil, errors.New("retry me")
	}, Options{BaseInterval: 50 * time.Millisecond, MaxRetries: 5})

	require.False(t, res.Success)
	assert.Equal(t, errs.Cancelled, errs.KindOf(res.Err))
}
