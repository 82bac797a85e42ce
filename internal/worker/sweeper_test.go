package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func TestCompletionSweeper_Sweep(t *testing.T) {
	now := time.Date(2030, 3, 4, 12, 0, 0, 0, time.UTC)
	c := new(mockCompleter)
	s := NewCompletionSweeper(c, time.Minute, testLogger())
	s.now = func() time.Time { return now }
	ctx := context.Background()

	c.On("CompleteExpired", ctx, now).Return(3, nil).Once()
	assert.Equal(t, 3, s.Sweep(ctx))

	c.On("CompleteExpired", ctx, now).Return(0, errors.New("db locked")).Once()
	assert.Zero(t, s.Sweep(ctx))

	c.AssertExpectations(t)
}

func TestCompletionSweeper_DefaultInterval(t *testing.T) {
	s := NewCompletionSweeper(new(mockCompleter), 0, testLogger())
	assert.Equal(t, time.Minute, s.interval)
}

func TestCompletionSweeper_Start(t *testing.T) {
	var calls atomic.Int32
	c := new(mockCompleter)
	c.On("CompleteExpired", mock.Anything, mock.Anything).Return(0, nil).Run(func(mock.Arguments) { calls.Add(1) })
	s := NewCompletionSweeper(c, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
