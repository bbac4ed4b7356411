package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("smtp")
	assert.Equal(t, "smtp", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
}

func TestRecordFailure(t *testing.T) {
	b := New("smtp", WithFailureThreshold(3))

	for i := 0; i < 2; i++ {
		fallback, change := b.RecordFailure()
		require.False(t, fallback, "failure %d", i+1)
		require.False(t, change.Opened)
	}

	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
	assert.Equal(t, StateOpen, b.State())

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened, "already open")
}

func TestSuccessBetweenFailuresResetsCount(t *testing.T) {
	b := New("smtp", WithFailureThreshold(2))

	b.RecordFailure()
	usable, change := b.RecordSuccess()
	assert.True(t, usable)
	assert.Equal(t, Change{}, change)

	fallback, _ := b.RecordFailure()
	assert.False(t, fallback)
	assert.False(t, b.IsOpen())
}

func TestRecordSuccessClosesAfterThreshold(t *testing.T) {
	b := New("smtp", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	usable, change := b.RecordSuccess()
	assert.False(t, usable)
	assert.False(t, change.Closed)

	// a failure while open restarts the success streak
	b.RecordFailure()
	usable, _ = b.RecordSuccess()
	assert.False(t, usable)

	usable, change = b.RecordSuccess()
	assert.True(t, usable)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestNonPositiveThresholdsKeepDefaults(t *testing.T) {
	b := New("smtp", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	_, change := b.RecordFailure()
	assert.True(t, change.Opened)

	usable, change := b.RecordSuccess()
	assert.True(t, usable)
	assert.True(t, change.Closed)
}

func TestReset(t *testing.T) {
	b := New("smtp", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
}

func TestConcurrentRecording(t *testing.T) {
	b := New("smtp", WithFailureThreshold(50))
	var wg sync.WaitGroup
	opened := make(chan struct{}, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				opened <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(opened)

	assert.True(t, b.IsOpen())
	assert.Len(t, opened, 1)
}
