package statecache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	A, B float64
}

func TestLoad_BeforeFirstUpdate(t *testing.T) {
	c := New[pair]()

	_, err := c.Load()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, c.IsReady())
	assert.Zero(t, c.Updates())
}

func TestUpdate_ReplacesWholesale(t *testing.T) {
	c := New[map[string]float64]()

	c.Update(map[string]float64{"pan": 0.5, "tilt": 0.1})
	c.Update(map[string]float64{"pan": 0.7})

	got, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"pan": 0.7}, got)
	assert.Equal(t, uint64(2), c.Updates())
}

func TestAwait_ReturnsAfterUpdate(t *testing.T) {
	c := New[pair]()
	updated := make(chan struct{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(updated)
		c.Update(pair{A: 1, B: 1})
	}()

	s, ok := c.Await(context.Background())
	require.True(t, ok)
	select {
	case <-updated:
	default:
		t.Fatal("Await returned before Update was called")
	}
	assert.Equal(t, pair{A: 1, B: 1}, s)
}

func TestAwait_ShutdownIsDistinct(t *testing.T) {
	c := New[pair]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := c.Await(ctx)
	assert.False(t, ok)
	assert.False(t, c.IsReady())
}

func TestAwait_AlreadyReady(t *testing.T) {
	c := New[pair]()
	c.Update(pair{A: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// a cancelled context must not hide a value that is already there
	s, ok := c.Await(ctx)
	assert.True(t, ok)
	assert.Equal(t, 2.0, s.A)
}

func TestConcurrentReadersNeverSeeTornState(t *testing.T) {
	c := New[pair]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// single writer, A and B always move together
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			c.Update(pair{A: float64(i), B: float64(i)})
		}
		cancel()
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.Await(ctx); !ok {
				return
			}
			for ctx.Err() == nil {
				s, err := c.Load()
				if err != nil {
					t.Errorf("Load after Await: %v", err)
					return
				}
				if s.A != s.B {
					t.Errorf("torn snapshot: %+v", s)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestFeed(t *testing.T) {
	c := New[pair]()
	var rejected []error

	feed := c.Feed("test", func(data []byte) (pair, error) {
		if len(data) == 0 {
			return pair{}, assert.AnError
		}
		return pair{A: float64(data[0])}, nil
	}, func(err error) { rejected = append(rejected, err) })

	feed(nil)
	assert.False(t, c.IsReady(), "rejected payload must not satisfy the barrier")
	require.Len(t, rejected, 1)

	feed([]byte{7})
	got, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.A)

	feed(nil)
	got, _ = c.Load()
	assert.Equal(t, 7.0, got.A, "rejected payload must not replace a good snapshot")
}
