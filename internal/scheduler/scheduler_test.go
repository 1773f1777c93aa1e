package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestDeferredRunsTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDeferred(8)

	var ran atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)
	d.Enqueue(func() {
		ran.Add(1)
		wg.Done()
	})
	wg.Wait()

	require.EqualValues(t, 1, ran.Load())
	d.Close()
}

func TestDeferredCloseDrainsPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDeferred(64)

	var ran atomic.Int32
	block := make(chan struct{})
	d.Enqueue(func() { <-block })
	for i := 0; i < 32; i++ {
		d.Enqueue(func() { ran.Add(1) })
	}

	close(block)
	d.Close()

	require.EqualValues(t, 32, ran.Load())
}

func TestDeferredEnqueueAfterCloseRunsInline(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDeferred(8)
	d.Close()

	var ran bool
	d.Enqueue(func() { ran = true })
	require.True(t, ran, "task after Close must run in the caller")
}

func TestDeferredCloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDeferred(8)
	d.Close()
	require.NotPanics(t, d.Close)
}

func TestDeferredManyProducers(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDeferred(16)

	const producers = 8
	const perProducer = 100

	var ran atomic.Int32
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				d.Enqueue(func() { ran.Add(1) })
			}
		}()
	}
	wg.Wait()
	d.Close()

	require.EqualValues(t, producers*perProducer, ran.Load())
}

func TestInline(t *testing.T) {
	var ran bool
	Inline{}.Enqueue(func() { ran = true })
	require.True(t, ran)
	Inline{}.Close()
}

func TestDeferredOrderingPerProducer(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDeferred(8)

	var order []int
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		i := i
		d.Enqueue(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	d.Close()

	require.Len(t, order, 10)
	for i, v := range order {
		require.Equal(t, i, v, "tasks from one producer must run in order")
	}
}
