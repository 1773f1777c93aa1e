package reply

import "context"

// Future is a payload whose concrete value is not yet known when Send is
// invoked. Send awaits futures in a loop until a non-future value is
// produced, then classifies the result once.
type Future interface {
	Await(ctx context.Context) (any, error)
}

// FutureFunc adapts a function into a Future.
type FutureFunc func(ctx context.Context) (any, error)

// Await invokes the wrapped function.
func (f FutureFunc) Await(ctx context.Context) (any, error) {
	return f(ctx)
}

// Go runs fn in a new goroutine and returns a Future for its result.
// Await returns early if the context is cancelled; fn keeps running and
// its result is discarded.
func Go(fn func() (any, error)) Future {
	ch := make(chan futureResult, 1)
	go func() {
		v, err := fn()
		ch <- futureResult{value: v, err: err}
	}()
	return &asyncFuture{ch: ch}
}

type futureResult struct {
	value any
	err   error
}

type asyncFuture struct {
	ch chan futureResult
}

var _ Future = (*asyncFuture)(nil)

func (f *asyncFuture) Await(ctx context.Context) (any, error) {
	select {
	case res := <-f.ch:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
