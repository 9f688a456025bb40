package async

import "github.com/clipforge/clipforge/generic"

// Run will run a function in a goroutine, returning its result via a channel.
func Run[T any](f func() T) <-chan T {
	c := make(chan T, 1)
	go func() {
		c <- f()
	}()
	return c
}

// RunResult is like Run for functions with a conventional (T, error) return.
func RunResult[T any](f func() (T, error)) <-chan generic.Result[T] {
	c := make(chan generic.Result[T], 1)
	go func() {
		c <- generic.NewResult(f())
	}()
	return c
}
