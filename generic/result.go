package generic

import "fmt"

// Result combines a value and an error in a single assignable, sendable unit.
type Result[T any] struct {
	Value T
	Error error
}

// NewResult wraps a (T, error) return value from another function call as a Result[T].
func NewResult[T any](value T, err error) Result[T] {
	return Result[T]{Value: value, Error: err}
}

// Ok wraps a value as a Result[T] containing that value.
func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Err wraps an error as a Result[T] containing that error.
func Err[T any](err error) Result[T] {
	return Result[T]{Error: err}
}

// Parts splits the Result[T] back into a conventional (T, error) pair.
func (r Result[T]) Parts() (T, error) {
	return r.Value, r.Error
}

// IsOk returns true if the Result[T] contains a value.
func (r *Result[T]) IsOk() bool {
	return r.Error == nil
}

// IsErr returns true if the Result[T] contains an error.
func (r *Result[T]) IsErr() bool {
	return r.Error != nil
}

// Expect returns the contained value if IsOk(), or panics with the supplied message and the
// contained error if IsErr().
func (r Result[T]) Expect(msg string) T {
	if r.IsOk() {
		return r.Value
	}
	panic(fmt.Errorf("%s: %w", msg, r.Error))
}

// Unwrap returns the contained value, or panics if IsErr.
func (r Result[T]) Unwrap() T {
	return r.Expect("tried to Unwrap() an Err")
}

// UnwrapOr returns the contained value, or other if IsErr.
func (r Result[T]) UnwrapOr(other T) T {
	if r.IsOk() {
		return r.Value
	}
	return other
}

// Unwrap is a shortcut for NewResult(...).Unwrap().
func Unwrap[T any](value T, err error) T {
	return NewResult(value, err).Unwrap()
}

// Unwrap_ is like Unwrap, but for return values that are just an error.
func Unwrap_(err error) {
	NewResult(NewVoid(), err).Unwrap()
}
