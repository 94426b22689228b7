package run

import "fmt"

//WithError calls fn and converts a panic inside it into a returned error.
func WithError(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicToError(p)
		}
	}()

	return fn()
}

//AsyncWithError calls fn in a new goroutine. The returned channel receives exactly one value:
//the result of fn or its panic converted into an error.
func AsyncWithError(fn func() error) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- WithError(fn)
	}()

	return errCh
}

func panicToError(p interface{}) error {
	if perr, ok := p.(error); ok {
		return fmt.Errorf("panic: %w", perr)
	}
	return fmt.Errorf("panic: %v", p)
}
