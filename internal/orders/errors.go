package orders

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrInvalidInput      = errors.New("invalid input")
)

// StockError reports a line asking for more units than the product has.
type StockError struct {
	Product string
}

func (e *StockError) Error() string { return "Not enough stock for product " + e.Product }
func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// RequestError is a failure reported to the client as-is, with the status it
// should be answered with.
type RequestError struct {
	Status int
	Err    error
}

func (e *RequestError) Error() string { return e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// badRequest wraps err as a client error. A status already known for err is
// kept; anything else becomes 400.
func badRequest(err error) error {
	var re *RequestError
	if errors.As(err, &re) {
		return err
	}
	status := classify(err)
	if status == http.StatusInternalServerError {
		status = http.StatusBadRequest
	}
	return &RequestError{Status: status, Err: err}
}

func classify(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf maps err to an HTTP status code.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return classify(err)
}
