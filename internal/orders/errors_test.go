package orders

import (
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("order 1 %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w for product x", ErrInsufficientStock), http.StatusConflict},
		{fmt.Errorf("%w: bad", ErrInvalidInput), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestBadRequest(t *testing.T) {
	// unknown failures become client errors
	err := badRequest(errors.New("boom"))
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, "boom", err.Error())

	// a known status survives wrapping
	nf := badRequest(fmt.Errorf("customer 9 %w", ErrNotFound))
	assert.Equal(t, http.StatusNotFound, StatusOf(nf))
	assert.ErrorIs(t, nf, ErrNotFound)

	// wrapping twice keeps the first status
	assert.Same(t, nf, badRequest(nf))
}

func TestStockError(t *testing.T) {
	err := error(&StockError{Product: "Dune"})
	assert.Equal(t, "Not enough stock for product Dune", err.Error())
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	assert.Equal(t, http.StatusConflict, StatusOf(badRequest(err)))
}
