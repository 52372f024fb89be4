package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReviewer_SetStatus(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"customer_id":1,"status":"accepted","total":"30","items":[]}`))
	}))
	defer api.Close()

	o, err := NewReviewer(api.URL).SetStatus(context.Background(), 7, orders.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/orders/7", gotPath)
	assert.JSONEq(t, `{"status":"accepted"}`, gotBody)
	assert.Equal(t, orders.StatusAccepted, o.Status)
	assert.Equal(t, "30.00", o.Total.StringFixed(2))
}

func TestReviewer_UpstreamError(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"order 9 not found"}`))
	}))
	defer api.Close()

	_, err := NewReviewer(api.URL).SetStatus(context.Background(), 9, orders.StatusRejected)
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusNotFound, ue.Status)
	assert.Equal(t, "order 9 not found", ue.Message)
}

type fakeSetter struct {
	id     int64
	status orders.Status
	err    error
}

func (f *fakeSetter) SetStatus(ctx context.Context, orderID int64, status orders.Status) (orders.Order, error) {
	f.id, f.status = orderID, status
	if f.err != nil {
		return orders.Order{}, f.err
	}
	return orders.Order{ID: orderID, Status: status}, nil
}

func TestRouter_AcceptReject(t *testing.T) {
	fs := &fakeSetter{}
	hub := NewHub(nil)
	defer hub.Close()
	r := NewRouter(hub, fs, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/5/accept", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), fs.id)
	assert.Equal(t, orders.StatusAccepted, fs.status)

	var o orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, orders.StatusAccepted, o.Status)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/5/reject", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.StatusRejected, fs.status)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/abc/accept", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_UpstreamFailures(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found passes through", &UpstreamError{Status: http.StatusNotFound, Message: "order 5 not found"}, http.StatusNotFound},
		{"api 500 is a bad gateway", &UpstreamError{Status: http.StatusInternalServerError, Message: "boom"}, http.StatusBadGateway},
		{"api unreachable", errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(hub, &fakeSetter{err: tt.err}, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/5/accept", nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), "error"))
		})
	}
}
