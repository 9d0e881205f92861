package orders_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/altinsoy/destek/internal/destek/config"
	"github.com/altinsoy/destek/internal/destek/orders"
)

func newInvoker(t *testing.T, baseURL string, timeout time.Duration) *orders.Invoker {
	t.Helper()
	return orders.NewInvoker(orders.InvokerConfig{
		BaseURL: baseURL,
		Timeout: timeout,
	}, config.DefaultTables().Replies)
}

func TestCancel_Success(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cancel" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	inv := newInvoker(t, srv.URL, 0)
	result, audit := inv.Cancel(context.Background(), "ORD-8841", "hasarlı")

	if gotBody["order_number"] != "ORD-8841" || gotBody["reason"] != "hasarlı" {
		t.Errorf("request payload: got %v", gotBody)
	}
	if !strings.Contains(result, "ORD-8841") || !strings.Contains(result, "hasarlı") {
		t.Errorf("result should embed order and reason: %q", result)
	}
	if !strings.Contains(result, "başarıyla iptal edildi") {
		t.Errorf("expected success message, got %q", result)
	}
	if audit.ResponseStatus != http.StatusNoContent {
		t.Errorf("audit status: got %d", audit.ResponseStatus)
	}
	if audit.ToolName != orders.ActionName || audit.Method != http.MethodPost {
		t.Errorf("audit metadata: %+v", audit)
	}
	if audit.Error != "" {
		t.Errorf("audit error should be empty, got %q", audit.Error)
	}
}

func TestCancel_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("order already shipped"))
	}))
	defer srv.Close()

	inv := newInvoker(t, srv.URL, 0)
	result, audit := inv.Cancel(context.Background(), "ORD-1", "bozuk")

	if !strings.Contains(result, "409") || !strings.Contains(result, "order already shipped") {
		t.Errorf("failure message should embed status and body: %q", result)
	}
	if audit.ResponseStatus != http.StatusConflict {
		t.Errorf("audit status: got %d", audit.ResponseStatus)
	}
	if audit.ResponseData != "order already shipped" {
		t.Errorf("audit body: got %q", audit.ResponseData)
	}
}

func TestCancel_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	inv := newInvoker(t, srv.URL, 20*time.Millisecond)
	result, audit := inv.Cancel(context.Background(), "ORD-1", "bozuk")

	if !strings.HasPrefix(result, "❌") {
		t.Errorf("expected error-shaped message, got %q", result)
	}
	if audit.Error == "" {
		t.Error("audit should carry the transport error")
	}
	if audit.ResponseStatus != 0 {
		t.Errorf("audit status should be unset, got %d", audit.ResponseStatus)
	}
}

func TestCancel_ConnectionRefused(t *testing.T) {
	// Grab a port that nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	inv := newInvoker(t, url, time.Second)
	result, audit := inv.Cancel(context.Background(), "ORD-1", "bozuk")

	if audit.Error == "" {
		t.Error("audit should carry the connection error")
	}
	if !strings.HasPrefix(result, "❌") {
		t.Errorf("expected error-shaped message, got %q", result)
	}
}
