package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func infoServer(t *testing.T, handler func(req InfoRequest) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req InfoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		_ = json.NewEncoder(w).Encode(handler(req))
	}))
}

func TestAccountExists(t *testing.T) {
	server := infoServer(t, func(req InfoRequest) any {
		if req.Type != "userAccount" || req.User != "0xacct" {
			t.Errorf("unexpected request: %+v", req)
		}
		return map[string]any{"exists": true}
	})
	defer server.Close()

	client := New(server.URL, time.Second, zap.NewNop())
	exists, err := client.AccountExists(context.Background(), "0xacct")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
}

func TestAccountExistsFalse(t *testing.T) {
	server := infoServer(t, func(req InfoRequest) any {
		return map[string]any{"exists": false}
	})
	defer server.Close()

	client := New(server.URL, time.Second, zap.NewNop())
	exists, err := client.AccountExists(context.Background(), "0xacct")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false")
	}
}

func TestAccountExistsMalformed(t *testing.T) {
	server := infoServer(t, func(req InfoRequest) any {
		return map[string]any{"status": "ok"}
	})
	defer server.Close()

	client := New(server.URL, time.Second, zap.NewNop())
	if _, err := client.AccountExists(context.Background(), "0xacct"); err == nil {
		t.Fatal("malformed response must be an error, not a missing account")
	}
}

func TestAccountExistsRequiresAddress(t *testing.T) {
	client := New("http://unused", time.Second, zap.NewNop())
	if _, err := client.AccountExists(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestTxStatus(t *testing.T) {
	server := infoServer(t, func(req InfoRequest) any {
		if req.Type != "txStatus" || req.Signature != "sig-1" {
			t.Errorf("unexpected request: %+v", req)
		}
		return map[string]any{"confirmed": true}
	})
	defer server.Close()

	client := New(server.URL, time.Second, zap.NewNop())
	conf, err := client.TxStatus(context.Background(), "sig-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conf.Confirmed || conf.Err != "" {
		t.Fatalf("conf = %+v, want confirmed", conf)
	}
}

func TestTxStatusOnChainError(t *testing.T) {
	server := infoServer(t, func(req InfoRequest) any {
		return map[string]any{"confirmed": false, "error": "insufficient lamports"}
	})
	defer server.Close()

	client := New(server.URL, time.Second, zap.NewNop())
	conf, err := client.TxStatus(context.Background(), "sig-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Confirmed || conf.Err != "insufficient lamports" {
		t.Fatalf("conf = %+v", conf)
	}
}

func TestTxStatusHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, zap.NewNop())
	if _, err := client.TxStatus(context.Background(), "sig-1"); err == nil {
		t.Fatal("expected error for http 500")
	}
}
