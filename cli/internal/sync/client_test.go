package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zhaobenny/babylog/cli/internal/config"
	"github.com/zhaobenny/babylog/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{Server: srv.URL, APIKey: "babylog_test", ClientID: "laptop-1"})
}

func TestSync(t *testing.T) {
	t.Parallel()

	var got SyncRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sync" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "babylog_test" {
			t.Errorf("missing API key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(SyncResponse{Success: true, AcceptedEvents: 3, RejectedTokens: 1})
	})

	rows := []model.Row{{Line: 2, Date: "2025-09-15", Cells: map[model.Category]string{model.CategoryBreast: "08:00L15R20"}}}
	resp, err := client.Sync(context.Background(), rows)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if resp.AcceptedEvents != 3 || resp.RejectedTokens != 1 {
		t.Fatalf("response = %+v", resp)
	}
	if got.ClientID != "laptop-1" || got.ClientName == "" {
		t.Fatalf("request identity = %q/%q", got.ClientID, got.ClientName)
	}
	if len(got.Rows) != 1 || got.Rows[0].Cells[model.CategoryBreast] != "08:00L15R20" {
		t.Fatalf("rows = %+v", got.Rows)
	}
}

func TestSyncServerError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "client_id is required"})
	})

	_, err := client.Sync(context.Background(), nil)
	if err == nil || err.Error() != "client_id is required" {
		t.Fatalf("expected server error message, got %v", err)
	}
}

func TestSyncNonJSONResponse(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid API key", http.StatusUnauthorized)
	})

	if _, err := client.Sync(context.Background(), nil); err == nil {
		t.Fatalf("expected error for plain text response")
	}
}

func TestGetSyncStatus(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 9, 16, 8, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sync/status" || r.URL.Query().Get("client_id") != "laptop-1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		json.NewEncoder(w).Encode(SyncStatusResponse{LastSyncAt: &at})
	})

	got, err := client.GetSyncStatus(context.Background())
	if err != nil {
		t.Fatalf("GetSyncStatus: %v", err)
	}
	if got == nil || !got.Equal(at) {
		t.Fatalf("last sync = %v, want %v", got, at)
	}
}

func TestGetSyncStatusNeverSynced(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	got, err := client.GetSyncStatus(context.Background())
	if err != nil {
		t.Fatalf("GetSyncStatus: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil last sync, got %v", got)
	}
}

func TestGetSyncStatusUnauthorized(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid API key", http.StatusUnauthorized)
	})

	if _, err := client.GetSyncStatus(context.Background()); err == nil {
		t.Fatalf("expected error on 401")
	}
}
