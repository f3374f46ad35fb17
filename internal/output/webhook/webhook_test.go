package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/hejijunhao/sawmill/internal/model"
)

func testEvent(id string) model.Event {
	return model.Event{EventID: id, RawHash: "raw", CanonicalHash: "canon"}
}

func TestWrite_BatchFlushOnSize(t *testing.T) {
	var mu sync.Mutex
	var batches [][]model.Event

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []model.Event
		if err := json.Unmarshal(body, &batch); err != nil {
			t.Errorf("body is not a JSON array: %v", err)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(2))
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := out.Write(ctx, testEvent(id)); err != nil {
			t.Fatalf("Write(%s): %v", id, err)
		}
	}

	mu.Lock()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("expected one full batch of 2 before close, got %v", batches)
	}
	mu.Unlock()

	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 2 {
		t.Fatalf("expected remainder flushed at close, got %d batches", len(batches))
	}
	if batches[1][0].EventID != "c" {
		t.Errorf("expected remainder batch to carry 'c', got %v", batches[1])
	}
}

func TestWrite_CustomHeaders(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(1), WithHeaders(map[string]string{"Authorization": "Bearer tok"}))
	if err := out.Write(context.Background(), testEvent("a")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got != "Bearer tok" {
		t.Errorf("expected Authorization header, got %q", got)
	}
}

func TestPost_ClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(1))
	err := out.Write(context.Background(), testEvent("a"))
	if err == nil {
		t.Fatal("expected error for HTTP 400")
	}
	if calls != 1 {
		t.Fatalf("expected no retry on 4xx, got %d calls", calls)
	}
}

func TestPost_ServerErrorRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(1))
	if err := out.Write(context.Background(), testEvent("a")); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestClose_EmptyBatchNoPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected POST for empty batch")
	}))
	defer srv.Close()

	out := New(srv.URL)
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
