package rewards

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testSubmission() Submission {
	return Submission{
		Amount:     "27.50",
		InviteCode: "TABLE42",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Details: []ItemDetail{
			{ID: "item-1", Name: "Plate", Price: 25.00, Category: "red", Payers: []string{"A", "B"}},
		},
	}
}

func TestSubmitReturnsCode(t *testing.T) {
	var received Submission
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode submission: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"code": "REWARD-777"})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	result, err := client.Submit(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Code != "REWARD-777" {
		t.Errorf("code = %q, want REWARD-777", result.Code)
	}
	if received.Amount != "27.50" {
		t.Errorf("upstream saw amount %q, want 27.50", received.Amount)
	}
	if received.InviteCode != "TABLE42" {
		t.Errorf("upstream saw invite code %q, want TABLE42", received.InviteCode)
	}
	if len(received.Details) != 1 || received.Details[0].Name != "Plate" {
		t.Errorf("upstream saw details %+v", received.Details)
	}
}

func TestSubmitFallbackCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	result, err := client.Submit(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Code != FallbackCode {
		t.Errorf("code = %q, want fallback %q", result.Code, FallbackCode)
	}
}

func TestSubmitNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Submit(context.Background(), testSubmission()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestSubmitMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Submit(context.Background(), testSubmission()); err == nil {
		t.Fatal("expected error for malformed response")
	}
}

func TestSubmitUnreachableEndpoint(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := client.Submit(context.Background(), testSubmission()); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}
