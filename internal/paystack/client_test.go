package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitializeTransaction(t *testing.T) {
	var got InitializeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Fatalf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]string{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         "ref-1",
			},
		})
	}))
	defer server.Close()

	client := &Client{SecretKey: "sk_test", BaseURL: server.URL}
	resp, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email:       "client@example.com",
		Amount:      200000,
		CallbackURL: "http://localhost:3000/client/home",
		Metadata:    Metadata{ServiceRequestID: "job123", ProgressDelta: 20, AmountDue: 2000},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if resp.AuthorizationURL != "https://checkout.paystack.com/abc" {
		t.Fatalf("unexpected checkout url %q", resp.AuthorizationURL)
	}
	if resp.Reference != "ref-1" {
		t.Fatalf("unexpected reference %q", resp.Reference)
	}
	if got.Amount != 200000 {
		t.Fatalf("expected amount 200000, got %d", got.Amount)
	}
	if got.Metadata.ServiceRequestID != "job123" {
		t.Fatalf("metadata not forwarded: %+v", got.Metadata)
	}
}

func TestInitializeTransactionGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "API error"})
	}))
	defer server.Close()

	client := &Client{SecretKey: "sk_test", BaseURL: server.URL}
	_, err := client.InitializeTransaction(context.Background(), InitializeRequest{Email: "client@example.com", Amount: 100})
	if !errors.Is(err, ErrGatewayFailure) {
		t.Fatalf("expected ErrGatewayFailure, got %v", err)
	}
}

func TestInitializeTransactionMissingKey(t *testing.T) {
	client := &Client{}
	if _, err := client.InitializeTransaction(context.Background(), InitializeRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseEvent(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"amount":500000,"reference":"ref-9","metadata":{"serviceRequestId":"job1","progressDelta":25,"amountDue":5000}}}`)
	ev, err := ParseEvent(body)
	if err != nil {
		t.Fatalf("expected parse success, got %v", err)
	}
	if ev.Event != EventChargeSuccess {
		t.Fatalf("unexpected event type %q", ev.Event)
	}
	if ev.Data.Metadata.AmountDue != 5000 || ev.Data.Metadata.ProgressDelta != 25 {
		t.Fatalf("unexpected metadata %+v", ev.Data.Metadata)
	}
}

func TestParseEventMalformed(t *testing.T) {
	if _, err := ParseEvent([]byte(`{`)); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
	if _, err := ParseEvent([]byte(`{}`)); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent for missing type, got %v", err)
	}
}
