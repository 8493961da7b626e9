package sendgrid

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) Client {
	t.Helper()
	c, err := New(logger.Nop(), Config{
		APIKey:           "test-key",
		BaseURL:          srv.URL,
		DefaultFromEmail: "noreply@courviaship.com",
		DefaultFromName:  "CourviaShip",
		MaxRetries:       retries,
		InitialBackoff:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSendBuildsWireRequest(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path: want=%q got=%q", "/v3/mail/send", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth: want=%q got=%q", "Bearer test-key", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, 0).Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "kofi@example.com", Name: "Kofi"}},
		Subject: "Package Registered - Tracking ID: NSDABC123",
		HTML:    "<p>hello</p>",
		Attachments: []Attachment{{
			Filename: "receipt-NSDABC123.pdf",
			MIMEType: "application/pdf",
			Content:  []byte("%PDF-1.4"),
		}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.MessageID != "msg-1" {
		t.Fatalf("message id: want=%q got=%q", "msg-1", res.MessageID)
	}
	if got.From.Email != "noreply@courviaship.com" {
		t.Fatalf("from: want=%q got=%q", "noreply@courviaship.com", got.From.Email)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("attachments: want=1 got=%d", len(got.Attachments))
	}
	if got.Attachments[0].Content != base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")) {
		t.Fatalf("attachment content not base64 encoded: got=%q", got.Attachments[0].Content)
	}
}

func TestSendRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Send(context.Background(), SendEmailRequest{
		To: []EmailAddress{{Email: "a@example.com"}}, Subject: "s", Text: "t",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("calls: want=3 got=%d", n)
	}
}

func TestSendDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad from"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Send(context.Background(), SendEmailRequest{
		To: []EmailAddress{{Email: "a@example.com"}}, Subject: "s", Text: "t",
	})
	he, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("want *HTTPError got=%T (%v)", err, err)
	}
	if he.StatusCode != http.StatusBadRequest || he.Error() != "sendgrid http 400: bad from" {
		t.Fatalf("unexpected error: %v", he)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls: want=1 got=%d", n)
	}
}

func TestSendValidatesRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	}))
	defer srv.Close()
	c := newTestClient(t, srv, 0)

	if _, err := c.Send(context.Background(), SendEmailRequest{Subject: "s", Text: "t"}); err == nil {
		t.Fatalf("missing recipients: want error got=nil")
	}
	if _, err := c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "a@example.com"}}, Text: "t"}); err == nil {
		t.Fatalf("missing subject: want error got=nil")
	}
}
