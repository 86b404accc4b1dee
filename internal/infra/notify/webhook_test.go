package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"docrequest/internal/domain"
)

func TestWebhookMockModeArchivePath(t *testing.T) {
	gw := NewWebhookGateway(FlowURLs{}, ArchiveSite{SiteURL: "https://sp.example.com/sites/audit/", LibraryName: "Evidencias"}, nil)
	result, err := gw.ArchiveFile(context.Background(), domain.ArchiveRequest{FileName: "a.pdf", FolderPath: "CTRL-1/c1/r1"})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if result.Path != "/CTRL-1/c1/r1/a.pdf" {
		t.Fatalf("unexpected path %q", result.Path)
	}
	if result.URL != "https://sp.example.com/sites/audit/Evidencias/CTRL-1/c1/r1/a.pdf" {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if err := gw.SendEmail(context.Background(), domain.EmailMessage{Kind: domain.EmailRequest, To: "a@example.com"}); err != nil {
		t.Fatalf("expected mock send to succeed, got %v", err)
	}
}

func TestWebhookRoutesByKind(t *testing.T) {
	hits := map[string]domain.EmailMessage{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg domain.EmailMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode: %v", err)
		}
		hits[r.URL.Path] = msg
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	gw := NewWebhookGateway(FlowURLs{
		SendRequests: srv.URL + "/requests",
		SendOTP:      srv.URL + "/otp",
		Reminders:    srv.URL + "/reminders",
	}, ArchiveSite{}, srv.Client())

	ctx := context.Background()
	_ = gw.SendEmail(ctx, domain.EmailMessage{Kind: domain.EmailOTP, To: "a@example.com", OTPCode: "123456"})
	_ = gw.SendEmail(ctx, domain.EmailMessage{Kind: domain.EmailReminder, To: "b@example.com"})
	_ = gw.SendEmail(ctx, domain.EmailMessage{Kind: domain.EmailClosed, To: "c@example.com"})

	if hits["/otp"].OTPCode != "123456" {
		t.Fatalf("expected otp flow hit, got %+v", hits)
	}
	if hits["/reminders"].To != "b@example.com" {
		t.Fatalf("expected reminder flow hit")
	}
	if hits["/requests"].To != "c@example.com" {
		t.Fatalf("expected close notification on request flow")
	}
}

func TestWebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	gw := NewWebhookGateway(FlowURLs{SendRequests: srv.URL, ArchiveFiles: srv.URL}, ArchiveSite{}, srv.Client())
	if err := gw.SendEmail(context.Background(), domain.EmailMessage{Kind: domain.EmailRequest}); err == nil {
		t.Fatalf("expected error for 502")
	}
	if _, err := gw.ArchiveFile(context.Background(), domain.ArchiveRequest{}); err == nil {
		t.Fatalf("expected archive error for 502")
	}
}

func TestWebhookArchiveDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "sp_path": "/x/a.pdf", "sp_url": "https://sp/x/a.pdf"})
	}))
	defer srv.Close()
	gw := NewWebhookGateway(FlowURLs{ArchiveFiles: srv.URL}, ArchiveSite{}, srv.Client())
	result, err := gw.ArchiveFile(context.Background(), domain.ArchiveRequest{FileName: "a.pdf"})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if result.Path != "/x/a.pdf" || result.URL != "https://sp/x/a.pdf" {
		t.Fatalf("unexpected result %+v", result)
	}
}
