package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

const DefaultTimeout = 30 * time.Second

// FlowURLs are the automation endpoints notifications are posted to.
// An empty URL puts that flow in mock mode.
type FlowURLs struct {
	SendRequests string
	SendOTP      string
	Reminders    string
	ArchiveFiles string
}

type ArchiveSite struct {
	SiteURL     string
	LibraryName string
}

type WebhookGateway struct {
	client *http.Client
	urls   FlowURLs
	site   ArchiveSite
}

func NewWebhookGateway(urls FlowURLs, site ArchiveSite, client *http.Client) *WebhookGateway {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &WebhookGateway{client: client, urls: urls, site: site}
}

func (g *WebhookGateway) SendEmail(ctx context.Context, msg domain.EmailMessage) error {
	url := g.emailURL(msg.Kind)
	if url == "" {
		log.Printf("mock email: kind=%s to=%s subject=%q", msg.Kind, msg.To, msg.Subject)
		return nil
	}
	return g.post(ctx, url, msg, nil)
}

func (g *WebhookGateway) ArchiveFile(ctx context.Context, req domain.ArchiveRequest) (domain.ArchiveResult, error) {
	if g.urls.ArchiveFiles == "" {
		path := "/" + strings.Trim(req.FolderPath, "/") + "/" + req.FileName
		log.Printf("mock archive: %s", path)
		return domain.ArchiveResult{
			Status: "mock",
			Path:   path,
			URL:    strings.TrimRight(g.site.SiteURL, "/") + "/" + strings.Trim(g.site.LibraryName, "/") + path,
		}, nil
	}
	var result domain.ArchiveResult
	if err := g.post(ctx, g.urls.ArchiveFiles, req, &result); err != nil {
		return domain.ArchiveResult{}, err
	}
	return result, nil
}

func (g *WebhookGateway) emailURL(kind domain.EmailKind) string {
	switch kind {
	case domain.EmailOTP:
		return g.urls.SendOTP
	case domain.EmailReminder:
		return g.urls.Reminders
	default:
		return g.urls.SendRequests
	}
}

func (g *WebhookGateway) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("flow returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ usecase.NotificationGateway = (*WebhookGateway)(nil)
