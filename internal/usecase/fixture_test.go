package usecase_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"docrequest/internal/domain"
	"docrequest/internal/infra/auth/jwtauth"
	"docrequest/internal/infra/memstore"
	"docrequest/internal/infra/otpstore"
	"docrequest/internal/usecase"
)

var owner = usecase.Actor{ID: "u-owner", Email: "owner@example.com", IP: "10.0.0.1"}

type fakeNotifier struct {
	mu         sync.Mutex
	emails     []domain.EmailMessage
	archived   []domain.ArchiveRequest
	emailErr   error
	archiveErr error
}

func (n *fakeNotifier) SendEmail(_ context.Context, msg domain.EmailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.emailErr != nil {
		return n.emailErr
	}
	n.emails = append(n.emails, msg)
	return nil
}

func (n *fakeNotifier) ArchiveFile(_ context.Context, req domain.ArchiveRequest) (domain.ArchiveResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.archiveErr != nil {
		return domain.ArchiveResult{}, n.archiveErr
	}
	n.archived = append(n.archived, req)
	p := "/Evidencias/" + req.FolderPath + "/" + req.FileName
	return domain.ArchiveResult{Status: "ok", Path: p, URL: "https://sp.example.com" + p}, nil
}

func (n *fakeNotifier) byKind(kind domain.EmailKind) []domain.EmailMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.EmailMessage
	for _, e := range n.emails {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type memFiles struct {
	mu    sync.Mutex
	saved map[string][]byte
	saves int
	// failOn makes the n-th Save fail when set.
	failOn int
	// onSave runs after every successful Save with the running count.
	onSave func(n int)
}

func (f *memFiles) Save(_ context.Context, key string, r io.Reader) (string, int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	f.mu.Lock()
	f.saves++
	n := f.saves
	if f.failOn > 0 && n == f.failOn {
		f.mu.Unlock()
		return "", 0, errors.New("disk full")
	}
	f.saved[key] = b
	hook := f.onSave
	f.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return "uploads/" + key, int64(len(b)), nil
}

func (f *memFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, key)
	return nil
}

type fixture struct {
	t   *testing.T
	ctx context.Context
	now time.Time

	store    *memstore.Store
	notifier *fakeNotifier
	files    *memFiles

	audit       *usecase.AuditRecorder
	tokens      *usecase.TokenGate
	otp         *usecase.OTPGate
	campaigns   *usecase.CampaignService
	requests    *usecase.RequestService
	evidence    *usecase.EvidenceService
	submissions *usecase.SubmissionPipeline
	reminders   *usecase.ReminderScheduler
	dispatcher  *usecase.ReminderDispatcher
	auth        *usecase.AuthService
	portal      *usecase.PortalService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		now:      time.Now().UTC().Truncate(time.Second),
		store:    memstore.New(),
		notifier: &fakeNotifier{},
		files:    &memFiles{saved: make(map[string][]byte)},
	}
	codec, err := jwtauth.New("portal-secret", "staff-secret", time.Hour)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	clock := func() time.Time { return f.now }

	f.audit = usecase.NewAuditRecorder(f.store.Audit(), clock)
	f.tokens = usecase.NewTokenGate(codec, f.store.Requests(), f.audit, 0, 0)
	f.tokens.Clock = clock
	f.otp = usecase.NewOTPGate(otpstore.NewMemory(clock), f.notifier, f.audit, true, 10*time.Minute, 3)
	f.otp.Clock = clock

	f.campaigns = usecase.NewCampaignService(f.store.Campaigns(), f.store.Requests(), f.audit)
	f.campaigns.Clock = clock
	f.requests = usecase.NewRequestService(f.store.Requests(), f.store.Campaigns(), f.tokens, f.notifier, f.campaigns, f.audit, "https://portal.example.com")
	f.requests.Clock = clock
	f.evidence = usecase.NewEvidenceService(f.store.Evidence(), f.requests, f.audit)
	f.evidence.Clock = clock
	f.submissions = usecase.NewSubmissionPipeline(f.store.Requests(), f.store.Campaigns(), f.store.Submissions(), f.evidence, f.requests, f.files, f.notifier, f.audit)
	f.submissions.Clock = clock
	f.reminders = usecase.NewReminderScheduler(f.store.Requests(), f.store.Campaigns(), f.audit)
	f.reminders.Clock = clock
	f.dispatcher = usecase.NewReminderDispatcher(f.requests, f.reminders, f.notifier)
	f.auth = usecase.NewAuthService(f.store.Users(), codec, f.audit)
	f.auth.Clock = clock
	f.portal = usecase.NewPortalService(f.tokens, f.otp, f.store.Requests(), f.store.Campaigns(), f.submissions, f.audit)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) createCampaign(code string) domain.Campaign {
	f.t.Helper()
	c, err := f.campaigns.Create(f.ctx, usecase.CampaignInput{
		Name:        "Campaign " + code,
		ControlCode: code,
		OwnerUserID: owner.ID,
		StartDate:   f.now,
		EndDate:     f.now.Add(90 * 24 * time.Hour),
		Actor:       owner,
	})
	if err != nil {
		f.t.Fatalf("create campaign: %v", err)
	}
	return c
}

// addRequest creates a DRAFT request whose evidence follows mandatory, one item per flag.
func (f *fixture) addRequest(campaignID string, mandatory ...bool) domain.Request {
	f.t.Helper()
	if len(mandatory) == 0 {
		mandatory = []bool{true}
	}
	in := usecase.NewRequest{
		RecipientEmail: "recipient@example.com",
		RecipientName:  "Recipient",
		DelegateEmail:  "delegate@example.com",
		Deadline:       f.now.Add(14 * 24 * time.Hour),
	}
	for i, m := range mandatory {
		in.Evidence = append(in.Evidence, usecase.NewEvidence{
			Name:        "Item " + string(rune('A'+i)),
			Type:        domain.EvidencePDF,
			IsMandatory: m,
		})
	}
	created, err := f.campaigns.CreateRequests(f.ctx, campaignID, []usecase.NewRequest{in}, owner)
	if err != nil {
		f.t.Fatalf("create request: %v", err)
	}
	return created[0]
}

// sentRequest returns an activated campaign with one SENT request and its access token.
func (f *fixture) sentRequest(mandatory ...bool) (domain.Campaign, domain.Request, string) {
	f.t.Helper()
	campaign := f.createCampaign("CTRL-1")
	req := f.addRequest(campaign.ID, mandatory...)
	if _, err := f.campaigns.Activate(f.ctx, campaign.ID, owner); err != nil {
		f.t.Fatalf("activate: %v", err)
	}
	res, err := f.requests.Send(f.ctx, req.ID, owner)
	if err != nil {
		f.t.Fatalf("send: %v", err)
	}
	token := res.AccessURL[strings.LastIndex(res.AccessURL, "/")+1:]
	return campaign, f.request(req.ID), token
}

func (f *fixture) request(id string) domain.Request {
	f.t.Helper()
	req, err := f.store.Requests().Get(f.ctx, id)
	if err != nil {
		f.t.Fatalf("get request: %v", err)
	}
	return req
}

func (f *fixture) submit(req domain.Request, evidenceIDs ...string) (usecase.SubmitResult, error) {
	files := make([]usecase.UploadFile, 0, len(evidenceIDs))
	for _, id := range evidenceIDs {
		files = append(files, usecase.UploadFile{
			EvidenceID: id,
			FileName:   "report.pdf",
			MimeType:   "application/pdf",
			Content:    strings.NewReader("%PDF " + id),
		})
	}
	return f.submissions.Submit(f.ctx, usecase.SubmitInput{
		RequestID:      req.ID,
		SubmitterEmail: req.RecipientEmail,
		IPAddress:      "192.0.2.10",
		Files:          files,
	})
}

func (f *fixture) auditActions() []domain.AuditAction {
	entries := f.store.Audit().Entries()
	out := make([]domain.AuditAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func hasAction(actions []domain.AuditAction, want domain.AuditAction) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func expectKind(t *testing.T, err error, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
