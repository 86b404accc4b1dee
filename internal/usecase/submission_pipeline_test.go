package usecase_test

import (
	"errors"
	"strings"
	"testing"

	"docrequest/internal/domain"
	"docrequest/internal/usecase"
)

func TestSubmitStoresFilesAndArchives(t *testing.T) {
	f := newFixture(t)
	campaign, req, _ := f.sentRequest(true)
	id := req.Evidence[0].ID

	res, err := f.submit(req, id)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(res.Submission.Files) != 1 {
		t.Fatalf("expected one file, got %d", len(res.Submission.Files))
	}
	file := res.Submission.Files[0]
	if !strings.HasPrefix(file.StoredName, file.ID+"_") || file.Size == 0 {
		t.Fatalf("unexpected stored file %+v", file)
	}
	if file.ArchivePath == "" || !strings.Contains(file.ArchivePath, campaign.ControlCode) {
		t.Fatalf("expected archive path under the control code, got %q", file.ArchivePath)
	}
	if len(f.files.saved) != 1 {
		t.Fatalf("expected file on disk, got %d", len(f.files.saved))
	}
	item, _ := f.evidence.Get(f.ctx, id)
	if item.Status != domain.EvidenceSubmitted || item.ArchiveURL == "" || item.MimeType != "application/pdf" {
		t.Fatalf("unexpected evidence %+v", item)
	}
	actions := f.auditActions()
	for _, want := range []domain.AuditAction{domain.AuditSubmissionCreated, domain.AuditFileUploaded, domain.AuditEvidenceSubmitted, domain.AuditFileArchived} {
		if !hasAction(actions, want) {
			t.Fatalf("missing %s in %v", want, actions)
		}
	}

	subs, err := f.submissions.ListByRequest(f.ctx, req.ID)
	if err != nil || len(subs) != 1 {
		t.Fatalf("list submissions: %v (%d)", err, len(subs))
	}
}

func TestArchiveFailureDoesNotFailSubmission(t *testing.T) {
	f := newFixture(t)
	_, req, _ := f.sentRequest(true)
	f.notifier.archiveErr = errors.New("sharepoint down")

	res, err := f.submit(req, req.Evidence[0].ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.RequestStatus != domain.RequestSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", res.RequestStatus)
	}
	if res.Submission.Files[0].ArchivePath != "" {
		t.Fatal("archive path must stay empty when archival fails")
	}
	if hasAction(f.auditActions(), domain.AuditFileArchived) {
		t.Fatal("FILE_ARCHIVED must not be recorded on failure")
	}
}

func TestSubmitRejectsForeignEvidenceBeforeWriting(t *testing.T) {
	f := newFixture(t)
	_, req, _ := f.sentRequest(true)
	other := f.addRequest(req.CampaignID)

	_, err := f.submit(req, req.Evidence[0].ID, other.Evidence[0].ID)
	expectKind(t, err, domain.ErrValidation)
	if len(f.files.saved) != 0 {
		t.Fatal("no file may be written when the batch is invalid")
	}
	item, _ := f.evidence.Get(f.ctx, req.Evidence[0].ID)
	if item.Status != domain.EvidencePending {
		t.Fatalf("evidence must stay PENDING, got %s", item.Status)
	}
}

func TestSubmitRefusesValidatedEvidence(t *testing.T) {
	f := newFixture(t)
	_, req, _ := f.sentRequest(true, true)
	if _, err := f.submit(req, req.Evidence[0].ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.evidence.Validate(f.ctx, req.Evidence[0].ID, owner); err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err := f.submit(f.request(req.ID), req.Evidence[0].ID)
	expectKind(t, err, domain.ErrConflict)
}

func TestSubmitRollsBackWhenEvidenceIsValidatedMidBatch(t *testing.T) {
	f := newFixture(t)
	_, req, _ := f.sentRequest(true, true)
	first, second := req.Evidence[0].ID, req.Evidence[1].ID

	// A reviewer validates the second item while the first file is being stored.
	f.files.onSave = func(n int) {
		if n != 1 {
			return
		}
		item, err := f.store.Evidence().Get(f.ctx, second)
		if err != nil {
			t.Fatalf("get evidence: %v", err)
		}
		item.Status = domain.EvidenceValidated
		if ok, err := f.store.Evidence().UpdateIfStatus(f.ctx, item, []domain.EvidenceStatus{domain.EvidencePending}); err != nil || !ok {
			t.Fatalf("force validate: ok=%v err=%v", ok, err)
		}
	}

	_, err := f.submit(req, first, second)
	expectKind(t, err, domain.ErrConflict)

	if len(f.files.saved) != 0 {
		t.Fatalf("stored files must be removed, %d left", len(f.files.saved))
	}
	subs, err := f.submissions.ListByRequest(f.ctx, req.ID)
	if err != nil || len(subs) != 0 {
		t.Fatalf("no submission may be recorded: %v (%d)", err, len(subs))
	}
	item, _ := f.evidence.Get(f.ctx, first)
	if item.Status != domain.EvidencePending || item.FileSize != nil {
		t.Fatalf("first evidence must be untouched, got %+v", item)
	}
	if got := f.request(req.ID).Status; got != domain.RequestSent {
		t.Fatalf("request status must not change, got %s", got)
	}
	if hasAction(f.auditActions(), domain.AuditSubmissionCreated) {
		t.Fatal("SUBMISSION_CREATED must not be recorded for a rolled back batch")
	}
}

func TestSubmitDiscardsStoredFilesWhenStorageFails(t *testing.T) {
	f := newFixture(t)
	_, req, _ := f.sentRequest(true, true)
	f.files.failOn = 2

	if _, err := f.submit(req, req.Evidence[0].ID, req.Evidence[1].ID); err == nil {
		t.Fatal("expected storage error")
	}
	if len(f.files.saved) != 0 {
		t.Fatalf("stored files must be removed, %d left", len(f.files.saved))
	}
	subs, _ := f.submissions.ListByRequest(f.ctx, req.ID)
	if len(subs) != 0 {
		t.Fatalf("no submission may be recorded, got %d", len(subs))
	}
	item, _ := f.evidence.Get(f.ctx, req.Evidence[0].ID)
	if item.Status != domain.EvidencePending {
		t.Fatalf("evidence must stay PENDING, got %s", item.Status)
	}
}

func TestSubmitRefusesClosedRequestAndEmptyBatch(t *testing.T) {
	f := newFixture(t)
	_, req, _ := f.sentRequest(true)

	_, err := f.submit(req)
	expectKind(t, err, domain.ErrValidation)

	if _, err := f.submit(req, req.Evidence[0].ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.evidence.Validate(f.ctx, req.Evidence[0].ID, owner); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := f.requests.Close(f.ctx, req.ID, owner); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err = f.submit(req, req.Evidence[0].ID)
	expectKind(t, err, domain.ErrRequestClosed)
}

func TestSubmitLimitsFileCount(t *testing.T) {
	f := newFixture(t)
	_, req, _ := f.sentRequest(true)
	ids := make([]string, usecase.MaxFilesPerSubmission+1)
	for i := range ids {
		ids[i] = req.Evidence[0].ID
	}
	_, err := f.submit(req, ids...)
	expectKind(t, err, domain.ErrValidation)
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":              "report.pdf",
		"../../etc/passwd":        "passwd",
		`C:\Users\me\plan v2.xls`: "plan_v2.xls",
		"informe año.docx":        "informe_a_o.docx",
		"..":                      "file",
	}
	for in, want := range cases {
		if got := usecase.SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
