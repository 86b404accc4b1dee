package memstore

import (
	"sync"

	"docrequest/internal/domain"
)

// Store keeps every aggregate in process memory. It backs no-db mode and tests.
type Store struct {
	mu            sync.RWMutex
	campaigns     map[string]domain.Campaign
	requests      map[string]domain.Request
	requestOrder  []string
	evidence      map[string]domain.EvidenceItem
	evidenceOrder map[string][]string
	submissions   map[string]domain.Submission
	subOrder      []string
	files         map[string]domain.SubmissionFile
	fileOrder     map[string][]string
	audit         []domain.AuditEntry
	users         map[string]domain.User
}

func New() *Store {
	return &Store{
		campaigns:     make(map[string]domain.Campaign),
		requests:      make(map[string]domain.Request),
		evidence:      make(map[string]domain.EvidenceItem),
		evidenceOrder: make(map[string][]string),
		submissions:   make(map[string]domain.Submission),
		files:         make(map[string]domain.SubmissionFile),
		fileOrder:     make(map[string][]string),
		users:         make(map[string]domain.User),
	}
}

func (s *Store) Campaigns() *CampaignRepository     { return &CampaignRepository{s: s} }
func (s *Store) Requests() *RequestRepository       { return &RequestRepository{s: s} }
func (s *Store) Evidence() *EvidenceRepository      { return &EvidenceRepository{s: s} }
func (s *Store) Submissions() *SubmissionRepository { return &SubmissionRepository{s: s} }
func (s *Store) Audit() *AuditRepository            { return &AuditRepository{s: s} }
func (s *Store) Users() *UserRepository             { return &UserRepository{s: s} }

func containsStatus[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
