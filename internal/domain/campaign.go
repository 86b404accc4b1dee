package domain

import (
	"sort"
	"strings"
	"time"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignCompleted CampaignStatus = "COMPLETED"
	CampaignArchived  CampaignStatus = "ARCHIVED"
)

const (
	DefaultReminderFrequencyDays = 3
	DefaultMaxReminders          = 5
	DefaultReminderStartDays     = 2
)

type ReminderPolicy struct {
	FrequencyDays  int `json:"frequency_days"`
	MaxReminders   int `json:"max_reminders"`
	StartAfterDays int `json:"start_after_days"`
}

func DefaultReminderPolicy() ReminderPolicy {
	return ReminderPolicy{
		FrequencyDays:  DefaultReminderFrequencyDays,
		MaxReminders:   DefaultMaxReminders,
		StartAfterDays: DefaultReminderStartDays,
	}
}

func (p ReminderPolicy) Validate() error {
	if p.FrequencyDays < 1 {
		return Validation("reminder_policy.frequency_days must be at least 1", nil)
	}
	if p.MaxReminders < 0 {
		return Validation("reminder_policy.max_reminders must not be negative", nil)
	}
	if p.StartAfterDays < 0 {
		return Validation("reminder_policy.start_after_days must not be negative", nil)
	}
	return nil
}

type EscalationLevel struct {
	Level          int    `json:"level"`
	AfterReminders int    `json:"after_reminders"`
	CCDelegate     bool   `json:"cc_delegate"`
	CCSuperior     bool   `json:"cc_superior"`
	SuperiorEmail  string `json:"superior_email,omitempty"`
}

type EscalationPolicy struct {
	Levels []EscalationLevel `json:"levels"`
}

func DefaultEscalationPolicy() EscalationPolicy {
	return EscalationPolicy{Levels: []EscalationLevel{
		{Level: 1, AfterReminders: 0},
		{Level: 2, AfterReminders: 2, CCDelegate: true},
	}}
}

func (p EscalationPolicy) Validate() error {
	seen := make(map[int]struct{}, len(p.Levels))
	for _, lvl := range p.Levels {
		if lvl.Level < 1 {
			return Validation("escalation level must be at least 1", map[string]any{"level": lvl.Level})
		}
		if lvl.AfterReminders < 0 {
			return Validation("escalation after_reminders must not be negative", map[string]any{"level": lvl.Level})
		}
		if lvl.CCSuperior && strings.TrimSpace(lvl.SuperiorEmail) == "" {
			return Validation("superior_email is required when cc_superior is set", map[string]any{"level": lvl.Level})
		}
		if _, dup := seen[lvl.Level]; dup {
			return Validation("duplicate escalation level", map[string]any{"level": lvl.Level})
		}
		seen[lvl.Level] = struct{}{}
	}
	return nil
}

// Sorted returns the levels ordered by ascending after_reminders threshold.
func (p EscalationPolicy) Sorted() []EscalationLevel {
	out := make([]EscalationLevel, len(p.Levels))
	copy(out, p.Levels)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AfterReminders < out[j].AfterReminders
	})
	return out
}

// LevelFor picks the level with the highest threshold reached by reminderCount.
func (p EscalationPolicy) LevelFor(reminderCount int) EscalationLevel {
	selected := EscalationLevel{Level: 1}
	for _, lvl := range p.Sorted() {
		if lvl.AfterReminders <= reminderCount {
			selected = lvl
		}
	}
	return selected
}

type Campaign struct {
	ID               string
	Name             string
	ControlCode      string
	Description      string
	OwnerUserID      string
	BackupUserID     string
	StartDate        time.Time
	EndDate          time.Time
	ReminderPolicy   ReminderPolicy
	EscalationPolicy EscalationPolicy
	EmailTemplate    string
	Status           CampaignStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OwnedBy reports whether userID is the owner or the backup owner.
func (c Campaign) OwnedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return c.OwnerUserID == userID || c.BackupUserID == userID
}
