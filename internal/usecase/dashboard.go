package usecase

import (
	"context"
	"math"

	"docrequest/internal/domain"
)

type CampaignDashboard struct {
	CampaignID          string         `json:"campaign_id"`
	ControlCode         string         `json:"control_code"`
	Status              string         `json:"status"`
	TotalRequests       int            `json:"total_requests"`
	ByStatus            map[string]int `json:"by_status"`
	CompletionRate      float64        `json:"completion_rate"`
	OverdueCount        int            `json:"overdue_count"`
	EvidenceTotal       int            `json:"evidence_total"`
	EvidenceByStatus    map[string]int `json:"evidence_by_status"`
	TotalRemindersSent  int            `json:"total_reminders_sent"`
	AverageResponseDays float64        `json:"average_response_days"`
}

type DashboardService struct {
	Campaigns CampaignReader
	Requests  RequestRepository
}

func NewDashboardService(campaigns CampaignReader, requests RequestRepository) *DashboardService {
	return &DashboardService{Campaigns: campaigns, Requests: requests}
}

func (s *DashboardService) Campaign(ctx context.Context, campaignID string) (CampaignDashboard, error) {
	campaign, err := s.Campaigns.Get(ctx, campaignID)
	if err != nil {
		return CampaignDashboard{}, err
	}
	requests, err := s.Requests.List(ctx, RequestFilter{CampaignID: campaignID})
	if err != nil {
		return CampaignDashboard{}, err
	}
	return BuildDashboard(campaign, requests), nil
}

func BuildDashboard(campaign domain.Campaign, requests []domain.Request) CampaignDashboard {
	out := CampaignDashboard{
		CampaignID:       campaign.ID,
		ControlCode:      campaign.ControlCode,
		Status:           string(campaign.Status),
		TotalRequests:    len(requests),
		ByStatus:         make(map[string]int),
		EvidenceByStatus: make(map[string]int),
	}
	var closed int
	var responseDays float64
	for _, req := range requests {
		out.ByStatus[string(req.Status)]++
		out.TotalRemindersSent += req.ReminderCount
		if req.Status == domain.RequestOverdue {
			out.OverdueCount++
		}
		if req.Status == domain.RequestClosed {
			closed++
			if req.ClosedAt != nil {
				responseDays += req.ClosedAt.Sub(req.CreatedAt).Hours() / 24
			}
		}
		for _, item := range req.Evidence {
			out.EvidenceTotal++
			out.EvidenceByStatus[string(item.Status)]++
		}
	}
	if out.TotalRequests > 0 {
		out.CompletionRate = round1(float64(closed) / float64(out.TotalRequests) * 100)
	}
	if closed > 0 {
		out.AverageResponseDays = round1(responseDays / float64(closed))
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
