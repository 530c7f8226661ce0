package model

import "time"

type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusContacted    LeadStatus = "contacted"
	LeadStatusQualified    LeadStatus = "qualified"
	LeadStatusProposalSent LeadStatus = "proposal_sent"
	LeadStatusWon          LeadStatus = "won"
	LeadStatusLost         LeadStatus = "lost"
)

func ValidLeadStatus(s string) bool {
	switch LeadStatus(s) {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusProposalSent, LeadStatusWon, LeadStatusLost:
		return true
	}
	return false
}

// Priority is shared by leads and tasks.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func ValidPriority(s string) bool {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type LeadSource string

const (
	LeadSourceWebsiteForm LeadSource = "website_form"
	LeadSourceManual      LeadSource = "manual"
	LeadSourceImport      LeadSource = "import"
)

func ValidLeadSource(s string) bool {
	switch LeadSource(s) {
	case LeadSourceWebsiteForm, LeadSourceManual, LeadSourceImport:
		return true
	}
	return false
}

type Lead struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          *string    `json:"phone,omitempty"`
	Location       string     `json:"location"`
	Industry       string     `json:"industry"`
	BusinessType   string     `json:"businessType"`
	Challenge      string     `json:"challenge"`
	Message        string     `json:"message"`
	Status         LeadStatus `json:"status"`
	Priority       Priority   `json:"priority"`
	AssignedTo     *string    `json:"assignedTo,omitempty"`
	EstimatedValue *int64     `json:"estimatedValue,omitempty"`
	Source         LeadSource `json:"source"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"-"`
}
