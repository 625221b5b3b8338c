package enums

import "fmt"

// LeadStatus tracks delivery of an enquiry lead to the sales inbox.
type LeadStatus string

const (
	LeadStatusPending LeadStatus = "pending"
	LeadStatusSent    LeadStatus = "sent"
	LeadStatusFailed  LeadStatus = "failed"
)

var validLeadStatuses = []LeadStatus{
	LeadStatusPending,
	LeadStatusSent,
	LeadStatusFailed,
}

// String implements fmt.Stringer.
func (s LeadStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LeadStatus.
func (s LeadStatus) IsValid() bool {
	for _, candidate := range validLeadStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLeadStatus converts raw input into a LeadStatus.
func ParseLeadStatus(value string) (LeadStatus, error) {
	for _, candidate := range validLeadStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lead status %q", value)
}
