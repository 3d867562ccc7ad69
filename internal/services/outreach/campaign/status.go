package campaign

import "time"

// Status describes where a campaign is in its delivery lifecycle.
type Status string

const (
	// StatusDraft is an editable campaign that has not been launched.
	StatusDraft Status = "draft"
	// StatusScheduled has a frozen recipient snapshot and awaits delivery.
	StatusScheduled Status = "scheduled"
	// StatusSending is delivering to its recipients.
	StatusSending Status = "sending"
	// StatusSent delivered to at least one recipient.
	StatusSent Status = "sent"
	// StatusFailed delivered to nobody or was cancelled.
	StatusFailed Status = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

func isStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusScheduled || to == StatusFailed
	case StatusScheduled:
		return to == StatusSending || to == StatusFailed
	case StatusSending:
		return to == StatusSent || to == StatusFailed
	default:
		return false
	}
}

// Transition moves c to status to, stamping UpdatedAt.
func Transition(c Campaign, to Status, at time.Time) (Campaign, error) {
	if !isStatusTransitionAllowed(c.Status, to) {
		return c, invalidTransition(c.ID, c.Status, to)
	}
	c.Status = to
	c.UpdatedAt = at.UTC()
	return c, nil
}
