package editorial

import "errors"

// Status is the editorial lifecycle state of a content item.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
)

var (
	// ErrIllegalTransition indicates a state change that skips or
	// reverses a step of the lifecycle.
	ErrIllegalTransition = errors.New("editorial: illegal state transition")
)

// Valid reports whether the status belongs to the lifecycle.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved:
		return true
	}
	return false
}

// IsDraft reports the draft state. The predicates exist for templates,
// which cannot compare Status against untyped string constants.
func (s Status) IsDraft() bool { return s == StatusDraft }

// IsPending reports the pending state.
func (s Status) IsPending() bool { return s == StatusPending }

// IsApproved reports the approved state.
func (s Status) IsApproved() bool { return s == StatusApproved }

// CanTransition reports whether from -> to is a legal lifecycle step.
// The only backward edge is the editor's reject, returning a pending
// article to draft; everything else advances.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusPending
	case StatusPending:
		return to == StatusApproved || to == StatusDraft
	case StatusApproved:
		return false
	}
	return false
}

// Transition validates a lifecycle step. Illegal attempts are reported,
// never silently dropped.
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return ErrIllegalTransition
	}
	return nil
}
