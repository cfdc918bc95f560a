package editorial

import (
	"github.com/newsdesk/newsdesk/internal/identity"
)

// Action enumerates the operations subject to authorization.
type Action string

const (
	ActionList    Action = "list"
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Reason explains a denial so the surface can pick a rejection shape.
type Reason string

const (
	ReasonUnauthenticated   Reason = "unauthenticated"
	ReasonInsufficientRole  Reason = "insufficient_role"
	ReasonNotOwner          Reason = "not_owner"
	ReasonInvalidState      Reason = "invalid_state"
	ReasonIllegalTransition Reason = "illegal_transition"
	ReasonDataIntegrity     Reason = "data_integrity"
)

// Resource carries the object-level facts an evaluation needs: who owns
// the content item and where it sits in the lifecycle. Collection-level
// actions pass nil.
type Resource struct {
	OwnerID int64
	Status  Status
}

// Decision is the ephemeral result of an evaluation. Never persisted.
type Decision struct {
	Allow  bool
	Reason Reason
}

func allow() Decision             { return Decision{Allow: true} }
func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Evaluate applies the ordered permission rule table. It is a pure
// function of its arguments: the identity arrives with its role loaded,
// the resource with its lifecycle facts, and nothing is mutated.
//
// Rule order, first match wins:
//  1. admin superuser: allow everything
//  2. authenticated identity with an unrecognized role: fail closed
//  3. per-action rules (role gate, then ownership, then lifecycle state)
func Evaluate(user *identity.User, action Action, res *Resource) Decision {
	if user != nil && user.IsAdmin() {
		return allow()
	}
	if user != nil && !user.RoleKnown() {
		return deny(ReasonDataIntegrity)
	}

	switch action {
	case ActionList:
		// Listing is always permitted; visibility is narrowed by
		// ListScope so unauthenticated callers only see approved
		// content.
		return allow()

	case ActionRead:
		if user == nil {
			return deny(ReasonUnauthenticated)
		}
		return allow()

	case ActionCreate:
		if user == nil {
			return deny(ReasonUnauthenticated)
		}
		if user.IsJournalist() || user.IsEditor() {
			return allow()
		}
		return deny(ReasonInsufficientRole)

	case ActionUpdate, ActionDelete:
		if user == nil {
			return deny(ReasonUnauthenticated)
		}
		if user.IsEditor() {
			return allow()
		}
		if !user.IsJournalist() {
			return deny(ReasonInsufficientRole)
		}
		if res == nil || res.OwnerID != user.ID {
			return deny(ReasonNotOwner)
		}
		// Journalists lose write access once their article is
		// approved; fixes to published content are editorial.
		if res.Status == StatusApproved {
			return deny(ReasonInvalidState)
		}
		return allow()

	case ActionSubmit:
		if user == nil {
			return deny(ReasonUnauthenticated)
		}
		// Submitting for review is the author's act alone; editors
		// do not submit on an author's behalf.
		if res == nil || res.OwnerID != user.ID {
			return deny(ReasonNotOwner)
		}
		if err := Transition(res.Status, StatusPending); err != nil {
			return deny(ReasonIllegalTransition)
		}
		return allow()

	case ActionApprove:
		if user == nil {
			return deny(ReasonUnauthenticated)
		}
		if !user.IsEditor() {
			return deny(ReasonInsufficientRole)
		}
		if res == nil {
			return deny(ReasonInvalidState)
		}
		switch res.Status {
		case StatusPending:
			return allow()
		case StatusApproved:
			// Approve is not an idempotent no-op: a second
			// attempt is a policy violation, reported as such.
			return deny(ReasonInvalidState)
		default:
			return deny(ReasonIllegalTransition)
		}

	case ActionReject:
		if user == nil {
			return deny(ReasonUnauthenticated)
		}
		if !user.IsEditor() {
			return deny(ReasonInsufficientRole)
		}
		if res == nil || Transition(res.Status, StatusDraft) != nil {
			return deny(ReasonIllegalTransition)
		}
		return allow()
	}

	return deny(ReasonInsufficientRole)
}

// Scope narrows which articles a listing may include.
type Scope int

const (
	// ScopeApprovedOnly restricts the listing to approved content.
	ScopeApprovedOnly Scope = iota
	// ScopeOwnOrApproved adds the caller's own articles in any state.
	ScopeOwnOrApproved
	// ScopeAll includes every article regardless of state.
	ScopeAll
)

// ListScope returns the listing visibility for the given identity.
func ListScope(user *identity.User) Scope {
	switch {
	case user.IsAdmin(), user.IsEditor():
		return ScopeAll
	case user.IsJournalist():
		return ScopeOwnOrApproved
	default:
		return ScopeApprovedOnly
	}
}
