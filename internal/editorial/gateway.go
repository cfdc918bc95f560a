package editorial

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/newsdesk/newsdesk/internal/identity"
)

// Denial is the error returned by the gateway when an action is refused.
// It carries the evaluator's reason plus a suggested disposition so each
// surface can shape its rejection without re-deriving policy.
type Denial struct {
	Action  Action
	Reason  Reason
	conceal bool
}

func (d *Denial) Error() string {
	return fmt.Sprintf("editorial: %s denied (%s)", d.Action, d.Reason)
}

// StatusCode maps the denial onto an API-surface status code.
// Lifecycle conflicts are 409 so clients can distinguish "not allowed"
// from "not allowed right now".
func (d *Denial) StatusCode() int {
	switch {
	case d.Reason == ReasonUnauthenticated:
		return http.StatusUnauthorized
	case d.Reason == ReasonInvalidState, d.Reason == ReasonIllegalTransition:
		return http.StatusConflict
	case d.Reason == ReasonDataIntegrity:
		return http.StatusInternalServerError
	case d.conceal:
		return http.StatusNotFound
	default:
		return http.StatusForbidden
	}
}

// RequiresLogin reports whether the page surface should redirect the
// caller to authentication instead of rendering a refusal.
func (d *Denial) RequiresLogin() bool {
	return d.Reason == ReasonUnauthenticated
}

// Conceal reports whether the surface should answer as if the target did
// not exist, so an outsider cannot enumerate other authors' unpublished
// work.
func (d *Denial) Conceal() bool {
	return d.conceal
}

// Gateway is the single enforcement boundary. Both the page surface and
// the API surface funnel every protected action through Enforce; nothing
// else calls the evaluator.
type Gateway struct {
	logger          *slog.Logger
	concealNotOwner bool
}

// GatewayOption customizes gateway policy.
type GatewayOption func(*Gateway)

// WithConcealment toggles not-found-style concealment of ownership
// denials on object-level actions.
func WithConcealment(enabled bool) GatewayOption {
	return func(g *Gateway) { g.concealNotOwner = enabled }
}

// NewGateway constructs a Gateway. Concealment is on by default.
func NewGateway(logger *slog.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{logger: logger, concealNotOwner: true}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enforce evaluates the action and returns nil on allow or a *Denial on
// deny. A data-integrity denial is additionally logged: it means the
// identity record is corrupted, not that policy said no.
func (g *Gateway) Enforce(user *identity.User, action Action, res *Resource) error {
	decision := Evaluate(user, action, res)
	if decision.Allow {
		return nil
	}
	if decision.Reason == ReasonDataIntegrity && g.logger != nil {
		g.logger.Error("identity with unrecognized role",
			slog.Int64("user_id", user.ID),
			slog.String("role", string(user.Role)),
			slog.String("action", string(action)))
	}
	return &Denial{
		Action:  action,
		Reason:  decision.Reason,
		conceal: g.concealNotOwner && decision.Reason == ReasonNotOwner,
	}
}

// AsDenial unwraps a gateway error.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
