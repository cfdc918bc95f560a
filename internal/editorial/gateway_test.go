package editorial

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/internal/identity"
)

func TestEnforceAllowReturnsNil(t *testing.T) {
	g := NewGateway(slog.Default())
	require.NoError(t, g.Enforce(editor(), ActionApprove, &Resource{Status: StatusPending}))
}

func TestEnforceDenialStatusCodes(t *testing.T) {
	g := NewGateway(slog.Default())

	err := g.Enforce(nil, ActionRead, &Resource{Status: StatusApproved})
	denial, ok := AsDenial(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, denial.StatusCode())
	require.True(t, denial.RequiresLogin())

	err = g.Enforce(reader(), ActionCreate, nil)
	denial, ok = AsDenial(err)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, denial.StatusCode())
	require.False(t, denial.RequiresLogin())

	err = g.Enforce(journalist(), ActionUpdate, &Resource{OwnerID: 2, Status: StatusApproved})
	denial, ok = AsDenial(err)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, denial.StatusCode())

	err = g.Enforce(editor(), ActionApprove, &Resource{Status: StatusDraft})
	denial, ok = AsDenial(err)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, denial.StatusCode())
}

func TestEnforceConcealsOwnershipDenials(t *testing.T) {
	g := NewGateway(slog.Default())
	err := g.Enforce(journalist(), ActionUpdate, &Resource{OwnerID: 99, Status: StatusDraft})
	denial, ok := AsDenial(err)
	require.True(t, ok)
	require.True(t, denial.Conceal())
	require.Equal(t, http.StatusNotFound, denial.StatusCode())
}

func TestEnforceConcealmentDisabled(t *testing.T) {
	g := NewGateway(slog.Default(), WithConcealment(false))
	err := g.Enforce(journalist(), ActionUpdate, &Resource{OwnerID: 99, Status: StatusDraft})
	denial, ok := AsDenial(err)
	require.True(t, ok)
	require.False(t, denial.Conceal())
	require.Equal(t, http.StatusForbidden, denial.StatusCode())
}

func TestEnforceUnknownRoleIsServerError(t *testing.T) {
	g := NewGateway(slog.Default())
	user := &identity.User{ID: 5, Role: identity.Role("GHOST"), IsActive: true}
	err := g.Enforce(user, ActionRead, &Resource{Status: StatusApproved})
	denial, ok := AsDenial(err)
	require.True(t, ok)
	require.Equal(t, ReasonDataIntegrity, denial.Reason)
	require.Equal(t, http.StatusInternalServerError, denial.StatusCode())
}

func TestAsDenialRejectsOtherErrors(t *testing.T) {
	_, ok := AsDenial(ErrIllegalTransition)
	require.False(t, ok)
}
