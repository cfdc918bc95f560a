package editorial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusDraft, StatusPending, true},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusDraft, true},
		{StatusDraft, StatusApproved, false},
		{StatusDraft, StatusDraft, false},
		{StatusApproved, StatusDraft, false},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusApproved, false},
		{Status("RETIRED"), StatusDraft, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionReportsIllegalSteps(t *testing.T) {
	require.NoError(t, Transition(StatusDraft, StatusPending))
	require.ErrorIs(t, Transition(StatusDraft, StatusApproved), ErrIllegalTransition)
	require.ErrorIs(t, Transition(StatusApproved, StatusDraft), ErrIllegalTransition)
}

func TestStatusValid(t *testing.T) {
	require.True(t, StatusDraft.Valid())
	require.True(t, StatusPending.Valid())
	require.True(t, StatusApproved.Valid())
	require.False(t, Status("").Valid())
	require.False(t, Status("LIVE").Valid())
}
