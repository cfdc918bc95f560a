package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"READER", "JOURNALIST", "EDITOR"} {
		role, err := ParseRole(raw)
		require.NoError(t, err)
		require.Equal(t, Role(raw), role)
	}
	for _, raw := range []string{"", "reader", "ADMIN", "MODERATOR"} {
		_, err := ParseRole(raw)
		require.ErrorIs(t, err, ErrUnknownRole, "raw %q", raw)
	}
}

func TestPredicatesAreNilSafe(t *testing.T) {
	var u *User
	require.False(t, u.IsAdmin())
	require.False(t, u.IsReader())
	require.False(t, u.IsJournalist())
	require.False(t, u.IsEditor())
	require.False(t, u.RoleKnown())
}

func TestPredicatesMatchSingleRole(t *testing.T) {
	cases := []struct {
		role                       Role
		reader, journalist, editor bool
	}{
		{RoleReader, true, false, false},
		{RoleJournalist, false, true, false},
		{RoleEditor, false, false, true},
	}
	for _, tc := range cases {
		u := &User{Role: tc.role}
		require.Equal(t, tc.reader, u.IsReader(), "role %s", tc.role)
		require.Equal(t, tc.journalist, u.IsJournalist(), "role %s", tc.role)
		require.Equal(t, tc.editor, u.IsEditor(), "role %s", tc.role)
		require.True(t, u.RoleKnown())
	}
}

func TestUnknownRoleFailsEveryPredicate(t *testing.T) {
	u := &User{Role: Role("MODERATOR")}
	require.False(t, u.IsReader())
	require.False(t, u.IsJournalist())
	require.False(t, u.IsEditor())
	require.False(t, u.RoleKnown())
}

func TestAdminFlagIsOrthogonalToRole(t *testing.T) {
	u := &User{Role: RoleReader, Superuser: true}
	require.True(t, u.IsAdmin())
	require.True(t, u.IsReader())
	require.False(t, u.IsEditor())
}
