// ABOUTME: Tests for calendar sharing, publish flags, and preferences
// ABOUTME: Covers ACL uniqueness and the value semantics of preference updates

package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundial-labs/sundial/internal/store"
)

func TestACLAddRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	calID := newTestCalendar(t, svc, "Team")

	entry, err := svc.ACLAdd(calID, "ana@example.com", "editor")
	require.NoError(t, err)
	assert.Equal(t, "editor", entry.Role)

	_, err = svc.ACLAdd(calID, "ana@example.com", "viewer")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.ACLAdd(calID, "", "viewer")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestACLSetRoleAndRemove(t *testing.T) {
	svc := newTestService(t)
	calID := newTestCalendar(t, svc, "Team")

	_, err := svc.ACLAdd(calID, "ana@example.com", "viewer")
	require.NoError(t, err)

	entry, err := svc.ACLSetRole(calID, "ana@example.com", "owner")
	require.NoError(t, err)
	assert.Equal(t, "owner", entry.Role)

	require.NoError(t, svc.ACLRemove(calID, "ana@example.com"))

	entries, err := svc.ACLList(calID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = svc.ACLRemove(calID, "ana@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.ACLSetRole(calID, "bob@example.com", "viewer")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPublishAndPrivacyFlags(t *testing.T) {
	svc := newTestService(t)
	calID := newTestCalendar(t, svc, "Public")

	cal, err := svc.PublishICS(calID, true)
	require.NoError(t, err)
	assert.True(t, cal.Settings.ICSPublished)

	cal, err = svc.SetPrivacyBusyOnly(calID, true)
	require.NoError(t, err)
	assert.True(t, cal.Settings.PrivacyBusyOnly)
	assert.True(t, cal.Settings.ICSPublished, "privacy toggle must not clobber publish flag")

	cal, err = svc.PublishICS(calID, false)
	require.NoError(t, err)
	assert.False(t, cal.Settings.ICSPublished)
}

func TestPreferencesSetters(t *testing.T) {
	svc := newTestService(t)
	calID := newTestCalendar(t, svc, "Home")

	prefs, err := svc.PreferencesGet()
	require.NoError(t, err)
	assert.Equal(t, "UTC", prefs.Timezone)
	assert.Equal(t, 60, prefs.DefaultDuration)

	_, err = svc.PreferencesSetTimezone("Europe/Madrid")
	require.NoError(t, err)
	_, err = svc.PreferencesSetWorkHours("08:30", "16:30")
	require.NoError(t, err)
	prefs, err = svc.PreferencesSetDefaultCalendar(calID)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Madrid", prefs.Timezone)
	assert.Equal(t, "08:30", prefs.WorkHours.Start)
	assert.Equal(t, calID, prefs.DefaultCalendarID)

	_, err = svc.PreferencesSetDefaultCalendar("cal_9999")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.PreferencesSetDefaultDuration(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPreferencesGetReturnsCopy(t *testing.T) {
	svc := newTestService(t)

	prefs, err := svc.PreferencesGet()
	require.NoError(t, err)
	prefs.Timezone = "Mars/Olympus"

	fresh, err := svc.PreferencesGet()
	require.NoError(t, err)
	assert.Equal(t, "UTC", fresh.Timezone)
}
