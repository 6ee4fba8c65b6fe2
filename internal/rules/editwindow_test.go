package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanWriteWindowBoundary(t *testing.T) {
	today := NewDate(2024, time.May, 10)
	window := 3

	atBoundary := CanWrite(today.AddDays(-window), today, RoleEmployee, window, false)
	assert.True(t, atBoundary.Allowed, "exactly window days back is still editable")

	outside := CanWrite(today.AddDays(-window-1), today, RoleEmployee, window, false)
	assert.False(t, outside.Allowed)
	assert.Equal(t, ReasonOutsideEditWindow, outside.Reason)

	sameDay := CanWrite(today, today, RoleEmployee, window, false)
	assert.True(t, sameDay.Allowed)
}

func TestCanWriteFutureDates(t *testing.T) {
	today := NewDate(2024, time.May, 10)
	tomorrow := today.AddDays(1)

	denied := CanWrite(tomorrow, today, RoleEmployee, 3, false)
	assert.False(t, denied.Allowed)
	assert.Equal(t, ReasonFutureDateNotAllowed, denied.Reason)

	allowed := CanWrite(tomorrow, today, RoleEmployee, 3, true)
	assert.True(t, allowed.Allowed)
}

func TestAdminBypassesAllWindowRules(t *testing.T) {
	today := NewDate(2024, time.May, 10)

	for _, offset := range []int{-365, -4, 0, 30} {
		decision := CanWrite(today.AddDays(offset), today, RoleAdmin, 3, false)
		assert.True(t, decision.Allowed, "admin must be allowed at offset %d", offset)
		assert.Empty(t, decision.Reason)
	}
}

func TestInspectionFollowsNormalRules(t *testing.T) {
	today := NewDate(2024, time.May, 10)

	inside := CanWrite(today.AddDays(-2), today, RoleInspection, 3, false)
	assert.True(t, inside.Allowed)

	outside := CanWrite(today.AddDays(-10), today, RoleInspection, 3, false)
	assert.False(t, outside.Allowed)
	assert.Equal(t, ReasonOutsideEditWindow, outside.Reason)
}
