package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy{}

	tests := []struct {
		role  Role
		from  domain.Status
		to    domain.Status
		allow bool
	}{
		{RoleAdmin, domain.StatusConfirmed, domain.StatusCancelled, true},
		{RoleOwner, domain.StatusPending, domain.StatusConfirmed, true},
		{RoleOperator, domain.StatusPending, domain.StatusConfirmed, true},
		{RoleOperator, domain.StatusConfirmed, domain.StatusCompleted, true},
		{RoleOperator, domain.StatusConfirmed, domain.StatusCancelled, false},
		{RoleOperator, domain.StatusPending, domain.StatusCancelled, false},
		{RoleCustomer, domain.StatusConfirmed, domain.StatusCancelled, true},
		{RoleCustomer, domain.StatusPending, domain.StatusCancelled, true},
		{RoleCustomer, domain.StatusPending, domain.StatusConfirmed, false},
		{RoleCustomer, domain.StatusConfirmed, domain.StatusCompleted, false},
		{Role("guest"), domain.StatusConfirmed, domain.StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.allow, policy.Allow(tt.role, tt.from, tt.to))
		})
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("operator")
	require.NoError(t, err)
	assert.Equal(t, RoleOperator, role)

	_, err = ParseRole("janitor")
	assert.Equal(t, domain.KindBusinessRule, domain.KindOf(err))
}
