package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcer_Roles(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	tests := []struct {
		role, resource, action string
		want                   bool
	}{
		{RoleAdmin, ResourceCompanies, ActionWrite, true},
		{RoleAdmin, ResourceCompanies, ActionIngest, true},
		{RoleAdmin, ResourceNotifications, ActionSend, true},
		{RoleAdmin, "recommendations", "write", true},
		{RoleUser, "recommendations", "write", true},
		{RoleUser, ResourceNotifications, "read", true},
		{RoleUser, ResourceCompanies, ActionWrite, false},
		{RoleUser, ResourceNotifications, ActionSend, false},
		{"", ResourceCompanies, "read", false},
		{"guest", ResourceCompanies, "read", false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.resource+"/"+tt.action, func(t *testing.T) {
			got, err := e.Allowed(tt.role, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
