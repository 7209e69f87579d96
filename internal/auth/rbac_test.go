package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role   Role
		action Permission
		want   bool
	}{
		{RoleAdmin, PermCreate, true},
		{RoleAdmin, PermDelete, true},
		{RoleManager, PermRead, true},
		{RoleManager, PermExport, true},
		{RoleManager, PermAnalyze, true},
		{RoleManager, PermCreate, false},
		{RoleManager, PermDelete, false},
		{RoleUser, PermRead, true},
		{RoleUser, PermExport, false},
		{RoleUser, PermAnalyze, false},
		{Role("intruso"), PermRead, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasPermission(tt.role, tt.action),
			"role=%s action=%s", tt.role, tt.action)
	}
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("admin"))
	assert.True(t, ValidRole("gestor"))
	assert.True(t, ValidRole("usuario"))
	assert.False(t, ValidRole("root"))
	assert.False(t, ValidRole(""))
}
