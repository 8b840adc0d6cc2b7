package accessservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/sharedblog/internal/common"
)

func TestParsePermissionType(t *testing.T) {
	testCases := []struct {
		input string
		want  PermissionType
	}{
		{input: "full_access", want: PermissionFullAccess},
		{input: "FULL_ACCESS", want: PermissionFullAccess},
		{input: "Full Access", want: PermissionFullAccess},
		{input: " Watch Only ", want: PermissionWatchOnly},
		{input: "watch_only", want: PermissionWatchOnly},
		{input: "admin", want: PermissionType("admin")},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ParsePermissionType(tc.input))
		})
	}
}

func TestValidatePermissionType(t *testing.T) {
	testCases := []struct {
		name  string
		input PermissionType
		want  map[string]string
	}{
		{name: "full access", input: PermissionFullAccess, want: map[string]string{}},
		{name: "watch only", input: PermissionWatchOnly, want: map[string]string{}},
		{name: "empty", input: "", want: map[string]string{"permission_type": "must be provided"}},
		{name: "unknown", input: "owner", want: map[string]string{"permission_type": "must be one of full_access or watch_only"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validatePermissionType(v, tc.input)
			assert.Equal(t, tc.want, v.Errors)
		})
	}
}

func TestPermissionLabel(t *testing.T) {
	assert.Equal(t, "Full Access", PermissionFullAccess.Label())
	assert.Equal(t, "Watch Only", PermissionWatchOnly.Label())
	assert.Equal(t, "other", PermissionType("other").Label())
}
