package accessservice

import (
	"strings"

	"github.com/sushihentaime/sharedblog/internal/common"
)

// ParsePermissionType accepts "full_access", "FULL_ACCESS" and "Full Access" style spellings.
func ParsePermissionType(s string) PermissionType {
	s = strings.ToLower(strings.TrimSpace(s))
	return PermissionType(strings.ReplaceAll(s, " ", "_"))
}

func validatePermissionType(v *common.Validator, p PermissionType) {
	v.Check(p != "", "permission_type", "must be provided")
	v.Check(common.PermittedValue(p, PermissionFullAccess, PermissionWatchOnly), "permission_type", "must be one of full_access or watch_only")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
