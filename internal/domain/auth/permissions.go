package auth

const (
	PermLedgerRead       = "ledger.read"
	PermLedgerWrite      = "ledger.write"
	PermAccountsRead     = "accounts.read"
	PermAccountsManage   = "accounts.manage"
	PermAttendanceSelf   = "attendance.self"
	PermAttendanceManage = "attendance.manage"
	PermLeaveSelf        = "leave.self"
	PermLeaveReview      = "leave.review"
	PermPayrollSelf      = "payroll.self"
	PermPayrollManage    = "payroll.manage"
	PermAuditRead        = "audit.read"
	PermMetricsRead      = "metrics.read"
)

var DefaultPermissions = []string{
	PermLedgerRead,
	PermLedgerWrite,
	PermAccountsRead,
	PermAccountsManage,
	PermAttendanceSelf,
	PermAttendanceManage,
	PermLeaveSelf,
	PermLeaveReview,
	PermPayrollSelf,
	PermPayrollManage,
	PermAuditRead,
	PermMetricsRead,
}

var RolePermissions = map[Role][]string{
	RoleEmployee: {
		PermAttendanceSelf,
		PermLeaveSelf,
		PermPayrollSelf,
	},
	RoleAdmin: DefaultPermissions,
}

func HasPermission(role Role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}
