package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionTasksRead allows viewing task settings and configuration conflicts.
	PermissionTasksRead Permission = "tasks:read"

	// PermissionTasksWrite allows editing task time windows and disclosure modes.
	PermissionTasksWrite Permission = "tasks:write"

	// PermissionGradesRead allows viewing grade levels.
	PermissionGradesRead Permission = "grades:read"

	// PermissionGradesWrite allows creating, editing and deleting grade levels.
	PermissionGradesWrite Permission = "grades:write"

	// PermissionExtensionsWrite allows granting and revoking writing time extensions.
	PermissionExtensionsWrite Permission = "extensions:write"

	// PermissionStatisticsRead allows viewing correction statistics.
	PermissionStatisticsRead Permission = "statistics:read"

	// PermissionStatisticsExport allows downloading statistics as CSV or XLSX.
	PermissionStatisticsExport Permission = "statistics:export"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionTasksRead,
	PermissionTasksWrite,
	PermissionGradesRead,
	PermissionGradesWrite,
	PermissionExtensionsWrite,
	PermissionStatisticsRead,
	PermissionStatisticsExport,
}
