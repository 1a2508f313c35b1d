package shared

// Resources named by the permission policy.
const (
	ResourceVehicles      = "vehicles"
	ResourceDrivers       = "drivers"
	ResourceExpenses      = "expenses"
	ResourceDocuments     = "documents"
	ResourceReports       = "reports"
	ResourceNotifications = "notifications"
	ResourceInvoices      = "invoices"
	ResourceMaintenance   = "maintenance"
)

// Actions used by HTTP routes.
const (
	ActionRead      = "read"
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionManage    = "manage"
	ActionFinancial = "financial"
	ActionReport    = "report"
)
