package enum

// ── Group A: State machines (enum types in DB) ──

const (
	MachineStatusActive      = "active"
	MachineStatusMaintenance = "maintenance"
	MachineStatusInactive    = "inactive"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusFailed     = "failed"
	OrderStatusCancelled  = "cancelled"
)

// ── Group B: Labels (no DB constraint) ──

const (
	ItemTypeIngredient = "ingredient"
	ItemTypeAddon      = "addon"
)

const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)
