package services

import "github.com/google/uuid"

type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleVendor    Role = "vendor"
	RoleAdmin     Role = "admin"
	RoleSystem    Role = "system"
)

// Actor identifies who is performing an operation. System is used for
// internally triggered work (webhook reconciliation, scheduled jobs) instead
// of a sentinel user id.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// SystemActor returns the actor used for provider-driven side effects.
func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

// Settings carries the money-related knobs shared by the services.
type Settings struct {
	Currency              string
	PlatformCommissionPct float64
	ReservationReleasePct float64
	DepositPct            float64
}
