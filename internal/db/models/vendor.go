package models

import (
	"time"

	"github.com/google/uuid"
)

type VendorType string

const (
	VenueOwner      VendorType = "venue_owner"
	ServiceProvider VendorType = "service_provider"
)

type VendorVerificationStatus string

const (
	VerificationDraft     VendorVerificationStatus = "draft"
	VerificationSubmitted VendorVerificationStatus = "submitted"
	VerificationApproved  VendorVerificationStatus = "approved"
)

// Vendor is the read side of the externally managed vendor registry.
// Onboarding writes these rows; this service only consults them.
type Vendor struct {
	ID                 uuid.UUID                `db:"id" json:"id"`
	UserID             uuid.UUID                `db:"user_id" json:"user_id"`
	DisplayName        string                   `db:"display_name" json:"display_name"`
	VendorType         VendorType               `db:"vendor_type" json:"vendor_type"`
	VerificationStatus VendorVerificationStatus `db:"verification_status" json:"verification_status"`
	CreatedAt          time.Time                `db:"created_at" json:"created_at"`
}

type BookingVendorRole string

const (
	RoleVenue   BookingVendorRole = "venue"
	RoleService BookingVendorRole = "service"
)

type VendorApprovalStatus string

const (
	VendorPending   VendorApprovalStatus = "pending"
	VendorApproved  VendorApprovalStatus = "approved"
	VendorDeclined  VendorApprovalStatus = "declined"
	VendorCountered VendorApprovalStatus = "countered"
)

// BookingVendor joins one vendor to one booking, unique per pair.
type BookingVendor struct {
	ID             uuid.UUID            `db:"id" json:"id"`
	BookingID      uuid.UUID            `db:"booking_id" json:"booking_id"`
	VendorID       uuid.UUID            `db:"vendor_id" json:"vendor_id"`
	Role           BookingVendorRole    `db:"role_in_booking" json:"role_in_booking"`
	ApprovalStatus VendorApprovalStatus `db:"approval_status" json:"approval_status"`
	AgreedAmount   int64                `db:"agreed_amount_cents" json:"agreed_amount_cents"`
	CounterNote    *string              `db:"counter_note" json:"counter_note,omitempty"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `db:"updated_at" json:"updated_at"`
}
