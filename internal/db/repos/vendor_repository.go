package repos

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/apperr"
	"planora/internal/db/models"
)

// VendorRepository reads the externally managed vendor registry.
type VendorRepository struct {
	db *sqlx.DB
}

// NewVendorRepository creates a new VendorRepository.
func NewVendorRepository(db *sqlx.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// GetByID retrieves a vendor by id.
func (r *VendorRepository) GetByID(id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.Get(&vendor, `SELECT * FROM vendors WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("vendor_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// GetByUserID resolves the vendor record behind an authenticated user.
func (r *VendorRepository) GetByUserID(userID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.Get(&vendor, `SELECT * FROM vendors WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("vendor_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// ListByIDs returns the vendors with the given ids.
func (r *VendorRepository) ListByIDs(ids []uuid.UUID) ([]models.Vendor, error) {
	if len(ids) == 0 {
		return []models.Vendor{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM vendors WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	vendors := []models.Vendor{}
	err = r.db.Select(&vendors, r.db.Rebind(query), args...)
	return vendors, err
}
