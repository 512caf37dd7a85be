// Package allocation splits a captured payment across the vendors of a
// booking in integer minor-currency units. All arithmetic is exact: the
// vendor gross shares always sum to the paid amount, and each vendor's two
// milestone payouts always sum to its net share.
package allocation

import (
	"errors"
	"math"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrInvalidBookingTotal = errors.New("invalid_booking_total")
	ErrInvalidPaidAmount   = errors.New("invalid_paid_amount")
)

// Vendor is one approved booking vendor with its agreed price.
type Vendor struct {
	BookingVendorID uuid.UUID
	AgreedAmount    int64
}

// VendorAllocation is a vendor's share of a single paid amount.
type VendorAllocation struct {
	BookingVendorID  uuid.UUID
	Gross            int64
	PlatformFee      int64
	Net              int64
	ReservationShare int64
	CompletionShare  int64
}

// AllocatePaidAmount apportions paidAmount across vendors weighted by their
// agreed amounts, using the largest-remainder method so the grosses sum
// exactly to paidAmount. Commission is floored off each gross; the
// reservation share is floored off each net and the completion share is the
// exact remainder.
func AllocatePaidAmount(
	bookingTotal int64,
	paidAmount int64,
	vendors []Vendor,
	commissionPct float64,
	reservationReleasePct float64,
) ([]VendorAllocation, error) {
	if bookingTotal <= 0 {
		return nil, ErrInvalidBookingTotal
	}
	if paidAmount <= 0 {
		return nil, ErrInvalidPaidAmount
	}
	if len(vendors) == 0 {
		return []VendorAllocation{}, nil
	}

	raw := make([]float64, len(vendors))
	floored := make([]int64, len(vendors))
	var flooredSum int64
	for i, v := range vendors {
		weight := float64(v.AgreedAmount) / float64(bookingTotal)
		raw[i] = float64(paidAmount) * weight
		floored[i] = int64(math.Floor(raw[i]))
		flooredSum += floored[i]
	}

	// Hand the rounding residual out one unit at a time, largest
	// fractional remainder first. Stable sort keeps ties in vendor order.
	order := make([]int, len(vendors))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa := raw[order[a]] - float64(floored[order[a]])
		fb := raw[order[b]] - float64(floored[order[b]])
		return fa > fb
	})
	remainder := paidAmount - flooredSum
	for i := int64(0); i < remainder; i++ {
		floored[order[i%int64(len(order))]]++
	}

	allocations := make([]VendorAllocation, 0, len(vendors))
	for i, v := range vendors {
		gross := floored[i]
		fee := int64(math.Floor(float64(gross) * commissionPct))
		net := gross - fee
		reservation := int64(math.Floor(float64(net) * reservationReleasePct))
		allocations = append(allocations, VendorAllocation{
			BookingVendorID:  v.BookingVendorID,
			Gross:            gross,
			PlatformFee:      fee,
			Net:              net,
			ReservationShare: reservation,
			CompletionShare:  net - reservation,
		})
	}
	return allocations, nil
}
