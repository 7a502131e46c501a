// README: Single normalization point turning loose store records into total Orders.
package order

import (
	"time"

	"gswash/internal/types"
)

// Record is a raw, possibly partial order row as read from the store.
// The store is schema-less in origin and historical records may predate
// newer fields, so every field except ID is optional.
type Record struct {
	ID               string
	Code             *string
	CustomerID       *string
	Status           *string
	Version          *int
	ServiceType      *string
	ServicePackageID *string
	VehicleMake      *string
	VehicleModel     *string
	VehiclePlateLast *string
	VehicleColor     *string
	AddressArea      *string
	AddressBlock     *string
	AddressStreet    *string
	AddressNotes     *string
	TotalPrice       *float64
	OriginalPrice    *float64
	DiscountApplied  *float64
	PaymentMethod    *string
	IsPaid           *bool
	PointsEarned     *int
	PointsRedeemed   *int
	IsPointsApplied  *bool
	DriverID         *string
	DriverName       *string
	CancelReason     *string
	Source           *string
	ReferralCode     *string
	CreatedAt        *time.Time
	UpdatedAt        *time.Time
}

// Normalize produces a fully-populated Order from a raw record. It is
// total: absence of a field is not an error, only a default. Both the
// list and detail read paths go through here so they cannot drift.
func Normalize(rec Record) Order {
	o := Order{
		ID:               rec.ID,
		Code:             str(rec.Code),
		CustomerID:       types.ID(str(rec.CustomerID)),
		Status:           StatusPending,
		Version:          num(rec.Version),
		ServiceType:      str(rec.ServiceType),
		ServicePackageID: str(rec.ServicePackageID),
		Vehicle: VehicleInfo{
			Make:      str(rec.VehicleMake),
			Model:     str(rec.VehicleModel),
			PlateLast: str(rec.VehiclePlateLast),
			Color:     str(rec.VehicleColor),
		},
		Address: Address{
			Area:   str(rec.AddressArea),
			Block:  str(rec.AddressBlock),
			Street: str(rec.AddressStreet),
			Notes:  str(rec.AddressNotes),
		},
		OriginalPrice:   money(rec.OriginalPrice),
		DiscountApplied: money(rec.DiscountApplied),
		PaymentMethod:   str(rec.PaymentMethod),
		IsPaid:          flag(rec.IsPaid),
		PointsEarned:    num(rec.PointsEarned),
		PointsRedeemed:  num(rec.PointsRedeemed),
		IsPointsApplied: flag(rec.IsPointsApplied),
		DriverName:      str(rec.DriverName),
		Source:          str(rec.Source),
		ReferralCode:    str(rec.ReferralCode),
	}

	if rec.Status != nil && IsValidStatus(Status(*rec.Status)) {
		o.Status = Status(*rec.Status)
	}
	if o.Code == "" {
		o.Code = CodeFromID(rec.ID)
	}
	if rec.TotalPrice != nil {
		o.TotalPrice = money(rec.TotalPrice)
	} else {
		// Re-derive the total so the price invariant holds for records
		// written before the discount fields existed.
		o.TotalPrice = o.OriginalPrice - o.DiscountApplied
		if o.TotalPrice < 0 {
			o.TotalPrice = 0
		}
	}
	if rec.DriverID != nil && *rec.DriverID != "" {
		d := types.ID(*rec.DriverID)
		o.DriverID = &d
	}
	if rec.CancelReason != nil && *rec.CancelReason != "" {
		r := *rec.CancelReason
		o.CancelReason = &r
	}
	if rec.CreatedAt != nil {
		o.CreatedAt = *rec.CreatedAt
	}
	if rec.UpdatedAt != nil {
		o.UpdatedAt = *rec.UpdatedAt
	} else {
		o.UpdatedAt = o.CreatedAt
	}
	return o
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func num(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func money(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func flag(v *bool) bool {
	return v != nil && *v
}
