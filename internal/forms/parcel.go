package forms

import (
	"time"

	"opscore/pkg/domain"
)

// ParcelForm buffers input for registering a tracked shipment.
type ParcelForm struct {
	Code              string `validate:"required"`
	Carrier           string `validate:"required"`
	Origin            string `validate:"required"`
	Destination       string `validate:"required"`
	EstimatedDelivery *time.Time
}

// Submit validates the buffer and yields the record to persist. New parcels
// start in the registered state.
func (f ParcelForm) Submit() (domain.Parcel, error) {
	if err := fieldErrors(domain.EntityParcel, validate.Struct(f)); err != nil {
		return domain.Parcel{}, err
	}
	return domain.Parcel{
		Code:              f.Code,
		Carrier:           f.Carrier,
		Origin:            f.Origin,
		Destination:       f.Destination,
		Status:            domain.ParcelRegistered,
		EstimatedDelivery: f.EstimatedDelivery,
	}, nil
}
