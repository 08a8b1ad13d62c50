package core

import (
	"context"
	"fmt"
	"time"

	"opscore/pkg/domain"
)

// CreateParcel registers a shipment for tracking.
func (s *Service) CreateParcel(ctx context.Context, parcel Parcel) (Parcel, Result, error) {
	var created Parcel
	res, err := s.run(ctx, "create_parcel", EntityParcel, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateParcel(parcel)
		return created.ID, err
	})
	return created, res, err
}

// UpdateParcel mutates a tracked shipment.
func (s *Service) UpdateParcel(ctx context.Context, id string, mutator func(*Parcel) error) (Parcel, Result, error) {
	var updated Parcel
	res, err := s.run(ctx, "update_parcel", EntityParcel, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateParcel(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteParcel removes a tracked shipment.
func (s *Service) DeleteParcel(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_parcel", EntityParcel, func(tx Tx) (string, error) {
		return id, tx.DeleteParcel(id)
	})
}

// GetParcel fetches a tracked shipment from committed state.
func (s *Service) GetParcel(ctx context.Context, id string) (Parcel, error) {
	parcel, ok := s.store.GetParcel(id)
	if !ok {
		return Parcel{}, domain.NotFoundError{Entity: EntityParcel, ID: id}
	}
	return parcel, nil
}

// ListParcels returns all committed tracked shipments.
func (s *Service) ListParcels(ctx context.Context) []Parcel {
	return s.store.ListParcels()
}

// UpdateParcelStatus moves a parcel to a new tracking status. Reaching
// delivered stamps the delivery time.
func (s *Service) UpdateParcelStatus(ctx context.Context, id string, status domain.ParcelStatus) (Parcel, Result, error) {
	return s.UpdateParcel(ctx, id, func(p *Parcel) error {
		p.Status = status
		if status == domain.ParcelDelivered && p.DeliveredAt == nil {
			now := s.clock().UTC()
			p.DeliveredAt = &now
		}
		return nil
	})
}

// DelayNotification describes one parcel newly marked delayed by a sweep.
type DelayNotification struct {
	ParcelID string
	Code     string
	Message  string
}

// SweepDelayedParcels marks every parcel whose estimated delivery has passed
// and whose status is not terminal as delayed, and returns one notification
// per parcel that had not been notified before. Re-running the sweep never
// re-notifies.
func (s *Service) SweepDelayedParcels(ctx context.Context, now time.Time) ([]DelayNotification, Result, error) {
	var notifications []DelayNotification
	res, err := s.run(ctx, "sweep_delayed_parcels", EntityParcel, func(tx Tx) (string, error) {
		for _, parcel := range tx.Snapshot().ListParcels() {
			if parcel.Status.Terminal() {
				continue
			}
			if parcel.EstimatedDelivery == nil || !now.After(*parcel.EstimatedDelivery) {
				continue
			}
			if parcel.Status == domain.ParcelDelayed && parcel.DelayNotified {
				continue
			}
			notify := !parcel.DelayNotified
			updated, err := tx.UpdateParcel(parcel.ID, func(p *Parcel) error {
				p.Status = domain.ParcelDelayed
				p.DelayNotified = true
				return nil
			})
			if err != nil {
				return "", err
			}
			if notify {
				notifications = append(notifications, DelayNotification{
					ParcelID: updated.ID,
					Code:     updated.Code,
					Message: fmt.Sprintf("parcel %s from %s is delayed past %s",
						updated.Code, updated.Carrier, parcel.EstimatedDelivery.Format("2006-01-02")),
				})
			}
		}
		return "", nil
	})
	if err != nil {
		return nil, res, err
	}
	return notifications, res, nil
}
