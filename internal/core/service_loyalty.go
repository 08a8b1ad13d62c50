package core

import (
	"context"
	"crypto/rand"
	"fmt"

	"opscore/internal/session"
	"opscore/internal/views"
	"opscore/pkg/domain"
)

// CreateCustomer persists a new loyalty member.
func (s *Service) CreateCustomer(ctx context.Context, customer Customer) (Customer, Result, error) {
	var created Customer
	res, err := s.run(ctx, "create_customer", EntityCustomer, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateCustomer(customer)
		return created.ID, err
	})
	return created, res, err
}

// UpdateCustomer mutates a loyalty member.
func (s *Service) UpdateCustomer(ctx context.Context, id string, mutator func(*Customer) error) (Customer, Result, error) {
	var updated Customer
	res, err := s.run(ctx, "update_customer", EntityCustomer, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateCustomer(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteCustomer removes a loyalty member along with their transactions and
// coupons.
func (s *Service) DeleteCustomer(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_customer", EntityCustomer, func(tx Tx) (string, error) {
		return id, tx.DeleteCustomer(id)
	})
}

// PurgeCustomer is the administrative form of DeleteCustomer. It requires a
// current user on the context and refuses non-admin callers.
func (s *Service) PurgeCustomer(ctx context.Context, id string) (Result, error) {
	user, ok := session.UserFrom(ctx)
	if !ok || !user.Admin {
		return Result{}, domain.ErrUnauthorized
	}
	return s.run(ctx, "purge_customer", EntityCustomer, func(tx Tx) (string, error) {
		return id, tx.DeleteCustomer(id)
	})
}

// GetCustomer fetches a loyalty member from committed state.
func (s *Service) GetCustomer(ctx context.Context, id string) (Customer, error) {
	customer, ok := s.store.GetCustomer(id)
	if !ok {
		return Customer{}, domain.NotFoundError{Entity: EntityCustomer, ID: id}
	}
	return customer, nil
}

// ListCustomers returns all committed loyalty members.
func (s *Service) ListCustomers(ctx context.Context) []Customer {
	return s.store.ListCustomers()
}

// ListTransactions returns all committed purchase records.
func (s *Service) ListTransactions(ctx context.Context) []Purchase {
	return s.store.ListTransactions()
}

// PurchaseOutcome reports what RecordPurchase did.
type PurchaseOutcome struct {
	Purchase Purchase
	Customer Customer
	Coupon   *Coupon
}

// RecordPurchase appends a purchase for the customer, accrues one point per
// whole dollar, and evaluates the reward ladder against the resulting
// balance. When a rung fires, exactly one coupon is issued and exactly the
// rung's threshold is deducted; the remainder stays on the account. Only the
// single highest reachable rung fires per purchase.
func (s *Service) RecordPurchase(ctx context.Context, customerID string, amountCents int64) (PurchaseOutcome, Result, error) {
	var outcome PurchaseOutcome
	res, err := s.run(ctx, "record_purchase", EntityTransaction, func(tx Tx) (string, error) {
		if amountCents < 0 {
			return "", domain.NewValidationError(EntityTransaction, "amount_cents", "must not be negative")
		}
		customer, ok := tx.FindCustomer(customerID)
		if !ok {
			return "", domain.NotFoundError{Entity: EntityCustomer, ID: customerID}
		}

		earned := amountCents / 100
		balance := customer.Points + earned
		tier, fired := views.HighestTier(balance, s.ladder)
		var spent int64
		if fired {
			spent = tier.ThresholdPoints
		}

		purchase, err := tx.CreateTransaction(Purchase{
			CustomerID:   customerID,
			AmountCents:  amountCents,
			PointsEarned: earned,
			PointsSpent:  spent,
			OccurredAt:   s.clock().UTC(),
		})
		if err != nil {
			return "", err
		}
		outcome.Purchase = purchase

		updated, err := tx.UpdateCustomer(customerID, func(c *Customer) error {
			c.Points = balance - spent
			return nil
		})
		if err != nil {
			return purchase.ID, err
		}
		outcome.Customer = updated

		if fired {
			code, err := s.generateCouponCode(tx)
			if err != nil {
				return purchase.ID, err
			}
			coupon := Coupon{
				CustomerID:       customerID,
				Code:             code,
				PercentOff:       tier.PercentOff,
				MinPurchaseCents: tier.MinPurchaseCents,
			}
			if tier.ExpiryDays > 0 {
				expires := s.clock().UTC().AddDate(0, 0, tier.ExpiryDays)
				coupon.ExpiresAt = &expires
			}
			created, err := tx.CreateCoupon(coupon)
			if err != nil {
				return purchase.ID, err
			}
			outcome.Coupon = &created
		}
		return purchase.ID, nil
	})
	return outcome, res, err
}

// RedeemCoupon marks a coupon redeemed. Already redeemed or expired coupons
// produce a ValidationError.
func (s *Service) RedeemCoupon(ctx context.Context, id string) (Coupon, Result, error) {
	var redeemed Coupon
	res, err := s.run(ctx, "redeem_coupon", EntityCoupon, func(tx Tx) (string, error) {
		var err error
		redeemed, err = tx.UpdateCoupon(id, func(c *Coupon) error {
			if c.Redeemed {
				return domain.NewValidationError(EntityCoupon, "redeemed", "coupon already redeemed")
			}
			now := s.clock().UTC()
			if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
				return domain.NewValidationError(EntityCoupon, "expires_at", "coupon expired")
			}
			c.Redeemed = true
			c.RedeemedAt = &now
			return nil
		})
		return id, err
	})
	return redeemed, res, err
}

// RedeemByScan decodes a captured frame into a coupon code and redeems the
// matching coupon. Decode failures surface as ExternalServiceError; an
// unmatched code is a NotFoundError keyed by the code itself.
func (s *Service) RedeemByScan(ctx context.Context, frame []byte) (Coupon, Result, error) {
	if s.decoder == nil {
		return Coupon{}, Result{}, domain.ExternalServiceError{
			Service: "scan",
			Err:     fmt.Errorf("no code decoder configured"),
		}
	}
	code, err := s.decoder.Decode(frame)
	if err != nil {
		return Coupon{}, Result{}, err
	}
	var id string
	findErr := s.view(ctx, func(view TransactionView) error {
		for _, c := range view.ListCoupons() {
			if c.Code == code {
				id = c.ID
				return nil
			}
		}
		return domain.NotFoundError{Entity: EntityCoupon, ID: code}
	})
	if findErr != nil {
		return Coupon{}, Result{}, findErr
	}
	return s.RedeemCoupon(ctx, id)
}

// CreateCoupon issues a coupon directly, outside the reward ladder.
func (s *Service) CreateCoupon(ctx context.Context, coupon Coupon) (Coupon, Result, error) {
	var created Coupon
	res, err := s.run(ctx, "create_coupon", EntityCoupon, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateCoupon(coupon)
		return created.ID, err
	})
	return created, res, err
}

// UpdateCoupon mutates a coupon.
func (s *Service) UpdateCoupon(ctx context.Context, id string, mutator func(*Coupon) error) (Coupon, Result, error) {
	var updated Coupon
	res, err := s.run(ctx, "update_coupon", EntityCoupon, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateCoupon(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteCoupon removes a coupon.
func (s *Service) DeleteCoupon(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_coupon", EntityCoupon, func(tx Tx) (string, error) {
		return id, tx.DeleteCoupon(id)
	})
}

// ListCoupons returns all committed coupons.
func (s *Service) ListCoupons(ctx context.Context) []Coupon {
	return s.store.ListCoupons()
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const couponCodeLength = 8

// generateCouponCode draws random codes until one does not collide with an
// issued coupon, giving up after the configured attempt budget.
func (s *Service) generateCouponCode(tx Tx) (string, error) {
	taken := make(map[string]struct{})
	for _, c := range tx.Snapshot().ListCoupons() {
		taken[c.Code] = struct{}{}
	}
	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		code, err := randomCode(couponCodeLength)
		if err != nil {
			return "", err
		}
		if _, ok := taken[code]; !ok {
			return code, nil
		}
	}
	return "", domain.GenerationFailedError{Attempts: s.codeAttempts}
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
