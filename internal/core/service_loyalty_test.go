package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"opscore/internal/views"
	"opscore/pkg/domain"
)

func defaultLadder() []views.Tier {
	return []views.Tier{
		{ThresholdPoints: 100, PercentOff: 5, MinPurchaseCents: 2500, ExpiryDays: 30},
		{ThresholdPoints: 250, PercentOff: 15, ExpiryDays: 30},
		{ThresholdPoints: 500, PercentOff: 25, ExpiryDays: 30},
	}
}

func seedCustomer(t *testing.T, svc *Service, points int64) Customer {
	t.Helper()
	customer, _, err := svc.CreateCustomer(context.Background(), Customer{
		Name:   "Ada",
		Email:  "ada@example.com",
		Points: points,
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return customer
}

func TestRecordPurchaseAccruesPointsWithoutReward(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithLoyaltyLadder(defaultLadder()))
	customer := seedCustomer(t, svc, 0)

	outcome, _, err := svc.RecordPurchase(ctx, customer.ID, 1250)
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if outcome.Purchase.PointsEarned != 12 {
		t.Fatalf("expected 12 points earned, got %d", outcome.Purchase.PointsEarned)
	}
	if outcome.Purchase.PointsSpent != 0 {
		t.Fatalf("expected no points spent, got %d", outcome.Purchase.PointsSpent)
	}
	if outcome.Customer.Points != 12 {
		t.Fatalf("expected balance 12, got %d", outcome.Customer.Points)
	}
	if outcome.Coupon != nil {
		t.Fatalf("no tier should fire below the first threshold")
	}
}

func TestRecordPurchaseFiresSingleTierAndKeepsRemainder(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	svc := NewInMemoryService(NewDefaultRulesEngine(),
		WithLoyaltyLadder(defaultLadder()),
		WithClock(fixedClock(at)),
	)
	customer := seedCustomer(t, svc, 95)

	// 95 existing points + 10 earned = 105: the 100-point rung fires once and
	// deducts exactly its threshold.
	outcome, _, err := svc.RecordPurchase(ctx, customer.ID, 1000)
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if outcome.Coupon == nil {
		t.Fatalf("expected the 100-point rung to fire")
	}
	if outcome.Coupon.PercentOff != 5 {
		t.Fatalf("expected 5%% coupon, got %d%%", outcome.Coupon.PercentOff)
	}
	if outcome.Coupon.MinPurchaseCents != 2500 {
		t.Fatalf("expected $25 minimum purchase, got %d", outcome.Coupon.MinPurchaseCents)
	}
	if outcome.Purchase.PointsSpent != 100 {
		t.Fatalf("expected exactly the threshold deducted, got %d", outcome.Purchase.PointsSpent)
	}
	if outcome.Customer.Points != 5 {
		t.Fatalf("expected remainder 5, got %d", outcome.Customer.Points)
	}
	if len(outcome.Coupon.Code) != couponCodeLength {
		t.Fatalf("expected %d-character code, got %q", couponCodeLength, outcome.Coupon.Code)
	}
	for _, r := range outcome.Coupon.Code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Fatalf("code %q contains character outside the alphabet", outcome.Coupon.Code)
		}
	}
	if outcome.Coupon.ExpiresAt == nil {
		t.Fatalf("expected expiry stamped from the tier")
	}
	if want := at.AddDate(0, 0, 30); !outcome.Coupon.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, *outcome.Coupon.ExpiresAt)
	}

	if coupons := svc.ListCoupons(ctx); len(coupons) != 1 {
		t.Fatalf("exactly one coupon must be issued, got %d", len(coupons))
	}
}

func TestRecordPurchaseFiresOnlyHighestTier(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithLoyaltyLadder(defaultLadder()))
	customer := seedCustomer(t, svc, 540)

	outcome, _, err := svc.RecordPurchase(ctx, customer.ID, 2000)
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if outcome.Coupon == nil || outcome.Coupon.PercentOff != 25 {
		t.Fatalf("expected the 500-point rung only, got %+v", outcome.Coupon)
	}
	if outcome.Purchase.PointsSpent != 500 {
		t.Fatalf("expected 500 points spent, got %d", outcome.Purchase.PointsSpent)
	}
	if outcome.Customer.Points != 60 {
		t.Fatalf("expected remainder 60, got %d", outcome.Customer.Points)
	}
	if coupons := svc.ListCoupons(ctx); len(coupons) != 1 {
		t.Fatalf("lower rungs must not also fire, got %d coupons", len(coupons))
	}
}

func TestRecordPurchaseRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithLoyaltyLadder(defaultLadder()))
	customer := seedCustomer(t, svc, 0)

	if _, _, err := svc.RecordPurchase(ctx, customer.ID, -100); err == nil {
		t.Fatalf("expected negative amount to be rejected")
	}
	if _, _, err := svc.RecordPurchase(ctx, "missing", 100); !domain.IsNotFound(err) {
		t.Fatalf("expected not found for unknown customer, got %v", err)
	}
	if n := len(svc.ListTransactions(ctx)); n != 0 {
		t.Fatalf("rejected purchases must not commit, got %d", n)
	}
}

func TestRedeemCoupon(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithClock(fixedClock(at)))
	customer := seedCustomer(t, svc, 0)

	coupon, _, err := svc.CreateCoupon(ctx, Coupon{CustomerID: customer.ID, Code: "TREAT123", PercentOff: 10})
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	redeemed, _, err := svc.RedeemCoupon(ctx, coupon.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !redeemed.Redeemed || redeemed.RedeemedAt == nil || !redeemed.RedeemedAt.Equal(at) {
		t.Fatalf("expected redemption stamped at %v, got %+v", at, redeemed)
	}

	if _, _, err := svc.RedeemCoupon(ctx, coupon.ID); err == nil {
		t.Fatalf("expected double redemption to be rejected")
	}
}

func TestRedeemCouponExpired(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithClock(fixedClock(at)))
	customer := seedCustomer(t, svc, 0)

	expired := at.AddDate(0, 0, -1)
	coupon, _, err := svc.CreateCoupon(ctx, Coupon{
		CustomerID: customer.ID,
		Code:       "STALE123",
		PercentOff: 10,
		ExpiresAt:  &expired,
	})
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	_, _, err = svc.RedeemCoupon(ctx, coupon.ID)
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for expired coupon, got %v", err)
	}
	if _, ok := verr.Fields["expires_at"]; !ok {
		t.Fatalf("expected expires_at field, got %v", verr.Fields)
	}

	for _, current := range svc.ListCoupons(ctx) {
		if current.ID == coupon.ID && current.Redeemed {
			t.Fatalf("expired coupon must stay unredeemed")
		}
	}
}

type staticDecoder struct {
	code string
	err  error
}

func (d staticDecoder) Decode([]byte) (string, error) { return d.code, d.err }

func TestRedeemByScan(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithCodeDecoder(staticDecoder{code: "SCAN1234"}))
	customer := seedCustomer(t, svc, 0)

	if _, _, err := svc.CreateCoupon(ctx, Coupon{CustomerID: customer.ID, Code: "SCAN1234", PercentOff: 15}); err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	redeemed, _, err := svc.RedeemByScan(ctx, []byte("frame"))
	if err != nil {
		t.Fatalf("redeem by scan: %v", err)
	}
	if !redeemed.Redeemed || redeemed.Code != "SCAN1234" {
		t.Fatalf("unexpected redemption %+v", redeemed)
	}
}

func TestRedeemByScanUnknownCode(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithCodeDecoder(staticDecoder{code: "NOPE1234"}))

	_, _, err := svc.RedeemByScan(ctx, []byte("frame"))
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
	if nf.ID != "NOPE1234" {
		t.Fatalf("not found must be keyed by the scanned code, got %q", nf.ID)
	}
}

func TestRedeemByScanWithoutDecoder(t *testing.T) {
	svc := NewInMemoryService(NewDefaultRulesEngine())
	_, _, err := svc.RedeemByScan(context.Background(), []byte("frame"))
	var ext domain.ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("expected external service error, got %v", err)
	}
}
