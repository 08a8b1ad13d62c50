package forms

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opscore/pkg/domain"
)

func TestProductFormSubmit(t *testing.T) {
	form := ProductForm{
		Name:        "Cold Brew",
		Description: "slow steeped",
		PriceCents:  500,
		Category:    string(domain.CategoryCold),
		Stock:       12,
	}
	product, err := form.Submit()
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryCold, product.Category)
	require.NotNil(t, product.Description)
	assert.Equal(t, "slow steeped", *product.Description)

	empty := ProductForm{Name: "Mug", Category: string(domain.CategoryMerch)}
	product, err = empty.Submit()
	require.NoError(t, err)
	assert.Nil(t, product.Description)
}

func TestProductFormRejectsUnknownCategory(t *testing.T) {
	form := ProductForm{Name: "Mystery", Category: "tea"}
	_, err := form.Submit()
	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "category")
}

func TestCustomerFormStartsWithZeroPoints(t *testing.T) {
	form := CustomerForm{Name: "Ada", Email: "ada@example.com", Phone: "555-0100"}
	form.AddInterest("espresso")
	form.AddInterest("espresso")

	customer, err := form.Submit()
	require.NoError(t, err)
	assert.Zero(t, customer.Points)
	assert.Equal(t, []string{"espresso"}, customer.Interests)
	require.NotNil(t, customer.Phone)
	assert.Equal(t, "555-0100", *customer.Phone)
}

func TestClientFormOptionalEmail(t *testing.T) {
	form := ClientForm{Name: "Pat", Phone: "555-0100", Vehicle: "2014 Outback"}
	client, err := form.Submit()
	require.NoError(t, err)
	assert.Nil(t, client.Email)

	form.Email = "not-an-email"
	_, err = form.Submit()
	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
}

func TestAppointmentFormStartsScheduled(t *testing.T) {
	form := AppointmentForm{
		ClientID:    "client-1",
		Service:     string(domain.ServiceTires),
		ScheduledAt: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	appointment, err := form.Submit()
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentScheduled, appointment.Status)
}

func TestParcelFormStartsRegistered(t *testing.T) {
	form := ParcelForm{Code: "PKG-1", Carrier: "Norpost", Origin: "Oslo", Destination: "Bergen"}
	parcel, err := form.Submit()
	require.NoError(t, err)
	assert.Equal(t, domain.ParcelRegistered, parcel.Status)

	_, err = ParcelForm{Code: "PKG-2"}.Submit()
	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "carrier")
	assert.Contains(t, verr.Fields, "origin")
	assert.Contains(t, verr.Fields, "destination")
}
