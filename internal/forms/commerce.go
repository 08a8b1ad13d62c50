package forms

import "opscore/pkg/domain"

// ProductForm buffers input for a catalog entry.
type ProductForm struct {
	Name        string `validate:"required"`
	Description string
	PriceCents  int64  `validate:"gte=0"`
	Category    string `validate:"required,oneof=espresso brewed cold pastry merch"`
	Stock       int    `validate:"gte=0"`
}

// Submit validates the buffer and yields the record to persist.
func (f ProductForm) Submit() (domain.Product, error) {
	if err := fieldErrors(domain.EntityProduct, validate.Struct(f)); err != nil {
		return domain.Product{}, err
	}
	product := domain.Product{
		Name:       f.Name,
		PriceCents: f.PriceCents,
		Category:   domain.ProductCategory(f.Category),
		Stock:      f.Stock,
	}
	if f.Description != "" {
		desc := f.Description
		product.Description = &desc
	}
	return product, nil
}

// CustomerForm buffers input for a loyalty member.
type CustomerForm struct {
	Name      string `validate:"required"`
	Email     string `validate:"required,email"`
	Phone     string
	Interests []string
}

// AddInterest adds an interest to the buffer, deduplicating.
func (f *CustomerForm) AddInterest(interest string) { f.Interests = AddTag(f.Interests, interest) }

// RemoveInterest drops an interest from the buffer.
func (f *CustomerForm) RemoveInterest(interest string) {
	f.Interests = RemoveTag(f.Interests, interest)
}

// Submit validates the buffer and yields the record to persist. New members
// start with zero points.
func (f CustomerForm) Submit() (domain.Customer, error) {
	if err := fieldErrors(domain.EntityCustomer, validate.Struct(f)); err != nil {
		return domain.Customer{}, err
	}
	customer := domain.Customer{
		Name:      f.Name,
		Email:     f.Email,
		Interests: append([]string(nil), f.Interests...),
	}
	if f.Phone != "" {
		phone := f.Phone
		customer.Phone = &phone
	}
	return customer, nil
}
