package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"opscore/internal/infra/persistence/memory"
	"opscore/pkg/domain"
)

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func must[T any](t *testing.T, v T, err error) T {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMemoryStoreTodoLifecycle(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	var id string
	_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
		created, cerr := tx.CreateTodo(domain.Todo{
			Text: "water the plants",
			Tags: []string{"home", "home", "garden"},
		})
		must(t, created, cerr)
		id = created.ID
		if id == "" {
			t.Fatalf("expected generated id")
		}
		if created.Priority != domain.PriorityMedium {
			t.Fatalf("expected default priority, got %q", created.Priority)
		}
		if len(created.Tags) != 2 {
			t.Fatalf("expected deduplicated tags, got %v", created.Tags)
		}
		if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
			t.Fatalf("expected stamped timestamps")
		}
		return nil
	})
	mustNoErr(t, err)

	stored, ok := store.GetTodo(id)
	if !ok {
		t.Fatalf("expected committed todo")
	}

	_, err = store.RunInTransaction(ctx, func(tx memory.Tx) error {
		updated, uerr := tx.UpdateTodo(id, func(todo *memory.Todo) error {
			todo.Completed = true
			todo.ID = "attempted-rewrite"
			return nil
		})
		must(t, updated, uerr)
		if updated.ID != id {
			t.Fatalf("update must preserve id, got %q", updated.ID)
		}
		if !updated.CreatedAt.Equal(stored.CreatedAt) {
			t.Fatalf("update must preserve created_at")
		}
		if !updated.Completed {
			t.Fatalf("expected completed flag set")
		}
		return nil
	})
	mustNoErr(t, err)

	_, err = store.RunInTransaction(ctx, func(tx memory.Tx) error {
		return tx.DeleteTodo(id)
	})
	mustNoErr(t, err)

	_, err = store.RunInTransaction(ctx, func(tx memory.Tx) error {
		return tx.DeleteTodo(id)
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("double delete should report not found, got %v", err)
	}
	if got := len(store.ListTodos()); got != 0 {
		t.Fatalf("expected empty todo list, got %d", got)
	}
}

func TestMemoryStoreRejectsDanglingReferences(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
		if _, err := tx.CreateTransaction(domain.Transaction{CustomerID: "missing", AmountCents: 100}); !domain.IsNotFound(err) {
			t.Fatalf("expected not found for dangling purchase, got %v", err)
		}
		if _, err := tx.CreateCoupon(domain.Coupon{CustomerID: "missing", Code: "X"}); !domain.IsNotFound(err) {
			t.Fatalf("expected not found for dangling coupon, got %v", err)
		}
		if _, err := tx.CreateFollowUp(domain.FollowUp{LeadID: "missing", Title: "call"}); !domain.IsNotFound(err) {
			t.Fatalf("expected not found for dangling follow-up, got %v", err)
		}
		if _, err := tx.CreateAppointment(domain.Appointment{ClientID: "missing", Service: domain.ServiceTires}); !domain.IsNotFound(err) {
			t.Fatalf("expected not found for dangling appointment, got %v", err)
		}
		return nil
	})
	mustNoErr(t, err)
}

func TestMemoryStoreCustomerCascade(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	var customerID, keeperID string
	_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
		customer, cerr := tx.CreateCustomer(domain.Customer{Name: "Ada", Email: "ada@example.com"})
		must(t, customer, cerr)
		customerID = customer.ID
		keeper, kerr := tx.CreateCustomer(domain.Customer{Name: "Grace", Email: "grace@example.com"})
		must(t, keeper, kerr)
		keeperID = keeper.ID

		_, perr := tx.CreateTransaction(domain.Transaction{CustomerID: customerID, AmountCents: 500})
		mustNoErr(t, perr)
		_, perr = tx.CreateTransaction(domain.Transaction{CustomerID: keeperID, AmountCents: 700})
		mustNoErr(t, perr)
		_, perr = tx.CreateCoupon(domain.Coupon{CustomerID: customerID, Code: "GONE1234"})
		mustNoErr(t, perr)
		_, perr = tx.CreateCoupon(domain.Coupon{CustomerID: keeperID, Code: "KEPT1234"})
		mustNoErr(t, perr)
		return nil
	})
	mustNoErr(t, err)

	_, err = store.RunInTransaction(ctx, func(tx memory.Tx) error {
		return tx.DeleteCustomer(customerID)
	})
	mustNoErr(t, err)

	for _, txn := range store.ListTransactions() {
		if txn.CustomerID == customerID {
			t.Fatalf("expected cascaded purchase delete")
		}
	}
	coupons := store.ListCoupons()
	if len(coupons) != 1 || coupons[0].CustomerID != keeperID {
		t.Fatalf("cascade removed the wrong coupons: %+v", coupons)
	}
	if _, ok := store.GetCustomer(keeperID); !ok {
		t.Fatalf("unrelated customer must survive the cascade")
	}
}

func TestMemoryStoreLeadCascade(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	var leadID string
	_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
		lead, lerr := tx.CreateLead(domain.Lead{
			Name:   "Lin",
			Email:  "lin@example.com",
			Source: domain.SourceReferral,
		})
		must(t, lead, lerr)
		leadID = lead.ID
		if lead.Status != domain.LeadStatusNew {
			t.Fatalf("expected default lead status, got %q", lead.Status)
		}
		_, cerr := tx.CreateFollowUp(domain.FollowUp{LeadID: leadID, Title: "send quote", DueAt: timePtr(time.Now())})
		mustNoErr(t, cerr)
		_, cerr = tx.CreateNote(domain.Note{LeadID: leadID, Body: "asked about pricing", Author: "sam"})
		mustNoErr(t, cerr)
		_, cerr = tx.CreateActivity(domain.Activity{LeadID: leadID, Description: "imported"})
		mustNoErr(t, cerr)
		return nil
	})
	mustNoErr(t, err)

	_, err = store.RunInTransaction(ctx, func(tx memory.Tx) error {
		return tx.DeleteLead(leadID)
	})
	mustNoErr(t, err)

	if n := len(store.ListFollowUps()); n != 0 {
		t.Fatalf("expected follow-ups removed, got %d", n)
	}
	if n := len(store.ListNotes()); n != 0 {
		t.Fatalf("expected notes removed, got %d", n)
	}
	if n := len(store.ListActivities()); n != 0 {
		t.Fatalf("expected activities removed, got %d", n)
	}
}

func TestMemoryStoreClientCascade(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	var clientID string
	_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
		client, cerr := tx.CreateClient(domain.Client{Name: "Pat", Phone: "555-0100", Vehicle: "2014 Outback"})
		must(t, client, cerr)
		clientID = client.ID
		appt, aerr := tx.CreateAppointment(domain.Appointment{
			ClientID:    clientID,
			Service:     domain.ServiceOilChange,
			ScheduledAt: time.Now().UTC(),
		})
		must(t, appt, aerr)
		if appt.Status != domain.AppointmentScheduled {
			t.Fatalf("expected default appointment status, got %q", appt.Status)
		}
		_, rerr := tx.CreateReminder(domain.Reminder{ClientID: clientID, Message: "oil due", RemindAt: time.Now().UTC()})
		mustNoErr(t, rerr)
		return nil
	})
	mustNoErr(t, err)

	_, err = store.RunInTransaction(ctx, func(tx memory.Tx) error {
		return tx.DeleteClient(clientID)
	})
	mustNoErr(t, err)

	if n := len(store.ListAppointments()); n != 0 {
		t.Fatalf("expected appointments removed, got %d", n)
	}
	if n := len(store.ListReminders()); n != 0 {
		t.Fatalf("expected reminders removed, got %d", n)
	}
}

func TestMemoryStoreFailedTransactionLeavesStateUntouched(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
		_, cerr := tx.CreateParcel(domain.Parcel{Code: "PKG-1", Carrier: "Norpost"})
		return cerr
	})
	mustNoErr(t, err)

	_, err = store.RunInTransaction(ctx, func(tx memory.Tx) error {
		_, cerr := tx.CreateParcel(domain.Parcel{Code: "PKG-2", Carrier: "Norpost"})
		mustNoErr(t, cerr)
		return tx.DeleteParcel("missing")
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if n := len(store.ListParcels()); n != 1 {
		t.Fatalf("failed transaction must not commit partial writes, got %d parcels", n)
	}
}

func TestMemoryStoreTransactionIsolation(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	var productID string
	_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
		product, cerr := tx.CreateProduct(domain.Product{
			Name:        "Flat White",
			Description: strPtr("double shot"),
			PriceCents:  450,
			Category:    domain.CategoryEspresso,
			Stock:       10,
		})
		must(t, product, cerr)
		productID = product.ID
		if n := len(tx.Snapshot().ListProducts()); n != 1 {
			t.Fatalf("expected product visible inside the transaction, got %d", n)
		}
		return nil
	})
	mustNoErr(t, err)

	products := store.ListProducts()
	if len(products) != 1 || products[0].ID != productID {
		t.Fatalf("expected committed product, got %+v", products)
	}
}

func TestMemoryStoreListsFollowInsertionOrder(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	seq := 0
	store.SetNowFunc(func() time.Time {
		seq++
		return base.Add(time.Duration(seq) * time.Second)
	})

	var wantTexts []string
	for i := 0; i < 12; i++ {
		text := fmt.Sprintf("todo-%02d", i)
		wantTexts = append(wantTexts, text)
		_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
			_, cerr := tx.CreateTodo(domain.Todo{Text: text})
			return cerr
		})
		mustNoErr(t, err)
	}

	first := store.ListTodos()
	if len(first) != len(wantTexts) {
		t.Fatalf("expected %d todos, got %d", len(wantTexts), len(first))
	}
	for i, todo := range first {
		if todo.Text != wantTexts[i] {
			t.Fatalf("position %d: expected %q, got %q", i, wantTexts[i], todo.Text)
		}
	}

	// Re-reading unchanged state must yield the identical order.
	second := store.ListTodos()
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("list order unstable at position %d: %q then %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestMemoryStoreIdentifiersAreUnique(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	seen := map[string]string{}
	record := func(kind, id string) {
		t.Helper()
		if id == "" {
			t.Fatalf("%s created without an id", kind)
		}
		if prior, dup := seen[id]; dup {
			t.Fatalf("id %q assigned to both %s and %s", id, prior, kind)
		}
		seen[id] = kind
	}

	for i := 0; i < 50; i++ {
		_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
			todo, terr := tx.CreateTodo(domain.Todo{Text: fmt.Sprintf("task %d", i)})
			must(t, todo, terr)
			record("todo", todo.ID)
			customer, cerr := tx.CreateCustomer(domain.Customer{
				Name:  fmt.Sprintf("customer %d", i),
				Email: fmt.Sprintf("c%d@example.com", i),
			})
			must(t, customer, cerr)
			record("customer", customer.ID)
			purchase, perr := tx.CreateTransaction(domain.Transaction{CustomerID: customer.ID, AmountCents: 100})
			must(t, purchase, perr)
			record("transaction", purchase.ID)
			parcel, prerr := tx.CreateParcel(domain.Parcel{Code: fmt.Sprintf("PKG-%d", i), Carrier: "Norpost"})
			must(t, parcel, prerr)
			record("parcel", parcel.ID)
			return nil
		})
		mustNoErr(t, err)
	}

	if len(seen) != 200 {
		t.Fatalf("expected 200 distinct ids, got %d", len(seen))
	}
}

func TestMemoryStoreGetProduct(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	var productID string
	_, err := store.RunInTransaction(ctx, func(tx memory.Tx) error {
		product, cerr := tx.CreateProduct(domain.Product{Name: "Croissant", PriceCents: 350, Category: domain.CategoryPastry, Stock: 4})
		must(t, product, cerr)
		productID = product.ID
		return nil
	})
	mustNoErr(t, err)

	product, ok := store.GetProduct(productID)
	if !ok || product.Name != "Croissant" {
		t.Fatalf("expected committed product, got ok=%v %+v", ok, product)
	}
	if _, ok := store.GetProduct("missing"); ok {
		t.Fatalf("expected miss for unknown product")
	}
}
