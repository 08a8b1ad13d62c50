package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opscore/pkg/domain"
)

func TestTodoFormSubmit(t *testing.T) {
	form := NewTodoForm()
	assert.Equal(t, string(domain.PriorityMedium), form.Priority)

	form.Text = "water plants"
	form.AddTag("home")
	form.AddTag(" home ")
	form.AddTag("garden")
	form.RemoveTag("garden")

	todo, err := form.Submit()
	require.NoError(t, err)
	assert.Equal(t, "water plants", todo.Text)
	assert.Equal(t, domain.PriorityMedium, todo.Priority)
	assert.Equal(t, []string{"home"}, todo.Tags)
}

func TestTodoFormValidation(t *testing.T) {
	form := TodoForm{Priority: "urgent"}
	_, err := form.Submit()

	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, domain.EntityTodo, verr.Entity)
	assert.Contains(t, verr.Fields, "text")
	assert.Contains(t, verr.Fields, "priority")
	assert.Equal(t, "is required", verr.Fields["text"])
	assert.Equal(t, "must be one of: low medium high", verr.Fields["priority"])
}

func TestEditTodoSeedsBuffer(t *testing.T) {
	todo := domain.Todo{
		Text:     "ship parcels",
		Priority: domain.PriorityHigh,
		Tags:     []string{"ops"},
	}
	form := EditTodo(todo)
	form.AddTag("urgent")

	assert.Equal(t, []string{"ops"}, todo.Tags, "editing the form must not touch the record")
	assert.Equal(t, []string{"ops", "urgent"}, form.Tags)
}

func TestLeadFormValidation(t *testing.T) {
	form := NewLeadForm()
	form.Name = "Lin"
	form.Email = "not-an-email"
	form.Source = "smoke_signal"
	form.BudgetCents = -5

	_, err := form.Submit()
	var verr domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be a valid email address", verr.Fields["email"])
	assert.Contains(t, verr.Fields, "source")
	assert.Equal(t, "must be at least 0", verr.Fields["budget_cents"])
	assert.NotContains(t, verr.Fields, "name")
	assert.NotContains(t, verr.Fields, "status")
}

func TestLeadFormSubmit(t *testing.T) {
	form := NewLeadForm()
	form.Name = "Lin"
	form.Email = "lin@example.com"
	form.Company = "Linware"
	form.Source = string(domain.SourceReferral)
	form.AddInterest("hosting")
	form.AddInterest("hosting")

	lead, err := form.Submit()
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusNew, lead.Status)
	assert.Equal(t, domain.SourceReferral, lead.Source)
	require.NotNil(t, lead.Company)
	assert.Equal(t, "Linware", *lead.Company)
	assert.Equal(t, []string{"hosting"}, lead.Interests)
}

func TestAddRemoveTag(t *testing.T) {
	tags := AddTag(nil, " a ")
	tags = AddTag(tags, "b")
	tags = AddTag(tags, "a")
	tags = AddTag(tags, "")
	assert.Equal(t, []string{"a", "b"}, tags)

	tags = RemoveTag(tags, "a")
	assert.Equal(t, []string{"b"}, tags)
	assert.Equal(t, []string{"b"}, RemoveTag(tags, "missing"))
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12.50", 1250},
		{"$12.50", 1250},
		{" 3 ", 300},
		{"0.5", 50},
		{".75", 75},
		{"0", 0},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "-1.00", "1.234", "twelve", "$"} {
		_, err := ParseMoney(bad)
		assert.Error(t, err, bad)
	}
}
