package forms

import (
	"time"

	"opscore/pkg/domain"
)

// LeadForm buffers input for a pipeline entry.
type LeadForm struct {
	Name        string `validate:"required"`
	Email       string `validate:"required,email"`
	Company     string
	Status      string `validate:"required,oneof=new contacted qualified converted lost"`
	Source      string `validate:"required,oneof=website referral walk_in event cold_call"`
	BudgetCents int64  `validate:"gte=0"`
	Interests   []string
}

// NewLeadForm returns a form with the entry status preselected.
func NewLeadForm() LeadForm {
	return LeadForm{Status: string(domain.LeadStatusNew)}
}

// EditLead seeds a form from an existing record.
func EditLead(l domain.Lead) LeadForm {
	form := LeadForm{
		Name:        l.Name,
		Email:       l.Email,
		Status:      string(l.Status),
		Source:      string(l.Source),
		BudgetCents: l.BudgetCents,
		Interests:   append([]string(nil), l.Interests...),
	}
	if l.Company != nil {
		form.Company = *l.Company
	}
	return form
}

// AddInterest adds an interest to the buffer, deduplicating.
func (f *LeadForm) AddInterest(interest string) { f.Interests = AddTag(f.Interests, interest) }

// RemoveInterest drops an interest from the buffer.
func (f *LeadForm) RemoveInterest(interest string) { f.Interests = RemoveTag(f.Interests, interest) }

// Submit validates the buffer and yields the record to persist.
func (f LeadForm) Submit() (domain.Lead, error) {
	if err := fieldErrors(domain.EntityLead, validate.Struct(f)); err != nil {
		return domain.Lead{}, err
	}
	lead := domain.Lead{
		Name:        f.Name,
		Email:       f.Email,
		Status:      domain.LeadStatus(f.Status),
		Source:      domain.LeadSource(f.Source),
		BudgetCents: f.BudgetCents,
		Interests:   append([]string(nil), f.Interests...),
	}
	if f.Company != "" {
		company := f.Company
		lead.Company = &company
	}
	return lead, nil
}

// FollowUpForm buffers input for a dated lead task.
type FollowUpForm struct {
	LeadID string `validate:"required"`
	Title  string `validate:"required"`
	DueAt  *time.Time
}

// Submit validates the buffer and yields the record to persist.
func (f FollowUpForm) Submit() (domain.FollowUp, error) {
	if err := fieldErrors(domain.EntityFollowUp, validate.Struct(f)); err != nil {
		return domain.FollowUp{}, err
	}
	return domain.FollowUp{LeadID: f.LeadID, Title: f.Title, DueAt: f.DueAt}, nil
}

// NoteForm buffers input for a lead annotation.
type NoteForm struct {
	LeadID string `validate:"required"`
	Body   string `validate:"required"`
	Author string `validate:"required"`
}

// Submit validates the buffer and yields the record to persist.
func (f NoteForm) Submit() (domain.Note, error) {
	if err := fieldErrors(domain.EntityNote, validate.Struct(f)); err != nil {
		return domain.Note{}, err
	}
	return domain.Note{LeadID: f.LeadID, Body: f.Body, Author: f.Author}, nil
}
