package core

import (
	"context"
	"fmt"

	"opscore/pkg/domain"
)

// CreateLead persists a new pipeline entry.
func (s *Service) CreateLead(ctx context.Context, lead Lead) (Lead, Result, error) {
	var created Lead
	res, err := s.run(ctx, "create_lead", EntityLead, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateLead(lead)
		return created.ID, err
	})
	return created, res, err
}

// UpdateLead mutates a pipeline entry.
func (s *Service) UpdateLead(ctx context.Context, id string, mutator func(*Lead) error) (Lead, Result, error) {
	var updated Lead
	res, err := s.run(ctx, "update_lead", EntityLead, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateLead(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteLead removes a pipeline entry along with its follow-ups, notes, and
// activity log.
func (s *Service) DeleteLead(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_lead", EntityLead, func(tx Tx) (string, error) {
		return id, tx.DeleteLead(id)
	})
}

// GetLead fetches a pipeline entry from committed state.
func (s *Service) GetLead(ctx context.Context, id string) (Lead, error) {
	lead, ok := s.store.GetLead(id)
	if !ok {
		return Lead{}, domain.NotFoundError{Entity: EntityLead, ID: id}
	}
	return lead, nil
}

// ListLeads returns all committed pipeline entries.
func (s *Service) ListLeads(ctx context.Context) []Lead {
	return s.store.ListLeads()
}

// ChangeLeadStatus moves a lead to a new pipeline status and appends an
// activity describing the transition in the same transaction. Moving to
// contacted also stamps the last-contacted timestamp.
func (s *Service) ChangeLeadStatus(ctx context.Context, id string, status domain.LeadStatus) (Lead, Result, error) {
	var updated Lead
	res, err := s.run(ctx, "change_lead_status", EntityLead, func(tx Tx) (string, error) {
		if !status.Valid() {
			return "", domain.NewValidationError(EntityLead, "status", fmt.Sprintf("unknown status %q", status))
		}
		var previous domain.LeadStatus
		var err error
		updated, err = tx.UpdateLead(id, func(l *Lead) error {
			previous = l.Status
			l.Status = status
			if status == domain.LeadStatusContacted {
				now := s.clock().UTC()
				l.LastContactedAt = &now
			}
			return nil
		})
		if err != nil {
			return id, err
		}
		if previous == status {
			return id, nil
		}
		_, err = tx.CreateActivity(Activity{
			LeadID:      id,
			Description: fmt.Sprintf("status changed from %s to %s", previous, status),
			OccurredAt:  s.clock().UTC(),
		})
		return id, err
	})
	return updated, res, err
}

// AskAssistant sends the prompt to the text-completion collaborator and
// appends the reply as a note on the lead. Collaborator failure appends
// nothing and surfaces as ExternalServiceError.
func (s *Service) AskAssistant(ctx context.Context, leadID, prompt string) (Note, Result, error) {
	if s.assistant == nil {
		return Note{}, Result{}, domain.ExternalServiceError{
			Service: "assistant",
			Err:     fmt.Errorf("no assistant configured"),
		}
	}
	if _, ok := s.store.GetLead(leadID); !ok {
		return Note{}, Result{}, domain.NotFoundError{Entity: EntityLead, ID: leadID}
	}
	reply, err := s.assistant.Complete(ctx, prompt)
	if err != nil {
		return Note{}, Result{}, err
	}
	return s.AddNote(ctx, Note{LeadID: leadID, Body: reply, Author: "assistant"})
}

// CreateFollowUp persists a dated task on a lead.
func (s *Service) CreateFollowUp(ctx context.Context, followUp FollowUp) (FollowUp, Result, error) {
	var created FollowUp
	res, err := s.run(ctx, "create_follow_up", EntityFollowUp, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateFollowUp(followUp)
		return created.ID, err
	})
	return created, res, err
}

// UpdateFollowUp mutates a follow-up task.
func (s *Service) UpdateFollowUp(ctx context.Context, id string, mutator func(*FollowUp) error) (FollowUp, Result, error) {
	var updated FollowUp
	res, err := s.run(ctx, "update_follow_up", EntityFollowUp, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateFollowUp(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteFollowUp removes a follow-up task.
func (s *Service) DeleteFollowUp(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_follow_up", EntityFollowUp, func(tx Tx) (string, error) {
		return id, tx.DeleteFollowUp(id)
	})
}

// ToggleFollowUp flips a follow-up's done flag.
func (s *Service) ToggleFollowUp(ctx context.Context, id string) (FollowUp, Result, error) {
	return s.UpdateFollowUp(ctx, id, func(f *FollowUp) error {
		f.Done = !f.Done
		return nil
	})
}

// ListFollowUps returns all committed follow-up tasks.
func (s *Service) ListFollowUps(ctx context.Context) []FollowUp {
	return s.store.ListFollowUps()
}

// AddNote appends a note to a lead.
func (s *Service) AddNote(ctx context.Context, note Note) (Note, Result, error) {
	var created Note
	res, err := s.run(ctx, "add_note", EntityNote, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateNote(note)
		return created.ID, err
	})
	return created, res, err
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_note", EntityNote, func(tx Tx) (string, error) {
		return id, tx.DeleteNote(id)
	})
}

// ListNotes returns all committed notes.
func (s *Service) ListNotes(ctx context.Context) []Note {
	return s.store.ListNotes()
}

// ListActivities returns the committed activity log.
func (s *Service) ListActivities(ctx context.Context) []Activity {
	return s.store.ListActivities()
}
