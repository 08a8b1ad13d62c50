package forms

import (
	"time"

	"opscore/pkg/domain"
)

// TodoForm buffers input for creating or editing a todo item.
type TodoForm struct {
	Text      string `validate:"required"`
	Priority  string `validate:"required,oneof=low medium high"`
	DueAt     *time.Time
	Tags      []string
	Completed bool
}

// NewTodoForm returns a form with the default priority selected.
func NewTodoForm() TodoForm {
	return TodoForm{Priority: string(domain.PriorityMedium)}
}

// EditTodo seeds a form from an existing record.
func EditTodo(t domain.Todo) TodoForm {
	return TodoForm{
		Text:      t.Text,
		Priority:  string(t.Priority),
		DueAt:     t.DueAt,
		Tags:      append([]string(nil), t.Tags...),
		Completed: t.Completed,
	}
}

// AddTag adds a tag to the buffer, deduplicating.
func (f *TodoForm) AddTag(tag string) { f.Tags = AddTag(f.Tags, tag) }

// RemoveTag drops a tag from the buffer.
func (f *TodoForm) RemoveTag(tag string) { f.Tags = RemoveTag(f.Tags, tag) }

// Submit validates the buffer and yields the record to persist.
func (f TodoForm) Submit() (domain.Todo, error) {
	if err := fieldErrors(domain.EntityTodo, validate.Struct(f)); err != nil {
		return domain.Todo{}, err
	}
	return domain.Todo{
		Text:      f.Text,
		Priority:  domain.TodoPriority(f.Priority),
		DueAt:     f.DueAt,
		Tags:      append([]string(nil), f.Tags...),
		Completed: f.Completed,
	}, nil
}
