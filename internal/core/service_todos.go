package core

import (
	"context"

	"opscore/pkg/domain"
)

// CreateTodo persists a new todo item.
func (s *Service) CreateTodo(ctx context.Context, todo Todo) (Todo, Result, error) {
	var created Todo
	res, err := s.run(ctx, "create_todo", EntityTodo, func(tx Tx) (string, error) {
		var err error
		created, err = tx.CreateTodo(todo)
		return created.ID, err
	})
	return created, res, err
}

// UpdateTodo mutates a todo using the provided mutator.
func (s *Service) UpdateTodo(ctx context.Context, id string, mutator func(*Todo) error) (Todo, Result, error) {
	var updated Todo
	res, err := s.run(ctx, "update_todo", EntityTodo, func(tx Tx) (string, error) {
		var err error
		updated, err = tx.UpdateTodo(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteTodo removes a todo item.
func (s *Service) DeleteTodo(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_todo", EntityTodo, func(tx Tx) (string, error) {
		return id, tx.DeleteTodo(id)
	})
}

// ToggleTodo flips a todo's completed flag. Toggling changes nothing else on
// the record besides the update timestamp.
func (s *Service) ToggleTodo(ctx context.Context, id string) (Todo, Result, error) {
	return s.UpdateTodo(ctx, id, func(t *Todo) error {
		t.Completed = !t.Completed
		return nil
	})
}

// GetTodo fetches a todo from committed state.
func (s *Service) GetTodo(ctx context.Context, id string) (Todo, error) {
	todo, ok := s.store.GetTodo(id)
	if !ok {
		return Todo{}, domain.NotFoundError{Entity: EntityTodo, ID: id}
	}
	return todo, nil
}

// ListTodos returns all committed todos.
func (s *Service) ListTodos(ctx context.Context) []Todo {
	return s.store.ListTodos()
}
