package service

import (
	"context"
	"time"

	"task-app/task"
)

// App is the task list service. Every operation performs a full
// load-scan-save cycle against the injected Store; no state is cached
// between calls, so the storage file stays the sole source of truth.
// Mutations run through Store.Update, which holds the store's exclusion
// across the whole cycle.
//
// Titles act as identifiers. Duplicates are not rejected; every scan
// returns the first match in storage order.
type App struct {
	store Store
}

// NewApp wires an App to its storage backend and initializes the
// backend to an empty collection if it does not exist yet.
func NewApp(ctx context.Context, store Store) (*App, error) {
	if err := store.Ensure(ctx); err != nil {
		return nil, err
	}
	return &App{store: store}, nil
}

// AddTask validates the title and priority, appends a new task and
// persists the list. Returns the created task.
func (a *App) AddTask(ctx context.Context, title string, priority task.Priority) (task.Task, error) {
	var created task.Task
	err := a.store.Update(ctx, func(list []task.Task) ([]task.Task, error) {
		list, t, err := task.Add(list, title, priority)
		if err != nil {
			return nil, err
		}
		created = t
		return list, nil
	})
	if err != nil {
		return task.Task{}, err
	}
	return created, nil
}

// CompleteTask marks the first task matching title as done. Completing
// an already-done task fails without touching storage.
func (a *App) CompleteTask(ctx context.Context, title string) (task.Task, error) {
	var completed task.Task
	err := a.store.Update(ctx, func(list []task.Task) ([]task.Task, error) {
		list, t, err := task.Complete(list, title, time.Now())
		if err != nil {
			return nil, err
		}
		completed = t
		return list, nil
	})
	if err != nil {
		return task.Task{}, err
	}
	return completed, nil
}

// DeleteTask removes the first task matching title and returns it in
// the state it had at removal time.
func (a *App) DeleteTask(ctx context.Context, title string) (task.Task, error) {
	var removed task.Task
	err := a.store.Update(ctx, func(list []task.Task) ([]task.Task, error) {
		list, t, err := task.Remove(list, title)
		if err != nil {
			return nil, err
		}
		removed = t
		return list, nil
	})
	if err != nil {
		return task.Task{}, err
	}
	return removed, nil
}

// GetTask returns the first task matching title. Read-only.
func (a *App) GetTask(ctx context.Context, title string) (task.Task, error) {
	list, err := a.store.Load(ctx)
	if err != nil {
		return task.Task{}, err
	}
	t, ok := task.FindByTitle(list, title)
	if !ok {
		return task.Task{}, &task.NotFoundError{Title: title}
	}
	return t, nil
}

// GetAllTasks returns the full collection in storage order.
func (a *App) GetAllTasks(ctx context.Context) ([]task.Task, error) {
	return a.store.Load(ctx)
}

// ActiveTasksCount counts tasks not yet completed.
func (a *App) ActiveTasksCount(ctx context.Context) (int, error) {
	list, err := a.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	return task.CountActive(list), nil
}

// CompletedTasksCount counts completed tasks.
func (a *App) CompletedTasksCount(ctx context.Context) (int, error) {
	list, err := a.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	return task.CountCompleted(list), nil
}

// TasksByPriority returns the tasks with the given priority in storage
// order. An out-of-range priority is a validation error.
func (a *App) TasksByPriority(ctx context.Context, priority task.Priority) ([]task.Task, error) {
	if err := priority.Validate(); err != nil {
		return nil, err
	}
	list, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return task.FilterByPriority(list, priority), nil
}

// HighPriorityTasks returns all priority-3 tasks.
func (a *App) HighPriorityTasks(ctx context.Context) ([]task.Task, error) {
	return a.TasksByPriority(ctx, task.PriorityHigh)
}
