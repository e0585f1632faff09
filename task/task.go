package task

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Priority is the urgency level of a task.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// MaxTitleLen is the longest title accepted by Add, in characters
// (Unicode code points), matching the schema's maxLength semantics.
const MaxTitleLen = 200

// Validate checks whether the priority value is valid.
func (p Priority) Validate() error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	default:
		return &ValidationError{Msg: fmt.Sprintf("priority must be 1, 2, or 3 (got %d)", p)}
	}
}

// Task represents a single to-do item. The title doubles as the
// identifier; scans match by exact title equality, first match wins.
type Task struct {
	Title       string   `json:"title"`
	Done        bool     `json:"done"`
	Priority    Priority `json:"priority"`
	CreatedAt   string   `json:"created_at"`
	CompletedAt *string  `json:"completed_at"`
}

// ValidationError reports a rejected input or an invalid state
// transition. The list is never mutated when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports that no task with the given title exists.
type NotFoundError struct {
	Title string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("task %q not found", e.Title) }

// validateTitle applies the title constraints shared by all callers.
func validateTitle(title string) error {
	if title == "" {
		return &ValidationError{Msg: "task title cannot be empty"}
	}
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Msg: "task title cannot be only whitespace"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return &ValidationError{Msg: fmt.Sprintf("task title cannot exceed %d characters", MaxTitleLen)}
	}
	return nil
}

// New constructs a Task with CreatedAt set to now.
// The priority is validated; the title is validated by Add.
func New(title string, priority Priority) (Task, error) {
	if err := priority.Validate(); err != nil {
		return Task{}, err
	}
	return Task{
		Title:     title,
		Priority:  priority,
		CreatedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// Add validates the title and priority, then appends a new task.
// Returns the extended list and the created task.
func Add(list []Task, title string, priority Priority) ([]Task, Task, error) {
	if err := validateTitle(title); err != nil {
		return list, Task{}, err
	}
	t, err := New(title, priority)
	if err != nil {
		return list, Task{}, err
	}
	return append(list, t), t, nil
}

// Complete marks the first task matching title as done and stamps
// CompletedAt. Completing an already-done task is a ValidationError.
func Complete(list []Task, title string, now time.Time) ([]Task, Task, error) {
	for i := range list {
		if list[i].Title != title {
			continue
		}
		if list[i].Done {
			return list, Task{}, &ValidationError{Msg: fmt.Sprintf("task %q is already completed", title)}
		}
		ts := now.Format(time.RFC3339)
		list[i].Done = true
		list[i].CompletedAt = &ts
		return list, list[i], nil
	}
	return list, Task{}, &NotFoundError{Title: title}
}

// Remove deletes the first task matching title and returns it.
func Remove(list []Task, title string) ([]Task, Task, error) {
	for i, t := range list {
		if t.Title == title {
			return append(list[:i], list[i+1:]...), t, nil
		}
	}
	return list, Task{}, &NotFoundError{Title: title}
}

// FindByTitle returns the first matching task or false if not found.
func FindByTitle(list []Task, title string) (Task, bool) {
	for i := range list {
		if list[i].Title == title {
			return list[i], true
		}
	}
	return Task{}, false
}

// FilterByPriority returns the tasks with the given priority,
// preserving list order. The priority is assumed valid.
func FilterByPriority(list []Task, priority Priority) []Task {
	out := make([]Task, 0)
	for _, t := range list {
		if t.Priority == priority {
			out = append(out, t)
		}
	}
	return out
}

// CountActive counts tasks with Done == false.
func CountActive(list []Task) int {
	n := 0
	for _, t := range list {
		if !t.Done {
			n++
		}
	}
	return n
}

// CountCompleted counts tasks with Done == true.
func CountCompleted(list []Task) int {
	n := 0
	for _, t := range list {
		if t.Done {
			n++
		}
	}
	return n
}
