package models

import (
	"time"
)

// Model is a row stored by the web service. [Session] is the only implementation.
//
// Records are ordered by Sequence and become invisible once Expired reports true, even before the
// sweeper removes them.
type Model interface {
	ID() string
	Sequence() int
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Expired(now time.Time) bool
	Validate() error
}

// Repository stores expiring records of one type.
//
// Get, Update and Delete wrap shared.ErrNoSession for an unknown or deleted ID. List filters on
// the criteria keys an implementation documents. Expire removes every record that expired at or
// before the given time and reports how many it removed.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
	Expire(before time.Time) (int64, error)
}
