package cache

import (
	"fmt"
	"time"

	"finitefield.org/holding-web/internal/cms"
)

// Key identifies one cached collection. ID is set for single-record entries.
type Key struct {
	Resource cms.Resource
	Lang     string
	ID       string
}

// IsDetail reports whether k addresses a single item or query rather than a collection.
func (k Key) IsDetail() bool { return k.ID != "" }

func (k Key) String() string {
	if k.ID != "" {
		return fmt.Sprintf("%s/%s|%s", k.Resource, k.ID, k.Lang)
	}
	return fmt.Sprintf("%s|%s", k.Resource, k.Lang)
}

// Status is the lifecycle position of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is a snapshot of one entry. Data may be set in any status once a load has succeeded.
type State struct {
	Status    Status
	Data      any
	Err       error
	UpdatedAt time.Time
}

// HasData reports whether a successful load has ever populated the entry.
func (s State) HasData() bool { return !s.UpdatedAt.IsZero() }

// Policy controls freshness and revalidation triggers for an entry.
type Policy struct {
	DedupeWindow          time.Duration
	RevalidateOnFocus     bool
	RevalidateOnReconnect bool
}

// Static suits collections that rarely change.
func Static(window time.Duration) Policy {
	return Policy{DedupeWindow: window, RevalidateOnReconnect: true}
}

// Volatile suits feeds such as news and posts.
func Volatile(window time.Duration) Policy {
	return Policy{DedupeWindow: window, RevalidateOnFocus: true, RevalidateOnReconnect: true}
}

// Result is what a reader sees for one key.
type Result[T any] struct {
	Data T
	// IsLoading is true when no data is available yet and a load is in flight.
	IsLoading bool
	// IsValidating is true while a load is in flight, with or without data.
	IsValidating bool
	Err          error
}
