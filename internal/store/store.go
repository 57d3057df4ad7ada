// Package store persists finished payment plans and lists them back.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iwvelando/payment-plan/internal/plan"
)

var (
	// ErrNotFound is returned for unknown or deleted plans.
	ErrNotFound = errors.New("plan not found")

	// ErrInvalidCursor is returned when a continuation cursor cannot be
	// decoded or does not match the requested sort.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Record is a stored plan.
type Record struct {
	ID        string             `json:"id"`
	Plan      plan.Configuration `json:"plan"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Page is one page of a listing.
type Page struct {
	Records    []Record `json:"records"`
	NextCursor string   `json:"nextCursor,omitempty"`
	HasMore    bool     `json:"hasMore"`
}

// Store is the persistence collaborator for finished plans. Deleted plans are
// hidden from Get, Update and List.
type Store interface {
	Save(ctx context.Context, c plan.Configuration) (Record, error)
	Update(ctx context.Context, id string, c plan.Configuration) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q Query) (Page, error)
}
