package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when the requested record does
// not exist.
var ErrNotFound = errors.New("not found")

// Route status values as stored.
const (
	RouteStatusActive   = "active"
	RouteStatusPending  = "pending"
	RouteStatusRejected = "rejected"
)

// Schedule is a route's daily operating window.
type Schedule struct {
	Start string `json:"start"` // "HH:MM"
	End   string `json:"end"`
}

// Route represents a transit route (taxi, bus or calafia line).
type Route struct {
	ID          string    `json:"id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Type        string    `json:"type"` // taxi | bus | calafia
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	Schedule    *Schedule `json:"schedule,omitempty"`
	Landmarks   []string  `json:"landmarks,omitempty"`
	Path        GeoPath   `json:"path"`
	Active      bool      `json:"active"`
	Status      string    `json:"status"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Computed on proximity-ranked listings, absent otherwise.
	Score         *float64 `json:"score,omitempty"`
	DistanceLabel string   `json:"distance_label,omitempty"`
}

// Name is the display name used for text filtering ("Centro - Otay").
func (r *Route) Name() string {
	return r.From + " - " + r.To
}

// User is an account able to propose or (for admins) manage routes.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      *Role     `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Proposal is a route awaiting review, plus its review outcome.
type Proposal struct {
	ID         string     `json:"id"`
	Route      Route      `json:"route"`
	ProposedBy string     `json:"proposed_by"`
	Status     string     `json:"status"` // pending | approved | rejected
	ApprovedBy string     `json:"approved_by,omitempty"`
	RejectedBy string     `json:"rejected_by,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
