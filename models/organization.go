package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the billing state of an organization
type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCancelled  SubscriptionStatus = "cancelled"
	SubscriptionSuspended  SubscriptionStatus = "suspended"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
)

// Subscription holds the billing state consulted by the subscription and feature gates
type Subscription struct {
	Status SubscriptionStatus `json:"status" db:"subscription_status"`
	PlanID string             `json:"plan_id" db:"subscription_plan"`
}

// IsActive reports whether the subscription allows paid features.
// Only active and trialing subscriptions qualify.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionTrialing
}

// Organization represents a tenant in the multi-tenant system
type Organization struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Slug         string       `json:"slug" db:"slug"` // URL-friendly identifier
	IsActive     bool         `json:"is_active" db:"is_active"`
	Subscription Subscription `json:"subscription"`
	Features     []string     `json:"features" db:"features"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Organization model
func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization creates a new active Organization on a trial subscription
func NewOrganization(name, slug, planID string) *Organization {
	now := time.Now()
	return &Organization{
		ID:       uuid.New(),
		Name:     name,
		Slug:     slug,
		IsActive: true,
		Subscription: Subscription{
			Status: SubscriptionTrialing,
			PlanID: planID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasFeature returns true if the feature flag is enabled for the organization
func (o *Organization) HasFeature(feature string) bool {
	for _, f := range o.Features {
		if f == feature {
			return true
		}
	}
	return false
}
