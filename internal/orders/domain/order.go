package domain

import "time"

// Order is one cart item tied to a customer email.
type Order struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Paid        bool      `json:"paid"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewOrder captures the fields supplied at creation. The store assigns the ID.
type NewOrder struct {
	Email       string
	Name        string
	Description string
	Amount      float64
	Paid        bool
	Active      bool
}

// Draft returns the creation payload for a fresh order: unpaid and active.
func Draft(email, name, description string, amount float64) NewOrder {
	return NewOrder{
		Email:       email,
		Name:        name,
		Description: description,
		Amount:      amount,
		Paid:        false,
		Active:      true,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	Paid        *bool
	Active      *bool
}

// DetailsPatch rewrites name and description only.
func DetailsPatch(name, description string) Patch {
	return Patch{Name: &name, Description: &description}
}

// ArchivePatch deactivates an order without touching payment.
func ArchivePatch() Patch {
	active := false
	return Patch{Active: &active}
}

// PurchasePatch marks an order paid and inactive.
func PurchasePatch() Patch {
	paid, active := true, false
	return Patch{Paid: &paid, Active: &active}
}

// Apply returns o with p applied. Paid can only move to true and Active only to false.
func (o Order) Apply(p Patch, now time.Time) Order {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Description != nil {
		o.Description = *p.Description
	}
	if p.Paid != nil {
		o.Paid = o.Paid || *p.Paid
	}
	if p.Active != nil {
		o.Active = o.Active && *p.Active
	}
	o.UpdatedAt = now
	return o
}

// UpdateAck is the store's acknowledgement of an update. Matched is zero
// when no order had the given ID, in which case Order is nil.
type UpdateAck struct {
	OrderID string `json:"order_id"`
	Matched int64  `json:"matched"`
	Order   *Order `json:"order,omitempty"`
}

// PurchaseResult is one slot of a bulk purchase, in the order the orders were listed.
type PurchaseResult struct {
	OrderID string     `json:"order_id"`
	Ack     *UpdateAck `json:"ack,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Failed reports whether the slot's update did not succeed.
func (r PurchaseResult) Failed() bool {
	return r.Error != ""
}
