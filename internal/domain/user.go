package domain

import "time"

// User is the payer collaborator record: enough identity for the payment
// gateway plus the stored gateway account reference backfilled after the
// first successful charge.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name,omitempty"`
	PasswordHash     string    `json:"-"`
	Phone            string    `json:"phone,omitempty"`
	Address          string    `json:"address,omitempty"`
	RecurlyAccountID string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
