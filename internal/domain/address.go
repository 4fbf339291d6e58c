package domain

import "time"

// Address is a customer shipping address.
type Address struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"-"`
	RecipientName string    `json:"recipientName"`
	Phone         string    `json:"phone"`
	Street        string    `json:"street"`
	Ward          string    `json:"ward,omitempty"`
	District      string    `json:"district,omitempty"`
	Province      string    `json:"province"`
	IsDefault     bool      `json:"isDefault"`
	CreatedAt     time.Time `json:"createdAt"`
}
