// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"time"

	"github.com/google/uuid"
)

// User is one staff account. The password hash is never serialized.
type User struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Category is one product category
type Category struct {
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is one product of the catalogue. CategoryName is resolved on
// read paths and not persisted.
type Product struct {
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Description  string    `json:"description"`
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Image        string    `json:"image"`
	Stock        int       `json:"stock"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderLine is one product line of an order. Only product identifier and
// quantity are persisted; name and price are resolved on read paths and
// left absent when the referenced product no longer exists.
type OrderLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Name      string    `json:"name,omitempty"`
	Price     *float64  `json:"price,omitempty"`
}

// Order is one customer order with its embedded product lines
type Order struct {
	OrderID       uuid.UUID   `json:"order_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	Products      []OrderLine `json:"products"`
	TotalAmount   float64     `json:"total_amount"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}
