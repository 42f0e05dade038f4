/*Package validate contains the field-level validation rules for all record
kinds of the shop administration backend.

Validators are pure functions: they take a candidate record and return the
full ordered list of field errors, so a frontend can annotate every
offending field at once. An empty list means the record is acceptable for
persistence.
*/
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldError describes a single violated field rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validation thresholds. The money and stock ceilings are soft: values above
// them are almost certainly input mistakes, not legitimate records.
const (
	MaxMoney      = 1000000
	MaxStock      = 1000000
	MaxQuantity   = 10000
	MaxOrderLines = 100
	MaxEmailLen   = 254
)

// The three order statuses
const (
	StatusPending   = "pending"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
)

// OrderStatuses lists all valid order status values
var OrderStatuses = []string{StatusPending, StatusShipped, StatusDelivered}

// ValidOrderStatus returns true if s is one of the three known statuses
func ValidOrderStatus(s string) bool {
	return s == StatusPending || s == StatusShipped || s == StatusDelivered
}

// commonPasswords is a small deny-list of passwords that are rejected outright
var commonPasswords = map[string]bool{
	"123456":    true,
	"password":  true,
	"123456789": true,
}

// ProductInput is a candidate product record. Price and Stock are the raw
// form values, since products arrive as multipart form data.
type ProductInput struct {
	Name        string
	Price       string
	Stock       string
	CategoryID  string
	Description string
}

// Product validates a candidate product record
func Product(in ProductInput) []FieldError {
	var errors []FieldError

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errors = append(errors, FieldError{"name", "product name is required"})
	} else if utf8.RuneCountInString(name) < 3 {
		errors = append(errors, FieldError{"name", "product name must be at least 3 characters"})
	} else if utf8.RuneCountInString(name) > 100 {
		errors = append(errors, FieldError{"name", "product name must not exceed 100 characters"})
	} else if !containsAlphanumeric(name) {
		errors = append(errors, FieldError{"name", "product name must contain at least one alphanumeric character"})
	}

	if strings.TrimSpace(in.Price) == "" {
		errors = append(errors, FieldError{"price", "product price is required"})
	} else if price, err := decimal.NewFromString(strings.TrimSpace(in.Price)); err != nil {
		errors = append(errors, FieldError{"price", "product price must be a valid number"})
	} else if !price.IsPositive() {
		errors = append(errors, FieldError{"price", "product price must be greater than zero"})
	} else if price.GreaterThan(decimal.NewFromInt(MaxMoney)) {
		errors = append(errors, FieldError{"price", "product price seems unreasonably high"})
	} else if price.Exponent() < -2 {
		errors = append(errors, FieldError{"price", "product price must have at most 2 decimal places"})
	}

	if strings.TrimSpace(in.Stock) != "" {
		if stock, err := strconv.Atoi(strings.TrimSpace(in.Stock)); err != nil {
			errors = append(errors, FieldError{"stock", "stock must be a valid integer"})
		} else if stock < 0 {
			errors = append(errors, FieldError{"stock", "stock cannot be negative"})
		} else if stock > MaxStock {
			errors = append(errors, FieldError{"stock", "stock seems unreasonably high"})
		}
	}

	if strings.TrimSpace(in.CategoryID) == "" {
		errors = append(errors, FieldError{"category_id", "category is required"})
	}

	if utf8.RuneCountInString(in.Description) > 2000 {
		errors = append(errors, FieldError{"description", "description must not exceed 2000 characters"})
	}

	return errors
}

// CategoryInput is a candidate category record
type CategoryInput struct {
	Name        string
	Description string
}

// Category validates a candidate category record
func Category(in CategoryInput) []FieldError {
	var errors []FieldError

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errors = append(errors, FieldError{"name", "category name is required"})
	} else if utf8.RuneCountInString(name) < 2 {
		errors = append(errors, FieldError{"name", "category name must be at least 2 characters"})
	} else if utf8.RuneCountInString(name) > 50 {
		errors = append(errors, FieldError{"name", "category name must not exceed 50 characters"})
	}

	if utf8.RuneCountInString(in.Description) > 500 {
		errors = append(errors, FieldError{"description", "description must not exceed 500 characters"})
	}

	return errors
}

// OrderLineInput is one candidate order line. A nil quantity means the
// field was absent from the request.
type OrderLineInput struct {
	ProductID string
	Quantity  *float64
}

// OrderInput is a candidate order record. A nil total amount means the
// field was absent from the request.
type OrderInput struct {
	CustomerName  string
	CustomerEmail string
	Products      []OrderLineInput
	TotalAmount   *float64
	Status        string
}

// Order validates a candidate order record
func Order(in OrderInput) []FieldError {
	var errors []FieldError

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		errors = append(errors, FieldError{"customer_name", "customer name is required"})
	} else if utf8.RuneCountInString(name) < 2 {
		errors = append(errors, FieldError{"customer_name", "customer name must be at least 2 characters"})
	} else if utf8.RuneCountInString(name) > 100 {
		errors = append(errors, FieldError{"customer_name", "customer name must not exceed 100 characters"})
	}

	email := strings.TrimSpace(in.CustomerEmail)
	if email == "" {
		errors = append(errors, FieldError{"customer_email", "customer email is required"})
	} else if !IsValidEmail(email) {
		errors = append(errors, FieldError{"customer_email", "customer email must be a valid email address"})
	}

	if len(in.Products) == 0 {
		errors = append(errors, FieldError{"products", "at least one product is required"})
	} else if len(in.Products) > MaxOrderLines {
		errors = append(errors, FieldError{"products", fmt.Sprintf("an order must not exceed %d products", MaxOrderLines)})
	} else {
		for i, line := range in.Products {
			if strings.TrimSpace(line.ProductID) == "" {
				errors = append(errors, FieldError{
					fmt.Sprintf("products[%d].product_id", i),
					fmt.Sprintf("product id is required for item %d", i+1),
				})
			}
			switch {
			case line.Quantity == nil || *line.Quantity < 1:
				errors = append(errors, FieldError{
					fmt.Sprintf("products[%d].quantity", i),
					fmt.Sprintf("valid quantity is required for item %d", i+1),
				})
			case *line.Quantity != math.Trunc(*line.Quantity):
				errors = append(errors, FieldError{
					fmt.Sprintf("products[%d].quantity", i),
					fmt.Sprintf("quantity must be a whole number for item %d", i+1),
				})
			case *line.Quantity > MaxQuantity:
				errors = append(errors, FieldError{
					fmt.Sprintf("products[%d].quantity", i),
					fmt.Sprintf("quantity seems unreasonably high for item %d", i+1),
				})
			}
		}
	}

	switch {
	case in.TotalAmount == nil:
		errors = append(errors, FieldError{"total_amount", "total amount is required"})
	case math.IsNaN(*in.TotalAmount) || math.IsInf(*in.TotalAmount, 0):
		errors = append(errors, FieldError{"total_amount", "total amount must be a valid number"})
	case *in.TotalAmount <= 0:
		errors = append(errors, FieldError{"total_amount", "total amount must be greater than zero"})
	case *in.TotalAmount > MaxMoney:
		errors = append(errors, FieldError{"total_amount", "total amount seems unreasonably high"})
	}

	if in.Status != "" && !ValidOrderStatus(in.Status) {
		errors = append(errors, FieldError{"status", "status must be one of: pending, shipped, delivered"})
	}

	return errors
}

// RegistrationInput is a candidate user registration
type RegistrationInput struct {
	Name     string
	Email    string
	Password string
}

// Registration validates a candidate user registration
func Registration(in RegistrationInput) []FieldError {
	var errors []FieldError

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errors = append(errors, FieldError{"name", "name is required"})
	} else if utf8.RuneCountInString(name) < 2 {
		errors = append(errors, FieldError{"name", "name must be at least 2 characters"})
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		errors = append(errors, FieldError{"email", "email is required"})
	} else if !IsValidEmail(email) {
		errors = append(errors, FieldError{"email", "email must be a valid email address"})
	}

	switch {
	case strings.TrimSpace(in.Password) == "":
		errors = append(errors, FieldError{"password", "password is required"})
	case len(in.Password) < 6:
		errors = append(errors, FieldError{"password", "password must be at least 6 characters"})
	case len(in.Password) > 128:
		errors = append(errors, FieldError{"password", "password must not exceed 128 characters"})
	case commonPasswords[in.Password]:
		errors = append(errors, FieldError{"password", "password is too common"})
	}

	return errors
}

// LoginInput is a candidate login request
type LoginInput struct {
	Email    string
	Password string
}

// Login validates a candidate login request
func Login(in LoginInput) []FieldError {
	var errors []FieldError

	email := strings.TrimSpace(in.Email)
	if email == "" {
		errors = append(errors, FieldError{"email", "email is required"})
	} else if !IsValidEmail(email) {
		errors = append(errors, FieldError{"email", "email must be a valid email address"})
	}

	if strings.TrimSpace(in.Password) == "" {
		errors = append(errors, FieldError{"password", "password is required"})
	}

	return errors
}

// IsValidEmail checks that the address is RFC-shaped: a non-empty local
// part of at most 64 characters, exactly one @, and a domain of at least
// two labels where each label is 1-63 alphanumeric-or-hyphen characters
// without leading or trailing hyphen. The whole address must not exceed
// 254 characters.
func IsValidEmail(email string) bool {
	if len(email) == 0 || len(email) > MaxEmailLen {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	at := strings.IndexRune(email, '@')
	local, domain := email[:at], email[at+1:]
	if len(local) == 0 || len(local) > 64 {
		return false
	}
	for _, r := range local {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for i, label := range labels {
		if len(label) < 1 || len(label) > 63 {
			return false
		}
		// top-level domains are at least two characters
		if i == len(labels)-1 && len(label) < 2 {
			return false
		}
		for j, r := range label {
			alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !alnum && r != '-' {
				return false
			}
			if r == '-' && (j == 0 || j == len(label)-1) {
				return false
			}
		}
	}
	return true
}

func containsAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
