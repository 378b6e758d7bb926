package domain

// ID is used across domain entities.
type ID int64

// Role of an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// PaymentStatus is tracked by admins only; it never gates a reservation step.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentSuccess
}

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID ID     `json:"userId"`
	Role   Role   `json:"role"`
	Email  string `json:"email,omitempty"`
}
