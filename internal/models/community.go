package models

import "time"

type Area struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Capacity    int    `json:"capacity,omitempty"`
}

type Reservation struct {
	ID        string `json:"id,omitempty"`
	AreaID    string `json:"area_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Expense struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	DueDate     string `json:"dueDate"`
}

const (
	PaymentTransfer = "transfer"
	PaymentCard     = "card"
	PaymentQR       = "qr"
)

type Payment struct {
	ExpenseID string `json:"expenseId"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Details   string `json:"details"`
}

type Alert struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Type        string `json:"tipo"`
}

// Notification is an entry of the on-device notification log.
type Notification struct {
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}
