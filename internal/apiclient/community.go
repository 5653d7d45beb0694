package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"torresegura/internal/models"
)

const (
	pathAreas    = "/api/areas"
	pathExpenses = "/api/expenses"
	pathPayments = "/api/payments"
	pathAlerts   = "/api/alertas/"
)

func (c *Client) ListAreas(ctx context.Context) ([]models.Area, error) {
	var areas []models.Area
	if err := c.authed(ctx, http.MethodGet, pathAreas, nil, &areas, "could not load common areas"); err != nil {
		return nil, err
	}
	return areas, nil
}

func (c *Client) ReserveArea(ctx context.Context, reservation models.Reservation) (models.Reservation, error) {
	if err := ValidateReservation(reservation); err != nil {
		return models.Reservation{}, err
	}
	path := pathAreas + "/" + url.PathEscape(reservation.AreaID) + "/reservations"
	var created models.Reservation
	if err := c.authed(ctx, http.MethodPost, path, reservation, &created, "could not reserve the area"); err != nil {
		return models.Reservation{}, err
	}
	return created, nil
}

// ValidateReservation checks the date (YYYY-MM-DD) and that the time
// range (HH:MM) is not empty.
func ValidateReservation(r models.Reservation) error {
	if strings.TrimSpace(r.AreaID) == "" {
		return fmt.Errorf("%w: area id is required", ErrInvalidInput)
	}
	if _, err := time.Parse(time.DateOnly, r.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	start, err := time.Parse("15:04", r.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start time must be HH:MM", ErrInvalidInput)
	}
	end, err := time.Parse("15:04", r.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end time must be HH:MM", ErrInvalidInput)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	return nil
}

func (c *Client) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := c.authed(ctx, http.MethodGet, pathExpenses, nil, &expenses, "could not load expenses"); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (c *Client) Pay(ctx context.Context, payment models.Payment) error {
	if err := ValidatePayment(payment); err != nil {
		return err
	}
	return c.authed(ctx, http.MethodPost, pathPayments, payment, nil, "could not process the payment")
}

// ValidatePayment requires a known method, and details for every method
// except QR.
func ValidatePayment(p models.Payment) error {
	if strings.TrimSpace(p.ExpenseID) == "" {
		return fmt.Errorf("%w: expense id is required", ErrInvalidInput)
	}
	switch p.Method {
	case models.PaymentTransfer, models.PaymentCard:
		if strings.TrimSpace(p.Details) == "" {
			return fmt.Errorf("%w: payment details are required", ErrInvalidInput)
		}
	case models.PaymentQR:
	case "":
		return fmt.Errorf("%w: select a payment method", ErrInvalidInput)
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, p.Method)
	}
	return nil
}

// SendAlert posts an alert. The token is attached when a session
// exists; the alerts endpoint does not require one.
func (c *Client) SendAlert(ctx context.Context, alert models.Alert) error {
	alert.Title = strings.TrimSpace(alert.Title)
	alert.Description = strings.TrimSpace(alert.Description)
	if alert.Title == "" {
		return fmt.Errorf("%w: alert title is required", ErrInvalidInput)
	}
	token, _ := c.currentToken()
	return c.do(ctx, http.MethodPost, pathAlerts, token, alert, nil, "could not send the alert")
}
