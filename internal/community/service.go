package community

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"torresegura/internal/models"
)

// Backend is the subset of the API client the community screens use.
type Backend interface {
	ListEntries(ctx context.Context) ([]models.Entry, error)
	MarkExit(ctx context.Context, entryID string) error
	ListAreas(ctx context.Context) ([]models.Area, error)
	ReserveArea(ctx context.Context, reservation models.Reservation) (models.Reservation, error)
	ListExpenses(ctx context.Context) ([]models.Expense, error)
	Pay(ctx context.Context, payment models.Payment) error
	SendAlert(ctx context.Context, alert models.Alert) error
}

// Notifier records a local notification.
type Notifier interface {
	Append(ctx context.Context, message string) (models.Notification, error)
}

// Service runs the community operations. Notifications are written only
// after the backend confirmed the operation.
type Service struct {
	backend  Backend
	notifier Notifier
	logger   *slog.Logger
}

func NewService(backend Backend, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{backend: backend, notifier: notifier, logger: logger}
}

func (s *Service) Entries(ctx context.Context) ([]models.Entry, error) {
	return s.backend.ListEntries(ctx)
}

// MarkExit records the departure of entry. The returned message is the
// notification text that was stored.
func (s *Service) MarkExit(ctx context.Context, entry models.Entry) (string, error) {
	if err := s.backend.MarkExit(ctx, entry.ID); err != nil {
		return "", err
	}
	message := fmt.Sprintf("%s %s ha salido.", entryLabel(entry.Type), entry.Name)
	s.notify(ctx, message)
	return message, nil
}

// FindEntry returns the listed entry with id.
func (s *Service) FindEntry(ctx context.Context, id string) (models.Entry, error) {
	entries, err := s.backend.ListEntries(ctx)
	if err != nil {
		return models.Entry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Entry{}, fmt.Errorf("entry %s is not in the presence list", id)
}

func entryLabel(kind string) string {
	if kind == models.EntryResident {
		return "Residente"
	}
	return "Visitante"
}

func (s *Service) Areas(ctx context.Context) ([]models.Area, error) {
	return s.backend.ListAreas(ctx)
}

func (s *Service) Reserve(ctx context.Context, reservation models.Reservation) (models.Reservation, error) {
	return s.backend.ReserveArea(ctx, reservation)
}

func (s *Service) Expenses(ctx context.Context) ([]models.Expense, error) {
	return s.backend.ListExpenses(ctx)
}

// Pay settles expense with the chosen method.
func (s *Service) Pay(ctx context.Context, expense models.Expense, method, details string) (string, error) {
	payment := models.Payment{
		ExpenseID: expense.ID,
		Amount:    expense.Amount,
		Method:    strings.ToLower(strings.TrimSpace(method)),
		Details:   strings.TrimSpace(details),
	}
	if err := s.backend.Pay(ctx, payment); err != nil {
		return "", err
	}
	message := fmt.Sprintf("Pago realizado: %s - %s", expense.Description, expense.Amount)
	s.notify(ctx, message)
	return message, nil
}

// FindExpense returns the pending expense with id.
func (s *Service) FindExpense(ctx context.Context, id string) (models.Expense, error) {
	expenses, err := s.backend.ListExpenses(ctx)
	if err != nil {
		return models.Expense{}, err
	}
	for _, e := range expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Expense{}, fmt.Errorf("expense %s is not pending", id)
}

func (s *Service) SendAlert(ctx context.Context, alert models.Alert) error {
	return s.backend.SendAlert(ctx, alert)
}

// notify never fails the operation it follows; the backend already
// accepted it.
func (s *Service) notify(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Append(ctx, message); err != nil {
		s.logger.Warn("could not store notification", "error", err)
	}
}
