package store

import (
	"context"
	"time"

	"torresegura/internal/models"
)

// Account is an authenticated user as the backend sees it.
type Account struct {
	UserID     string
	Username   string
	Role       string
	FullName   string
	DwellingID int64
}

func (a Account) Profile() models.User {
	return models.User{
		Username:   a.Username,
		Rol:        &models.RoleInfo{Nombre: a.Role},
		DwellingID: a.DwellingID,
		FullName:   a.FullName,
	}
}

type CreateVisitInput struct {
	Account         Account
	VisitorName     string
	VisitorDocument string
	DwellingID      int64
	Purpose         string
	CreatedAt       time.Time
}

type VerifyInput struct {
	Account    Account
	VisitID    string
	Signature  string
	VerifiedAt time.Time
}

type PaymentInput struct {
	Account   Account
	ExpenseID string
	Amount    string
	Method    string
	Details   string
	PaidAt    time.Time
}

type PaymentRecord struct {
	PaymentID string
	ExpenseID string
	Username  string
	Amount    string
	Method    string
	PaidAt    time.Time
}

type AlertRecord struct {
	AlertID   string
	Username  string
	Alert     models.Alert
	CreatedAt time.Time
}

type AuthStore interface {
	Login(ctx context.Context, username, password string) (models.TokenPair, error)
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)
	Authenticate(ctx context.Context, access string) (Account, error)
}

type AccessStore interface {
	CreateVisit(ctx context.Context, input CreateVisitInput) (models.VisitReceipt, error)
	VerifyVisit(ctx context.Context, input VerifyInput) (models.Verification, error)
	ListEntries(ctx context.Context) ([]models.Entry, error)
	MarkExit(ctx context.Context, entryID string, at time.Time) (models.Entry, error)
}

type CommunityStore interface {
	ListAreas(ctx context.Context) ([]models.Area, error)
	ReserveArea(ctx context.Context, account Account, reservation models.Reservation) (models.Reservation, error)
	ListExpenses(ctx context.Context, account Account) ([]models.Expense, error)
	Pay(ctx context.Context, input PaymentInput) (PaymentRecord, error)
	CreateAlert(ctx context.Context, username string, alert models.Alert, at time.Time) (AlertRecord, error)
}

type Store interface {
	AuthStore
	AccessStore
	CommunityStore
}
