package memory

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"torresegura/internal/devserver/store"
	"torresegura/internal/models"
)

func newTestStore(t *testing.T, now *time.Time) *Store {
	t.Helper()
	s, err := New(Options{
		SigningKey: "test-key",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return *now },
	}, DefaultSeed())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func login(t *testing.T, s *Store, username, password string) store.Account {
	t.Helper()
	pair, err := s.Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("Login(%s): %v", username, err)
	}
	account, err := s.Authenticate(context.Background(), pair.Access)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return account
}

func TestLoginAndTokenExpiry(t *testing.T) {
	now := time.Date(2025, 4, 30, 8, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)
	ctx := context.Background()

	if _, err := s.Login(ctx, "residente", "wrong"); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := s.Login(ctx, "nadie", "x"); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	pair, err := s.Login(ctx, "Residente", "residente123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	account, err := s.Authenticate(ctx, pair.Access)
	if err != nil || account.DwellingID != 1 || account.Role != "Residente" {
		t.Fatalf("account=%+v err=%v", account, err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.Authenticate(ctx, pair.Access); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expected expired token, got %v", err)
	}

	refreshed, err := s.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.Refresh != pair.Refresh || refreshed.Access == pair.Access {
		t.Fatalf("refreshed=%+v", refreshed)
	}
	if _, err := s.Authenticate(ctx, refreshed.Access); err != nil {
		t.Fatalf("refreshed token rejected: %v", err)
	}
}

func TestVisitLifecycle(t *testing.T) {
	now := time.Date(2025, 4, 30, 8, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)
	ctx := context.Background()
	resident := login(t, s, "residente", "residente123")
	guard := login(t, s, "vigilante", "vigilante123")

	receipt, err := s.CreateVisit(ctx, store.CreateVisitInput{
		Account: resident, VisitorName: "Juan Pérez", VisitorDocument: "123", DwellingID: 1, Purpose: "Visita", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	png, err := base64.StdEncoding.DecodeString(receipt.QRBase64)
	if err != nil || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("qr_base64 is not a PNG (err=%v)", err)
	}

	bad, err := s.VerifyVisit(ctx, store.VerifyInput{Account: guard, VisitID: receipt.ID.String(), Signature: "forged", VerifiedAt: now})
	if err != nil || bad.Valid || bad.Status != models.VisitScanned {
		t.Fatalf("forged signature: %+v err=%v", bad, err)
	}

	ok, err := s.VerifyVisit(ctx, store.VerifyInput{Account: guard, VisitID: receipt.ID.String(), Signature: receipt.Signature, VerifiedAt: now})
	if err != nil || !ok.Valid || ok.Visitor != "Juan Pérez" || ok.Dwelling != "Torre A - 102" || ok.AuthorizedBy != "María Gómez" {
		t.Fatalf("verification=%+v err=%v", ok, err)
	}

	again, _ := s.VerifyVisit(ctx, store.VerifyInput{Account: guard, VisitID: receipt.ID.String(), Signature: receipt.Signature, VerifiedAt: now})
	if again.Valid {
		t.Fatal("a QR must not verify twice")
	}

	entries, _ := s.ListEntries(ctx)
	if len(entries) != 3 || entries[2].ID != receipt.ID.String() || entries[2].Type != models.EntryVisitor {
		t.Fatalf("entries=%+v", entries)
	}

	if _, err := s.MarkExit(ctx, receipt.ID.String(), now); err != nil {
		t.Fatalf("MarkExit: %v", err)
	}
	if _, err := s.MarkExit(ctx, receipt.ID.String(), now); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("second exit should fail, got %v", err)
	}
	if _, err := s.MarkExit(ctx, "missing", now); !errors.Is(err, store.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	entries, _ = s.ListEntries(ctx)
	if len(entries) != 2 {
		t.Fatalf("departed entry still listed: %+v", entries)
	}
}

func TestVerifyExpiredVisit(t *testing.T) {
	now := time.Date(2025, 4, 30, 8, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)
	ctx := context.Background()
	resident := login(t, s, "residente", "residente123")

	receipt, err := s.CreateVisit(ctx, store.CreateVisitInput{Account: resident, VisitorName: "Ana", VisitorDocument: "9", DwellingID: 1, CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	result, err := s.VerifyVisit(ctx, store.VerifyInput{VisitID: receipt.ID.String(), Signature: receipt.Signature, VerifiedAt: now.Add(25 * time.Hour)})
	if err != nil || result.Valid || result.Error != "QR expirado" {
		t.Fatalf("result=%+v err=%v", result, err)
	}
	if _, err := s.VerifyVisit(ctx, store.VerifyInput{VisitID: "999", Signature: "x", VerifiedAt: now}); !errors.Is(err, store.ErrVisitNotFound) {
		t.Fatalf("expected ErrVisitNotFound, got %v", err)
	}
}

func TestCreateVisitChecksDwelling(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, &now)
	ctx := context.Background()
	resident := login(t, s, "residente", "residente123")

	if _, err := s.CreateVisit(ctx, store.CreateVisitInput{Account: resident, VisitorName: "A", VisitorDocument: "1", DwellingID: 42, CreatedAt: now}); !errors.Is(err, store.ErrDwellingNotFound) {
		t.Fatalf("expected ErrDwellingNotFound, got %v", err)
	}
	if _, err := s.CreateVisit(ctx, store.CreateVisitInput{Account: resident, VisitorName: "A", VisitorDocument: "1", DwellingID: 2, CreatedAt: now}); !errors.Is(err, store.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestReserveAreaRejectsOverlap(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, &now)
	ctx := context.Background()
	resident := login(t, s, "residente", "residente123")

	first := models.Reservation{AreaID: "piscina", Date: "2025-05-10", StartTime: "10:00", EndTime: "12:00"}
	created, err := s.ReserveArea(ctx, resident, first)
	if err != nil || created.ID == "" || created.Username != "residente" {
		t.Fatalf("created=%+v err=%v", created, err)
	}

	overlap := models.Reservation{AreaID: "piscina", Date: "2025-05-10", StartTime: "11:30", EndTime: "13:00"}
	if _, err := s.ReserveArea(ctx, resident, overlap); !errors.Is(err, store.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	adjacent := models.Reservation{AreaID: "piscina", Date: "2025-05-10", StartTime: "12:00", EndTime: "13:00"}
	if _, err := s.ReserveArea(ctx, resident, adjacent); err != nil {
		t.Fatalf("adjacent slot: %v", err)
	}
	if _, err := s.ReserveArea(ctx, resident, models.Reservation{AreaID: "cancha", Date: "2025-05-10", StartTime: "10:00", EndTime: "11:00"}); !errors.Is(err, store.ErrAreaNotFound) {
		t.Fatalf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestPayRemovesExpense(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, &now)
	ctx := context.Background()
	resident := login(t, s, "residente", "residente123")

	expenses, _ := s.ListExpenses(ctx, resident)
	if len(expenses) != 2 {
		t.Fatalf("expenses=%+v", expenses)
	}
	if _, err := s.Pay(ctx, store.PaymentInput{Account: resident, ExpenseID: "1", Amount: "99", Method: models.PaymentQR}); !errors.Is(err, store.ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if _, err := s.Pay(ctx, store.PaymentInput{Account: resident, ExpenseID: "1", Amount: "150", Method: models.PaymentQR}); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if _, err := s.Pay(ctx, store.PaymentInput{Account: resident, ExpenseID: "1", Method: models.PaymentQR}); !errors.Is(err, store.ErrExpenseNotFound) {
		t.Fatalf("paying twice should fail, got %v", err)
	}
	if _, err := s.Pay(ctx, store.PaymentInput{Account: resident, ExpenseID: "3", Method: models.PaymentQR}); !errors.Is(err, store.ErrExpenseNotFound) {
		t.Fatalf("other dwelling's expense should not be payable, got %v", err)
	}
	expenses, _ = s.ListExpenses(ctx, resident)
	if len(expenses) != 1 || len(s.Payments()) != 1 {
		t.Fatalf("expenses=%+v payments=%d", expenses, len(s.Payments()))
	}
}

func TestSignerIsKeyed(t *testing.T) {
	a, b := newSigner("one"), newSigner("two")
	if a.sign("42") == b.sign("42") {
		t.Fatal("different keys produced the same signature")
	}
	if !a.verify("42", a.sign("42")) || a.verify("43", a.sign("42")) {
		t.Fatal("signature does not bind the visit id")
	}
}
