package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"torresegura/internal/devserver/store"
	"torresegura/internal/models"
)

type Options struct {
	SigningKey string
	TokenTTL   time.Duration
	RefreshTTL time.Duration
	VisitTTL   time.Duration
	BcryptCost int
	Now        func() time.Time
}

type user struct {
	account      store.Account
	passwordHash []byte
}

type token struct {
	username  string
	expiresAt time.Time
}

type visit struct {
	id           string
	name         string
	document     string
	purpose      string
	dwellingID   int64
	authorizedBy string
	status       string
	createdAt    time.Time
	expiresAt    time.Time
	verifiedAt   time.Time
}

type expense struct {
	dwellingID int64
	expense    models.Expense
	paid       bool
}

// Store keeps the whole backend state in memory.
type Store struct {
	opts   Options
	signer signer

	mu           sync.Mutex
	users        map[string]*user
	access       map[string]token
	refresh      map[string]token
	dwellings    map[int64]string
	visits       map[string]*visit
	nextVisitID  int64
	entries      map[string]*models.Entry
	entryOrder   []string
	areas        []models.Area
	reservations []models.Reservation
	expenses     []*expense
	payments     []store.PaymentRecord
	alerts       []store.AlertRecord
}

var _ store.Store = (*Store)(nil)

func New(opts Options, seed Seed) (*Store, error) {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	if opts.VisitTTL <= 0 {
		opts.VisitTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		opts:      opts,
		signer:    newSigner(opts.SigningKey),
		users:     make(map[string]*user),
		access:    make(map[string]token),
		refresh:   make(map[string]token),
		dwellings: make(map[int64]string),
		visits:    make(map[string]*visit),
		entries:   make(map[string]*models.Entry),
		areas:     append([]models.Area(nil), seed.Areas...),
	}
	for id, label := range seed.Dwellings {
		s.dwellings[id] = label
	}
	for _, u := range seed.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), opts.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		username := strings.ToLower(u.Username)
		s.users[username] = &user{
			account: store.Account{
				UserID:     uuid.NewString(),
				Username:   username,
				Role:       u.Role,
				FullName:   u.FullName,
				DwellingID: u.DwellingID,
			},
			passwordHash: hash,
		}
	}
	for _, e := range seed.Expenses {
		s.expenses = append(s.expenses, &expense{dwellingID: e.DwellingID, expense: e.Expense})
	}
	now := opts.Now().UTC()
	for i, resident := range seed.Residents {
		entry := resident
		entry.ID = "r" + strconv.Itoa(i+1)
		entry.Status = models.VisitScanned
		if entry.EntryTime == "" {
			entry.EntryTime = now.Format("2006-01-02 15:04")
		}
		s.addEntry(&entry)
	}
	return s, nil
}

func (s *Store) Login(ctx context.Context, username, password string) (models.TokenPair, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	s.mu.Unlock()
	if !ok {
		return models.TokenPair{}, store.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return models.TokenPair{}, store.ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Now()
	pair := models.TokenPair{Access: uuid.NewString(), Refresh: uuid.NewString()}
	s.access[pair.Access] = token{username: u.account.Username, expiresAt: now.Add(s.opts.TokenTTL)}
	s.refresh[pair.Refresh] = token{username: u.account.Username, expiresAt: now.Add(s.opts.RefreshTTL)}
	return pair, nil
}

// Refresh issues a new access token. The refresh token is not rotated.
func (s *Store) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Now()
	rec, ok := s.refresh[refresh]
	if !ok || !now.Before(rec.expiresAt) {
		delete(s.refresh, refresh)
		return models.TokenPair{}, store.ErrSessionNotFound
	}
	pair := models.TokenPair{Access: uuid.NewString(), Refresh: refresh}
	s.access[pair.Access] = token{username: rec.username, expiresAt: now.Add(s.opts.TokenTTL)}
	return pair, nil
}

func (s *Store) Authenticate(ctx context.Context, access string) (store.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.access[access]
	if !ok {
		return store.Account{}, store.ErrSessionNotFound
	}
	if !s.opts.Now().Before(rec.expiresAt) {
		delete(s.access, access)
		return store.Account{}, store.ErrSessionNotFound
	}
	u, ok := s.users[rec.username]
	if !ok {
		return store.Account{}, store.ErrSessionNotFound
	}
	return u.account, nil
}

func (s *Store) CreateVisit(ctx context.Context, input store.CreateVisitInput) (models.VisitReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dwellings[input.DwellingID]; !ok {
		return models.VisitReceipt{}, store.ErrDwellingNotFound
	}
	if input.Account.DwellingID != input.DwellingID {
		return models.VisitReceipt{}, store.ErrAccessDenied
	}

	s.nextVisitID++
	v := &visit{
		id:           strconv.FormatInt(s.nextVisitID, 10),
		name:         input.VisitorName,
		document:     input.VisitorDocument,
		purpose:      input.Purpose,
		dwellingID:   input.DwellingID,
		authorizedBy: input.Account.FullName,
		status:       models.VisitPending,
		createdAt:    input.CreatedAt,
		expiresAt:    input.CreatedAt.Add(s.opts.VisitTTL),
	}
	if v.authorizedBy == "" {
		v.authorizedBy = input.Account.Username
	}

	payload := models.QRPayload{ID: models.FlexID(v.id), Signature: s.signer.sign(v.id)}
	text, err := json.Marshal(payload)
	if err != nil {
		return models.VisitReceipt{}, err
	}
	png, err := qrcode.Encode(string(text), qrcode.Medium, 256)
	if err != nil {
		return models.VisitReceipt{}, fmt.Errorf("encode qr: %w", err)
	}
	s.visits[v.id] = v

	expires := v.expiresAt
	return models.VisitReceipt{
		ID:        payload.ID,
		Signature: payload.Signature,
		QRBase64:  base64.StdEncoding.EncodeToString(png),
		Status:    v.status,
		ExpiresAt: &expires,
	}, nil
}

// VerifyVisit checks a scanned payload. Presenting a known visit marks
// it scanned; only a correctly signed, unexpired and unused one becomes
// verified and enters the presence list.
func (s *Store) VerifyVisit(ctx context.Context, input store.VerifyInput) (models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visits[input.VisitID]
	if !ok {
		return models.Verification{}, store.ErrVisitNotFound
	}
	if store.ValidTransition("scan", v.status) {
		v.status = models.VisitScanned
	}

	result := models.Verification{VisitID: models.FlexID(v.id), Status: v.status}
	switch {
	case !s.signer.verify(v.id, input.Signature):
		result.Error = "Firma inválida"
		return result, nil
	case !input.VerifiedAt.Before(v.expiresAt):
		result.Error = "QR expirado"
		return result, nil
	case !store.ValidTransition("verify", v.status):
		result.Error = "QR ya utilizado"
		return result, nil
	}

	v.status = models.VisitVerified
	v.verifiedAt = input.VerifiedAt
	s.addEntry(&models.Entry{
		ID:               v.id,
		Name:             v.name,
		Type:             models.EntryVisitor,
		Status:           v.status,
		Document:         v.document,
		Purpose:          v.purpose,
		DepartmentNumber: s.dwellings[v.dwellingID],
		WhoAuthorizes:    v.authorizedBy,
		EntryTime:        input.VerifiedAt.UTC().Format("2006-01-02 15:04"),
	})

	result.Valid = true
	result.Status = v.status
	result.Visitor = v.name
	result.Document = v.document
	result.Purpose = v.purpose
	result.Dwelling = s.dwellings[v.dwellingID]
	result.AuthorizedBy = v.authorizedBy
	result.VerifiedAt = input.VerifiedAt.UTC().Format(time.RFC3339)
	return result, nil
}

// addEntry must be called with mu held.
func (s *Store) addEntry(entry *models.Entry) {
	if _, exists := s.entries[entry.ID]; !exists {
		s.entryOrder = append(s.entryOrder, entry.ID)
	}
	s.entries[entry.ID] = entry
}

// ListEntries returns who is currently inside, in order of arrival.
func (s *Store) ListEntries(ctx context.Context) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Entry, 0, len(s.entryOrder))
	for _, id := range s.entryOrder {
		entry := s.entries[id]
		if entry.Status == models.VisitDeparted {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (s *Store) MarkExit(ctx context.Context, entryID string, at time.Time) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return models.Entry{}, store.ErrEntryNotFound
	}
	if !store.ValidTransition("mark_exit", entry.Status) {
		return models.Entry{}, store.ErrInvalidState
	}
	entry.Status = models.VisitDeparted
	if v, ok := s.visits[entryID]; ok && entry.Type == models.EntryVisitor {
		v.status = models.VisitDeparted
	}
	return *entry, nil
}

func (s *Store) ListAreas(ctx context.Context) ([]models.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Area(nil), s.areas...), nil
}

func (s *Store) ReserveArea(ctx context.Context, account store.Account, reservation models.Reservation) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, area := range s.areas {
		if area.ID == reservation.AreaID {
			found = true
			break
		}
	}
	if !found {
		return models.Reservation{}, store.ErrAreaNotFound
	}
	for _, existing := range s.reservations {
		if existing.AreaID != reservation.AreaID || existing.Date != reservation.Date {
			continue
		}
		// HH:MM strings order the same way as the times they name.
		if reservation.StartTime < existing.EndTime && existing.StartTime < reservation.EndTime {
			return models.Reservation{}, store.ErrSlotTaken
		}
	}

	reservation.ID = uuid.NewString()
	reservation.Status = "confirmed"
	reservation.Username = account.Username
	s.reservations = append(s.reservations, reservation)
	sort.SliceStable(s.reservations, func(i, j int) bool {
		a, b := s.reservations[i], s.reservations[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.StartTime < b.StartTime
	})
	return reservation, nil
}

// ListExpenses returns the unpaid expenses of the account's dwelling.
func (s *Store) ListExpenses(ctx context.Context, account store.Account) ([]models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Expense{}
	for _, e := range s.expenses {
		if e.dwellingID == account.DwellingID && !e.paid {
			out = append(out, e.expense)
		}
	}
	return out, nil
}

func (s *Store) Pay(ctx context.Context, input store.PaymentInput) (store.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *expense
	for _, e := range s.expenses {
		if e.expense.ID == input.ExpenseID && e.dwellingID == input.Account.DwellingID {
			target = e
			break
		}
	}
	if target == nil || target.paid {
		return store.PaymentRecord{}, store.ErrExpenseNotFound
	}
	if input.Amount != "" && !sameAmount(input.Amount, target.expense.Amount) {
		return store.PaymentRecord{}, store.ErrAmountMismatch
	}

	target.paid = true
	record := store.PaymentRecord{
		PaymentID: uuid.NewString(),
		ExpenseID: target.expense.ID,
		Username:  input.Account.Username,
		Amount:    target.expense.Amount,
		Method:    input.Method,
		PaidAt:    input.PaidAt,
	}
	s.payments = append(s.payments, record)
	return record, nil
}

func sameAmount(a, b string) bool {
	x, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	y, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA != nil || errB != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return x == y
}

func (s *Store) CreateAlert(ctx context.Context, username string, alert models.Alert, at time.Time) (store.AlertRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := store.AlertRecord{
		AlertID:   uuid.NewString(),
		Username:  username,
		Alert:     alert,
		CreatedAt: at,
	}
	s.alerts = append(s.alerts, record)
	return record, nil
}

// Alerts returns every alert received so far.
func (s *Store) Alerts() []store.AlertRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.AlertRecord(nil), s.alerts...)
}

// Payments returns every payment recorded so far.
func (s *Store) Payments() []store.PaymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.PaymentRecord(nil), s.payments...)
}
