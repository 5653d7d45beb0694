package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"torresegura/internal/apiclient"
	"torresegura/internal/devserver/store"
	"torresegura/internal/menu"
	"torresegura/internal/models"
)

const (
	pathToken        = "/api/token/"
	pathTokenRefresh = "/api/token/refresh/"
)

type Handler struct {
	store store.Store
	now   func() time.Time
}

type Options struct {
	Now func() time.Time
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type markExitRequest struct {
	Status string `json:"status"`
}

type paymentResponse struct {
	PaymentID string `json:"payment_id"`
	ExpenseID string `json:"expenseId"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Status    string `json:"status"`
	PaidAt    string `json:"paid_at"`
}

type alertResponse struct {
	ID        string `json:"id"`
	Title     string `json:"titulo"`
	Type      string `json:"tipo"`
	CreatedAt string `json:"fecha"`
}

type errorResponse struct {
	RequestID string        `json:"request_id,omitempty"`
	Error     responseError `json:"error"`
	Detail    string        `json:"detail"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(store store.Store, options Options) *Handler {
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Handler{store: store, now: options.Now}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc(pathToken, h.handleToken)
	mux.HandleFunc(pathTokenRefresh, h.handleRefresh)
	mux.HandleFunc("/api/me/", h.handleMe)
	mux.HandleFunc("/accesos/api/visitas/crear/", h.handleCreateVisit)
	mux.HandleFunc("/accesos/api/visitas/verificar-qr/", h.handleVerifyQR)
	mux.HandleFunc("/api/entries", h.handleEntries)
	mux.HandleFunc("/api/entries/", h.handleEntryActions)
	mux.HandleFunc("/api/areas", h.handleAreas)
	mux.HandleFunc("/api/areas/", h.handleAreaActions)
	mux.HandleFunc("/api/expenses", h.handleExpenses)
	mux.HandleFunc("/api/payments", h.handlePayments)
	mux.HandleFunc("/api/alertas/", h.handleAlerts)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req tokenRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	pair, err := h.store.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			writeError(w, requestIDFromRequest(r), http.StatusUnauthorized, "no_active_account", "No active account found with the given credentials")
			return
		}
		writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req refreshRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Refresh) == "" {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "refresh is required")
		return
	}
	pair, err := h.store.Refresh(r.Context(), strings.TrimSpace(req.Refresh))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			writeError(w, requestIDFromRequest(r), http.StatusUnauthorized, codeTokenNotValid, "Token is invalid or expired")
			return
		}
		writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	account, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, account.Profile())
}

func (h *Handler) handleCreateVisit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	account, ok := h.authenticate(w, r)
	if !ok || !requireFeature(w, r, account, "visitors") {
		return
	}
	var req models.VisitRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.VisitorName = strings.TrimSpace(req.VisitorName)
	req.VisitorDocument = strings.TrimSpace(req.VisitorDocument)
	req.Purpose = strings.TrimSpace(req.Purpose)
	if req.VisitorName == "" || req.VisitorDocument == "" {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "nombre_visitante and documento_visitante are required")
		return
	}
	if req.DwellingID <= 0 {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "vivienda_destino_id is required")
		return
	}

	receipt, err := h.store.CreateVisit(r.Context(), store.CreateVisitInput{
		Account:         account,
		VisitorName:     req.VisitorName,
		VisitorDocument: req.VisitorDocument,
		DwellingID:      req.DwellingID,
		Purpose:         req.Purpose,
		CreatedAt:       h.now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDwellingNotFound):
			writeError(w, requestIDFromRequest(r), http.StatusNotFound, "not_found", "Vivienda no encontrada")
		case errors.Is(err, store.ErrAccessDenied):
			writeError(w, requestIDFromRequest(r), http.StatusForbidden, "access_denied", "Solo puede registrar visitas a su vivienda")
		default:
			writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) handleVerifyQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	account, ok := h.authenticate(w, r)
	if !ok || !requireFeature(w, r, account, "scan") {
		return
	}
	var payload models.QRPayload
	if !decodeRequest(w, r, &payload) {
		return
	}
	if payload.ID == "" || strings.TrimSpace(payload.Signature) == "" {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "id and firma are required")
		return
	}

	result, err := h.store.VerifyVisit(r.Context(), store.VerifyInput{
		Account:    account,
		VisitID:    payload.ID.String(),
		Signature:  strings.TrimSpace(payload.Signature),
		VerifiedAt: h.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrVisitNotFound) {
			writeError(w, requestIDFromRequest(r), http.StatusNotFound, "not_found", "Visita no encontrada")
			return
		}
		writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	account, ok := h.authenticate(w, r)
	if !ok || !requireFeature(w, r, account, "entries") {
		return
	}
	entries, err := h.store.ListEntries(r.Context())
	if err != nil {
		writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleEntryActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/entries/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[1] != "mark-exit" || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	account, ok := h.authenticate(w, r)
	if !ok || !requireFeature(w, r, account, "entries") {
		return
	}
	var req markExitRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Status != models.VisitDeparted {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "status must be departed")
		return
	}

	entry, err := h.store.MarkExit(r.Context(), parts[0], h.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEntryNotFound):
			writeError(w, requestIDFromRequest(r), http.StatusNotFound, "not_found", "entry not found")
		case errors.Is(err, store.ErrInvalidState):
			writeError(w, requestIDFromRequest(r), http.StatusConflict, "invalid_state", "entry already departed")
		default:
			writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleAreas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	account, ok := h.authenticate(w, r)
	if !ok || !requireFeature(w, r, account, "areas") {
		return
	}
	areas, err := h.store.ListAreas(r.Context())
	if err != nil {
		writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

func (h *Handler) handleAreaActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/areas/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[1] != "reservations" || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	account, ok := h.authenticate(w, r)
	if !ok || !requireFeature(w, r, account, "areas") {
		return
	}
	var req models.Reservation
	if !decodeRequest(w, r, &req) {
		return
	}
	req.AreaID = parts[0]
	if err := apiclient.ValidateReservation(req); err != nil {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), apiclient.ErrInvalidInput.Error()+": "))
		return
	}

	created, err := h.store.ReserveArea(r.Context(), account, req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAreaNotFound):
			writeError(w, requestIDFromRequest(r), http.StatusNotFound, "not_found", "area not found")
		case errors.Is(err, store.ErrSlotTaken):
			writeError(w, requestIDFromRequest(r), http.StatusConflict, "slot_taken", "El horario ya está reservado")
		default:
			writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	account, ok := h.authenticate(w, r)
	if !ok || !requireFeature(w, r, account, "payments") {
		return
	}
	expenses, err := h.store.ListExpenses(r.Context(), account)
	if err != nil {
		writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	account, ok := h.authenticate(w, r)
	if !ok || !requireFeature(w, r, account, "payments") {
		return
	}
	var req models.Payment
	if !decodeRequest(w, r, &req) {
		return
	}
	if err := apiclient.ValidatePayment(req); err != nil {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), apiclient.ErrInvalidInput.Error()+": "))
		return
	}

	record, err := h.store.Pay(r.Context(), store.PaymentInput{
		Account:   account,
		ExpenseID: strings.TrimSpace(req.ExpenseID),
		Amount:    strings.TrimSpace(req.Amount),
		Method:    req.Method,
		Details:   req.Details,
		PaidAt:    h.now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrExpenseNotFound):
			writeError(w, requestIDFromRequest(r), http.StatusNotFound, "not_found", "expense not found or already paid")
		case errors.Is(err, store.ErrAmountMismatch):
			writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "amount does not match the expense")
		default:
			writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, paymentResponse{
		PaymentID: record.PaymentID,
		ExpenseID: record.ExpenseID,
		Amount:    record.Amount,
		Method:    record.Method,
		Status:    "paid",
		PaidAt:    record.PaidAt.Format(time.RFC3339),
	})
}

// handleAlerts accepts alerts with or without a session; a token that is
// sent must still be valid.
func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	username := ""
	if bearerToken(r.Header.Get("Authorization")) != "" {
		account, ok := h.authenticate(w, r)
		if !ok {
			return
		}
		username = account.Username
	}
	var req models.Alert
	if !decodeRequest(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Type = strings.TrimSpace(req.Type)
	if req.Title == "" {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "titulo is required")
		return
	}

	record, err := h.store.CreateAlert(r.Context(), username, req, h.now().UTC())
	if err != nil {
		writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, alertResponse{
		ID:        record.AlertID,
		Title:     record.Alert.Title,
		Type:      record.Alert.Type,
		CreatedAt: record.CreatedAt.Format(time.RFC3339),
	})
}

func requireFeature(w http.ResponseWriter, r *http.Request, account store.Account, feature string) bool {
	if !menu.Allows(account.Role, feature) {
		writeError(w, requestIDFromRequest(r), http.StatusForbidden, "access_denied", "role not allowed")
		return false
	}
	return true
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		RequestID: requestID,
		Error: responseError{
			Code:    code,
			Message: message,
		},
		Detail: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
