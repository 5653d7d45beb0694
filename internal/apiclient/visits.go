package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"torresegura/internal/models"
)

const (
	pathCreateVisit = "/accesos/api/visitas/crear/"
	pathVerifyQR    = "/accesos/api/visitas/verificar-qr/"
	pathEntries     = "/api/entries"
)

// CreateVisit registers a visitor; the backend answers with the signed
// QR payload and its PNG rendering.
func (c *Client) CreateVisit(ctx context.Context, req models.VisitRequest) (models.VisitReceipt, error) {
	req.VisitorName = strings.TrimSpace(req.VisitorName)
	req.VisitorDocument = strings.TrimSpace(req.VisitorDocument)
	req.Purpose = strings.TrimSpace(req.Purpose)
	if req.VisitorName == "" || req.VisitorDocument == "" {
		return models.VisitReceipt{}, fmt.Errorf("%w: visitor name and document are required", ErrInvalidInput)
	}
	if req.DwellingID <= 0 {
		return models.VisitReceipt{}, fmt.Errorf("%w: no dwelling on the user profile", ErrInvalidInput)
	}

	var receipt models.VisitReceipt
	if err := c.authed(ctx, http.MethodPost, pathCreateVisit, req, &receipt, "could not register the visit"); err != nil {
		return models.VisitReceipt{}, err
	}
	return receipt, nil
}

// VerifyQR asks the backend whether a scanned payload is authentic. A
// 2xx answer may still carry Valid=false.
func (c *Client) VerifyQR(ctx context.Context, payload models.QRPayload) (models.Verification, error) {
	var result models.Verification
	if err := c.authed(ctx, http.MethodPost, pathVerifyQR, payload, &result, "verification failed"); err != nil {
		return models.Verification{}, err
	}
	return result, nil
}

func (c *Client) ListEntries(ctx context.Context) ([]models.Entry, error) {
	var entries []models.Entry
	if err := c.authed(ctx, http.MethodGet, pathEntries, nil, &entries, "could not load entries"); err != nil {
		return nil, err
	}
	return entries, nil
}

// MarkExit records that the person of an entry has left.
func (c *Client) MarkExit(ctx context.Context, entryID string) error {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return fmt.Errorf("%w: entry id is required", ErrInvalidInput)
	}
	path := pathEntries + "/" + url.PathEscape(entryID) + "/mark-exit"
	payload := map[string]string{"status": models.VisitDeparted}
	return c.authed(ctx, http.MethodPatch, path, payload, nil, "could not mark the exit")
}
