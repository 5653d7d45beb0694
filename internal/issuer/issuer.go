package issuer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"torresegura/internal/models"
)

var ErrNotPNG = errors.New("qr image is not a PNG")

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// VisitCreator registers visits with the backend.
type VisitCreator interface {
	CreateVisit(ctx context.Context, req models.VisitRequest) (models.VisitReceipt, error)
}

// Issued is a created visit ready to be handed to the visitor.
type Issued struct {
	Receipt models.VisitReceipt
	Payload models.QRPayload
	// PayloadText is the exact text the gate scanner reads.
	PayloadText string
	PNGPath     string
	// Terminal is a text rendering of the code, empty when the backend
	// did not return the signature.
	Terminal string
}

type Issuer struct {
	creator VisitCreator
	dir     string
	logger  *slog.Logger
}

func New(creator VisitCreator, dir string, logger *slog.Logger) *Issuer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Issuer{creator: creator, dir: dir, logger: logger}
}

// Issue creates the visit and writes the backend's QR image to dir.
func (i *Issuer) Issue(ctx context.Context, req models.VisitRequest) (Issued, error) {
	receipt, err := i.creator.CreateVisit(ctx, req)
	if err != nil {
		return Issued{}, err
	}
	out := Issued{
		Receipt: receipt,
		Payload: models.QRPayload{ID: receipt.ID, Signature: receipt.Signature},
	}

	png, err := DecodePNG(receipt.QRBase64)
	if err != nil {
		return Issued{}, fmt.Errorf("visit %s: %w", receipt.ID, err)
	}
	if out.PNGPath, err = i.writePNG(receipt.ID.String(), png); err != nil {
		return Issued{}, err
	}

	if receipt.ID != "" && receipt.Signature != "" {
		text, err := json.Marshal(out.Payload)
		if err != nil {
			return Issued{}, err
		}
		out.PayloadText = string(text)
		if out.Terminal, err = RenderTerminal(out.PayloadText); err != nil {
			return Issued{}, err
		}
	}
	i.logger.Info("visit issued", "visit_id", receipt.ID.String(), "png", out.PNGPath)
	return out, nil
}

func (i *Issuer) writePNG(id string, png []byte) (string, error) {
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return "", fmt.Errorf("create qr directory: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	path := filepath.Join(i.dir, "visita-"+sanitize(id)+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write qr image: %w", err)
	}
	return path, nil
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
}

// DecodePNG decodes qr_base64, with or without a data URL prefix.
func DecodePNG(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if idx := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && idx >= 0 {
		encoded = encoded[idx+1:]
	}
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty image", ErrNotPNG)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(encoded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotPNG, err)
		}
	}
	if !bytes.HasPrefix(raw, pngMagic) {
		return nil, ErrNotPNG
	}
	return raw, nil
}

// RenderTerminal draws content as a QR code with half-block characters.
func RenderTerminal(content string) (string, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return code.ToSmallString(false), nil
}

// EncodePNG renders content as a PNG QR code of size pixels.
func EncodePNG(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
