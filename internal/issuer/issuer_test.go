package issuer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"torresegura/internal/models"
	"torresegura/internal/qrflow"
)

type fakeCreator struct {
	createFn func(ctx context.Context, req models.VisitRequest) (models.VisitReceipt, error)
}

func (f fakeCreator) CreateVisit(ctx context.Context, req models.VisitRequest) (models.VisitReceipt, error) {
	return f.createFn(ctx, req)
}

func TestIssueWritesPNGAndRendersPayload(t *testing.T) {
	png, err := EncodePNG(`{"id":"15","firma":"f00"}`, 128)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	creator := fakeCreator{createFn: func(ctx context.Context, req models.VisitRequest) (models.VisitReceipt, error) {
		if req.DwellingID != 3 {
			t.Fatalf("dwelling=%d", req.DwellingID)
		}
		return models.VisitReceipt{ID: "15", Signature: "f00", QRBase64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)}, nil
	}}
	dir := t.TempDir()

	issued, err := New(creator, dir, nil).Issue(context.Background(), models.VisitRequest{VisitorName: "Juan", VisitorDocument: "123", DwellingID: 3})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.PNGPath != filepath.Join(dir, "visita-15.png") {
		t.Fatalf("path=%q", issued.PNGPath)
	}
	written, err := os.ReadFile(issued.PNGPath)
	if err != nil || !bytes.Equal(written, png) {
		t.Fatalf("png not written as returned (err=%v)", err)
	}
	if issued.PayloadText != `{"id":"15","firma":"f00"}` {
		t.Fatalf("payload=%s", issued.PayloadText)
	}
	if strings.TrimSpace(issued.Terminal) == "" {
		t.Fatal("expected terminal rendering")
	}

	payload, err := qrflow.ParsePayload(issued.PayloadText)
	if err != nil || payload.ID != "15" {
		t.Fatalf("issued payload does not scan: %+v %v", payload, err)
	}
}

func TestIssueRejectsNonPNG(t *testing.T) {
	creator := fakeCreator{createFn: func(ctx context.Context, req models.VisitRequest) (models.VisitReceipt, error) {
		return models.VisitReceipt{ID: "1", QRBase64: base64.StdEncoding.EncodeToString([]byte("GIF89a"))}, nil
	}}
	_, err := New(creator, t.TempDir(), nil).Issue(context.Background(), models.VisitRequest{})
	if !errors.Is(err, ErrNotPNG) {
		t.Fatalf("expected ErrNotPNG, got %v", err)
	}
}

func TestIssuePropagatesBackendError(t *testing.T) {
	backendErr := errors.New("Vivienda no encontrada")
	creator := fakeCreator{createFn: func(ctx context.Context, req models.VisitRequest) (models.VisitReceipt, error) {
		return models.VisitReceipt{}, backendErr
	}}
	dir := t.TempDir()
	if _, err := New(creator, dir, nil).Issue(context.Background(), models.VisitRequest{}); !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("nothing should be written on failure, got %d files", len(entries))
	}
}

func TestDecodePNG(t *testing.T) {
	png, _ := EncodePNG("x", 64)
	cases := []struct {
		name    string
		encoded string
		ok      bool
	}{
		{"plain", base64.StdEncoding.EncodeToString(png), true},
		{"data url", "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), true},
		{"unpadded", base64.RawStdEncoding.EncodeToString(png), true},
		{"empty", "", false},
		{"garbage", "%%%", false},
	}
	for _, tt := range cases {
		_, err := DecodePNG(tt.encoded)
		if (err == nil) != tt.ok {
			t.Fatalf("%s: err=%v", tt.name, err)
		}
	}
}

func TestInvitationIsNotAcceptedByScanner(t *testing.T) {
	inv, err := NewInvitation(models.Visit{Name: "Juan Pérez", Document: "123", DepartmentNumber: "4B", WhoAuthorizes: "Ana"})
	if err != nil {
		t.Fatalf("NewInvitation: %v", err)
	}
	if !bytes.HasPrefix(inv.PNG, pngMagic) || inv.Terminal == "" {
		t.Fatal("invitation not rendered")
	}
	if !strings.Contains(inv.Text, `"status":"pending"`) {
		t.Fatalf("text=%s", inv.Text)
	}
	if _, err := qrflow.ParsePayload(inv.Text); err == nil {
		t.Fatal("unsigned invitation must not parse as a signed payload")
	}
}

func TestInvitationRequiresNameAndDocument(t *testing.T) {
	if _, err := NewInvitation(models.Visit{Name: "Juan"}); err == nil {
		t.Fatal("expected error")
	}
}
