package issuer

import (
	"encoding/json"
	"errors"
	"strings"

	"torresegura/internal/models"
)

// Invitation is a full visit record encoded for sharing without a
// backend round trip. It carries no signature, so gates running the
// verifier refuse it; it only serves as a readable pass.
type Invitation struct {
	Text     string
	PNG      []byte
	Terminal string
}

func NewInvitation(v models.Visit) (Invitation, error) {
	v.Name = strings.TrimSpace(v.Name)
	v.Document = strings.TrimSpace(v.Document)
	if v.Name == "" || v.Document == "" {
		return Invitation{}, errors.New("visitor name and document are required")
	}
	if v.Status == "" {
		v.Status = models.VisitPending
	}
	text, err := json.Marshal(v)
	if err != nil {
		return Invitation{}, err
	}

	inv := Invitation{Text: string(text)}
	if inv.PNG, err = EncodePNG(inv.Text, 256); err != nil {
		return Invitation{}, err
	}
	if inv.Terminal, err = RenderTerminal(inv.Text); err != nil {
		return Invitation{}, err
	}
	return inv, nil
}
