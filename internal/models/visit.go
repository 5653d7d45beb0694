package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	VisitPending  = "pending"
	VisitScanned  = "scanned"
	VisitVerified = "verified"
	VisitDeparted = "departed"
)

// Visit is the invitation record a resident fills in.
type Visit struct {
	ID               string `json:"id,omitempty"`
	Name             string `json:"name"`
	Document         string `json:"document"`
	Purpose          string `json:"purpose"`
	DepartmentNumber string `json:"departmentNumber"`
	WhoAuthorizes    string `json:"whoAuthorizes"`
	Status           string `json:"status"`
}

// VisitRequest is the body of the visit creation call.
type VisitRequest struct {
	VisitorName     string `json:"nombre_visitante"`
	VisitorDocument string `json:"documento_visitante"`
	DwellingID      int64  `json:"vivienda_destino_id"`
	Purpose         string `json:"motivo"`
}

// VisitReceipt is what the backend returns for a created visit. QRBase64
// holds a PNG of the signed payload.
type VisitReceipt struct {
	ID        FlexID     `json:"id"`
	Signature string     `json:"firma"`
	QRBase64  string     `json:"qr_base64"`
	Status    string     `json:"estado,omitempty"`
	ExpiresAt *time.Time `json:"expira,omitempty"`
}

// QRPayload is the signed content encoded in a visitor's QR code.
type QRPayload struct {
	ID        FlexID `json:"id"`
	Signature string `json:"firma"`
}

// Verification is the backend's decision about a scanned payload.
type Verification struct {
	Valid        bool   `json:"valido"`
	Visitor      string `json:"visitante,omitempty"`
	Document     string `json:"documento,omitempty"`
	Purpose      string `json:"motivo,omitempty"`
	Dwelling     string `json:"vivienda,omitempty"`
	AuthorizedBy string `json:"autorizado_por,omitempty"`
	Status       string `json:"estado,omitempty"`
	Error        string `json:"error,omitempty"`
	VerifiedAt   string `json:"fecha,omitempty"`
	VisitID      FlexID `json:"id,omitempty"`
}

// Entry is a row of the gate's presence list.
type Entry struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	Building         string `json:"building,omitempty"`
	Document         string `json:"document,omitempty"`
	Purpose          string `json:"purpose,omitempty"`
	DepartmentNumber string `json:"departmentNumber,omitempty"`
	WhoAuthorizes    string `json:"whoAuthorizes,omitempty"`
	EntryTime        string `json:"entryTime,omitempty"`
}

const (
	EntryResident = "residente"
	EntryVisitor  = "visitante"
)

// FlexID is an identifier the backend sends either as a JSON string or
// as a JSON number. It always marshals as a string.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }
