package qrflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"torresegura/internal/models"
)

var (
	errInvalidCode = errors.New("code is not a visitor QR")
	errUnsigned    = errors.New("invitation carries no signature")
)

// Fields of the unsigned invitation record older clients encoded.
var legacyFields = []string{"name", "document", "departmentNumber", "whoAuthorizes"}

// ParsePayload decodes the text of a scanned code. Only a JSON object
// with a non-empty id and firma is accepted.
func ParsePayload(raw string) (models.QRPayload, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 || data[0] != '{' {
		return models.QRPayload{}, errInvalidCode
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.QRPayload{}, errInvalidCode
	}
	if _, signed := fields["firma"]; !signed && isLegacy(fields) {
		return models.QRPayload{}, errUnsigned
	}

	var payload models.QRPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return models.QRPayload{}, errInvalidCode
	}
	payload.ID = models.FlexID(strings.TrimSpace(payload.ID.String()))
	payload.Signature = strings.TrimSpace(payload.Signature)
	if payload.ID == "" || payload.Signature == "" {
		return models.QRPayload{}, errInvalidCode
	}
	return payload, nil
}

func isLegacy(fields map[string]json.RawMessage) bool {
	for _, name := range legacyFields {
		if _, ok := fields[name]; ok {
			return true
		}
	}
	return false
}
