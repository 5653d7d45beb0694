package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"torresegura/internal/devserver/store"
)

const codeTokenNotValid = "token_not_valid"

// authenticate resolves the bearer token of r. On failure it writes the
// 401 response and reports false.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (store.Account, bool) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, requestIDFromRequest(r), http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided.")
		return store.Account{}, false
	}
	account, err := h.store.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			writeError(w, requestIDFromRequest(r), http.StatusUnauthorized, codeTokenNotValid, "Given token not valid for any token type")
			return store.Account{}, false
		}
		writeError(w, requestIDFromRequest(r), http.StatusInternalServerError, "internal_error", "internal server error")
		return store.Account{}, false
	}
	return account, true
}

func requestIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Request-ID"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
