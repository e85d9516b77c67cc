package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"civicvoice/internal/httputil"
)

// uuidParam reads a UUID path parameter, writing a 400 when it is malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name, message string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteBadRequest(w, message)
		return "", false
	}
	return id.String(), true
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
