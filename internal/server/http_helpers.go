package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

type bindMessages map[string]map[string]string

var errBodyTooLarge = errors.New("request body too large")

func readJSON(body io.Reader, dest interface{}) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// bindJSON decodes and validates the request body, answering the client itself on failure.
func (a *API) bindJSON(w http.ResponseWriter, r *http.Request, req interface{}, messages bindMessages, fallback string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes)
	if err := readJSON(r.Body, req); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "evidence is too large")
			return false
		}
		writeError(w, http.StatusBadRequest, fallback)
		return false
	}

	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, resolveBindError(err, messages, fallback))
		return false
	}

	return true
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return msg
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
