// Package handlers provides HTTP handlers and middleware for the settings API.
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/flow-hydraulics/flow-settings-api/errors"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

var InvalidBodyError = errors.BadRequest("invalid body")

// handleError is a helper function for unified HTTP error handling.
func handleError(rw http.ResponseWriter, r *http.Request, err error) {
	fields := log.Fields{"error": err}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
	}

	// Check if the error was an errors.RequestError
	if reqErr, ok := errors.AsRequestError(err); ok {
		log.WithFields(fields).Debug("Request error")
		http.Error(rw, reqErr.Error(), reqErr.StatusCode)
		return
	}

	// Otherwise do not send data regarding the error
	log.WithFields(fields).Error("Unhandled error")
	http.Error(rw, "Error", http.StatusInternalServerError)
}

// handleJsonResponse is a helper function for unified JSON response handling.
func handleJsonResponse(rw http.ResponseWriter, status int, res interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(res); err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Error while encoding response")
	}
}

// readJsonBody reads at most maxBodyBytes of a JSON request body. A body
// that is empty, only whitespace or not sent as JSON reads as nil.
func readJsonBody(rw http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody || !isJson(r.Header.Get("Content-Type")) {
		return nil, nil
	}

	b, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
	if err != nil {
		return nil, InvalidBodyError
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}

	return b, nil
}

func isJson(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
