package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/flow-hydraulics/flow-settings-api/settings"
)

const updatedMessage = "Settings updated successfully"

// Settings is a HTTP server for the settings record.
type Settings struct {
	store settings.Store
}

type UpdateResponse struct {
	Message  string            `json:"message"`
	Settings settings.Settings `json:"settings"`
}

func NewSettings(store settings.Store) *Settings {
	return &Settings{store}
}

// Get returns the full settings record.
func (s *Settings) Get() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		handleJsonResponse(rw, http.StatusOK, s.store.Get())
	})
}

// Update merges a partial record from the request body into the stored one.
// Keys missing from the body are left as they are. An empty or non-JSON body
// changes nothing and still gets the current record back.
func (s *Settings) Update() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, err := readJsonBody(rw, r)
		if err != nil {
			handleError(rw, r, err)
			return
		}

		var u settings.Update
		if body != nil {
			if err := json.Unmarshal(body, &u); err != nil {
				handleError(rw, r, InvalidBodyError)
				return
			}
		}

		res := s.store.Update(u)

		handleJsonResponse(rw, http.StatusOK, UpdateResponse{
			Message:  updatedMessage,
			Settings: res,
		})
	})
}
