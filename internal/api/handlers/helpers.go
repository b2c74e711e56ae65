package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/moodlync/tokencore/internal/api/middleware"
	"github.com/moodlync/tokencore/internal/pkg/errors"
	"github.com/moodlync/tokencore/internal/pkg/utils"
	"github.com/moodlync/tokencore/internal/pkg/validator"
)

// maxBodyBytes caps request bodies; every request here is a small JSON object
const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into v and validates it. On failure the
// error response has been written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, val *validator.Validator, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return false
	}
	if validationErrs := val.Validate(v); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return false
	}
	return true
}

// requireUser returns the authenticated user id or writes 401
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == 0 {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return 0, false
	}
	return userID, true
}

// pathID parses a positive integer URL parameter or writes 400
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, errors.BadRequest("Invalid "+name))
		return 0, false
	}
	return id, true
}

// queryInt64 parses an optional integer query parameter
func queryInt64(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
