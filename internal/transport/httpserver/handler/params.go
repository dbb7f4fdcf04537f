package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	ledgerdomain "pocket-ledger-go/internal/domain/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return parsed.UTC(), nil
}

func parseDateParam(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseEndDateParam makes a bare calendar date inclusive of the whole day.
func parseEndDateParam(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		end := parsed.Add(24*time.Hour - time.Nanosecond)
		return &end, nil
	}
	return parseDateParam(value)
}

// parsePageParam returns fallback when the param is absent. A supplied value
// must be at least 1.
func parsePageParam(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return 0, fmt.Errorf("invalid page value %q", value)
	}
	return parsed, nil
}

func parseBoolParam(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

// pathID reads the {id} URL param. Ids are uuids, so anything else cannot
// name a stored row and is answered with notFound.
func pathID(w http.ResponseWriter, r *http.Request, notFound error) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return "", false
	}
	if !isUUID(id) {
		writeError(w, http.StatusNotFound, ledgerdomain.ErrorCode(notFound), notFound.Error())
		return "", false
	}
	return id, true
}

func isUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

// parseIDParam reads an optional id filter from the query string.
func parseIDParam(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || isUUID(value) {
		return value, nil
	}
	return "", fmt.Errorf("invalid id %q", value)
}
