package db

import (
	"encoding/json"
	"errors"
	"time"

	"docrequest/internal/domain"
)

var errDBUnavailable = errors.New("db unavailable")

func domainNotFound(entity string) error { return domain.NotFound(entity) }

func domainConflict(msg string) error { return domain.Conflict(msg) }

func domainValidation(msg string) error { return domain.Validation(msg, nil) }

func stringPtrIfNotEmpty(value string) *string {
	if value == "" {
		return nil
	}
	v := value
	return &v
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func marshalJSON(value any) ([]byte, error) {
	if value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(value)
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
