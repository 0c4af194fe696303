package app

import (
	"strings"

	"github.com/cimillas/seatlease/internal/domain"
	"github.com/google/uuid"
)

func validateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ValidationError{Field: field, Msg: "is required"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.ValidationError{Field: field, Msg: "must be a UUID"}
	}
	return nil
}

// Session identities are opaque; only presence is checked.
func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.ValidationError{Field: "session_id", Msg: "is required"}
	}
	return nil
}
