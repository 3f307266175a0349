// Package utils provides small, stateless helpers shared by the storage and
// delivery layers: SQL null conversions and privacy masking for log output.
package utils

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

// ToNullString converts a string to sql.NullString, treating empty as NULL.
func ToNullString(str string) sql.NullString {
	if str == "" {
		return sql.NullString{
			String: str,
			Valid:  false,
		}
	}
	return sql.NullString{
		String: str,
		Valid:  true,
	}
}

// ToNullUUID converts a uuid.UUID to uuid.NullUUID, treating uuid.Nil as NULL.
func ToNullUUID(id uuid.UUID) uuid.NullUUID {
	if id == uuid.Nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{
		UUID:  id,
		Valid: true,
	}
}

// FromNullUUID unwraps a uuid.NullUUID, mapping NULL to uuid.Nil.
func FromNullUUID(id uuid.NullUUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return id.UUID
}

// MaskEmail masks the local part of an email address for display and log
// output, keeping the first and last characters: "john@example.com" becomes
// "j**n@example.com". Single-character local parts are left unmasked.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 1 {
		return email
	}

	local := email[:at]
	domain := email[at:]
	return local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:] + domain
}
