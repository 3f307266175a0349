package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestToNullString(t *testing.T) {
	assert.False(t, ToNullString("").Valid)

	ns := ToNullString("203.0.113.10")
	assert.True(t, ns.Valid)
	assert.Equal(t, "203.0.113.10", ns.String)
}

func TestNullUUIDRoundTrip(t *testing.T) {
	assert.False(t, ToNullUUID(uuid.Nil).Valid)
	assert.Equal(t, uuid.Nil, FromNullUUID(ToNullUUID(uuid.Nil)))

	id := uuid.New()
	nu := ToNullUUID(id)
	assert.True(t, nu.Valid)
	assert.Equal(t, id, FromNullUUID(nu))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j**n@example.com", MaskEmail("john@example.com"))
	assert.Equal(t, "a@example.com", MaskEmail("a@example.com"))
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
}
