package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"beatsync/domain"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token := m.Generate("user-42")
	assert.NotEmpty(t, token)

	id, err := m.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-42", id)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)

	token := m.Generate("user-42")

	_, err := m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrExpiredToken)
}

func TestJWTManager_WrongKey(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	other := NewJWTManager("other-secret", time.Hour)

	token := m.Generate("user-42")

	_, err := other.Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidTokenSignature)
}

func TestJWTManager_Garbage(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	_, err := m.Verify("not.a.token")
	assert.ErrorIs(t, err, domain.ErrCorruptedToken)
}
