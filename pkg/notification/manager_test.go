package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SendToRegisteredNotifier(t *testing.T) {
	manager := NewManager()
	mock := NewMockNotifier()
	manager.Register(EmailSystem, mock)

	err := manager.Send(EmailSystem, Data{
		To:      "user@example.com",
		Subject: "Your verification code",
		Body:    "Your 6-digit verification code is 123456.",
	})
	require.NoError(t, err)

	sent := mock.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "user@example.com", sent[0].To)
}

func TestManager_SendUnregisteredSystem(t *testing.T) {
	manager := NewManager()

	err := manager.Send(SMSSystem, Data{To: "+15550100"})
	assert.Error(t, err)
}

func TestManager_SendBestEffortSwallowsFailure(t *testing.T) {
	manager := NewManager()

	// No notifier registered; must not panic or propagate.
	manager.SendBestEffort(EmailSystem, Data{To: "user@example.com"})
}

func TestManager_RegisterReplacesNotifier(t *testing.T) {
	manager := NewManager()
	first := NewMockNotifier()
	second := NewMockNotifier()

	manager.Register(EmailSystem, first)
	manager.Register(EmailSystem, second)

	require.NoError(t, manager.Send(EmailSystem, Data{To: "user@example.com"}))
	assert.Empty(t, first.Sent())
	assert.Len(t, second.Sent(), 1)
}
