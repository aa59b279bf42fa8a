package messaging

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/tui/theme"
)

// MessageType represents different message types for status display
type MessageType int

// Message type constants
const (
	MessageInfo    MessageType = theme.StatusInfo
	MessageWarning MessageType = theme.StatusWarning
	MessageError   MessageType = theme.StatusError
)

// StatusManager manages the status line of a TUI model
type StatusManager interface {
	SetMessage(message string, msgType MessageType)
	ClearMessage()
	GetMessage() (string, MessageType, bool)
	RenderMessage() string
	HasMessage() bool
}

// StatusManagerImpl implements the StatusManager interface
type StatusManagerImpl struct {
	statusMessage string
	messageType   MessageType
	setAt         time.Time
	ttl           time.Duration
	now           func() time.Time
}

// NewStatusManager creates a status manager whose messages expire after ttl.
// A zero ttl keeps messages until cleared.
func NewStatusManager(ttl time.Duration) StatusManager {
	return &StatusManagerImpl{
		messageType: MessageInfo,
		ttl:         ttl,
		now:         time.Now,
	}
}

// SetMessage sets a status message with type
func (sm *StatusManagerImpl) SetMessage(message string, msgType MessageType) {
	sm.statusMessage = message
	sm.messageType = msgType
	sm.setAt = sm.now()

	logrus.Debugf("StatusManager: message='%s', type=%d", message, msgType)
}

// ClearMessage clears the status message
func (sm *StatusManagerImpl) ClearMessage() {
	sm.statusMessage = ""
}

// GetMessage returns the current message, type, and whether a message exists
func (sm *StatusManagerImpl) GetMessage() (string, MessageType, bool) {
	if !sm.HasMessage() {
		return "", sm.messageType, false
	}
	return sm.statusMessage, sm.messageType, true
}

// HasMessage reports whether an unexpired message is set
func (sm *StatusManagerImpl) HasMessage() bool {
	if sm.statusMessage == "" {
		return false
	}
	return sm.ttl <= 0 || sm.now().Sub(sm.setAt) < sm.ttl
}

// RenderMessage renders the current status message with appropriate styling
func (sm *StatusManagerImpl) RenderMessage() string {
	if !sm.HasMessage() {
		return ""
	}

	icon := "ℹ"
	switch sm.messageType {
	case MessageWarning:
		icon = "⚠"
	case MessageError:
		icon = "✗"
	}
	return theme.CreateStatusStyle(int(sm.messageType)).Render(fmt.Sprintf("%s %s", icon, sm.statusMessage))
}
