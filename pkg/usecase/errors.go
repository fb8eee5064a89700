package usecase

import (
	"errors"

	"github.com/mentor-lab/chiron/pkg/repository/firestore"
	"github.com/mentor-lab/chiron/pkg/repository/memory"
)

// Sentinel errors for the use case layer
var (
	// Identity errors are fatal to the call, never to the process
	ErrSessionNotFound = errors.New("session not found")

	// Consent violations fail closed: raw user content never leaves the
	// process without an explicit grant
	ErrConsentRequired = errors.New("consent required before sending raw content to a remote model")

	// Capability errors
	ErrModelUnavailable = errors.New("model backend unavailable")

	// Lookup errors
	ErrUnknownDomain = errors.New("unknown domain")
)

// Context keys for error values
const (
	SessionIDKey = "session_id"
	UserIDKey    = "user_id"
	DomainKey    = "domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}
