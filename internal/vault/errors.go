package vault

import "errors"

// Sentinel errors returned by the vault guard. Callers should use
// [errors.Is] to match against these values. None of them carry internal
// details: vault failures are surfaced with format-independent messages.
var (
	// ErrInvalidPinFormat is returned by SetPin when the PIN is not 4-8
	// digits or consists of a single repeated digit.
	ErrInvalidPinFormat = errors.New("pin must be 4-8 digits and not a single repeated digit")

	// ErrInvalidCredentials is returned by Unlock when the PIN does not
	// match. The failure counter has already been incremented.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLocked is returned when the lockout window is active or when a
	// vault-scoped operation runs without an unexpired session.
	ErrLocked = errors.New("vault is locked")

	// ErrPinNotSet is returned by Unlock for a user who has never set a PIN.
	ErrPinNotSet = errors.New("pin is not set")
)
