package service

import (
	"errors"

	"github.com/mkarpushin/go-journal-keeper/internal/vault"
)

// User-visible message strings. Vault failures deliberately reveal nothing
// about stored formats or internals; the UI shows only these fixed texts
// plus, for lockout, a countdown obtained from LockoutRemaining.
const (
	MsgMutationQueued     = "saved on device, will sync when online"
	MsgMutationRejected   = "the server rejected this change"
	MsgVaultLocked        = "vault is locked"
	MsgVaultWrongPin      = "wrong PIN"
	MsgVaultBadPinFormat  = "PIN must be 4-8 digits and not all the same digit"
	MsgSomethingWentWrong = "something went wrong"
)

// UserMessage maps an error from the data layer to the fixed text shown to
// the end user. Unknown errors collapse into a generic message so raw
// internal error text never reaches the UI.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, vault.ErrLocked):
		return MsgVaultLocked
	case errors.Is(err, vault.ErrInvalidCredentials), errors.Is(err, vault.ErrPinNotSet):
		return MsgVaultWrongPin
	case errors.Is(err, vault.ErrInvalidPinFormat):
		return MsgVaultBadPinFormat
	case errors.Is(err, ErrMutationRejected):
		return MsgMutationRejected
	default:
		return MsgSomethingWentWrong
	}
}
