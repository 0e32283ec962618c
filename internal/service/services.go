package service

import (
	"github.com/mkarpushin/go-journal-keeper/internal/vault"
)

// ClientServices groups the caller-facing services into a single value that
// can be passed to the UI/CLI layer.
type ClientServices struct {
	// Data is the mutation/cache/quota facade.
	Data *DataService

	// Vault gates vault-scoped operations behind a PIN session. Callers
	// must consult Vault.RequireUnlocked before any vault-scoped read or
	// write.
	Vault *vault.Guard
}

// NewClientServices bundles the constructed services.
func NewClientServices(data *DataService, guard *vault.Guard) *ClientServices {
	return &ClientServices{Data: data, Vault: guard}
}
