package auth

import (
	"github.com/fleetops/fleet-manager/internal/shared"
)

// Account is the persisted identity behind a token subject.
type Account struct {
	Principal shared.Principal
	IsActive  bool
}
