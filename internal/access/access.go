// Package access decides which library operations a user may perform.
//
// Capabilities are derived from the user's role: librarians and admins can
// manage loans and maintain the catalog, members can do neither.
package access

import (
	"errors"
	"fmt"

	"github.com/mrlokans/catalog/internal/entities"
)

var ErrUnauthorized = errors.New("insufficient permissions")

type Capability string

const (
	// MarkReturned allows renewing loans, changing copy status and looking up
	// borrowers.
	MarkReturned Capability = "mark-returned"
	// MaintainCatalog allows creating, editing and deleting catalog records.
	MaintainCatalog Capability = "maintain-catalog"
)

var roleCapabilities = map[entities.UserRole][]Capability{
	entities.UserRoleAdmin:     {MarkReturned, MaintainCatalog},
	entities.UserRoleLibrarian: {MarkReturned, MaintainCatalog},
	entities.UserRoleMember:    nil,
}

// HasCapability reports whether user holds capability. A nil user holds none.
func HasCapability(user *entities.User, capability Capability) bool {
	if user == nil {
		return false
	}
	for _, c := range roleCapabilities[user.Role] {
		if c == capability {
			return true
		}
	}
	return false
}

// Capabilities lists what user may do.
func Capabilities(user *entities.User) []Capability {
	if user == nil {
		return nil
	}
	return append([]Capability(nil), roleCapabilities[user.Role]...)
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed    bool
	Capability Capability
	UserID     uint
}

// Err returns nil when the decision allows the operation and an error
// wrapping ErrUnauthorized otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s required", ErrUnauthorized, d.Capability)
}

// Authorize checks user against capability.
func Authorize(user *entities.User, capability Capability) Decision {
	d := Decision{Capability: capability}
	if user != nil {
		d.UserID = user.ID
	}
	d.Allowed = HasCapability(user, capability)
	return d
}
