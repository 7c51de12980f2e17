// Package tenancy holds the tenant registry and license domain model.
//
// A tenant is permanently assigned to one storage shard by hashing its
// identifier; the identifier is minted once at registration and never
// changes. License records are owned by an external billing system - this
// package only evaluates them.
package tenancy

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invtrack/backend/internal/domain/shared"
)

// Tenant represents a registered tenant in the shared tenants table.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}

// NewTenant mints a tenant with a fresh identifier. The identifier is the
// routing key for the tenant's shard, so it is generated exactly once here.
func NewTenant(name, email string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant name cannot be empty")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant email is invalid")
	}
	return &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}, nil
}
