package tenancy

import (
	"time"

	domain "github.com/invtrack/backend/internal/domain/tenancy"
)

// RegisterTenantRequest is the input for tenant registration
type RegisterTenantRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// TenantResponse is the API representation of a tenant
type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Shard     int       `json:"shard"`
	CreatedAt time.Time `json:"created_at"`
}

// LicenseCheckResponse is the API representation of a license evaluation
type LicenseCheckResponse struct {
	TenantID           string `json:"tenant_id"`
	State              string `json:"state"`
	RemainingGraceDays int    `json:"remaining_grace_days,omitempty"`
	Reason             string `json:"reason"`
}

// ToTenantResponse converts a domain tenant to its API representation
func ToTenantResponse(t *domain.Tenant, shard int) TenantResponse {
	return TenantResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Email:     t.Email,
		Shard:     shard,
		CreatedAt: t.CreatedAt,
	}
}

// ToLicenseCheckResponse converts an evaluation to its API representation
func ToLicenseCheckResponse(tenantID string, eval domain.Evaluation) LicenseCheckResponse {
	return LicenseCheckResponse{
		TenantID:           tenantID,
		State:              string(eval.State),
		RemainingGraceDays: eval.RemainingGraceDays,
		Reason:             eval.Reason,
	}
}
