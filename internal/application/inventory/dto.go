package inventory

import (
	"time"

	domain "github.com/invtrack/backend/internal/domain/inventory"
)

// TrackMovementRequest is the input for recording a product movement
type TrackMovementRequest struct {
	ProductID   int64  `json:"product_id" binding:"required,gt=0"`
	ProductName string `json:"product_name" binding:"required"`
	Quantity    int64  `json:"quantity" binding:"required"`
}

// DetectAnomalyRequest is the input for the negative-balance check
type DetectAnomalyRequest struct {
	ProductID   int64  `json:"product_id" binding:"required,gt=0"`
	Description string `json:"description"`
}

// AnomalyResponse is the API representation of an anomaly
type AnomalyResponse struct {
	ID          string    `json:"id"`
	ProductID   int64     `json:"product_id"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// DetectionResponse reports the outcome of an anomaly check. Anomaly is nil
// when the product's balance is not negative. HasMovements distinguishes a
// genuine zero balance from a product with no tracking rows at all.
type DetectionResponse struct {
	Recorded     bool             `json:"recorded"`
	Total        int64            `json:"total"`
	HasMovements bool             `json:"has_movements"`
	Anomaly      *AnomalyResponse `json:"anomaly,omitempty"`
}

// ToAnomalyResponse converts a domain anomaly to its API representation
func ToAnomalyResponse(a *domain.Anomaly) AnomalyResponse {
	return AnomalyResponse{
		ID:          a.ID,
		ProductID:   a.ProductID,
		Timestamp:   a.Timestamp,
		Description: a.Description,
	}
}
