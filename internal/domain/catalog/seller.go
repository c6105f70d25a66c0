package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Seller owns products. Sellers are managed outside this service and are
// only read here to scope analytics.
type Seller struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
