package postgres

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates lexically sortable ids for import batches and
// outbox events, so listing by id follows creation order.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// newAuditID returns the id of an audit entry; the audit_logs table keys on UUID.
func newAuditID() string {
	return uuid.NewString()
}
