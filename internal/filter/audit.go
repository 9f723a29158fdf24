package filter

import (
	"context"

	"github.com/tkingovr/noisegate/internal/audit"
)

// AuditFilter writes an audit record for every short-circuited request.
type AuditFilter struct {
	store audit.Store
}

func NewAuditFilter(store audit.Store) *AuditFilter {
	return &AuditFilter{store: store}
}

func (f *AuditFilter) Name() string { return "audit" }

func (f *AuditFilter) Process(ctx context.Context, fc *FilterContext) error {
	if !fc.Result().ShortCircuited() {
		return nil
	}
	return f.store.Write(ctx, fc.ToAuditRecord())
}
