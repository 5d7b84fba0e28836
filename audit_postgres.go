package authgate

import (
	"context"
	"encoding/json"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adminkit/authgate/internal/audit"
)

// PostgresSink persists audit events into the audit_log table.
// Delivery is best effort: the dispatcher already decouples emission
// from the login path, and a failed insert only loses that one row.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink wraps an existing connection pool. The sink does not
// own the pool and never closes it.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Emit inserts one audit row. Snapshot maps are stored as jsonb.
func (s *PostgresSink) Emit(ctx context.Context, event audit.Event) {
	if s == nil || s.pool == nil {
		return
	}

	before := marshalOrNil(event.Before)
	after := marshalOrNil(event.After)
	params := marshalOrNil(event.Params)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (
			trace_id, created_at, action, resource_type, resource_id,
			operator_id, operator_name, before_data, after_data, params,
			success, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		event.TraceID, event.Timestamp, event.Action, event.ResourceType,
		event.ResourceID, nullableID(event.OperatorID), event.OperatorName,
		before, after, params, event.Success, event.Error,
	)
	if err != nil {
		log.Printf("authgate: audit insert failed: %v", err)
	}
}

func marshalOrNil(v any) []byte {
	switch m := v.(type) {
	case map[string]any:
		if len(m) == 0 {
			return nil
		}
	case map[string]string:
		if len(m) == 0 {
			return nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
