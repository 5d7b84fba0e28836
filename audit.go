package authgate

import (
	"io"

	"github.com/adminkit/authgate/internal/audit"
)

// NewJSONAuditSink returns a sink that writes one JSON event per line.
func NewJSONAuditSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

// NewAuditTraceID returns a fresh trace id in the format audit events
// use. Handy for callers that want to correlate their own logs with
// the audit trail.
func NewAuditTraceID() string {
	return audit.NewTraceID()
}
