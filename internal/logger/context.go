package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single swarm
// interaction (a dialed stream, an inbound connection, a dispatched
// facade command).
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Protocol  string    // negotiated stream protocol id, e.g. /ipfs/bitswap/1.2.0
	PeerID    string    // remote peer id, base58/base32 encoded
	RemoteMA  string    // remote multiaddr
	QueryID   uint64    // DHT query id, if this log line belongs to one
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for an interaction with the given peer.
func NewLogContext(peerID string) *LogContext {
	return &LogContext{
		PeerID:    peerID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		SpanID:    lc.SpanID,
		Protocol:  lc.Protocol,
		PeerID:    lc.PeerID,
		RemoteMA:  lc.RemoteMA,
		QueryID:   lc.QueryID,
		StartTime: lc.StartTime,
	}
}

// WithProtocol returns a copy with the negotiated protocol id set
func (lc *LogContext) WithProtocol(protocol string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Protocol = protocol
	}
	return clone
}

// WithQuery returns a copy with the DHT query id set
func (lc *LogContext) WithQuery(queryID uint64) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.QueryID = queryID
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
