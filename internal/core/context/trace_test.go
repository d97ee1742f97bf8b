package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetRequestID(ctx))

	tc := NewTraceContext("req-42")
	ctx = WithTrace(ctx, tc)
	assert.Equal(t, tc.TraceID, GetTraceID(ctx))
	assert.Equal(t, "req-42", GetRequestID(ctx))
	assert.Len(t, tc.SpanID, 16)
}

func TestNewTraceContext_GeneratesRequestID(t *testing.T) {
	assert.NotEmpty(t, NewTraceContext("").RequestID)
}
