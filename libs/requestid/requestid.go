// Package requestid carries a correlation id through a context. HTTP
// requests, gRPC calls and chat updates all tag their log lines with it.
package requestid

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

const (
	Header      = "X-Request-Id"
	MetadataKey = "x-request-id"

	maxLen = 128
)

type ctxKey struct{}

func New() string {
	return uuid.NewString()
}

func With(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

// Accept returns a caller-supplied id if it is short printable ASCII, and a
// fresh id otherwise.
func Accept(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxLen {
		return New()
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return New()
		}
	}
	return id
}
