package logging

import (
	"context"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type requestIDKey struct{}

// GenerateRequestID returns a short id for correlating the log lines of one
// API call.
func GenerateRequestID() string {
	return strings.Split(uuid.NewString(), "-")[0]
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns "" when ctx carries no id.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Entry returns a logger tagged with the request id from ctx, generating one
// when ctx has none.
func Entry(ctx context.Context) *log.Entry {
	id := GetRequestID(ctx)
	if id == "" {
		id = GenerateRequestID()
	}
	return log.WithField("request_id", id)
}
