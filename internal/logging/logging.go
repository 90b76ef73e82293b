// Package logging configures the zerolog logger used by every function.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to stdout, which CloudWatch picks up
// as-is. Unknown levels fall back to info.
func New(level, function string) zerolog.Logger {
	return NewWriter(os.Stdout, level, function)
}

func NewWriter(w io.Writer, level, function string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	l := zerolog.New(w).Level(lvl).With().Timestamp()
	if function != "" {
		l = l.Str("function", function)
	}
	return l.Logger()
}

// WithInvocation derives a logger tagged with the Lambda request id (when the
// context carries one) and stores it in the returned context.
func WithInvocation(ctx context.Context, base zerolog.Logger) (context.Context, zerolog.Logger) {
	l := base
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		l = base.With().Str("request_id", lc.AwsRequestID).Logger()
	}
	return l.WithContext(ctx), l
}

// From returns the logger stored in ctx, or a disabled logger.
func From(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
