package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type loggingProvider struct {
	next Provider
	log  *zap.Logger
}

// WithLogging records latency, token usage and failures for every call.
func WithLogging(p Provider, log *zap.Logger) Provider {
	if log == nil {
		return p
	}
	return &loggingProvider{next: p, log: log.Named("llm")}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.next.Generate(ctx, req)
	fields := []zap.Field{
		zap.String("model", l.next.ModelID()),
		zap.Duration("latency", time.Since(start)),
		zap.Int("messages", len(req.Messages)),
	}
	if err != nil {
		l.log.Warn("generate failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	l.log.Debug("generate ok", append(fields,
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens))...)
	return resp, nil
}

func (l *loggingProvider) ModelID() string { return l.next.ModelID() }
