package notify

import (
	"context"

	"github.com/nkiryanov/paysms/internal/logger"
)

// LogSink writes messages to the log, used when no bus is configured
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{logger: l}
}

func (s *LogSink) Send(_ context.Context, m Message) error {
	s.logger.Info("notification", "id", m.ID, "target", m.Target, "text", m.Text)
	return nil
}
