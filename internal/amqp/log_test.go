package amqp

import (
	"io"
	"log/slog"

	"clubstats/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Component: log.ComponentAMQP, Handler: slog.NewTextHandler(io.Discard, nil)})
}
