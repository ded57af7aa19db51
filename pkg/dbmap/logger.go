package dbmap

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Logger is the minimal logging surface dbmap reports to. Any structured
// logger can adapt to it.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Logf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
}

// Metrics receives execution timings. The metrics subpackage provides a
// Prometheus-backed implementation.
type Metrics interface {
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

// QueryLog is the structured record emitted for every executed statement.
type QueryLog struct {
	Operation string `json:"operation"`
	Query     string `json:"query"`
	Duration  int64  `json:"duration"`
	Args      []any  `json:"args,omitempty"`
}

func (l *QueryLog) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%-32s \u001B[38;5;24m%-6s\u001B[0m %8d\u001B[38;5;8mµs\u001B[0m %s\n",
		l.Operation, "SQL", l.Duration, clean(l.Query))
}

func clean(query string) string {
	query = regexp.MustCompile(`\s+`).ReplaceAllString(query, " ")
	query = strings.TrimSpace(query)

	return query
}

func getOperationType(query string) string {
	query = strings.TrimSpace(query)
	words := strings.Split(query, " ")

	return strings.ToUpper(words[0])
}

func (d *Database) sendOperationStats(ctx context.Context, start time.Time, operation, query string, args ...any) {
	duration := time.Since(start).Microseconds()

	if d.logger != nil {
		d.logger.Debug(&QueryLog{
			Operation: operation,
			Query:     query,
			Duration:  duration,
			Args:      args,
		})
	}

	if d.metrics != nil {
		d.metrics.RecordHistogram(ctx, "dbmap_sql_stats", float64(duration),
			"operation", operation, "type", getOperationType(query))
	}
}
