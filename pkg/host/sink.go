package host

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/stringutils"

	"github.com/umputun/lext/pkg/config"
	"github.com/umputun/lext/pkg/frame"
	"github.com/umputun/lext/pkg/logging"
)

// Sink receives result frames of tasks. Write can be called concurrently for different tasks.
type Sink interface {
	Write(ctx context.Context, task int, f *frame.Frame) error
	Close() error
}

// NewSink makes the sink defined by the job. Rows of the log sink go to out.
func NewSink(job *config.Job, out logging.Writer) (Sink, error) {
	switch job.Sink.Kind {
	case config.SinkLog:
		return NewLogSink(out), nil
	case config.SinkArrow:
		return NewArrowSink(job.Sink.Path)
	case config.SinkTable:
		return NewTableSink(job.Sink.DSN, job.Sink.Table)
	}
	return nil, fmt.Errorf("unknown sink kind %q", job.Sink.Kind)
}

// LogSink prints result rows, one line per row tagged with the task
type LogSink struct {
	mu  sync.Mutex
	out logging.Writer
}

// NewLogSink makes a log sink writing to out
func NewLogSink(out logging.Writer) *LogSink {
	return &LogSink{out: out}
}

// Write prints the header and rows of the frame
func (s *LogSink) Write(_ context.Context, task int, f *frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wr := s.out.WithSession(fmt.Sprintf("task %d", task))
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = fmt.Sprintf("%s:%s", c.Name, c.Data.Type())
	}
	wr.Printf("%s", strings.Join(names, " | "))

	vals := make([]string, len(f.Columns))
	for r := 0; r < f.Rows(); r++ {
		for i, c := range f.Columns {
			vals[i] = formatValue(frame.Value(c.Data, r))
		}
		wr.Printf("%s", strings.Join(vals, " | "))
	}
	return nil
}

// Close does nothing
func (s *LogSink) Close() error { return nil }

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return stringutils.Truncate(x, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
