package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/itohio/hktelem/pkg/frame"
	"github.com/itohio/hktelem/pkg/output"
)

type ConsoleOutput struct {
	w io.Writer
}

func NewConsole() output.Output { return &ConsoleOutput{w: os.Stdout} }

// NewWriter creates a console output printing to w.
func NewWriter(w io.Writer) output.Output { return &ConsoleOutput{w: w} }

func (c *ConsoleOutput) Publish(r frame.Record) error {
	_, err := fmt.Fprintf(c.w, "%s v=[%s] c=[%s] t=[%s]\n",
		r.Timestamp.Format(time.RFC3339),
		join(r.Frame.Voltages[:]),
		join(r.Frame.Currents[:]),
		join(r.Frame.Temperatures[:]),
	)
	return err
}

func (c *ConsoleOutput) Close() error { return nil }

func join(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = frame.FormatValue(v)
	}
	return strings.Join(parts, " ")
}
