package cli

import (
	"fmt"
	"io"

	"github.com/hession/slotmate/internal/stream"
	"github.com/hession/slotmate/internal/tools"
)

// NewConsoleSink prints each stream event as it arrives
func NewConsoleSink(w io.Writer) stream.Sink {
	return stream.SinkFunc(func(ev stream.Event) {
		switch ev.Type {
		case stream.EventHTML:
			fmt.Fprintf(w, "%s[%s]%s\n%s\n", colorBlue, ev.Type, colorReset, ev.Content)
		default:
			fmt.Fprintf(w, "%s[%s]%s %s\n", colorBlue, ev.Type, colorReset, ev.Content)
		}
	})
}

// PrintResult prints the outcome of a tool call
func PrintResult(w io.Writer, res tools.Result) {
	if !res.OK() {
		fmt.Fprintf(w, "%s❌ %s (%s)%s\n", colorRed, res.Failure.Message, res.Failure.Kind, colorReset)
		return
	}
	fmt.Fprintf(w, "%s✅ %s%s\n", colorGreen, res.Message, colorReset)
}
