package pipeline

import (
	"sync/atomic"

	"github.com/sdejongh/webpnorris/pkg/output"
)

// notifier forwards progress updates to an optional formatter
type notifier struct {
	formatter output.Formatter
	total     int
	current   atomic.Int32
}

func newNotifier(formatter output.Formatter) *notifier {
	return &notifier{formatter: formatter}
}

func (n *notifier) scanned(total int) {
	n.total = total
	n.send(output.ProgressUpdate{Type: output.EventScanComplete, TotalFiles: total})
}

// next returns the 1-based index of the next processed file
func (n *notifier) next() int {
	return int(n.current.Add(1))
}

func (n *notifier) send(update output.ProgressUpdate) {
	if n.formatter == nil {
		return
	}
	if update.TotalFiles == 0 {
		update.TotalFiles = n.total
	}
	n.formatter.Progress(update)
}
