package pipeline

import (
	"fmt"
	"io"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/pkg/logger"
)

// Observer receives run progress.
type Observer interface {
	OnStart(startID, endID int)
	// OnResult is called after each id with the running tally.
	OnResult(res Result, tally Summary)
	OnFinish(summary Summary)
}

type NopObserver struct{}

func (NopObserver) OnStart(int, int)         {}
func (NopObserver) OnResult(Result, Summary) {}
func (NopObserver) OnFinish(Summary)         {}

// ConsoleObserver logs each id with the running tally and prints the final summary to Out.
type ConsoleObserver struct {
	Logger logger.Logger
	Out    io.Writer
}

func (o ConsoleObserver) OnStart(startID, endID int) {
	o.Logger.Infof("[Import] importing TMDB ids %d to %d", startID, endID)
}

func (o ConsoleObserver) OnResult(res Result, tally Summary) {
	switch res.Outcome {
	case OutcomeImported:
		o.Logger.Infof("[Import] %d %q imported as %s (%s)", res.ID, res.Title, res.DocumentID, res.Links)
	case OutcomeSkipped:
		o.Logger.Infof("[Import] %d %q already present, relations checked (%s)", res.ID, res.Title, res.Links)
	default:
		if catalogerrors.IsSourceNotFound(res.Err) {
			o.Logger.Warnf("[Import] %d not found on TMDB", res.ID)
		} else {
			o.Logger.Errorf("[Import] %d failed: %v", res.ID, res.Err)
		}
	}
	o.Logger.Infof("[Import] tally: imported=%d skipped=%d errored=%d", tally.Imported, tally.Skipped, tally.Errored)
}

func (o ConsoleObserver) OnFinish(s Summary) {
	if o.Out == nil {
		return
	}
	fmt.Fprintf(o.Out, "\nImport finished in %s\n", s.Duration.Round(1e6))
	fmt.Fprintf(o.Out, "  imported: %d\n  skipped:  %d\n  errored:  %d\n  total:    %d\n", s.Imported, s.Skipped, s.Errored, s.Total)
	fmt.Fprintf(o.Out, "  links:    %s\n", s.Links)
}
