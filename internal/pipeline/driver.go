package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/gocatalog/internal/constants"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/internal/services"
	"github.com/amaumene/gocatalog/pkg/logger"
)

// State is the position of one id in the import state machine.
type State int

const (
	StatePending State = iota
	StateFetching
	StateCreating
	StateLinking
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateCreating:
		return "creating"
	case StateLinking:
		return "linking"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome is the counter an id ends up in.
type Outcome int

const (
	OutcomeErrored Outcome = iota
	OutcomeImported
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeImported:
		return "imported"
	case OutcomeSkipped:
		return "skipped"
	}
	return "errored"
}

// Result describes what happened to one source id.
type Result struct {
	ID         int
	State      State
	Outcome    Outcome
	Title      string
	DocumentID string
	Links      LinkReport
	Err        error
}

// Summary tallies a run.
type Summary struct {
	Imported int
	Skipped  int
	Errored  int
	Total    int
	Links    LinkReport
	Duration time.Duration
}

func (s *Summary) record(r Result) {
	s.Total++
	switch r.Outcome {
	case OutcomeImported:
		s.Imported++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Errored++
	}
	s.Links.add(r.Links)
}

// Options configures a Driver.
type Options struct {
	StartID      int
	EndID        int
	Delay        time.Duration
	CastLimit    int
	ImageBaseURL string
}

// Driver walks an inclusive id range sequentially. Every id is processed in isolation: a
// failure is counted and the run moves on.
type Driver struct {
	source     services.SourceFetcher
	dest       services.Destination
	resolver   *Resolver
	normalizer Normalizer
	linker     *Linker
	observer   Observer
	opts       Options
	logger     logger.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewDriver(source services.SourceFetcher, dest services.Destination, opts Options, log logger.Logger) *Driver {
	if log == nil {
		log = logger.New()
	}
	if opts.StartID > opts.EndID {
		opts.StartID, opts.EndID = opts.EndID, opts.StartID
	}
	if opts.CastLimit <= 0 {
		opts.CastLimit = constants.DefaultCastLimit
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}

	normalizer := NewNormalizer(opts.ImageBaseURL)
	resolver := NewResolver(dest, log)
	return &Driver{
		source:     source,
		dest:       dest,
		resolver:   resolver,
		normalizer: normalizer,
		linker:     NewLinker(source, dest, resolver, normalizer, opts.CastLimit, log),
		observer:   NopObserver{},
		opts:       opts,
		logger:     log,
		sleep:      sleepContext,
	}
}

// WithObserver sets the progress observer.
func (d *Driver) WithObserver(o Observer) *Driver {
	if o == nil {
		o = NopObserver{}
	}
	d.observer = o
	return d
}

// Range returns the normalized inclusive bounds.
func (d *Driver) Range() (int, int) {
	return d.opts.StartID, d.opts.EndID
}

// Run imports every id of the range, waiting Delay between consecutive ids. It returns early
// with the context error when ctx is cancelled; the summary covers the ids processed so far.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	var summary Summary
	d.observer.OnStart(d.opts.StartID, d.opts.EndID)

	var runErr error
	for id := d.opts.StartID; id <= d.opts.EndID; id++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		res := d.Process(ctx, id)
		summary.record(res)
		d.observer.OnResult(res, summary)

		if id < d.opts.EndID && d.opts.Delay > 0 {
			if err := d.sleep(ctx, d.opts.Delay); err != nil {
				runErr = err
				break
			}
		}
	}

	summary.Duration = time.Since(started)
	d.observer.OnFinish(summary)
	return summary, runErr
}

// Process runs one id through the state machine:
// Pending → Fetching → Creating (new) or Linking (already present) → Linking → Done | Failed.
func (d *Driver) Process(ctx context.Context, id int) Result {
	res := Result{ID: id, State: StatePending}
	var bundle *models.MovieBundle

	for res.State != StateDone && res.State != StateFailed {
		d.logger.Debugf("[Pipeline] id %d: %s", id, res.State)

		switch res.State {
		case StatePending:
			res.State = StateFetching

		case StateFetching:
			var err error
			bundle, err = d.source.FetchMovie(ctx, id)
			if err != nil {
				res.Err = err
				res.State = StateFailed
				break
			}
			res.Title = bundle.Movie.Title

			// A failed movie lookup blocks creation: the id is failed rather than risk a duplicate.
			existence := d.resolver.Movie(ctx, id)
			switch existence.State {
			case models.StateExists:
				res.DocumentID = existence.DocumentID
				res.Outcome = OutcomeSkipped
				res.State = StateLinking
			case models.StateAbsent:
				res.State = StateCreating
			default:
				res.Err = fmt.Errorf("failed to check whether movie %d exists: %w", id, existence.Err)
				res.State = StateFailed
			}

		case StateCreating:
			movie := d.normalizer.Movie(&bundle.Movie, bundle.Director)
			documentID, created, err := createWithSlugFallback(ctx, d.dest, models.CollectionMovies, movieKey(id), movie, &movie.Slug, id)
			if err != nil {
				res.Err = fmt.Errorf("failed to create movie %d: %w", id, err)
				res.State = StateFailed
				break
			}
			res.DocumentID = documentID
			res.Outcome = OutcomeImported
			if !created {
				res.Outcome = OutcomeSkipped
			}
			res.State = StateLinking

		case StateLinking:
			res.Links = d.linker.Link(ctx, res.DocumentID, bundle)
			res.State = StateDone
		}
	}

	if res.State == StateFailed {
		res.Outcome = OutcomeErrored
	}
	return res
}

// ImportOne processes a single id and returns the documentId of its movie.
func (d *Driver) ImportOne(ctx context.Context, id int) (string, error) {
	res := d.Process(ctx, id)
	if res.State == StateFailed {
		return "", res.Err
	}
	return res.DocumentID, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
