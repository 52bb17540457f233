package workflow

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// TimelineLoader fetches detailed steps on demand, keyed by viewer. Starting
// a new load for a viewer cancels that viewer's previous one, and a load that
// finishes after being superseded returns ErrSuperseded. Latest wins.
type TimelineLoader struct {
	Source TimelineSource
	Logger *zap.Logger

	mu       sync.Mutex
	inflight map[string]*loadTicket
}

type loadTicket struct {
	cancel context.CancelFunc
}

// NewTimelineLoader creates a loader over the given source.
func NewTimelineLoader(src TimelineSource, logger *zap.Logger) *TimelineLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineLoader{
		Source:   src,
		Logger:   logger,
		inflight: make(map[string]*loadTicket),
	}
}

// Load fetches the steps of one request for a viewer. Collaborator failures
// are returned as *FetchError so callers can switch to DegradedView.
func (l *TimelineLoader) Load(ctx context.Context, viewer string, d Domain, requestID int64) ([]ApprovalStep, error) {
	ctx, ticket := l.begin(ctx, viewer)
	defer l.end(viewer, ticket)

	steps, err := l.Source.FetchTimeline(ctx, d, requestID)

	if l.superseded(viewer, ticket) {
		l.Logger.Debug("discarding superseded timeline fetch",
			zap.String("viewer", viewer),
			zap.String("domain", string(d)),
			zap.Int64("request_id", requestID))
		return nil, ErrSuperseded
	}
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{Domain: d, RequestID: requestID, Op: "fetch timeline", Err: err}
		}
		l.Logger.Warn("timeline fetch failed",
			zap.String("domain", string(d)),
			zap.Int64("request_id", requestID),
			zap.Error(err))
		return nil, err
	}
	return steps, nil
}

// View loads the steps and synthesizes the timeline, falling back to the
// degraded view on fetch failure. ErrSuperseded is still returned.
func (l *TimelineLoader) View(ctx context.Context, viewer string, s RequestSnapshot, labels Labels) (TimelineView, error) {
	steps, err := l.Load(ctx, viewer, s.Domain, s.ID)
	if errors.Is(err, ErrSuperseded) {
		return TimelineView{}, err
	}
	in := TimelineInputFor(s, steps)
	if err != nil {
		return DegradedView(in, labels), nil
	}
	return Synthesize(in, labels), nil
}

func (l *TimelineLoader) begin(ctx context.Context, viewer string) (context.Context, *loadTicket) {
	ctx, cancel := context.WithCancel(ctx)
	t := &loadTicket{cancel: cancel}

	l.mu.Lock()
	if l.inflight == nil {
		l.inflight = make(map[string]*loadTicket)
	}
	if prev, ok := l.inflight[viewer]; ok {
		prev.cancel()
	}
	l.inflight[viewer] = t
	l.mu.Unlock()

	return ctx, t
}

func (l *TimelineLoader) superseded(viewer string, t *loadTicket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[viewer] != t
}

func (l *TimelineLoader) end(viewer string, t *loadTicket) {
	t.cancel()
	l.mu.Lock()
	if l.inflight[viewer] == t {
		delete(l.inflight, viewer)
	}
	l.mu.Unlock()
}
