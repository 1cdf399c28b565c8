// Package agent runs the posting cycle: fetch market data, generate
// commentary, format a post, check it against recent history, publish.
package agent

import (
	"context"
	"sync"
	"time"

	"marketpulse/internal/domain"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Stage names mark how far a cycle got before finishing or failing.
const (
	StageFetching   = "fetching"
	StageGenerating = "generating"
	StageFormatting = "formatting"
	StageDupCheck   = "dup_check"
	StagePublishing = "publishing"
	StageDone       = "done"
)

// Outcome is the terminal state of one cycle.
type Outcome struct {
	Stage      string       `json:"stage"`
	Published  bool         `json:"published"`
	Skipped    bool         `json:"skipped"`
	Err        string       `json:"error,omitempty"`
	Post       *domain.Post `json:"post,omitempty"`
	FinishedAt time.Time    `json:"finished_at"`
}

type MarketDataSource interface {
	FetchSnapshot(ctx context.Context) (*domain.MarketSnapshot, error)
}

type AnalysisGenerator interface {
	Generate(ctx context.Context, snapshot *domain.MarketSnapshot) (string, error)
}

type PostComposer interface {
	Compose(analysis string, snapshot *domain.MarketSnapshot) domain.Post
}

type DuplicateChecker interface {
	IsDuplicate(candidate domain.Post, history []string) bool
}

type HistoryStore interface {
	Recent(ctx context.Context) ([]string, error)
	Record(ctx context.Context, text string) error
}

// PostArchive persists published posts. Optional: a nil archive disables it.
type PostArchive interface {
	SavePost(ctx context.Context, post domain.Post) error
}

type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Gate drives one cycle end to end and remembers the last outcome for the
// status endpoint.
type Gate struct {
	source    MarketDataSource
	analyst   AnalysisGenerator
	composer  PostComposer
	guard     DuplicateChecker
	history   HistoryStore
	archive   PostArchive
	publisher Publisher
	tracer    trace.Tracer
	logger    zerolog.Logger

	mu   sync.Mutex
	last *Outcome
}

func NewGate(
	source MarketDataSource,
	analyst AnalysisGenerator,
	composer PostComposer,
	guard DuplicateChecker,
	history HistoryStore,
	archive PostArchive,
	publisher Publisher,
	tracer trace.Tracer,
) *Gate {
	return &Gate{
		source:    source,
		analyst:   analyst,
		composer:  composer,
		guard:     guard,
		history:   history,
		archive:   archive,
		publisher: publisher,
		tracer:    tracer,
		logger:    log.With().Str("component", "agent").Logger(),
	}
}

// RunCycle executes one full cycle. It never returns an error: a stage
// failure is absorbed into the outcome so the scheduler keeps its cadence.
func (g *Gate) RunCycle(ctx context.Context) Outcome {
	ctx, span := g.tracer.Start(ctx, "agent.cycle")
	defer span.End()

	outcome := g.runStages(ctx)
	outcome.FinishedAt = time.Now().UTC()

	g.mu.Lock()
	g.last = &outcome
	g.mu.Unlock()

	return outcome
}

func (g *Gate) runStages(ctx context.Context) Outcome {
	snapshot, err := g.source.FetchSnapshot(ctx)
	if err != nil {
		g.logger.Error().Err(err).Msg("market data fetch failed")
		return Outcome{Stage: StageFetching, Err: err.Error()}
	}

	analysis, err := g.analyst.Generate(ctx, snapshot)
	if err != nil {
		g.logger.Error().Err(err).Msg("analysis generation failed")
		return Outcome{Stage: StageGenerating, Err: err.Error()}
	}

	post := g.composer.Compose(analysis, snapshot)

	history, err := g.history.Recent(ctx)
	if err != nil {
		// Fail open: a history outage must not silence the agent.
		g.logger.Warn().Err(err).Msg("recent post lookup failed, skipping duplicate check")
		history = nil
	}
	if g.guard.IsDuplicate(post, history) {
		return Outcome{Stage: StageDone, Skipped: true, Post: &post}
	}

	if err := g.publisher.Publish(ctx, post.Text); err != nil {
		g.logger.Error().Err(err).Msg("publish failed")
		return Outcome{Stage: StagePublishing, Err: err.Error(), Post: &post}
	}

	if err := g.history.Record(ctx, post.Text); err != nil {
		g.logger.Warn().Err(err).Msg("failed to record post in history")
	}
	if g.archive != nil {
		if err := g.archive.SavePost(ctx, post); err != nil {
			g.logger.Warn().Err(err).Msg("failed to archive post")
		}
	}

	return Outcome{Stage: StageDone, Published: true, Post: &post}
}

// LastOutcome returns the most recent cycle outcome, or nil before the first
// cycle completes.
func (g *Gate) LastOutcome() *Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
