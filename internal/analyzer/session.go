package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/apivet/apivet/internal/models"
)

// DefaultBatchSize bounds the endpoint count of one augmentation call.
const DefaultBatchSize = 10

// DefaultLLMTimeout bounds the wall time of one augmentation call.
const DefaultLLMTimeout = 60 * time.Second

// ErrNoValidEndpoints is returned when every input endpoint was
// rejected at ingestion.
var ErrNoValidEndpoints = errors.New("no valid endpoints to analyze")

// Proposer is the capability boundary for hypothesis augmentation.
// known carries the deterministic findings already attached to the
// batch, so an implementation can reason about systemic risk instead
// of re-deriving per-endpoint rules. Implementations must return only
// findings referencing endpoints in the batch.
type Proposer interface {
	Propose(ctx context.Context, batch []models.Endpoint, known []models.Finding) (*Proposal, error)
}

// Proposal is the validated output of one augmentation call.
type Proposal struct {
	Findings     []models.Finding
	Observations []models.Observation
	Rejected     int // entries dropped during schema validation
}

// Options configures one session.
type Options struct {
	EnableLLM  bool
	BatchSize  int           // endpoints per augmentation call; DefaultBatchSize when zero
	LLMTimeout time.Duration // per-batch deadline; DefaultLLMTimeout when zero

	// Now and NewID default to time.Now and uuid.NewString. Tests
	// inject fixed values so repeated runs produce byte-identical
	// reports.
	Now   func() time.Time
	NewID func() string
}

// Session runs one analysis: validate inputs, evaluate the rule
// engine, optionally augment, aggregate. Sessions share no state and
// hold no resources beyond one Run call; concurrent sessions are
// independent.
type Session struct {
	engine   *Engine
	proposer Proposer
	opts     Options
}

// NewSession validates options up front. Bad configuration fails here,
// before any analysis work begins.
func NewSession(engine *Engine, proposer Proposer, opts Options) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("invalid session options: nil engine")
	}
	if opts.BatchSize < 0 {
		return nil, fmt.Errorf("invalid session options: negative batch size %d", opts.BatchSize)
	}
	if opts.LLMTimeout < 0 {
		return nil, fmt.Errorf("invalid session options: negative llm timeout %s", opts.LLMTimeout)
	}
	if opts.EnableLLM && proposer == nil {
		return nil, fmt.Errorf("invalid session options: llm enabled without a proposer")
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.LLMTimeout == 0 {
		opts.LLMTimeout = DefaultLLMTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Session{engine: engine, proposer: proposer, opts: opts}, nil
}

// Run executes one full analysis over endpoints in input order. A
// report always comes back when at least one endpoint is well-formed,
// even if augmentation is fully unavailable: deterministic findings
// are the guaranteed baseline.
func (s *Session) Run(ctx context.Context, target string, endpoints []models.Endpoint) (*models.Report, error) {
	report := &models.Report{
		ID:          s.opts.NewID(),
		Target:      target,
		GeneratedAt: s.opts.Now().UTC(),
		LLMStatus:   models.LLMDisabled,
	}

	valid := make([]models.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if err := ep.Validate(); err != nil {
			log.Debug().Str("endpoint", ep.Key()).Err(err).Msg("skipping invalid endpoint")
			report.Skipped = append(report.Skipped, models.SkippedEndpoint{
				Method: string(ep.Method),
				Path:   ep.Path,
				Reason: err.Error(),
			})
			continue
		}
		valid = append(valid, ep)
	}
	if len(valid) == 0 {
		return nil, ErrNoValidEndpoints
	}
	report.Endpoints = valid

	var findings []models.Finding
	for _, ep := range valid {
		findings = append(findings, s.engine.Evaluate(ep)...)
	}
	findings = Dedup(findings)
	report.Findings = findings

	rejected := 0
	if s.opts.EnableLLM {
		proposed, observations, rej, status := s.augment(ctx, valid, findings)
		report.Findings = Dedup(append(report.Findings, orderByEndpoint(valid, proposed)...))
		report.Observations = observations
		report.LLMStatus = status
		rejected = rej
	}

	report.Summary = Summarize(report)
	report.Summary.RejectedHypotheses = rejected
	report.Recommendations = Recommend(report)
	return report, nil
}

// augment fans batches out concurrently and merges results in batch
// order, so completion timing never changes report content. A failed
// batch degrades the LLM status; it never fails the run and never
// cancels its siblings.
func (s *Session) augment(ctx context.Context, endpoints []models.Endpoint, known []models.Finding) ([]models.Finding, []models.Observation, int, models.LLMStatus) {
	batches := splitBatches(endpoints, s.opts.BatchSize)
	results := make([]*Proposal, len(batches))
	failures := make([]error, len(batches))

	var g errgroup.Group
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			bctx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
			defer cancel()
			proposal, err := s.proposer.Propose(bctx, batch, knownFor(batch, known))
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = proposal
			return nil
		})
	}
	_ = g.Wait()

	status := models.LLMOK
	var proposed []models.Finding
	var observations []models.Observation
	rejected := 0
	for i := range batches {
		if failures[i] != nil {
			log.Warn().Err(failures[i]).Int("batch", i).Msg("augmentation batch failed, keeping deterministic findings only")
			status = models.LLMDegraded
			continue
		}
		if results[i] == nil {
			continue
		}
		proposed = append(proposed, results[i].Findings...)
		observations = append(observations, results[i].Observations...)
		rejected += results[i].Rejected
	}
	return proposed, observations, rejected, status
}

// splitBatches cuts endpoints into consecutive slices of at most size.
func splitBatches(endpoints []models.Endpoint, size int) [][]models.Endpoint {
	var batches [][]models.Endpoint
	for start := 0; start < len(endpoints); start += size {
		end := start + size
		if end > len(endpoints) {
			end = len(endpoints)
		}
		batches = append(batches, endpoints[start:end])
	}
	return batches
}

// knownFor filters already-known findings down to one batch's
// endpoints.
func knownFor(batch []models.Endpoint, known []models.Finding) []models.Finding {
	keys := make(map[string]bool, len(batch))
	for _, ep := range batch {
		keys[ep.Key()] = true
	}
	var out []models.Finding
	for _, f := range known {
		if keys[f.EndpointKey()] {
			out = append(out, f)
		}
	}
	return out
}

// orderByEndpoint reorders accepted hypotheses into input endpoint
// order so the report sequence is canonical regardless of model output
// order. Findings referencing unknown endpoints are appended last in
// arrival order rather than dropped.
func orderByEndpoint(endpoints []models.Endpoint, findings []models.Finding) []models.Finding {
	if len(findings) < 2 {
		return findings
	}
	byKey := make(map[string][]models.Finding)
	var keys []string
	for _, f := range findings {
		k := f.EndpointKey()
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], f)
	}

	out := make([]models.Finding, 0, len(findings))
	for _, ep := range endpoints {
		out = append(out, byKey[ep.Key()]...)
		delete(byKey, ep.Key())
	}
	for _, k := range keys {
		out = append(out, byKey[k]...)
	}
	return out
}
