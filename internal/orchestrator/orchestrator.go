// Package orchestrator drives one analysis job through the four pipeline
// phases: website context extraction, competitor discovery, per-competitor
// comparative analysis, and content generation. It owns the job status state
// machine and is the only component that turns a condition into a fatal job
// failure.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/madalingavanarescu/competeai/internal/content"
	"github.com/madalingavanarescu/competeai/internal/fetch"
	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/resilience"
	"github.com/madalingavanarescu/competeai/internal/store"
)

// Analyzer is the AI-backed analysis surface the orchestrator sequences.
// Satisfied by analyzer.Analyzer; swapped for a mock in tests.
type Analyzer interface {
	AnalyzeWebsite(ctx context.Context, website, companyName string) model.WebsiteContext
	Discover(ctx context.Context, website, companyName string, subject *model.WebsiteContext) []model.CandidateCompetitor
	AnalyzeCompetitor(ctx context.Context, subject *model.WebsiteContext, candidate model.CandidateCompetitor, scraped string) (model.Competitor, error)
}

// Config bounds the retry and timeout behavior of each phase. Zero values
// are replaced by the defaults; tests shrink the backoffs.
type Config struct {
	ContextAttempts    int
	ContextBackoff     time.Duration // linear: retry N sleeps N × ContextBackoff
	DiscoveryAttempts  int
	DiscoveryBackoff   time.Duration // linear: retry N sleeps N × DiscoveryBackoff
	MinCandidates      int
	CompetitorAttempts int
	CompetitorBackoff  time.Duration // fixed per retry
	ScrapeTimeout      time.Duration
	AnalysisTimeout    time.Duration
	SuccessRatio       float64
}

// DefaultConfig returns the production pipeline bounds.
func DefaultConfig() Config {
	return Config{
		ContextAttempts:    3,
		ContextBackoff:     2 * time.Second,
		DiscoveryAttempts:  3,
		DiscoveryBackoff:   3 * time.Second,
		MinCandidates:      2,
		CompetitorAttempts: 2,
		CompetitorBackoff:  2 * time.Second,
		ScrapeTimeout:      30 * time.Second,
		AnalysisTimeout:    45 * time.Second,
		SuccessRatio:       0.6,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ContextAttempts <= 0 {
		c.ContextAttempts = def.ContextAttempts
	}
	if c.ContextBackoff <= 0 {
		c.ContextBackoff = def.ContextBackoff
	}
	if c.DiscoveryAttempts <= 0 {
		c.DiscoveryAttempts = def.DiscoveryAttempts
	}
	if c.DiscoveryBackoff <= 0 {
		c.DiscoveryBackoff = def.DiscoveryBackoff
	}
	if c.MinCandidates <= 0 {
		c.MinCandidates = def.MinCandidates
	}
	if c.CompetitorAttempts <= 0 {
		c.CompetitorAttempts = def.CompetitorAttempts
	}
	if c.CompetitorBackoff <= 0 {
		c.CompetitorBackoff = def.CompetitorBackoff
	}
	if c.ScrapeTimeout <= 0 {
		c.ScrapeTimeout = def.ScrapeTimeout
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = def.AnalysisTimeout
	}
	if c.SuccessRatio <= 0 {
		c.SuccessRatio = def.SuccessRatio
	}
	return c
}

// Orchestrator runs analysis jobs to a terminal state. One Run per job;
// jobs are never re-run.
type Orchestrator struct {
	store     store.Store
	analyzer  Analyzer
	fetcher   fetch.Fetcher
	generator *content.Generator
	cfg       Config
}

func New(st store.Store, an Analyzer, fetcher fetch.Fetcher, gen *content.Generator, cfg Config) *Orchestrator {
	return &Orchestrator{
		store:     st,
		analyzer:  an,
		fetcher:   fetcher,
		generator: gen,
		cfg:       cfg.withDefaults(),
	}
}

// MinSuccessThreshold is the phase-3 quality gate: at least 60% of the
// discovered competitors must analyze successfully, with a floor of 1.
func MinSuccessThreshold(total int, ratio float64) int {
	if total == 0 {
		return 1
	}
	threshold := int(math.Ceil(ratio * float64(total)))
	if threshold < 1 {
		threshold = 1
	}
	return threshold
}

// Run drives the job with the given ID to a terminal state. The returned
// error reports infrastructure problems (store failures, invalid job state);
// analysis-quality failures are recorded on the job itself, not returned.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	log := zap.L().With(zap.String("job_id", jobID))
	started := time.Now()

	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return eris.Wrapf(err, "orchestrator: load job %s", jobID)
	}
	if job.Status.Terminal() {
		return eris.Wrapf(store.ErrTerminalStatus, "orchestrator: job %s", jobID)
	}

	if err := o.store.UpdateJobStatus(ctx, jobID, model.JobStatusAnalyzing, ""); err != nil {
		return eris.Wrapf(err, "orchestrator: mark job %s analyzing", jobID)
	}
	log.Info("analysis started",
		zap.String("website", job.Website),
		zap.String("company", job.CompanyName),
	)

	// Phase 1: website context. Degrades, never fatal.
	wc := o.analyzeContext(ctx, log, job)
	if err := o.store.SaveWebsiteContext(ctx, jobID, &wc); err != nil {
		return o.fail(ctx, log, jobID, eris.Wrap(err, "orchestrator: save website context"))
	}

	// Phase 2: discovery. Too few candidates after retries is fatal.
	candidates, err := o.discover(ctx, log, job, &wc)
	if err != nil {
		return o.fail(ctx, log, jobID, err)
	}

	// Phase 3: per-competitor comparative analysis, strictly in discovery
	// order, each competitor completing its own retries before the next.
	successes := 0
	for position, candidate := range candidates {
		comp, ok := o.analyzeCompetitor(ctx, log, &wc, candidate)
		if !ok {
			continue
		}

		comp.JobID = jobID
		comp.Position = position
		if err := o.store.InsertCompetitor(ctx, &comp); err != nil {
			return o.fail(ctx, log, jobID, eris.Wrapf(err, "orchestrator: insert competitor %s", comp.Name))
		}
		if err := o.store.InsertAngles(ctx, fanOutAngles(&comp)); err != nil {
			return o.fail(ctx, log, jobID, eris.Wrapf(err, "orchestrator: insert angles for %s", comp.Name))
		}
		successes++
	}

	threshold := MinSuccessThreshold(len(candidates), o.cfg.SuccessRatio)
	if successes < threshold {
		return o.fail(ctx, log, jobID, eris.Errorf(
			"orchestrator: only %d of %d competitor analyses succeeded (minimum %d)",
			successes, len(candidates), threshold))
	}

	// Phase 4: content generation over the persisted records.
	if err := o.generateContent(ctx, jobID, job, &wc); err != nil {
		return o.fail(ctx, log, jobID, err)
	}

	counts, err := o.store.GetJobCounts(ctx, jobID)
	if err != nil {
		return o.fail(ctx, log, jobID, eris.Wrap(err, "orchestrator: count job records"))
	}
	if counts.Competitors < 1 || counts.Angles < 1 || counts.Contents < 2 {
		return o.fail(ctx, log, jobID, eris.Errorf(
			"orchestrator: incomplete analysis output (%d competitors, %d angles, %d artifacts)",
			counts.Competitors, counts.Angles, counts.Contents))
	}

	if err := o.store.UpdateJobStatus(ctx, jobID, model.JobStatusCompleted, ""); err != nil {
		return eris.Wrapf(err, "orchestrator: mark job %s completed", jobID)
	}
	log.Info("analysis completed",
		zap.Int("competitors", counts.Competitors),
		zap.Int("angles", counts.Angles),
		zap.Int("artifacts", counts.Contents),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// analyzeContext runs phase 1. The analyzer itself degrades to a synthesized
// context rather than failing, so the retry trigger here is "the AI path was
// unavailable": retries give the upstream service a chance to recover, and
// on exhaustion the last synthesized context is used as-is.
func (o *Orchestrator) analyzeContext(ctx context.Context, log *zap.Logger, job *model.AnalysisJob) model.WebsiteContext {
	var wc model.WebsiteContext
	err := resilience.Do(ctx, resilience.RetryConfig{
		MaxAttempts: o.cfg.ContextAttempts,
		Backoff:     resilience.LinearBackoff(o.cfg.ContextBackoff),
		ShouldRetry: func(error) bool { return true },
		OnRetry:     resilience.RetryLogger("anthropic", "analyze_website"),
	}, func(ctx context.Context) error {
		wc = o.analyzer.AnalyzeWebsite(ctx, job.Website, job.CompanyName)
		if wc.Source == model.ContextSourceFallback {
			return resilience.NewRetryableError(eris.New("website context fell back to industry defaults"))
		}
		return nil
	})
	if err != nil {
		log.Warn("proceeding with degraded website context", zap.Error(err))
	}
	return wc
}

// discover runs phase 2. Fewer than MinCandidates results is a retryable
// quality failure; exhausting the retries with too few is fatal to the job.
func (o *Orchestrator) discover(ctx context.Context, log *zap.Logger, job *model.AnalysisJob, wc *model.WebsiteContext) ([]model.CandidateCompetitor, error) {
	candidates, err := resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts: o.cfg.DiscoveryAttempts,
		Backoff:     resilience.LinearBackoff(o.cfg.DiscoveryBackoff),
		ShouldRetry: func(error) bool { return true },
		OnRetry:     resilience.RetryLogger("anthropic", "discover_competitors"),
	}, func(ctx context.Context) ([]model.CandidateCompetitor, error) {
		found := o.analyzer.Discover(ctx, job.Website, job.CompanyName, wc)
		if len(found) < o.cfg.MinCandidates {
			return nil, resilience.NewRetryableError(eris.Errorf(
				"discovered %d competitors, need at least %d", len(found), o.cfg.MinCandidates))
		}
		return found, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: competitor discovery")
	}
	log.Info("competitors discovered", zap.Int("count", len(candidates)))
	return candidates, nil
}

// analyzeCompetitor runs one phase-3 unit: scrape then comparative analysis,
// each under its own deadline, with one retry. A competitor that exhausts
// its retries is skipped, never fatal.
func (o *Orchestrator) analyzeCompetitor(ctx context.Context, log *zap.Logger, wc *model.WebsiteContext, candidate model.CandidateCompetitor) (model.Competitor, bool) {
	comp, err := resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts: o.cfg.CompetitorAttempts,
		Backoff:     resilience.FixedBackoff(o.cfg.CompetitorBackoff),
		ShouldRetry: func(error) bool { return ctx.Err() == nil },
		OnRetry:     resilience.RetryLogger("anthropic", "analyze_competitor"),
	}, func(ctx context.Context) (model.Competitor, error) {
		scraped := o.scrape(ctx, log, candidate.Website)

		analysisCtx, cancel := context.WithTimeout(ctx, o.cfg.AnalysisTimeout)
		defer cancel()
		return o.analyzer.AnalyzeCompetitor(analysisCtx, wc, candidate, scraped)
	})
	if err != nil {
		log.Warn("competitor skipped after exhausted retries",
			zap.String("competitor", candidate.Name),
			zap.Error(err),
		)
		return model.Competitor{}, false
	}
	return comp, true
}

// scrape fetches the competitor site under the scrape deadline. Failures
// only lower the analysis input quality; the comparative call proceeds with
// whatever was retrieved.
func (o *Orchestrator) scrape(ctx context.Context, log *zap.Logger, website string) string {
	if o.fetcher == nil {
		return ""
	}
	scrapeCtx, cancel := context.WithTimeout(ctx, o.cfg.ScrapeTimeout)
	defer cancel()

	page, err := o.fetcher.Fetch(scrapeCtx, website)
	if err != nil {
		log.Debug("competitor scrape failed",
			zap.String("website", website),
			zap.Error(err),
		)
		return ""
	}
	return page.Content
}

// fanOutAngles converts a competitor's differentiation opportunities into
// angle records. A high-threat competitor yields high-opportunity angles;
// everything else is medium.
func fanOutAngles(comp *model.Competitor) []model.DifferentiationAngle {
	if comp.Insights == nil {
		return nil
	}

	level := model.LevelMedium
	if comp.Insights.CompetitiveThreatLevel == model.LevelHigh {
		level = model.LevelHigh
	}

	angles := make([]model.DifferentiationAngle, 0, len(comp.Insights.DifferentiationOpportunities))
	for _, opportunity := range comp.Insights.DifferentiationOpportunities {
		if opportunity == "" {
			continue
		}
		angles = append(angles, model.DifferentiationAngle{
			JobID:            comp.JobID,
			CompetitorID:     comp.ID,
			Title:            opportunity,
			Description:      fmt.Sprintf("Identified while comparing against %s.", comp.Name),
			OpportunityLevel: level,
		})
	}
	return angles
}

// generateContent runs phase 4 over the records persisted during phase 3,
// so the artifacts reflect exactly what a reader of the job will see.
func (o *Orchestrator) generateContent(ctx context.Context, jobID string, job *model.AnalysisJob, wc *model.WebsiteContext) error {
	competitors, err := o.store.ListCompetitors(ctx, jobID)
	if err != nil {
		return eris.Wrap(err, "orchestrator: list competitors for content")
	}
	angles, err := o.store.ListAngles(ctx, jobID)
	if err != nil {
		return eris.Wrap(err, "orchestrator: list angles for content")
	}

	contents := o.generator.Generate(job, wc, competitors, angles)
	if err := o.store.InsertContentBatch(ctx, contents); err != nil {
		return eris.Wrap(err, "orchestrator: persist content batch")
	}
	return nil
}

// fail marks the job failed with a best-effort error message. The original
// error is returned so callers can log it; the job itself carries the
// user-visible message.
func (o *Orchestrator) fail(ctx context.Context, log *zap.Logger, jobID string, cause error) error {
	log.Error("analysis failed", zap.Error(cause))
	if err := o.store.UpdateJobStatus(ctx, jobID, model.JobStatusFailed, eris.ToString(cause, false)); err != nil {
		log.Error("failed to record job failure", zap.Error(err))
	}
	return cause
}
