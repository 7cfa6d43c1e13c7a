package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madalingavanarescu/competeai/internal/content"
	"github.com/madalingavanarescu/competeai/internal/fetch"
	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/store"
)

// memStore is an in-memory store.Store for pipeline tests.
type memStore struct {
	mu          sync.Mutex
	jobs        map[string]*model.AnalysisJob
	contexts    map[string]*model.WebsiteContext
	competitors map[string][]model.Competitor
	angles      map[string][]model.DifferentiationAngle
	contents    map[string][]model.AnalysisContent
}

func newMemStore() *memStore {
	return &memStore{
		jobs:        make(map[string]*model.AnalysisJob),
		contexts:    make(map[string]*model.WebsiteContext),
		competitors: make(map[string][]model.Competitor),
		angles:      make(map[string][]model.DifferentiationAngle),
		contents:    make(map[string][]model.AnalysisContent),
	}
}

func (m *memStore) CreateJob(_ context.Context, ownerID, website, companyName string) (*model.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &model.AnalysisJob{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Website:     website,
		CompanyName: companyName,
		Status:      model.JobStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	m.jobs[job.ID] = job
	return copyJob(job), nil
}

func (m *memStore) GetJob(_ context.Context, jobID string) (*model.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyJob(job), nil
}

func (m *memStore) ListJobs(_ context.Context, filter store.JobFilter) ([]model.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AnalysisJob
	for _, job := range m.jobs {
		if filter.OwnerID != "" && job.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out = append(out, *job)
	}
	return out, nil
}

func (m *memStore) UpdateJobStatus(_ context.Context, jobID string, status model.JobStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	if job.Status.Terminal() {
		return eris.Wrapf(store.ErrTerminalStatus, "job %s is %s", jobID, job.Status)
	}
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memStore) CountJobsByOwnerSince(_ context.Context, ownerID string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, job := range m.jobs {
		if job.OwnerID == ownerID && !job.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) SaveWebsiteContext(_ context.Context, jobID string, wc *model.WebsiteContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *wc
	m.contexts[jobID] = &saved
	return nil
}

func (m *memStore) GetWebsiteContext(_ context.Context, jobID string) (*model.WebsiteContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wc, ok := m.contexts[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *wc
	return &out, nil
}

func (m *memStore) InsertCompetitor(_ context.Context, comp *model.Competitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if comp.ID == "" {
		comp.ID = uuid.NewString()
	}
	comp.CreatedAt = time.Now().UTC()
	m.competitors[comp.JobID] = append(m.competitors[comp.JobID], *comp)
	return nil
}

func (m *memStore) ListCompetitors(_ context.Context, jobID string) ([]model.Competitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Competitor(nil), m.competitors[jobID]...), nil
}

func (m *memStore) InsertAngles(_ context.Context, angles []model.DifferentiationAngle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range angles {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		m.angles[a.JobID] = append(m.angles[a.JobID], a)
	}
	return nil
}

func (m *memStore) ListAngles(_ context.Context, jobID string) ([]model.DifferentiationAngle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.DifferentiationAngle(nil), m.angles[jobID]...), nil
}

func (m *memStore) InsertContentBatch(_ context.Context, contents []model.AnalysisContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range contents {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		m.contents[c.JobID] = append(m.contents[c.JobID], c)
	}
	return nil
}

func (m *memStore) ListContent(_ context.Context, jobID string, contentType model.ContentType) ([]model.AnalysisContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AnalysisContent
	for _, c := range m.contents[jobID] {
		if contentType != "" && c.ContentType != contentType {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) GetJobCounts(_ context.Context, jobID string) (*store.JobCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := &store.JobCounts{
		Competitors: len(m.competitors[jobID]),
		Angles:      len(m.angles[jobID]),
		Contents:    len(m.contents[jobID]),
	}
	for _, c := range m.competitors[jobID] {
		if c.Insights != nil {
			counts.WithInsights++
		}
	}
	return counts, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

func copyJob(job *model.AnalysisJob) *model.AnalysisJob {
	out := *job
	return &out
}

// stubAnalyzer scripts the AI surface for pipeline tests.
type stubAnalyzer struct {
	mu            sync.Mutex
	contextSource model.ContextSource
	candidates    []model.CandidateCompetitor
	failWebsites  map[string]bool
	discoverCalls int
	contextCalls  int
}

func (s *stubAnalyzer) AnalyzeWebsite(_ context.Context, website, companyName string) model.WebsiteContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contextCalls++
	source := s.contextSource
	if source == "" {
		source = model.ContextSourceAI
	}
	return model.WebsiteContext{
		CompanyName:   companyName,
		BusinessModel: "B2B SaaS",
		Industry:      "Technology",
		Source:        source,
	}
}

func (s *stubAnalyzer) Discover(context.Context, string, string, *model.WebsiteContext) []model.CandidateCompetitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoverCalls++
	return s.candidates
}

func (s *stubAnalyzer) AnalyzeCompetitor(_ context.Context, _ *model.WebsiteContext, candidate model.CandidateCompetitor, _ string) (model.Competitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWebsites[candidate.Website] {
		return model.Competitor{}, eris.Errorf("analysis failed for %s", candidate.Website)
	}
	threat := model.LevelMedium
	if candidate.RelevanceScore >= 9 {
		threat = model.LevelHigh
	}
	return model.Competitor{
		Name:        candidate.Name,
		Website:     candidate.Website,
		Description: candidate.Description,
		Insights: &model.ComparativeInsights{
			PricingComparison:            model.PricingSimilar,
			CompetitiveThreatLevel:       threat,
			TargetAudienceOverlap:        model.LevelMedium,
			DifferentiationOpportunities: []string{"Simpler pricing for " + candidate.Name},
		},
	}, nil
}

type fixedFetcher struct{ content string }

func (f fixedFetcher) Fetch(_ context.Context, url string) (*fetch.Page, error) {
	return &fetch.Page{URL: url, Content: f.content, Source: "stub"}, nil
}

func (f fixedFetcher) Name() string { return "stub" }

func testConfig() Config {
	return Config{
		ContextAttempts:    3,
		ContextBackoff:     time.Millisecond,
		DiscoveryAttempts:  3,
		DiscoveryBackoff:   time.Millisecond,
		MinCandidates:      2,
		CompetitorAttempts: 2,
		CompetitorBackoff:  time.Millisecond,
		ScrapeTimeout:      time.Second,
		AnalysisTimeout:    time.Second,
		SuccessRatio:       0.6,
	}
}

func candidateSet(n int) []model.CandidateCompetitor {
	names := []string{"AlphaCo", "BetaCo", "GammaCo", "DeltaCo", "EpsilonCo"}
	out := make([]model.CandidateCompetitor, 0, n)
	for i := 0; i < n; i++ {
		score := 7
		if i == 0 {
			score = 9
		}
		out = append(out, model.CandidateCompetitor{
			Name:               names[i],
			Website:            "https://" + names[i] + ".example.com",
			Description:        names[i] + " platform",
			RelevanceScore:     score,
			BusinessModelMatch: model.MatchSimilar,
		})
	}
	return out
}

func newTestOrchestrator(st store.Store, an Analyzer) *Orchestrator {
	gen := content.NewGenerator(content.WithClock(func() time.Time {
		return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	}))
	return New(st, an, fixedFetcher{content: "pricing and features"}, gen, testConfig())
}

func TestRun_CompletesWhenAllCompetitorsSucceed(t *testing.T) {
	st := newMemStore()
	an := &stubAnalyzer{candidates: candidateSet(5)}
	orch := newTestOrchestrator(st, an)

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)

	require.NoError(t, orch.Run(context.Background(), job.ID))

	final, err := st.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, final.Status)
	assert.Empty(t, final.Error)

	counts, err := st.GetJobCounts(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, counts.Competitors)
	assert.Equal(t, 5, counts.WithInsights)
	assert.Equal(t, 5, counts.Angles)
	assert.Equal(t, 4, counts.Contents)

	// Competitors keep discovery order.
	competitors, err := st.ListCompetitors(context.Background(), job.ID)
	require.NoError(t, err)
	for i, c := range competitors {
		assert.Equal(t, i, c.Position)
	}

	assert.Equal(t, model.ConfidenceHigh,
		model.ComputeConfidence(counts.Competitors, counts.WithInsights, counts.Angles))
}

func TestRun_PersistsWebsiteContext(t *testing.T) {
	st := newMemStore()
	an := &stubAnalyzer{candidates: candidateSet(2)}
	orch := newTestOrchestrator(st, an)

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)
	require.NoError(t, orch.Run(context.Background(), job.ID))

	wc, err := st.GetWebsiteContext(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContextSourceAI, wc.Source)
	assert.Equal(t, 1, an.contextCalls, "no retries when the AI path succeeds")
}

func TestRun_RetriesDegradedContextThenProceeds(t *testing.T) {
	st := newMemStore()
	an := &stubAnalyzer{
		contextSource: model.ContextSourceFallback,
		candidates:    candidateSet(2),
	}
	orch := newTestOrchestrator(st, an)

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)

	// A degraded context is retried but never fatal.
	require.NoError(t, orch.Run(context.Background(), job.ID))
	assert.Equal(t, 3, an.contextCalls)

	final, err := st.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, final.Status)

	wc, err := st.GetWebsiteContext(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContextSourceFallback, wc.Source)
}

func TestRun_FailsWhenDiscoveryStaysBelowMinimum(t *testing.T) {
	st := newMemStore()
	an := &stubAnalyzer{candidates: candidateSet(1)}
	orch := newTestOrchestrator(st, an)

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)

	err = orch.Run(context.Background(), job.ID)
	require.Error(t, err)
	assert.Equal(t, 3, an.discoverCalls, "discovery exhausts all attempts")

	final, getErr := st.GetJob(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.JobStatusFailed, final.Status)
	assert.Contains(t, final.Error, "discovery")

	// Nothing past phase 2 ran.
	counts, countErr := st.GetJobCounts(context.Background(), job.ID)
	require.NoError(t, countErr)
	assert.Zero(t, counts.Competitors)
	assert.Zero(t, counts.Contents)
}

func TestRun_FailsBelowSuccessThreshold(t *testing.T) {
	st := newMemStore()
	candidates := candidateSet(4)
	an := &stubAnalyzer{
		candidates: candidates,
		failWebsites: map[string]bool{
			candidates[1].Website: true,
			candidates[2].Website: true,
			candidates[3].Website: true,
		},
	}
	orch := newTestOrchestrator(st, an)

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)

	// 1 of 4 succeeded; the gate requires ceil(0.6 * 4) = 3.
	err = orch.Run(context.Background(), job.ID)
	require.Error(t, err)

	final, getErr := st.GetJob(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.JobStatusFailed, final.Status)
	assert.Contains(t, final.Error, "1 of 4")

	// The successful competitor was still persisted before the gate.
	counts, countErr := st.GetJobCounts(context.Background(), job.ID)
	require.NoError(t, countErr)
	assert.Equal(t, 1, counts.Competitors)
	assert.Zero(t, counts.Contents, "content generation never ran")
}

func TestRun_SkipsFailedCompetitorAboveThreshold(t *testing.T) {
	st := newMemStore()
	candidates := candidateSet(5)
	an := &stubAnalyzer{
		candidates:   candidates,
		failWebsites: map[string]bool{candidates[4].Website: true},
	}
	orch := newTestOrchestrator(st, an)

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)

	// 4 of 5 succeeded; the gate requires ceil(0.6 * 5) = 3.
	require.NoError(t, orch.Run(context.Background(), job.ID))

	final, getErr := st.GetJob(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.JobStatusCompleted, final.Status)

	counts, countErr := st.GetJobCounts(context.Background(), job.ID)
	require.NoError(t, countErr)
	assert.Equal(t, 4, counts.Competitors)
}

func TestRun_RefusesTerminalJob(t *testing.T) {
	st := newMemStore()
	orch := newTestOrchestrator(st, &stubAnalyzer{candidates: candidateSet(2)})

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)
	require.NoError(t, st.UpdateJobStatus(context.Background(), job.ID, model.JobStatusAnalyzing, ""))
	require.NoError(t, st.UpdateJobStatus(context.Background(), job.ID, model.JobStatusFailed, "gone wrong"))

	err = orch.Run(context.Background(), job.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrTerminalStatus)

	final, getErr := st.GetJob(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "gone wrong", final.Error, "terminal job untouched")
}

func TestRun_UnknownJob(t *testing.T) {
	st := newMemStore()
	orch := newTestOrchestrator(st, &stubAnalyzer{})

	err := orch.Run(context.Background(), "no-such-job")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMinSuccessThreshold(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{5, 3},
		{8, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MinSuccessThreshold(tc.total, 0.6), "total=%d", tc.total)
	}
}

func TestFanOutAngles(t *testing.T) {
	comp := &model.Competitor{
		ID:    "c1",
		JobID: "job-1",
		Name:  "RivalCo",
		Insights: &model.ComparativeInsights{
			CompetitiveThreatLevel:       model.LevelHigh,
			DifferentiationOpportunities: []string{"Better onboarding", "", "Open API"},
		},
	}

	angles := fanOutAngles(comp)

	require.Len(t, angles, 2, "empty opportunities are dropped")
	for _, a := range angles {
		assert.Equal(t, "job-1", a.JobID)
		assert.Equal(t, "c1", a.CompetitorID)
		assert.Equal(t, model.LevelHigh, a.OpportunityLevel)
		assert.Contains(t, a.Description, "RivalCo")
	}
	assert.Equal(t, "Better onboarding", angles[0].Title)
	assert.Equal(t, "Open API", angles[1].Title)
}

func TestFanOutAngles_MediumForNonHighThreat(t *testing.T) {
	for _, threat := range []model.Level{model.LevelMedium, model.LevelLow} {
		comp := &model.Competitor{
			ID: "c1", JobID: "job-1", Name: "RivalCo",
			Insights: &model.ComparativeInsights{
				CompetitiveThreatLevel:       threat,
				DifferentiationOpportunities: []string{"Better onboarding"},
			},
		}
		angles := fanOutAngles(comp)
		require.Len(t, angles, 1)
		assert.Equal(t, model.LevelMedium, angles[0].OpportunityLevel, "threat=%s", threat)
	}
}

func TestFanOutAngles_NilInsights(t *testing.T) {
	assert.Nil(t, fanOutAngles(&model.Competitor{ID: "c1", JobID: "job-1"}))
}
