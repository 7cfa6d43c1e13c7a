package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/orchestrator"
	"github.com/madalingavanarescu/competeai/internal/store"
)

func newTestServer(t *testing.T, entitlements Entitlements, queueBuffer int) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	// The queue only buffers here; no worker drains it.
	orch := orchestrator.New(st, nil, nil, nil, orchestrator.Config{})
	queue := orchestrator.NewQueue(orch, 1, queueBuffer)

	if entitlements == nil {
		entitlements = Unlimited{}
	}
	return New(st, queue, entitlements), st
}

func doRequest(t *testing.T, srv *Server, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}
	rec := httptest.NewRecorder()
	srv.Router([]string{"*"}).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil, 4)

	rec := doRequest(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAnalysis(t *testing.T) {
	srv, st := newTestServer(t, nil, 4)

	rec := doRequest(t, srv, http.MethodPost, "/api/analyses/", "owner-1",
		`{"website": "https://acme.io", "company_name": "Acme"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, model.JobStatusPending, resp.Status)
	assert.Equal(t, "https://acme.io", resp.Website)

	job, err := st.GetJob(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", job.OwnerID)
}

func TestCreateAnalysis_Validation(t *testing.T) {
	srv, _ := newTestServer(t, nil, 4)

	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{not json`},
		{"missing website", `{"company_name": "Acme"}`},
		{"missing company", `{"website": "https://acme.io"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/analyses/", "owner-1", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateAnalysis_LimitExceeded(t *testing.T) {
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	_, err = st.CreateJob(context.Background(), "owner-1", "https://a.io", "A")
	require.NoError(t, err)

	orch := orchestrator.New(st, nil, nil, nil, orchestrator.Config{})
	srv := New(st, orchestrator.NewQueue(orch, 1, 4), NewUsageLimiter(st, 1))

	rec := doRequest(t, srv, http.MethodPost, "/api/analyses/", "owner-1",
		`{"website": "https://b.io", "company_name": "B"}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	// Another owner is unaffected.
	rec = doRequest(t, srv, http.MethodPost, "/api/analyses/", "owner-2",
		`{"website": "https://b.io", "company_name": "B"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCreateAnalysis_QueueFull(t *testing.T) {
	srv, st := newTestServer(t, nil, 1)

	rec := doRequest(t, srv, http.MethodPost, "/api/analyses/", "owner-1",
		`{"website": "https://a.io", "company_name": "A"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/analyses/", "owner-1",
		`{"website": "https://b.io", "company_name": "B"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// The unqueued job is failed so the owner is not left polling forever.
	jobs, err := st.ListJobs(context.Background(), store.JobFilter{Status: model.JobStatusFailed})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Contains(t, jobs[0].Error, "queue unavailable")
}

func TestGetAnalysis_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil, 4)

	rec := doRequest(t, srv, http.MethodGet, "/api/analyses/missing", "owner-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAnalysis_CompletedIncludesCountsAndConfidence(t *testing.T) {
	srv, st := newTestServer(t, nil, 4)
	ctx := context.Background()

	job, err := st.CreateJob(ctx, "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)

	for i, name := range []string{"A", "B", "C"} {
		comp := &model.Competitor{
			JobID: job.ID, Position: i, Name: name, Website: "https://" + name + ".io",
			Insights: &model.ComparativeInsights{CompetitiveThreatLevel: model.LevelMedium},
		}
		require.NoError(t, st.InsertCompetitor(ctx, comp))
		require.NoError(t, st.InsertAngles(ctx, []model.DifferentiationAngle{
			{JobID: job.ID, CompetitorID: comp.ID, Title: name + " angle", Description: "d", OpportunityLevel: model.LevelMedium},
		}))
	}
	require.NoError(t, st.UpdateJobStatus(ctx, job.ID, model.JobStatusAnalyzing, ""))
	require.NoError(t, st.UpdateJobStatus(ctx, job.ID, model.JobStatusCompleted, ""))

	rec := doRequest(t, srv, http.MethodGet, "/api/analyses/"+job.ID, "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.JobStatusCompleted, resp.Status)
	require.NotNil(t, resp.Counts)
	assert.Equal(t, 3, resp.Counts.Competitors)
	assert.Equal(t, model.ConfidenceHigh, resp.Confidence)
}

func TestGetAnalysis_PendingHasNoCounts(t *testing.T) {
	srv, st := newTestServer(t, nil, 4)

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/analyses/"+job.ID, "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Counts)
	assert.Empty(t, resp.Confidence)
}

func TestListAnalyses_FilteredByOwner(t *testing.T) {
	srv, st := newTestServer(t, nil, 4)
	ctx := context.Background()

	_, err := st.CreateJob(ctx, "owner-1", "https://a.io", "A")
	require.NoError(t, err)
	_, err = st.CreateJob(ctx, "owner-2", "https://b.io", "B")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/analyses/", "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "A", resp[0].CompanyName)
}

func TestGetContent(t *testing.T) {
	srv, st := newTestServer(t, nil, 4)
	ctx := context.Background()

	job, err := st.CreateJob(ctx, "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)
	require.NoError(t, st.InsertContentBatch(ctx, []model.AnalysisContent{
		{JobID: job.ID, ContentType: model.ContentFullAnalysis, Content: "# Full", GeneratedAt: time.Now().UTC()},
		{JobID: job.ID, ContentType: model.ContentBattleCard, Content: "# Card", GeneratedAt: time.Now().UTC()},
	}))

	rec := doRequest(t, srv, http.MethodGet, "/api/analyses/"+job.ID+"/content", "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var all []model.AnalysisContent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	rec = doRequest(t, srv, http.MethodGet, "/api/analyses/"+job.ID+"/content?type=battle_card", "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cards []model.AnalysisContent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "# Card", cards[0].Content)
}

func TestGetContent_UnknownType(t *testing.T) {
	srv, st := newTestServer(t, nil, 4)

	job, err := st.CreateJob(context.Background(), "owner-1", "https://acme.io", "Acme")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/analyses/"+job.ID+"/content?type=bogus", "owner-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContent_UnknownJob(t *testing.T) {
	srv, _ := newTestServer(t, nil, 4)

	rec := doRequest(t, srv, http.MethodGet, "/api/analyses/missing/content", "owner-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnerFrom_DefaultsToAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "anonymous", ownerFrom(req))

	req.Header.Set("X-Owner-ID", "owner-9")
	assert.Equal(t, "owner-9", ownerFrom(req))
}
