package normalize

import (
	"encoding/json"
	"strings"

	"github.com/madalingavanarescu/competeai/internal/model"
)

// candidatePayload mirrors one discovery result in the AI response.
type candidatePayload struct {
	Name               string   `json:"name"`
	Website            string   `json:"website"`
	Description        string   `json:"description"`
	RelevanceScore     *float64 `json:"relevanceScore"`
	BusinessModelMatch string   `json:"businessModelMatch"`
}

// Candidates parses a discovery response into candidate competitors. Entries
// missing a name or website are dropped; a missing relevance score is marked
// as 0 so the discovery engine can compute one heuristically. Accepts either
// a bare JSON array or an object wrapping one under "competitors".
func Candidates(raw string) []model.CandidateCompetitor {
	payloads := parseCandidatePayloads(raw)

	out := make([]model.CandidateCompetitor, 0, len(payloads))
	for _, p := range payloads {
		name := strings.TrimSpace(p.Name)
		website := strings.TrimSpace(p.Website)
		if name == "" || website == "" {
			continue
		}
		c := model.CandidateCompetitor{
			Name:               name,
			Website:            website,
			Description:        strings.TrimSpace(p.Description),
			BusinessModelMatch: strings.ToLower(strings.TrimSpace(p.BusinessModelMatch)),
		}
		if p.RelevanceScore != nil {
			c.RelevanceScore = int(*p.RelevanceScore)
		}
		out = append(out, c)
	}
	return out
}

func parseCandidatePayloads(raw string) []candidatePayload {
	var list []candidatePayload
	if err := json.Unmarshal([]byte(CleanJSONArray(raw)), &list); err == nil {
		return list
	}

	var wrapper struct {
		Competitors []candidatePayload `json:"competitors"`
	}
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &wrapper); err == nil {
		return wrapper.Competitors
	}

	return nil
}
