package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusAnalyzing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestJobStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobStatusPending, JobStatusAnalyzing, true},
		{JobStatusAnalyzing, JobStatusCompleted, true},
		{JobStatusAnalyzing, JobStatusFailed, true},
		{JobStatusPending, JobStatusCompleted, false},
		{JobStatusPending, JobStatusFailed, false},
		{JobStatusCompleted, JobStatusAnalyzing, false},
		{JobStatusCompleted, JobStatusFailed, false},
		{JobStatusFailed, JobStatusAnalyzing, false},
		{JobStatusFailed, JobStatusCompleted, false},
		{JobStatusAnalyzing, JobStatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestComputeConfidence(t *testing.T) {
	tests := []struct {
		name                             string
		competitors, withInsights, angles int
		want                             Confidence
	}{
		{"full coverage", 5, 5, 4, ConfidenceHigh},
		{"exactly high thresholds", 3, 3, 3, ConfidenceHigh},
		{"coverage just below high", 5, 3, 4, ConfidenceMedium},
		{"few angles", 3, 3, 2, ConfidenceMedium},
		{"half coverage", 4, 2, 2, ConfidenceMedium},
		{"single competitor", 1, 1, 1, ConfidenceLow},
		{"no insights", 4, 0, 5, ConfidenceLow},
		{"no competitors", 0, 0, 0, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeConfidence(tt.competitors, tt.withInsights, tt.angles))
		})
	}
}
