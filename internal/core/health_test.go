package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		state  HealthState
		want   Report
		wantOK bool
	}{
		{
			name:   "all healthy",
			state:  HealthState{ArangoOK: true, LLMOK: true, BackendURL: "https://db-dev.catalog.igvf.org/"},
			want:   Report{Status: "OK", ArangoDB: "OK", LLM: "OK", BackendURL: "https://db-dev.catalog.igvf.org/"},
			wantOK: true,
		},
		{
			name:  "database down",
			state: HealthState{ArangoErr: "connection refused", LLMOK: true, BackendURL: "x"},
			want:  Report{Status: "ERROR", ArangoDB: "ERROR: connection refused", LLM: "OK"},
		},
		{
			name:  "model missing",
			state: HealthState{ArangoOK: true},
			want:  Report{Status: "ERROR", ArangoDB: "OK", LLM: "ERROR: LLM not initialized"},
		},
		{
			name:  "both down",
			state: HealthState{ArangoErr: "timeout"},
			want:  Report{Status: "ERROR", ArangoDB: "ERROR: timeout", LLM: "ERROR: LLM not initialized"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewApp(Options{Health: tt.state}).Health()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
