package source

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type sampleDetail struct {
	TaskID      string `json:"task_id"`
	RequesterID string `json:"requester_id"`
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
		want   sampleDetail
	}{
		{
			name:   "object form",
			raw:    `{"task_id":"T-1","requester_id":"u2"}`,
			wantOK: true,
			want:   sampleDetail{TaskID: "T-1", RequesterID: "u2"},
		},
		{
			name:   "string-wrapped form",
			raw:    `"{\"task_id\":\"T-2\"}"`,
			wantOK: true,
			want:   sampleDetail{TaskID: "T-2"},
		},
		{
			name:   "malformed string contents",
			raw:    `"{task_id:"`,
			wantOK: false,
		},
		{
			name:   "absent",
			raw:    ``,
			wantOK: false,
		},
		{
			name:   "scalar",
			raw:    `42`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d sampleDetail
			ok := ParseDetail(json.RawMessage(tt.raw), &d)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, d)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	got := ParseTime("2026-03-01T10:30:00Z")
	assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), got)

	got = ParseTime("2026-03-01 10:30:00")
	assert.Equal(t, 2026, got.Year())

	assert.True(t, ParseTime("not a time").IsZero())
	assert.True(t, ParseTime("").IsZero())
}
