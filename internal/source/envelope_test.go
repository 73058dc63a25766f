package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "bare array", body: `[{"id":1},{"id":2}]`, want: 2},
		{name: "data wrapper", body: `{"data":[{"id":1}]}`, want: 1},
		{name: "notifications wrapper", body: `{"notifications":[{"id":1},{"id":2},{"id":3}]}`, want: 3},
		{name: "empty array", body: `[]`, want: 0},
		{name: "unrecognized object", body: `{"items":[{"id":1}]}`, want: 0},
		{name: "malformed json", body: `{"data":[`, want: 0},
		{name: "plain string", body: `"oops"`, want: 0},
		{name: "empty body", body: ``, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeList([]byte(tt.body))
			assert.Len(t, got, tt.want)
		})
	}
}

func TestDecodeCount(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "bare integer", body: `7`, want: 7},
		{name: "count wrapper", body: `{"count":12}`, want: 12},
		{name: "zero", body: `0`, want: 0},
		{name: "unrecognized", body: `"nope"`, want: 0},
		{name: "malformed", body: `{`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeCount([]byte(tt.body)))
		})
	}
}
