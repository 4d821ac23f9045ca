package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr bool
	}{
		{
			name:  "nil params returns empty struct",
			input: nil,
			want:  &Params{},
		},
		{
			name: "extensions only",
			input: map[string]any{
				"extensions": []any{"json", "icu"},
			},
			want: &Params{Extensions: []string{"json", "icu"}},
		},
		{
			name: "settings with non-string values",
			input: map[string]any{
				"settings": map[string]any{
					"memory_limit": "4GB",
					"threads":      4,
				},
			},
			want: &Params{Settings: map[string]string{"memory_limit": "4GB", "threads": "4"}},
		},
		{
			name:    "unknown key",
			input:   map[string]any{"secrets": []any{}},
			wantErr: true,
		},
		{
			name:    "wrong shape",
			input:   map[string]any{"settings": "oops"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionStatements(t *testing.T) {
	p := &Params{
		Extensions: []string{"json"},
		Settings:   map[string]string{"threads": "2", "memory_limit": "1GB", "tz": "it's"},
	}
	assert.Equal(t, []string{
		"INSTALL json",
		"LOAD json",
		"SET memory_limit = '1GB'",
		"SET threads = '2'",
		"SET tz = 'it''s'",
	}, p.sessionStatements())

	assert.Empty(t, (&Params{}).sessionStatements())
}
