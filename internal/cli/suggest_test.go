package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("suggest", "categories")
	require.NoError(t, err)
	assert.Equal(t, "No categories recorded.\n", out)

	env.seedItems()

	tests := []struct {
		kind string
		want []string
	}{
		{"names", []string{"Rent", "Website"}},
		{"companies", []string{"Acme GmbH", "Landlord KG"}},
		{"categories", []string{"Consulting", "Office"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			out, err := env.run("--format", "json", "suggest", tt.kind)
			require.NoError(t, err)

			var resp struct {
				Data suggestionList `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, tt.kind, resp.Data.Kind)
			assert.Equal(t, tt.want, resp.Data.Values)
		})
	}
}

func TestSuggest_RejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("suggest", "colors")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}
