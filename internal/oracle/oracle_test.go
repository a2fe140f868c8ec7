package oracle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ip-landscape/recon-cli/internal/model"
)

func TestBuildPayload(t *testing.T) {
	got := buildPayload("Assignee", []model.CorrectionCandidate{
		{Entity: "Acme", Count: 100},
		{Entity: "Globex, Inc", Count: 50},
	})

	assert.Equal(t, "Country,Assignee,Count\nNone,Acme,100\nNone,\"Globex, Inc\",50\n", got)
}

func TestParseReply(t *testing.T) {
	results, err := parseReply("Assignee", "Country,Assignee,Count\nFI,Acme,100\nNone,Globex,50\n")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, model.CorrectionResult{Entity: "Acme", Country: "FI"}, results[0])
	assert.Equal(t, model.CorrectionResult{Entity: "Globex", Country: "None"}, results[1])
}

func TestParseReply_StripsMarkdownFences(t *testing.T) {
	reply := "```csv\nCountry,Assignee,Count\nFI,Acme,100\n```"

	results, err := parseReply("Assignee", reply)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "FI", results[0].Country)
}

func TestParseReply_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty", ""},
		{"header only", "Country,Assignee,Count\n"},
		{"wrong header", "Code,Name,Value\nFI,Acme,100\n"},
		{"prose instead of csv", "I could not determine any countries.\nSorry about that."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseReply("Assignee", tt.reply)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrOracleMalformed))
		})
	}
}

func TestSystemPrompt_NamesEntityColumn(t *testing.T) {
	p := systemPrompt("Inventor")
	assert.Contains(t, p, "Country,Inventor,Count")
	assert.Contains(t, p, "Never modify Inventor or Count")
}
