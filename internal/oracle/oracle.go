// Package oracle implements the external fact-lookup backends consulted for
// unresolved, high-impact entities. Both backends speak the same contract:
// they receive a CSV of unresolved rows and must return the same rows as raw
// CSV, with only the Country column possibly filled in. Strict validation of
// the reply stays with the caller.
package oracle

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ip-landscape/recon-cli/internal/model"
)

const systemPromptFmt = `You are assisting with patent data cleaning.

You will receive a CSV with columns:
Country,%s,Count

Rules:
1. Only replace Country == "None" when 100%% certain of the correct ISO country code.
2. Never modify valid country codes.
3. Never modify %s or Count.
4. Output ONLY clean CSV. No markdown, no explanations.`

func systemPrompt(entityType string) string {
	return fmt.Sprintf(systemPromptFmt, entityType, entityType)
}

// buildPayload renders the unresolved rows as the CSV the oracle receives.
func buildPayload(entityType string, batch []model.CorrectionCandidate) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"Country", entityType, "Count"})
	for _, c := range batch {
		_ = w.Write([]string{model.CountryUnknown, c.Entity, strconv.Itoa(c.Count)})
	}
	w.Flush()
	return sb.String()
}

// parseReply parses the oracle's raw CSV reply back into correction results.
// Surrounding markdown code fences are stripped first; anything that still
// fails to parse is ErrOracleMalformed.
func parseReply(entityType, reply string) ([]model.CorrectionResult, error) {
	reply = stripFences(reply)
	if strings.TrimSpace(reply) == "" {
		return nil, eris.Wrap(model.ErrOracleMalformed, "empty reply")
	}

	reader := csv.NewReader(strings.NewReader(reply))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(model.ErrOracleMalformed, "parse reply csv: %v", err)
	}
	if len(rows) < 2 {
		return nil, eris.Wrap(model.ErrOracleMalformed, "reply has no data rows")
	}

	countryIdx, entityIdx := -1, -1
	for i, col := range rows[0] {
		switch {
		case strings.EqualFold(strings.TrimSpace(col), "Country"):
			countryIdx = i
		case strings.EqualFold(strings.TrimSpace(col), entityType):
			entityIdx = i
		}
	}
	if countryIdx < 0 || entityIdx < 0 {
		return nil, eris.Wrapf(model.ErrOracleMalformed, "reply header %v missing Country/%s", rows[0], entityType)
	}

	results := make([]model.CorrectionResult, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if countryIdx >= len(row) || entityIdx >= len(row) {
			return nil, eris.Wrapf(model.ErrOracleMalformed, "short reply row %v", row)
		}
		results = append(results, model.CorrectionResult{
			Entity:  strings.TrimSpace(row[entityIdx]),
			Country: strings.TrimSpace(row[countryIdx]),
		})
	}
	return results, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, that models emit despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the fence line, including any language tag
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
