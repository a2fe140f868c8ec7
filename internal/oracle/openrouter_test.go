package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ip-landscape/recon-cli/internal/model"
	"github.com/ip-landscape/recon-cli/pkg/openrouter"
)

func openrouterFake(t *testing.T, handler http.HandlerFunc) *OpenRouter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenRouter(openrouter.NewClient("test-key", openrouter.WithBaseURL(srv.URL)))
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id": "gen-1",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestOpenRouterResolve(t *testing.T) {
	var gotSystem, gotUser string
	o := openrouterFake(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req openrouter.ChatCompletionRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Len(t, req.Messages, 2)
		gotSystem = req.Messages[0].Content
		gotUser = req.Messages[1].Content
		_, _ = w.Write([]byte(completionBody("Country,Assignee,Count\nFI,Acme,100\nNone,Globex,50\n")))
	})

	results, err := o.Resolve(context.Background(), "Assignee", []model.CorrectionCandidate{
		{Entity: "Acme", Count: 100},
		{Entity: "Globex", Count: 50},
	})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "FI", results[0].Country)
	assert.Contains(t, gotSystem, `Only replace Country == "None"`)
	assert.Equal(t, "Country,Assignee,Count\nNone,Acme,100\nNone,Globex,50\n", gotUser)
}

func TestOpenRouterResolve_Unavailable(t *testing.T) {
	o := openrouterFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := o.Resolve(context.Background(), "Assignee", []model.CorrectionCandidate{{Entity: "Acme", Count: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrOracleUnavailable))
}

func TestOpenRouterResolve_NoChoices(t *testing.T) {
	o := openrouterFake(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"gen-1","choices":[]}`))
	})

	_, err := o.Resolve(context.Background(), "Assignee", []model.CorrectionCandidate{{Entity: "Acme", Count: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrOracleMalformed))
}

func TestOpenRouterResolve_ProseReply(t *testing.T) {
	o := openrouterFake(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("Here are the corrected rows you asked for.")))
	})

	_, err := o.Resolve(context.Background(), "Assignee", []model.CorrectionCandidate{{Entity: "Acme", Count: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrOracleMalformed))
}
