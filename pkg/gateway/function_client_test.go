package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFunctionClient_Invoke(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody dto.ListOutfitsFunctionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"abc","session_id":"s1","saved":true}]`))
	}))
	defer srv.Close()

	client := NewHTTPFunctionClient(srv.URL+"/", "anon-key")
	var out []dto.OutfitResponse
	err := client.Invoke(context.Background(), FunctionListOutfits, dto.ListOutfitsFunctionRequest{SessionId: "s1"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "/functions/v1/list-outfits", gotPath)
	assert.Equal(t, "Bearer anon-key", gotAuth)
	assert.Equal(t, "s1", gotBody.SessionId)
	require.Len(t, out, 1)
	assert.Equal(t, "abc", out[0].Id)
}

func TestHTTPFunctionClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"down"}`, wantErr: "status 500"},
		{name: "empty body", status: http.StatusOK, body: "", wantErr: "empty body"},
		{name: "not json", status: http.StatusOK, body: "<html>", wantErr: "unmarshal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var out dto.AnalysisPayload
			err := NewHTTPFunctionClient(srv.URL, "").Invoke(context.Background(), FunctionAnalyzeOutfit, struct{}{}, &out)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPFunctionClient_NotConfigured(t *testing.T) {
	err := NewHTTPFunctionClient("", "").Invoke(context.Background(), FunctionSaveOutfit, nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFunctionAnalyzer_SendsContext(t *testing.T) {
	var got dto.AnalyzeFunctionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"bottom":"Pleated trousers","aesthetic":["Smart"],"colors":{"bottom":"Grey"},"ai_description":"Pleated trousers","season":"Fall","formality":"casual","confidence":0.91}`))
	}))
	defer srv.Close()

	analyzer := NewFunctionAnalyzer(NewHTTPFunctionClient(srv.URL, ""))
	oc := entity.OutfitContext{
		Session: entity.SessionContext{SessionId: "s1", Season: entity.SeasonFall, Formality: entity.FormalityCasual},
		Images:  entity.ImageRefs{BottomUrl: "https://cdn.example.com/b.jpg"},
	}

	payload, err := analyzer.Analyze(context.Background(), oc)

	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionId)
	assert.Equal(t, "https://cdn.example.com/b.jpg", got.BottomUrl)
	assert.Empty(t, got.TopUrl)
	assert.Equal(t, "Pleated trousers", payload.Bottom)
	assert.InDelta(t, 0.91, payload.Confidence, 1e-9)
	assert.True(t, payload.Descriptive())
}

func TestNewAnalyzer(t *testing.T) {
	a, err := NewAnalyzer(context.Background(), "", NewHTTPFunctionClient("", ""), "", "")
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = NewAnalyzer(context.Background(), AnalyzerGemini, nil, "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewAnalyzer(context.Background(), "vision-x", nil, "", "")
	assert.Error(t, err)
}
