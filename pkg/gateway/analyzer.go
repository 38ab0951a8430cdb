package gateway

import (
	"context"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/entity"
)

// Analyzer produces a remote style analysis. It may return a payload that is
// not descriptive; callers validate.
type Analyzer interface {
	Analyze(ctx context.Context, oc entity.OutfitContext) (*dto.AnalysisPayload, error)
}

type functionAnalyzer struct {
	client FunctionClient
}

// NewFunctionAnalyzer calls the hosted analyze-outfit function.
func NewFunctionAnalyzer(client FunctionClient) Analyzer {
	return &functionAnalyzer{client: client}
}

func (a *functionAnalyzer) Analyze(ctx context.Context, oc entity.OutfitContext) (*dto.AnalysisPayload, error) {
	req := dto.AnalyzeFunctionRequest{
		SessionId:      oc.Session.SessionId,
		Season:         string(oc.Session.Season),
		Formality:      string(oc.Session.Formality),
		TopUrl:         oc.Images.TopUrl,
		TopLayerUrl:    oc.Images.TopLayerUrl,
		BottomUrl:      oc.Images.BottomUrl,
		ShoesUrl:       oc.Images.ShoesUrl,
		AccessoriesUrl: oc.Images.AccessoriesUrl,
	}

	var payload dto.AnalysisPayload
	if err := a.client.Invoke(ctx, FunctionAnalyzeOutfit, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
