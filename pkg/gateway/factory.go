package gateway

import (
	"context"
	"fmt"
)

const (
	AnalyzerFunction = "function"
	AnalyzerGemini   = "gemini"
)

func NewAnalyzer(ctx context.Context, provider string, functions FunctionClient, geminiKey, geminiModel string) (Analyzer, error) {
	switch provider {
	case "", AnalyzerFunction:
		return NewFunctionAnalyzer(functions), nil
	case AnalyzerGemini:
		return NewGeminiAnalyzer(ctx, geminiKey, geminiModel)
	default:
		return nil, fmt.Errorf("unsupported analyzer provider: %s", provider)
	}
}
