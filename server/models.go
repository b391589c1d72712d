package server

import "github.com/poiesic/minirag/core"

type ingestRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type ingestResponse struct {
	Source  string `json:"source"`
	Chunks  int    `json:"chunks"`
	Skipped bool   `json:"skipped"`
}

type queryRequest struct {
	Question string `json:"question"`
}

type sourceResponse struct {
	Citation       int     `json:"citation"`
	Source         string  `json:"source"`
	ChunkID        int     `json:"chunk_id"`
	Preview        string  `json:"preview"`
	Content        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
}

type metricsResponse struct {
	LatencySeconds  float64 `json:"latency_seconds"`
	EstimatedTokens int     `json:"estimated_tokens"`
	CostEstimate    float64 `json:"cost_estimate"`
}

type citationsResponse struct {
	Cited      []int `json:"cited"`
	OutOfRange []int    `json:"out_of_range"`
	Oversized  []string `json:"oversized,omitempty"`
}

type queryResponse struct {
	Answer    string            `json:"answer"`
	NoAnswer  bool              `json:"no_answer"`
	Sources   []sourceResponse  `json:"sources"`
	Metrics   metricsResponse   `json:"metrics"`
	Citations citationsResponse `json:"citations"`
}

type statusResponse struct {
	CurrentSource string `json:"current_source"`
	Chunks        int    `json:"chunks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newQueryResponse(result *core.QueryResult) queryResponse {
	resp := queryResponse{
		Answer:   result.Answer,
		NoAnswer: result.NoAnswer,
		Sources:  make([]sourceResponse, len(result.Sources)),
		Metrics: metricsResponse{
			LatencySeconds:  result.Metrics.LatencySeconds,
			EstimatedTokens: result.Metrics.EstimatedTokens,
			CostEstimate:    result.Metrics.CostEstimate,
		},
		Citations: citationsResponse{
			Cited:      nonNil(result.Citations.Cited),
			OutOfRange: nonNil(result.Citations.OutOfRange),
			Oversized:  result.Citations.Oversized,
		},
	}
	for i, doc := range result.Sources {
		resp.Sources[i] = sourceResponse{
			Citation:       i + 1,
			Source:         doc.Source,
			ChunkID:        doc.ChunkID,
			Preview:        doc.Preview,
			Content:        doc.Content,
			RelevanceScore: doc.RelevanceScore,
		}
	}
	return resp
}

func nonNil(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}
