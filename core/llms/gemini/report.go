package gemini

import (
	"context"
	"fmt"
	"strings"
)

// SampleReport is the structured form of a sample analysis, produced by
// schema-constrained generation.
type SampleReport struct {
	Summary       string   `json:"summary"`
	Findings      []string `json:"findings"`
	Possibilities []string `json:"possibilities"`
	Confidence    string   `json:"confidence"`
}

func (r *SampleReport) String() string {
	var b strings.Builder
	b.WriteString(r.Summary)
	for _, finding := range r.Findings {
		b.WriteString("\n- " + finding)
	}
	if len(r.Possibilities) > 0 {
		b.WriteString("\n" + strings.Join(r.Possibilities, "، "))
	}
	if r.Confidence != "" {
		b.WriteString(fmt.Sprintf(" (%s)", r.Confidence))
	}
	return b.String()
}

// SampleReportFromAnalysis condenses a free-text analysis into a typed
// report.
func (c *Client) SampleReportFromAnalysis(ctx context.Context, analysis string) (*SampleReport, error) {
	if strings.TrimSpace(analysis) == "" {
		return nil, fmt.Errorf("no analysis to summarize")
	}

	prompt := "لخص التحليل المختبري التالي في تقرير منظم:\n\n" + analysis
	return PromptJSONSchema(ctx, c, prompt, assistantPersona, SampleReport{})
}
