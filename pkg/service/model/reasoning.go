package model

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
)

// Reasoning adapts a gollem LLM client to the free-text synthesis
// contract. It is stateless: every call opens a fresh session, so prompts
// never accumulate context the caller did not pass explicitly.
type Reasoning struct {
	llmClient gollem.LLMClient
}

var _ interfaces.ReasoningModel = &Reasoning{}

func NewReasoning(llmClient gollem.LLMClient) (*Reasoning, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Reasoning{llmClient: llmClient}, nil
}

func (r *Reasoning) Reason(ctx context.Context, prompt string) (string, error) {
	session, err := r.llmClient.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("empty response from LLM")
	}

	return resp.Texts[0], nil
}
