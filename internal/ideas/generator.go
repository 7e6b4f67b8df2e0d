package ideas

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/llm"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

// Generator produces content ideas from a trigger with the LLM.
type Generator struct {
	client *llm.Client
	opts   llm.Options
	parser *Parser
}

// NewGenerator creates a new idea generator.
func NewGenerator(client *llm.Client, opts llm.Options) *Generator {
	return &Generator{client: client, opts: opts, parser: defaultParser}
}

// Result holds the outcome of one generation run.
type Result struct {
	Prompt   string
	Response string
	Ideas    []ParsedIdea
}

// Generate builds the ideas prompt from req, sends it and parses the answer.
// Validation and generation errors are returned unchanged so callers can
// tell them apart.
func (g *Generator) Generate(ctx context.Context, req prompt.Request) (*Result, error) {
	req.Kind = prompt.KindIdeas
	text, err := prompt.Build(req)
	if err != nil {
		return nil, err
	}

	response, err := g.client.Generate(ctx, text, g.opts)
	if err != nil {
		return nil, err
	}

	ideas := g.parser.ParseIdeas(response)
	if len(ideas) == 0 {
		return nil, fmt.Errorf("no ideas in response")
	}
	zap.S().Infof("Parsed %d ideas from %d chars", len(ideas), len(response))

	return &Result{Prompt: text, Response: response, Ideas: ideas}, nil
}
