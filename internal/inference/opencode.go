// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package inference

import (
	"context"
	"fmt"
	"strings"

	opencode "github.com/sst/opencode-sdk-go"
	"github.com/sst/opencode-sdk-go/option"

	"github.com/openswarm-labs/agentswarm/internal/errs"
	"github.com/openswarm-labs/agentswarm/pkg/retry"
)

// OpenCodeClient adapts an opencode-sdk-go session to ChatClient: each
// Chat call opens (or reuses) a session and sends the conversation as a
// single prompt turn. Grounded on the teacher's agent.Client, trimmed
// to the narrow shape this substrate actually consumes. Session prompt
// calls go through the shared Fibonacci retry engine (spec §4.1), since
// an inference round trip is the canonical I/O suspension point it
// guards.
type OpenCodeClient struct {
	sdk       *opencode.Client
	sessionID string
	Retry     retry.Options
}

// NewOpenCodeClient configures an adapter against a local opencode
// serve instance at baseURL.
func NewOpenCodeClient(baseURL string) *OpenCodeClient {
	return &OpenCodeClient{sdk: opencode.NewClient(option.WithBaseURL(baseURL))}
}

func (c *OpenCodeClient) Chat(ctx context.Context, messages []Message, opts ChatOptions) (ChatResult, error) {
	sessionID, err := c.session(ctx)
	if err != nil {
		return ChatResult{}, errs.Wrap(errs.Transient, "inference.Chat", "failed to open session", err)
	}

	prompt := renderPrompt(messages)
	params := opencode.SessionPromptParams{
		Parts: opencode.F([]opencode.SessionPromptParamsPartUnion{
			opencode.TextPartInputParam{
				Type: opencode.F(opencode.TextPartInputTypeText),
				Text: opencode.F(prompt),
			},
		}),
	}
	if opts.Model != "" {
		params.Model = opencode.F(modelParam(opts.Model))
	}

	result := retry.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return c.sdk.Session.Prompt(ctx, sessionID, params)
	}, c.Retry)
	if !result.Success {
		return ChatResult{}, errs.Wrap(errs.Transient, "inference.Chat", "prompt failed", result.Err)
	}
	resp := result.Value.(*opencode.SessionPromptResponse)

	return ChatResult{
		Message: extractText(resp),
		Model:   opts.Model,
		// opencode-sdk-go's response does not surface a token usage
		// breakdown this adapter can rely on; Usage stays zero-valued
		// rather than guessing at a field that may not exist.
	}, nil
}

func (c *OpenCodeClient) session(ctx context.Context) (string, error) {
	if c.sessionID != "" {
		return c.sessionID, nil
	}
	session, err := c.sdk.Session.New(ctx, opencode.SessionNewParams{Title: opencode.F("agentswarm")})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	c.sessionID = session.ID
	return c.sessionID, nil
}

func modelParam(model string) opencode.SessionPromptParamsModel {
	providerID, modelID := "", model
	if idx := strings.IndexByte(model, '/'); idx >= 0 {
		providerID, modelID = model[:idx], model[idx+1:]
	}
	return opencode.SessionPromptParamsModel{
		ProviderID: opencode.F(providerID),
		ModelID:    opencode.F(modelID),
	}
}

func renderPrompt(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func extractText(resp *opencode.SessionPromptResponse) string {
	var b strings.Builder
	for _, part := range resp.Parts {
		if part.Type == opencode.PartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
