// Package ai wraps the Gemini résumé reviewer agent.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const AgentName = "resume reviewer"

var ErrEmptyResponse = errors.New("empty agent response")

// Agent runs one throwaway agent session per Generate call.
type Agent struct {
	name     string
	model    string
	runner   *runner.Runner
	sessions session.Service
}

func NewAgent(ctx context.Context, apiKey, modelName string) (*Agent, error) {
	model, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	reviewer, err := llmagent.New(llmagent.Config{
		Name:        AgentName,
		Model:       model,
		Description: "Review resume quality",
		Instruction: instruction(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        reviewer.Name(),
		Agent:          reviewer,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return &Agent{
		name:     reviewer.Name(),
		model:    modelName,
		runner:   r,
		sessions: sessions,
	}, nil
}

func (a *Agent) Model() string {
	return a.model
}

// Generate sends msg on behalf of userID and returns the final response text.
func (a *Agent) Generate(ctx context.Context, userID, msg string) (string, error) {
	created, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.name,
		UserID:    userID,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create agent session: %w", err)
	}
	defer func() {
		_ = a.sessions.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   created.Session.AppName(),
			UserID:    created.Session.UserID(),
			SessionID: created.Session.ID(),
		})
	}()

	stream := a.runner.Run(ctx, created.Session.UserID(), created.Session.ID(), &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: msg},
		},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", err
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}

	if output == "" {
		return "", ErrEmptyResponse
	}
	return output, nil
}
