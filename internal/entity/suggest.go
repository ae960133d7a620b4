package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tempocal/tempocal/internal/config"
)

// Suggestion is one AI-proposed pairing of an unmatched external name with a
// catalog entry, for a human to confirm. Suggestions never feed back into
// resolution automatically.
type Suggestion struct {
	Kind       string  `json:"kind"` // "venue" | "organizer"
	External   string  `json:"external"`
	Candidate  string  `json:"candidate"`
	Confidence float64 `json:"confidence"`
}

// Suggester asks an LLM which catalog entries the unmatched names probably
// meant. Optional: nothing in the pipeline depends on it, and any failure is
// reported as a warning with an empty result.
type Suggester struct {
	client *openai.Client
	model  string
	venues VenueCatalog
	orgs   OrganizerCatalog
	appID  string
	logger *slog.Logger
}

// NewSuggester creates a suggester, or nil when no API key is configured.
func NewSuggester(cfg config.OpenAIConfig, venues VenueCatalog, orgs OrganizerCatalog, appID string, logger *slog.Logger) *Suggester {
	if !cfg.Enabled() {
		return nil
	}
	return &Suggester{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
		venues: venues,
		orgs:   orgs,
		appID:  appID,
		logger: logger,
	}
}

// Suggest proposes matches for the unmatched venues and organizers in the
// report. Errors are logged and swallowed; the caller gets whatever
// suggestions were produced.
func (s *Suggester) Suggest(ctx context.Context, report UnmatchedReport) []Suggestion {
	var out []Suggestion

	if len(report.Venues) > 0 {
		names, err := s.venueNames(ctx)
		if err != nil {
			s.logger.Warn("suggestion candidate listing failed", "kind", "venue", "error", err)
		} else if batch, err := s.suggest(ctx, "venue", report.Venues, names); err != nil {
			s.logger.Warn("venue suggestions failed", "error", err)
		} else {
			out = append(out, batch...)
		}
	}

	if len(report.Organizers) > 0 {
		names, err := s.organizerNames(ctx)
		if err != nil {
			s.logger.Warn("suggestion candidate listing failed", "kind", "organizer", "error", err)
		} else if batch, err := s.suggest(ctx, "organizer", report.Organizers, names); err != nil {
			s.logger.Warn("organizer suggestions failed", "error", err)
		} else {
			out = append(out, batch...)
		}
	}

	return out
}

func (s *Suggester) venueNames(ctx context.Context) ([]string, error) {
	all, err := s.venues.ListAll(ctx, s.appID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, v := range all {
		names = append(names, v.Name)
	}
	return names, nil
}

func (s *Suggester) organizerNames(ctx context.Context) ([]string, error) {
	all, err := s.orgs.ListAll(ctx, s.appID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, o := range all {
		names = append(names, o.Name)
	}
	return names, nil
}

func (s *Suggester) suggest(ctx context.Context, kind string, unmatched []UnmatchedName, candidates []string) ([]Suggestion, error) {
	externals := make([]string, 0, len(unmatched))
	for _, u := range unmatched {
		externals = append(externals, u.Name)
	}

	prompt := fmt.Sprintf(
		"These %s names from an external calendar failed to match our catalog:\n%s\n\nOur catalog contains:\n%s\n\nFor each external name that plausibly refers to a catalog entry, emit a suggestion. Omit names with no plausible match.",
		kind,
		strings.Join(externals, "\n"),
		strings.Join(candidates, "\n"),
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You match misspelled or reworded names against a catalog. Respond with ONLY valid JSON: {\"suggestions\": [{\"external\": \"...\", \"candidate\": \"...\", \"confidence\": 0.0}]}. candidate must be copied verbatim from the catalog list.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("suggestion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	var parsed struct {
		Suggestions []struct {
			External   string  `json:"external"`
			Candidate  string  `json:"candidate"`
			Confidence float64 `json:"confidence"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}

	out := make([]Suggestion, 0, len(parsed.Suggestions))
	for _, sg := range parsed.Suggestions {
		if sg.External == "" || sg.Candidate == "" {
			continue
		}
		out = append(out, Suggestion{
			Kind:       kind,
			External:   sg.External,
			Candidate:  sg.Candidate,
			Confidence: sg.Confidence,
		})
	}
	return out, nil
}
