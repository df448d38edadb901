package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/castforge/castforge/internal/backend"
	"github.com/castforge/castforge/internal/podcast"
)

// ScriptWriter produces the episode script: title, summary, attributed
// dialogue, and chapters partitioning the target duration.
type ScriptWriter interface {
	WriteScript(ctx context.Context, genReq backend.GenerationRequest) (*podcast.Record, error)
}

// scriptToolInput is the structured output schema for script generation.
type scriptToolInput struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Dialogues []struct {
		HostID string `json:"hostId"`
		Text   string `json:"text"`
	} `json:"dialogues"`
	Chapters []struct {
		Title       string  `json:"title"`
		StartTime   float64 `json:"startTime"`
		EndTime     float64 `json:"endTime"`
		Description string  `json:"description"`
	} `json:"chapters"`
}

func scriptTool() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name: "save_podcast_script",
		Description: anthropic.String(
			"Save the generated podcast script with title, summary, dialogue lines, and chapters",
		),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type: "object",
			Properties: map[string]interface{}{
				"title":   map[string]interface{}{"type": "string"},
				"summary": map[string]interface{}{"type": "string"},
				"dialogues": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"hostId": map[string]interface{}{"type": "string"},
							"text":   map[string]interface{}{"type": "string"},
						},
						"required": []string{"hostId", "text"},
					},
				},
				"chapters": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"title":       map[string]interface{}{"type": "string"},
							"startTime":   map[string]interface{}{"type": "number"},
							"endTime":     map[string]interface{}{"type": "number"},
							"description": map[string]interface{}{"type": "string"},
						},
						"required": []string{"title", "startTime", "endTime"},
					},
				},
			},
			Required: []string{"title", "summary", "dialogues", "chapters"},
		},
	}
}

// anthropicWriter generates scripts through the Anthropic API using
// tool-based structured output.
type anthropicWriter struct {
	apiKey string
	model  anthropic.Model
}

func newAnthropicWriter(apiKey string) *anthropicWriter {
	return &anthropicWriter{
		apiKey: apiKey,
		model:  anthropic.ModelClaudeSonnet4_5_20250929,
	}
}

func scriptSystemPrompt(genReq backend.GenerationRequest) string {
	hosts := make([]string, len(genReq.Hosts))
	for i, h := range genReq.Hosts {
		hosts[i] = fmt.Sprintf("%s (id %s)", h.Name, h.ID)
	}

	return fmt.Sprintf(
		"You write podcast scripts. Produce a %s-style conversation in %s between "+
			"the hosts %s, roughly %d minutes long when spoken. Cover the source "+
			"material the user provides. Cut the episode into topical chapters whose "+
			"start and end times partition the full runtime in seconds.",
		genReq.Mode, genReq.Language, strings.Join(hosts, ", "), genReq.TargetDuration)
}

func (w *anthropicWriter) WriteScript(ctx context.Context, genReq backend.GenerationRequest) (*podcast.Record, error) {
	if w.apiKey == "" {
		return nil, errors.New("API key required: set ANTHROPIC_API_KEY")
	}

	client := anthropic.NewClient(option.WithAPIKey(w.apiKey))
	toolDef := scriptTool()

	tool := anthropic.ToolUnionParamOfTool(toolDef.InputSchema, toolDef.Name)
	tool.OfTool.Description = toolDef.Description

	params := anthropic.MessageNewParams{
		Model:     w.model,
		MaxTokens: 8192,
		System: []anthropic.TextBlockParam{
			{Text: scriptSystemPrompt(genReq)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(genReq.Content)),
		},
		Tools:      []anthropic.ToolUnionParam{tool},
		ToolChoice: anthropic.ToolChoiceParamOfTool("save_podcast_script"),
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate script via Anthropic API: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, errors.New("empty response from Anthropic API")
	}

	toolInput, err := parseScriptToolUse(resp.Content)
	if err != nil {
		return nil, err
	}

	return toolInputToRecord(toolInput, genReq), nil
}

func parseScriptToolUse(content []anthropic.ContentBlockUnion) (*scriptToolInput, error) {
	for _, block := range content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			var toolInput scriptToolInput
			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			if err := json.Unmarshal(inputBytes, &toolInput); err != nil {
				return nil, fmt.Errorf("failed to parse tool input: %w", err)
			}

			return &toolInput, nil
		}
	}

	return nil, errors.New("no tool use found in Anthropic API response")
}

func toolInputToRecord(in *scriptToolInput, genReq backend.GenerationRequest) *podcast.Record {
	hostByID := map[string]podcast.Host{}
	for _, h := range genReq.Hosts {
		hostByID[h.ID] = h
	}

	rec := &podcast.Record{
		Title:    in.Title,
		Summary:  in.Summary,
		Language: genReq.Language,
		Mode:     genReq.Mode,
		NumHosts: genReq.NumHosts,
		Hosts:    genReq.Hosts,
	}

	for _, d := range in.Dialogues {
		host := hostByID[d.HostID]
		rec.Dialogues = append(rec.Dialogues, podcast.Dialogue{
			HostID:   d.HostID,
			HostName: host.Name,
			VoiceID:  host.VoiceID,
			Text:     d.Text,
		})
	}

	for _, c := range in.Chapters {
		rec.Chapters = append(rec.Chapters, podcast.Chapter{
			Title:       c.Title,
			StartTime:   c.StartTime,
			EndTime:     c.EndTime,
			Description: c.Description,
		})
	}

	return rec
}

// cannedWriter produces a deterministic script without any API key.
// It keeps local development usable offline.
type cannedWriter struct{}

var cannedLines = []string{
	"Welcome back. Today we are digging into some source material a listener sent in.",
	"Right, and there is a lot here, so let's take it from the top.",
	"The first thing that stood out to me was how the main argument is framed.",
	"Agreed. And the supporting details actually hold up when you read closely.",
	"Let's unpack that section by section before we move on.",
	"There is also a counterpoint worth raising here.",
	"Good catch. That nuance changes how you read the rest of it.",
	"So pulling it all together, what should listeners take away?",
	"I'd say the core idea survives scrutiny, with a few caveats we covered.",
	"That's a wrap on this one. Thanks for listening.",
}

func (cannedWriter) WriteScript(_ context.Context, genReq backend.GenerationRequest) (*podcast.Record, error) {
	if len(genReq.Hosts) == 0 {
		return nil, errors.New("at least one host required")
	}

	title := "Deep Dive"
	if idx := strings.IndexAny(genReq.Content, ".\n"); idx > 0 && idx < 60 {
		title = strings.TrimSpace(genReq.Content[:idx])
	}

	// Enough lines to roughly fill the target duration.
	lineCount := genReq.TargetDuration * 4
	if lineCount < len(cannedLines) {
		lineCount = len(cannedLines)
	}

	rec := &podcast.Record{
		Title:    title,
		Summary:  "An auto-generated conversation covering the submitted documents.",
		Language: genReq.Language,
		Mode:     genReq.Mode,
		NumHosts: genReq.NumHosts,
		Hosts:    genReq.Hosts,
	}

	for i := 0; i < lineCount; i++ {
		host := genReq.Hosts[i%len(genReq.Hosts)]
		rec.Dialogues = append(rec.Dialogues, podcast.Dialogue{
			HostID:   host.ID,
			HostName: host.Name,
			VoiceID:  host.VoiceID,
			Text:     cannedLines[i%len(cannedLines)],
		})
	}

	// Three chapters partitioning the nominal runtime.
	total := float64(genReq.TargetDuration) * 60
	rec.Chapters = []podcast.Chapter{
		{Title: "Introduction", StartTime: 0, EndTime: total / 4},
		{Title: "The Details", StartTime: total / 4, EndTime: total * 3 / 4},
		{Title: "Takeaways", StartTime: total * 3 / 4, EndTime: total},
	}

	return rec, nil
}
