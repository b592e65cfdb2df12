package genai

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"tutorial-orchestrator/internal/tutorial"
)

// Chat is the conversational surface the generator needs; *Client satisfies
// it, and tests script it.
type Chat interface {
	Send(ctx context.Context, message string) (string, error)
}

// Generator adapts a Gemini chat to tutorial.SegmentGenerator. The first
// Propose asks for the whole snippet sequence for the topic and queues the
// parsed blocks; later calls pop one at a time, fetching a narration text
// per snippet. Reviewer feedback is sent verbatim into the chat and the
// remaining queue is replaced by the regenerated blocks.
type Generator struct {
	chat    Chat
	prompts *PromptBuilder
	log     *slog.Logger

	primed  bool
	pending []string
}

// NewGenerator returns a Generator over the given chat session.
func NewGenerator(chat Chat, prompts *PromptBuilder, log *slog.Logger) *Generator {
	return &Generator{chat: chat, prompts: prompts, log: log}
}

// Propose implements tutorial.SegmentGenerator.
func (g *Generator) Propose(ctx context.Context, topic string, transcript []tutorial.Segment, feedback string) (tutorial.Segment, error) {
	if !g.primed {
		reply, err := g.chat.Send(ctx, g.prompts.TopicPrompt())
		if err != nil {
			return tutorial.Segment{}, err
		}
		g.pending = ParseCodeBlocks(reply)
		g.primed = true
		g.log.Info("topic snippets generated", slog.Int("count", len(g.pending)))
	} else if feedback != "" {
		reply, err := g.chat.Send(ctx, feedback)
		if err != nil {
			return tutorial.Segment{}, err
		}
		if blocks := ParseCodeBlocks(reply); len(blocks) > 0 {
			g.pending = blocks
			g.log.Info("snippets regenerated from feedback", slog.Int("count", len(blocks)))
		}
	}

	if len(g.pending) == 0 {
		return tutorial.Segment{}, tutorial.ErrTopicExhausted
	}

	code := g.pending[0]
	explanation, err := g.chat.Send(ctx, g.prompts.NarrationPrompt(code))
	if err != nil {
		return tutorial.Segment{}, err
	}
	g.pending = g.pending[1:]

	return tutorial.Segment{
		Code:        code,
		Explanation: strings.TrimSpace(explanation),
		Status:      tutorial.StatusProposed,
	}, nil
}

var codeFenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9+]*)\\n(.*?)```")

// ParseCodeBlocks extracts the contents of triple-backtick fences, in order.
// Empty blocks are dropped.
func ParseCodeBlocks(text string) []string {
	matches := codeFenceRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if code := strings.TrimSpace(m[2]); code != "" {
			out = append(out, code)
		}
	}
	return out
}
