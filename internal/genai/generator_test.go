package genai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"tutorial-orchestrator/internal/tutorial"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedChat replies from a fixed queue and records every message sent.
type scriptedChat struct {
	replies []string
	sent    []string
	err     error
}

func (c *scriptedChat) Send(ctx context.Context, message string) (string, error) {
	c.sent = append(c.sent, message)
	if c.err != nil {
		return "", c.err
	}
	if len(c.replies) == 0 {
		return "", errors.New("scripted chat exhausted")
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func TestParseCodeBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			"single fenced block",
			"Here you go:\n```python\nx = 1\n```\nEnjoy.",
			[]string{"x = 1"},
		},
		{
			"multiple blocks in order",
			"```python\na = 1\n```\ntext\n```python\nb = 2\nprint(b)\n```",
			[]string{"a = 1", "b = 2\nprint(b)"},
		},
		{
			"bare fence without language",
			"```\nls -la\n```",
			[]string{"ls -la"},
		},
		{
			"cpp fence",
			"```c++\nint x = 1;\n```",
			[]string{"int x = 1;"},
		},
		{
			"empty block dropped",
			"```python\n```\n```python\nx = 1\n```",
			[]string{"x = 1"},
		},
		{"no fences", "just prose", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCodeBlocks(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseCodeBlocks() = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("block %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGeneratorPrimesOnFirstPropose(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		"```python\na = 1\n```\n```python\nb = 2\n```",
		"We assign one to a.",
		"We assign two to b.",
	}}
	gen := NewGenerator(chat, NewPromptBuilder("python3", "variables", nil), discardLogger())

	seg, err := gen.Propose(context.Background(), "variables", nil, "")
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if seg.Code != "a = 1" {
		t.Errorf("first segment code = %q", seg.Code)
	}
	if seg.Explanation != "We assign one to a." {
		t.Errorf("first segment explanation = %q", seg.Explanation)
	}
	if seg.Status != tutorial.StatusProposed {
		t.Errorf("segment status = %q, want %q", seg.Status, tutorial.StatusProposed)
	}

	// The priming message is the topic prompt, not the raw topic.
	if !strings.Contains(chat.sent[0], "variables") || !strings.Contains(chat.sent[0], "```python") {
		t.Errorf("priming prompt = %q", chat.sent[0])
	}

	seg2, err := gen.Propose(context.Background(), "variables", nil, "")
	if err != nil {
		t.Fatalf("second Propose() error = %v", err)
	}
	if seg2.Code != "b = 2" {
		t.Errorf("second segment code = %q", seg2.Code)
	}
}

func TestGeneratorExhaustsTopic(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		"```python\na = 1\n```",
		"We assign one to a.",
	}}
	gen := NewGenerator(chat, NewPromptBuilder("python3", "variables", nil), discardLogger())

	if _, err := gen.Propose(context.Background(), "variables", nil, ""); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if _, err := gen.Propose(context.Background(), "variables", nil, ""); !errors.Is(err, tutorial.ErrTopicExhausted) {
		t.Fatalf("Propose() after last snippet = %v, want ErrTopicExhausted", err)
	}
}

func TestGeneratorNoSnippetsInPrimingReply(t *testing.T) {
	chat := &scriptedChat{replies: []string{"I cannot help with that topic."}}
	gen := NewGenerator(chat, NewPromptBuilder("python3", "variables", nil), discardLogger())

	if _, err := gen.Propose(context.Background(), "variables", nil, ""); !errors.Is(err, tutorial.ErrTopicExhausted) {
		t.Fatalf("Propose() = %v, want ErrTopicExhausted", err)
	}
}

func TestGeneratorFeedbackRegeneratesQueue(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		"```python\nprint 'hi'\n```",
		"We print a greeting.",
		"```python\nprint('hi')\n```", // regeneration after feedback
		"We print a greeting properly.",
	}}
	gen := NewGenerator(chat, NewPromptBuilder("python3", "printing", nil), discardLogger())

	if _, err := gen.Propose(context.Background(), "printing", nil, ""); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	seg, err := gen.Propose(context.Background(), "printing", nil, "That is Python 2 syntax.")
	if err != nil {
		t.Fatalf("Propose() with feedback = %v", err)
	}
	if seg.Code != "print('hi')" {
		t.Errorf("regenerated code = %q", seg.Code)
	}
	// Feedback goes into the chat verbatim.
	if chat.sent[2] != "That is Python 2 syntax." {
		t.Errorf("feedback message = %q", chat.sent[2])
	}
}

func TestGeneratorFeedbackWithoutBlocksKeepsQueue(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		"```python\na = 1\n```\n```python\nb = 2\n```",
		"First narration.",
		"Understood, I will fix that.", // feedback reply with no code
		"Second narration.",
	}}
	gen := NewGenerator(chat, NewPromptBuilder("python3", "variables", nil), discardLogger())

	if _, err := gen.Propose(context.Background(), "variables", nil, ""); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	seg, err := gen.Propose(context.Background(), "variables", nil, "please fix")
	if err != nil {
		t.Fatalf("Propose() with feedback = %v", err)
	}
	// No fences in the feedback reply, so the pending queue stands.
	if seg.Code != "b = 2" {
		t.Errorf("segment code = %q, want the queued snippet", seg.Code)
	}
}

func TestGeneratorChatError(t *testing.T) {
	chat := &scriptedChat{err: errors.New("quota exceeded")}
	gen := NewGenerator(chat, NewPromptBuilder("python3", "variables", nil), discardLogger())

	if _, err := gen.Propose(context.Background(), "variables", nil, ""); err == nil {
		t.Fatal("Propose() = nil, want chat error")
	}
}
