package genai

import (
	"fmt"
	"strings"
)

// PathInfo associates a workspace path with its stated purpose, folded into
// the code generation prompt so snippets can use the user's data.
type PathInfo struct {
	Path    string
	Purpose string
}

// PromptBuilder renders the prompts for a topic, per Jupyter kernel.
type PromptBuilder struct {
	kernel string
	topic  string
	paths  []PathInfo
}

// NewPromptBuilder returns a builder for the given kernel and topic.
func NewPromptBuilder(kernel, topic string, paths []PathInfo) *PromptBuilder {
	return &PromptBuilder{kernel: strings.ToLower(kernel), topic: topic, paths: paths}
}

// TopicPrompt asks for the full snippet sequence covering the topic.
func (p *PromptBuilder) TopicPrompt() string {
	lang, fence := p.language()

	var b strings.Builder
	fmt.Fprintf(&b, "Write %s code snippets to explain the following topic.\n", lang)
	b.WriteString("Write only well-commented code snippets, and ensure each snippet is under 30 seconds to read.\n\n")
	fmt.Fprintf(&b, "Topic:\n%s\n\n", p.topic)
	b.WriteString("Instructions:\n")
	fmt.Fprintf(&b, "1. Split the code into multiple ```%s ... ``` blocks.\n", fence)
	b.WriteString("2. Each block should be well-commented, focusing on clarity and explanation.\n")
	b.WriteString("3. Make sure no snippet takes more than 5 minutes to run; for long computations, cut the work down (one epoch, a small sample, and so on).\n")

	if len(p.paths) > 0 {
		b.WriteString("4. Use or consider the following paths and their associated purposes in the code:\n")
		for _, pi := range p.paths {
			fmt.Fprintf(&b, "   Path: %s, Purpose: %s\n", pi.Path, pi.Purpose)
		}
	}

	switch {
	case strings.Contains(p.kernel, "cpp"):
		b.WriteString("Use Cling-specific pragmas when necessary, e.g. #pragma cling add_include_path(...), and ensure compatibility with the Cling interpreter.\n")
	case strings.Contains(p.kernel, "rust"):
		b.WriteString("Ensure compatibility with the Evcxr Rust kernel.\n")
	}

	return b.String()
}

// NarrationPrompt asks for the voice-over text for one snippet.
func (p *PromptBuilder) NarrationPrompt(code string) string {
	return fmt.Sprintf(`Write a voice-over narration for the following code snippet.
Keep it under 30 seconds when read aloud, in plain conversational sentences.
Do not read the code out symbol by symbol; explain what it does and why.
Reply with the narration text only.

%s`, code)
}

func (p *PromptBuilder) language() (name, fence string) {
	switch {
	case strings.Contains(p.kernel, "python"):
		return "Python", "python"
	case strings.Contains(p.kernel, "cpp"):
		return "C++", "cpp"
	case strings.Contains(p.kernel, "julia"):
		return "Julia", "julia"
	case strings.Contains(p.kernel, "rust"):
		return "Rust", "rust"
	case p.kernel == "ir", p.kernel == "r":
		return "R", "r"
	case strings.Contains(p.kernel, "bash"):
		return "Bash", "bash"
	default:
		return p.kernel, p.kernel
	}
}
