package tutorial

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Decision is the outcome class of a segment review.
type Decision int

const (
	Accept Decision = iota
	Reject
	Abort
)

// Verdict is the result of reviewing a proposed segment. Feedback is set on
// Reject and is appended verbatim to the generation context.
type Verdict struct {
	Decision Decision
	Feedback string
}

// ApprovalGate reviews a proposed segment. Review is an explicit synchronous
// boundary: it blocks the control thread until a decision arrives, which
// keeps the orchestrator's transition table total and easy to script in
// tests.
type ApprovalGate interface {
	Review(seg Segment) (Verdict, error)
}

// ForceApproveGate accepts every segment without interaction.
type ForceApproveGate struct{}

func (ForceApproveGate) Review(Segment) (Verdict, error) {
	return Verdict{Decision: Accept}, nil
}

// ManualGate presents each segment on out and reads the verdict from in.
// Malformed or empty responses re-prompt rather than silently defaulting.
type ManualGate struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewManualGate returns a gate reading decisions from in (normally stdin).
func NewManualGate(in io.Reader, out io.Writer) *ManualGate {
	return &ManualGate{in: bufio.NewScanner(in), out: out}
}

// Review implements ApprovalGate.
func (g *ManualGate) Review(seg Segment) (Verdict, error) {
	fmt.Fprintf(g.out, "\n--- segment %d ---\n%s\n\nnarration:\n%s\n\n", seg.Index, seg.Code, seg.Explanation)

	for {
		fmt.Fprint(g.out, "approve this segment? [yes/no/abort]: ")
		line, ok, err := g.readLine()
		if err != nil {
			return Verdict{}, err
		}
		if !ok {
			// Input closed: nobody is left to answer, treat as abort.
			return Verdict{Decision: Abort}, nil
		}

		switch strings.ToLower(line) {
		case "yes", "y":
			return Verdict{Decision: Accept}, nil
		case "no", "n":
			fmt.Fprint(g.out, "feedback for regeneration: ")
			feedback, ok, err := g.readLine()
			if err != nil {
				return Verdict{}, err
			}
			if !ok {
				return Verdict{Decision: Abort}, nil
			}
			return Verdict{Decision: Reject, Feedback: feedback}, nil
		case "abort", "q", "quit":
			return Verdict{Decision: Abort}, nil
		}
		// Anything else re-prompts.
	}
}

func (g *ManualGate) readLine() (string, bool, error) {
	if !g.in.Scan() {
		return "", false, g.in.Err()
	}
	return strings.TrimSpace(g.in.Text()), true, nil
}

// NewGate returns the gate matching policy.
func NewGate(policy ApprovalPolicy, in io.Reader, out io.Writer) ApprovalGate {
	if policy == ApprovalForce {
		return ForceApproveGate{}
	}
	return NewManualGate(in, out)
}
