package report

import (
	"fmt"
	"strings"
)

const Header = "Changes detected in the shop"

// Slack rejects messages with more than 50 blocks and section texts longer
// than 3000 characters.
const (
	MaxReportsPerMessage = 24
	MaxSectionText       = 3000
)

// Block is a single Slack layout block.
type Block struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	Elements []Text `json:"elements,omitempty"`
}

// Text is a Slack text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Footer carries the context line appended after the last report.
type Footer struct {
	Version string
	// Group is a Slack user group ID to mention. Optional.
	Group string
	// Part and Parts number the messages of a split delivery.
	Part, Parts int
}

func (f Footer) String() string {
	s := "shopwatch v" + f.Version
	if f.Group != "" {
		s += fmt.Sprintf(" | cc <!subteam^%s>", f.Group)
	}
	if f.Parts > 1 {
		s += fmt.Sprintf(" | part %d/%d", f.Part, f.Parts)
	}
	return s
}

// PlainText joins the reports with a blank line between them.
func PlainText(reports []string, withHeader bool) string {
	body := strings.Join(reports, "\n\n")
	if !withHeader {
		return body
	}
	return "*" + Header + ":*\n\n" + body
}

// Blocks builds the header block, a section and a divider per report, and
// the context footer, in that order.
func Blocks(reports []string, footer Footer) []Block {
	blocks := make([]Block, 0, 2*len(reports)+2)
	blocks = append(blocks, Block{
		Type: "header",
		Text: &Text{Type: "plain_text", Text: Header},
	})
	for _, r := range reports {
		blocks = append(blocks,
			Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: Truncate(r, MaxSectionText)}},
			Block{Type: "divider"},
		)
	}
	blocks = append(blocks, Block{
		Type:     "context",
		Elements: []Text{{Type: "mrkdwn", Text: footer.String()}},
	})
	return blocks
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Batch splits reports into consecutive groups of at most size reports.
func Batch(reports []string, size int) [][]string {
	var batches [][]string
	for len(reports) > size {
		batches = append(batches, reports[:size:size])
		reports = reports[size:]
	}
	if len(reports) > 0 {
		batches = append(batches, reports)
	}
	return batches
}
