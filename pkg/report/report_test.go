package report

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlainText(t *testing.T) {
	reports := []string{"*Name:* A\n*Price:* 1 → 2 ⬆️", "*Item DELETED:* B"}

	want := "*Changes detected in the shop:*\n\n*Name:* A\n*Price:* 1 → 2 ⬆️\n\n*Item DELETED:* B"
	if diff := cmp.Diff(want, PlainText(reports, true)); diff != "" {
		t.Fatal(diff)
	}

	want = "*Name:* A\n*Price:* 1 → 2 ⬆️\n\n*Item DELETED:* B"
	if diff := cmp.Diff(want, PlainText(reports, false)); diff != "" {
		t.Fatal(diff)
	}
}

func TestBlocksShape(t *testing.T) {
	for k := 0; k <= 4; k++ {
		reports := make([]string, k)
		for i := range reports {
			reports[i] = "report"
		}
		blocks := Blocks(reports, Footer{Version: "1.0.0"})
		if len(blocks) != 2*k+2 {
			t.Fatalf("k=%d: expected %d blocks, got %d", k, 2*k+2, len(blocks))
		}
		if blocks[0].Type != "header" {
			t.Fatalf("k=%d: first block is %q", k, blocks[0].Type)
		}
		for i := 0; i < k; i++ {
			if blocks[1+2*i].Type != "section" || blocks[2+2*i].Type != "divider" {
				t.Fatalf("k=%d: bad pair at %d: %q %q", k, i, blocks[1+2*i].Type, blocks[2+2*i].Type)
			}
		}
		if blocks[len(blocks)-1].Type != "context" {
			t.Fatalf("k=%d: last block is %q", k, blocks[len(blocks)-1].Type)
		}
	}
}

func TestBlocksContent(t *testing.T) {
	got := Blocks([]string{"first", "second"}, Footer{Version: "1.2.3", Group: "S0123"})
	want := []Block{
		{Type: "header", Text: &Text{Type: "plain_text", Text: Header}},
		{Type: "section", Text: &Text{Type: "mrkdwn", Text: "first"}},
		{Type: "divider"},
		{Type: "section", Text: &Text{Type: "mrkdwn", Text: "second"}},
		{Type: "divider"},
		{Type: "context", Elements: []Text{{Type: "mrkdwn", Text: "shopwatch v1.2.3 | cc <!subteam^S0123>"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestFooterWithoutGroup(t *testing.T) {
	if got := (Footer{Version: "2.0.0"}).String(); got != "shopwatch v2.0.0" {
		t.Fatalf("unexpected footer: %q", got)
	}
}

func TestFooterParts(t *testing.T) {
	tests := []struct {
		footer Footer
		want   string
	}{
		{Footer{Version: "1"}, "shopwatch v1"},
		{Footer{Version: "1", Part: 1, Parts: 1}, "shopwatch v1"},
		{Footer{Version: "1", Group: "S1", Part: 2, Parts: 3}, "shopwatch v1 | cc <!subteam^S1> | part 2/3"},
	}
	for _, tc := range tests {
		if got := tc.footer.String(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestBatch(t *testing.T) {
	reports := make([]string, 49)
	for i := range reports {
		reports[i] = strings.Repeat("r", i)
	}
	batches := Batch(reports, MaxReportsPerMessage)
	if len(batches) != 3 || len(batches[0]) != 24 || len(batches[1]) != 24 || len(batches[2]) != 1 {
		t.Fatalf("unexpected batch sizes for 49 reports: %d batches", len(batches))
	}
	if batches[2][0] != reports[48] {
		t.Fatalf("batches must keep report order")
	}
	for _, b := range batches {
		if n := len(Blocks(b, Footer{Version: "1"})); n > 50 {
			t.Fatalf("batch renders %d blocks", n)
		}
	}
	if got := Batch(nil, MaxReportsPerMessage); len(got) != 0 {
		t.Fatalf("expected no batches, got %d", len(got))
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	got := Truncate(strings.Repeat("é", 12), 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected %q", got)
	}
	blocks := Blocks([]string{strings.Repeat("x", MaxSectionText+1)}, Footer{Version: "1"})
	if n := len([]rune(blocks[1].Text.Text)); n != MaxSectionText {
		t.Fatalf("section has %d runes", n)
	}
}
