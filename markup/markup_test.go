package markup_test

import (
	"reflect"
	"testing"

	"github.com/ByLCY/quotura/markup"
)

func TestTokenizeStyles(t *testing.T) {
	segs := markup.Tokenize("plain <b>bold <i>both</i></b> <u>under</u>")
	want := []markup.Segment{
		{Text: "plain "},
		{Text: "bold ", Style: markup.Style{Bold: true}},
		{Text: "both", Style: markup.Style{Bold: true, Italic: true}},
		{Text: " "},
		{Text: "under", Style: markup.Style{Underline: true}},
	}
	if !reflect.DeepEqual(segs, want) {
		t.Fatalf("分段不符:\n got=%+v\nwant=%+v", segs, want)
	}
}

func TestTokenizeAliasesAndCase(t *testing.T) {
	segs := markup.Tokenize("<STRONG>a</STRONG><em>b</em>")
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %+v", segs)
	}
	if !segs[0].Style.Bold || segs[0].Text != "a" {
		t.Fatalf("strong should map to bold: %+v", segs[0])
	}
	if !segs[1].Style.Italic || segs[1].Text != "b" {
		t.Fatalf("em should map to italic: %+v", segs[1])
	}
}

func TestTokenizeBreaks(t *testing.T) {
	segs := markup.Tokenize("A<br>B<br/>C\nD<div>E</div>")
	var kinds []markup.Break
	var texts []string
	for _, s := range segs {
		if s.IsBreak() {
			kinds = append(kinds, s.Break)
			continue
		}
		texts = append(texts, s.Text)
	}
	wantKinds := []markup.Break{markup.HardBreak, markup.HardBreak, markup.HardBreak, markup.BlockBreak, markup.BlockBreak}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Fatalf("break kinds mismatch: got=%v want=%v", kinds, wantKinds)
	}
	if !reflect.DeepEqual(texts, []string{"A", "B", "C", "D", "E"}) {
		t.Fatalf("texts mismatch: %v", texts)
	}
}

func TestTokenizeEntities(t *testing.T) {
	segs := markup.Tokenize("a&nbsp;b &amp; c &#169; &bogus; d")
	if len(segs) != 1 {
		t.Fatalf("expected one merged segment, got %+v", segs)
	}
	if got, want := segs[0].Text, "a b & c © &bogus; d"; got != want {
		t.Fatalf("entity decoding mismatch: got=%q want=%q", got, want)
	}
}

// 未知标签剥离但保留内容；无法构成标签的 "<" 按普通文本保留。
func TestTokenizeUnknownAndMalformed(t *testing.T) {
	segs := markup.Tokenize(`<span style="color: red">x</span> 1 < 2 <b`)
	if len(segs) != 1 {
		t.Fatalf("expected one plain segment, got %+v", segs)
	}
	if got, want := segs[0].Text, "x 1 < 2 <b"; got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestTokenizeUnclosedAndStrayClose(t *testing.T) {
	segs := markup.Tokenize("</b>a <b>b")
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %+v", segs)
	}
	if segs[0].Style.Bold {
		t.Fatalf("stray closing tag must not toggle bold: %+v", segs[0])
	}
	if !segs[1].Style.Bold || segs[1].Text != "b" {
		t.Fatalf("unclosed <b> should style the rest: %+v", segs[1])
	}
}

func TestPlainKeepsTags(t *testing.T) {
	segs := markup.Plain("x <b>y</b>\r\n\nz")
	want := []markup.Segment{
		{Text: "x <b>y</b>"},
		{Break: markup.HardBreak},
		{Break: markup.HardBreak},
		{Text: "z"},
	}
	if !reflect.DeepEqual(segs, want) {
		t.Fatalf("got=%+v want=%+v", segs, want)
	}
}
