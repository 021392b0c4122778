package markup

import (
	"html"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/unicode/norm"
)

// 该文件实现引用文本的极简标记语言：<b>/<strong>、<i>/<em>、<u>、<br>、<p>/<div> 与实体。
// 词法由 participle 的 lexer 完成，样式状态由一个小型有限状态机维护。

var (
	markupLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Tag", Pattern: `</?[A-Za-z][A-Za-z0-9]*(?:\s[^<>]*)?/?>`},
		{Name: "Entity", Pattern: `&(?:#[0-9]+|#[xX][0-9A-Fa-f]+|[A-Za-z][A-Za-z0-9]*);`},
		{Name: "Newline", Pattern: `\r\n|\r|\n`},
		{Name: "Space", Pattern: `[ \t\f\v]+`},
		{Name: "Text", Pattern: `[^<&\s]+`},
		{Name: "Stray", Pattern: `[<&]`},
	})

	tagTokenType     = mustTokenType("Tag")
	entityTokenType  = mustTokenType("Entity")
	newlineTokenType = mustTokenType("Newline")
	spaceTokenType   = mustTokenType("Space")
)

// Style carries the inline formatting flags of a segment.
type Style struct {
	Bold      bool `json:"bold,omitempty"`
	Italic    bool `json:"italic,omitempty"`
	Underline bool `json:"underline,omitempty"`
}

// Break marks a segment as a paragraph boundary instead of text.
type Break int

const (
	NoBreak Break = iota
	// HardBreak 来自换行符或 <br>，总是结束当前段落（空段落也会保留为空行）。
	HardBreak
	// BlockBreak 来自 <p>/<div> 的开闭标签，当前段落为空时会被折叠。
	BlockBreak
)

// Segment is either a run of text sharing one Style or a break marker.
type Segment struct {
	Text  string `json:"text,omitempty"`
	Style Style  `json:"style"`
	Break Break  `json:"break,omitempty"`
}

// IsBreak reports whether the segment is a break marker.
func (s Segment) IsBreak() bool { return s.Break != NoBreak }

// Tokenize 将富文本拆成扁平的分段列表。未知标签被剥离（保留内容），
// 无法构成标签的 "<" 或未知实体按普通文本处理，永远不会返回错误。
func Tokenize(input string) []Segment {
	input = norm.NFC.String(input)
	lex, err := markupLexer.LexString("", input)
	if err != nil {
		return Plain(input)
	}
	st := &state{}
	for {
		tok, err := lex.Next()
		if err != nil {
			return Plain(input)
		}
		if tok.EOF() {
			break
		}
		st.consume(&tok)
	}
	st.flush()
	return st.out
}

// Plain 把纯文本按换行拆分为分段，不解释任何标签。
func Plain(input string) []Segment {
	input = norm.NFC.String(input)
	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")
	parts := strings.Split(input, "\n")
	out := make([]Segment, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, Segment{Break: HardBreak})
		}
		if p != "" {
			out = append(out, Segment{Text: p})
		}
	}
	return out
}

// state 是标记分词的有限状态机：记录各样式标签的嵌套深度与待输出文本。
type state struct {
	bold, italic, underline int
	buf                     strings.Builder
	bufStyle                Style
	out                     []Segment
}

func (s *state) style() Style {
	return Style{Bold: s.bold > 0, Italic: s.italic > 0, Underline: s.underline > 0}
}

func (s *state) consume(tok *lexer.Token) {
	switch tok.Type {
	case tagTokenType:
		s.tag(tok.Value)
	case entityTokenType:
		s.text(decodeEntity(tok.Value))
	case newlineTokenType:
		s.breakWith(HardBreak)
	case spaceTokenType:
		s.text(" ")
	default:
		s.text(tok.Value)
	}
}

func (s *state) text(v string) {
	if v == "" {
		return
	}
	st := s.style()
	if s.buf.Len() > 0 && st != s.bufStyle {
		s.flush()
	}
	s.bufStyle = st
	s.buf.WriteString(v)
}

func (s *state) flush() {
	if s.buf.Len() == 0 {
		return
	}
	s.out = append(s.out, Segment{Text: s.buf.String(), Style: s.bufStyle})
	s.buf.Reset()
}

func (s *state) breakWith(kind Break) {
	s.flush()
	s.out = append(s.out, Segment{Break: kind})
}

func (s *state) tag(raw string) {
	name, closing := tagName(raw)
	switch name {
	case "b", "strong":
		s.bold = adjust(s.bold, closing)
	case "i", "em":
		s.italic = adjust(s.italic, closing)
	case "u", "ins":
		s.underline = adjust(s.underline, closing)
	case "br":
		s.breakWith(HardBreak)
	case "p", "div":
		s.breakWith(BlockBreak)
	default:
		// 未知标签：剥离标签本身，内容照常输出
	}
}

// adjust 更新嵌套深度；多余的闭合标签直接忽略。
func adjust(depth int, closing bool) int {
	if closing {
		if depth > 0 {
			return depth - 1
		}
		return 0
	}
	return depth + 1
}

func tagName(raw string) (string, bool) {
	body := strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")
	body = strings.TrimSuffix(body, "/")
	closing := strings.HasPrefix(body, "/")
	body = strings.TrimPrefix(body, "/")
	if i := strings.IndexAny(body, " \t\r\n\f\v"); i >= 0 {
		body = body[:i]
	}
	return strings.ToLower(body), closing
}

func decodeEntity(raw string) string {
	if strings.EqualFold(raw, "&nbsp;") {
		return " "
	}
	decoded := html.UnescapeString(raw)
	if decoded == "\u00a0" {
		return " "
	}
	return decoded
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := markupLexer.Symbols()[name]
	if !ok {
		panic("markup: token " + name + " not defined")
	}
	return tt
}
