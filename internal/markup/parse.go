package markup

import (
	"bytes"
	"html"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	lexhtml "github.com/tdewolff/parse/v2/html"
	"go.uber.org/zap"

	"quizbuilder/internal/domain"
)

// maxTokens bounds a single parse so a pathological input cannot spin.
const maxTokens = 1 << 20

// Delta is a partial element update recovered from an edited projection.
// Nil Content means the markup carried no content for the element.
type Delta struct {
	ID         string
	Type       domain.ElementType
	SectionID  string
	Content    *string
	Styles     domain.Style
	Attributes map[string]string
}

// recognised tags and the element type each implies when no data-type is
// present.
var tagTypes = map[string]domain.ElementType{
	"p":       domain.ElementText,
	"h1":      domain.ElementText,
	"h2":      domain.ElementText,
	"h3":      domain.ElementText,
	"h4":      domain.ElementText,
	"h5":      domain.ElementText,
	"h6":      domain.ElementText,
	"span":    domain.ElementText,
	"button":  domain.ElementButton,
	"img":     domain.ElementImage,
	"a":       domain.ElementLink,
	"div":     "",
	"section": "",
}

// Parser reads an edited markup projection back into element deltas. It
// never fails: unknown tags, unmatched ids and broken rules are skipped.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a Parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("markup-parser")}
}

// Parse extracts deltas from markup and stylesheet. Elements appear in
// markup order; ids only present in the stylesheet follow in rule order.
func (p *Parser) Parse(markup, stylesheet string) []Delta {
	deltas, index := p.parseMarkup(markup)

	for _, rule := range p.parseStylesheet(stylesheet) {
		i, ok := index[rule.id]
		if !ok {
			deltas = append(deltas, Delta{ID: rule.id, SectionID: domain.SectionBody})
			i = len(deltas) - 1
			index[rule.id] = i
		}
		if deltas[i].Styles == nil {
			deltas[i].Styles = domain.Style{}
		}
		for k, v := range rule.styles {
			deltas[i].Styles[k] = v
		}
	}

	p.log.Debug("Parsed projection", zap.Int("deltas", len(deltas)))
	return deltas
}

// ── Markup ────────────────────────────────────────────────────────────────

type openTag struct {
	name  string
	id    string
	attrs map[string]string
}

func (p *Parser) parseMarkup(markup string) ([]Delta, map[string]int) {
	var (
		deltas  []Delta
		index   = map[string]int{}
		section = domain.SectionBody
		cur     *openTag
		text    strings.Builder
		leaf    = -1 // delta collecting text, or -1
	)

	closeLeaf := func() {
		if leaf < 0 {
			return
		}
		content := strings.TrimSpace(html.UnescapeString(text.String()))
		deltas[leaf].Content = &content
		leaf = -1
		text.Reset()
	}

	// finishTag runs once a start tag's attributes are complete.
	finishTag := func(void bool) {
		tag := cur
		cur = nil
		if tag == nil || tag.id == "" {
			return
		}
		if strings.HasPrefix(tag.id, SectionPrefix) {
			closeLeaf()
			section = strings.TrimPrefix(tag.id, SectionPrefix)
			return
		}
		if tag.id == RootID {
			return
		}
		implied, ok := tagTypes[tag.name]
		if !ok {
			return
		}
		closeLeaf()

		t := implied
		if dt := domain.ElementType(tag.attrs["data-type"]); dt.Valid() {
			t = dt
		}
		d := Delta{ID: tag.id, Type: t, SectionID: section}
		switch tag.name {
		case "img":
			d.Attributes = pick(tag.attrs, "src", "alt")
		case "a":
			d.Attributes = pick(tag.attrs, "href")
		}
		if _, dup := index[tag.id]; dup {
			p.log.Debug("Skipping duplicate id", zap.String("id", tag.id))
			return
		}
		deltas = append(deltas, d)
		index[tag.id] = len(deltas) - 1

		if !void && tag.name != "img" && t != "" && !t.IsContainer() {
			leaf = len(deltas) - 1
		}
	}

	l := lexhtml.NewLexer(parse.NewInputString(markup))
	for n := 0; n < maxTokens; n++ {
		tt, data := l.Next()
		switch tt {
		case lexhtml.ErrorToken:
			if l.Err() != io.EOF {
				p.log.Debug("Markup lexer stopped", zap.Error(l.Err()))
			}
			closeLeaf()
			return deltas, index
		case lexhtml.StartTagToken:
			cur = &openTag{name: strings.ToLower(string(l.Text())), attrs: map[string]string{}}
		case lexhtml.AttributeToken:
			if cur == nil {
				continue
			}
			key := strings.ToLower(string(l.AttrKey()))
			val := html.UnescapeString(unquote(string(l.AttrVal())))
			cur.attrs[key] = val
			if key == "id" {
				cur.id = strings.TrimSpace(val)
			}
		case lexhtml.StartTagCloseToken:
			finishTag(false)
		case lexhtml.StartTagVoidToken:
			finishTag(true)
		case lexhtml.EndTagToken:
			if leaf >= 0 {
				closeLeaf()
			}
		case lexhtml.TextToken:
			if leaf >= 0 {
				text.Write(bytes.Clone(data))
			}
		}
	}
	p.log.Warn("Markup token limit reached", zap.Int("limit", maxTokens))
	closeLeaf()
	return deltas, index
}

func pick(attrs map[string]string, keys ...string) map[string]string {
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := attrs[k]; ok {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// ── Stylesheet ────────────────────────────────────────────────────────────

type rule struct {
	id     string
	styles domain.Style
}

func (p *Parser) parseStylesheet(stylesheet string) []rule {
	var rules []rule
	parser := css.NewParser(parse.NewInputString(stylesheet), false)

	for n := 0; n < maxTokens; n++ {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if parser.Err() == io.EOF {
				return rules
			}
			if parser.Err() != nil {
				p.log.Debug("Stylesheet parse error", zap.Error(parser.Err()))
				return rules
			}
		case css.BeginAtRuleGrammar:
			p.skipBlock(parser)
		case css.BeginRulesetGrammar:
			id := selectorID(parser.Values())
			styles := p.parseDeclarations(parser)
			if id == "" || id == RootID || strings.HasPrefix(id, SectionPrefix) {
				continue
			}
			rules = append(rules, rule{id: id, styles: styles})
		}
	}
	p.log.Warn("Stylesheet token limit reached", zap.Int("limit", maxTokens))
	return rules
}

// selectorID returns the last id selector of a compound selector.
func selectorID(values []css.Token) string {
	id := ""
	for _, v := range values {
		if v.TokenType == css.HashToken {
			id = strings.TrimPrefix(string(v.Data), "#")
		}
	}
	return id
}

func (p *Parser) parseDeclarations(parser *css.Parser) domain.Style {
	styles := domain.Style{}
	for n := 0; n < maxTokens; n++ {
		gt, _, data := parser.Next()
		switch gt {
		case css.EndRulesetGrammar:
			return styles
		case css.ErrorGrammar:
			if parser.Err() != nil {
				return styles
			}
		case css.DeclarationGrammar:
			name := camel(string(data))
			value := propertyValue(parser.Values())
			if name == "" || value == "" {
				p.log.Debug("Skipping declaration", zap.ByteString("property", data))
				continue
			}
			styles[name] = value
		}
	}
	return styles
}

func (p *Parser) skipBlock(parser *css.Parser) {
	depth := 1
	for n := 0; n < maxTokens && depth > 0; n++ {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if parser.Err() != nil {
				return
			}
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// propertyValue joins declaration tokens back into a value string.
func propertyValue(tokens []css.Token) string {
	var b strings.Builder
	afterComma := false
	for _, t := range tokens {
		switch t.TokenType {
		case css.WhitespaceToken:
			if b.Len() > 0 && !afterComma {
				b.WriteByte(' ')
			}
		case css.CommaToken:
			b.WriteString(", ")
			afterComma = true
			continue
		default:
			b.Write(t.Data)
		}
		afterComma = false
	}
	v := strings.TrimSpace(b.String())
	if i := strings.Index(v, "!"); i >= 0 && strings.EqualFold(strings.ReplaceAll(v[i+1:], " ", ""), "important") {
		v = strings.TrimSpace(v[:i])
	}
	return v
}
