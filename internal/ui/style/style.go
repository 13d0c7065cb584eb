// Package style parses the overlay stylesheet: a small CSS subset of .class and #id rules
// whose declarations size, place and color overlay nodes.
package style

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"moto-viewer/internal/palette"
)

// Rule is a single CSS rule: one selector and its declarations as raw strings.
type Rule struct {
	Selector string            // ".panel" or "#menu"
	Props    map[string]string // "background" -> "#333"
}

// Sheet is a list of rules; later rules override earlier ones.
type Sheet struct {
	Rules []Rule
}

// Parse reads a stylesheet. Selectors other than a single .class or #id are skipped, as are
// at-rules. A comma-separated selector list yields one rule per selector.
func Parse(r io.Reader) (*Sheet, error) {
	p := css.NewParser(parse.NewInput(r), false)
	sheet := &Sheet{}
	var (
		selectors []string
		props     map[string]string
		atDepth   int
	)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); !errors.Is(err, io.EOF) {
				return sheet, fmt.Errorf("style: %w", err)
			}
			return sheet, nil
		case css.BeginAtRuleGrammar:
			atDepth++
		case css.EndAtRuleGrammar:
			atDepth--
		case css.QualifiedRuleGrammar:
			selectors = append(selectors, join(p.Values()))
		case css.BeginRulesetGrammar:
			selectors = append(selectors, join(p.Values()))
			props = make(map[string]string)
		case css.DeclarationGrammar:
			if props != nil {
				props[strings.ToLower(string(data))] = join(p.Values())
			}
		case css.EndRulesetGrammar:
			for _, sel := range selectors {
				if atDepth == 0 && simple(sel) {
					sheet.Rules = append(sheet.Rules, Rule{Selector: sel, Props: props})
				}
			}
			selectors, props = nil, nil
		}
	}
}

// ParseString parses a stylesheet held in memory.
func ParseString(s string) (*Sheet, error) {
	return Parse(strings.NewReader(s))
}

// join rebuilds the source text of tokens, separating adjacent words such as the parts of
// "1px solid #444" by one space.
func join(tokens []css.Token) string {
	var b strings.Builder
	prevWord := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			continue
		}
		w := word(t.TokenType)
		if w && prevWord {
			b.WriteByte(' ')
		}
		b.Write(t.Data)
		prevWord = w
	}
	return b.String()
}

func word(tt css.TokenType) bool {
	switch tt {
	case css.IdentToken, css.NumberToken, css.DimensionToken, css.PercentageToken, css.HashToken:
		return true
	}
	return false
}

func simple(sel string) bool {
	if len(sel) < 2 || (sel[0] != '.' && sel[0] != '#') {
		return false
	}
	return !strings.ContainsAny(sel[1:], " .#>:[,+~")
}

// Props merges the declarations of every rule matching class or id, in sheet order.
func (s *Sheet) Props(class, id string) map[string]string {
	merged := make(map[string]string)
	if s == nil {
		return merged
	}
	for _, rule := range s.Rules {
		name := rule.Selector[1:]
		if (rule.Selector[0] == '.' && name == class) || (rule.Selector[0] == '#' && name == id) {
			for k, v := range rule.Props {
				merged[k] = v
			}
		}
	}
	return merged
}

// Resolve computes the style of a node with the given class and id.
func (s *Sheet) Resolve(class, id string) Computed {
	return ResolveProps(s.Props(class, id))
}

// Computed holds resolved values used for drawing.
// LeftPct/TopPct: 0–100 for percentage positioning; -1 means use Left/Top as pixels.
type Computed struct {
	Background color.RGBA
	Color      color.RGBA
	Border     color.RGBA
	HasBorder  bool
	Width      int32
	Height     int32
	Left       int32
	Top        int32
	LeftPct    int32
	TopPct     int32
	Padding    int32 // text offset from node bounds
	FontSize   int32
}

// Default returns the style of a node no rule matches: white text on nothing.
func Default() Computed {
	return Computed{
		Color:    color.RGBA{255, 255, 255, 255},
		Border:   color.RGBA{0, 0, 0, 255},
		LeftPct:  -1,
		TopPct:   -1,
		Padding:  4,
		FontSize: 20,
	}
}

// ParseColor accepts everything palette.ParseColor does plus rgb() and rgba(), with alpha
// in [0, 1].
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	args, ok := strings.CutPrefix(s, "rgba(")
	if !ok {
		args, ok = strings.CutPrefix(s, "rgb(")
	}
	if !ok {
		return palette.ParseColor(s)
	}
	parts := strings.Split(strings.TrimSuffix(args, ")"), ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("style: bad color %q", s)
	}
	var ch [4]float64
	ch[3] = 1
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("style: bad color %q: %w", s, err)
		}
		ch[i] = v
	}
	clamp := func(v, hi float64) uint8 { return uint8(math.Round(max(0, min(hi, v)) * 255 / hi)) }
	return color.RGBA{clamp(ch[0], 255), clamp(ch[1], 255), clamp(ch[2], 255), clamp(ch[3], 1)}, nil
}

// ParsePx parses a number, with optional "px" suffix. Unitless is treated as pixels.
func ParsePx(s string) (int32, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

// ParsePct parses "N%" with N in 0–100.
func ParsePct(s string) (int32, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[len(s)-1] != '%' {
		return 0, false
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return int32(n), true
}

// borderColor picks the color out of a shorthand such as "1px solid #444".
func borderColor(v string) (color.RGBA, bool) {
	if c, err := ParseColor(v); err == nil {
		return c, true
	}
	fields := strings.Fields(v)
	for i := len(fields) - 1; i >= 0; i-- {
		if c, err := ParseColor(fields[i]); err == nil {
			return c, true
		}
	}
	return color.RGBA{}, false
}

// ResolveProps builds a Computed from a merged property map.
func ResolveProps(props map[string]string) Computed {
	out := Default()
	for k, v := range props {
		switch k {
		case "background", "background-color":
			if c, err := ParseColor(v); err == nil {
				out.Background = c
			}
		case "color":
			if c, err := ParseColor(v); err == nil {
				out.Color = c
			}
		case "border":
			if c, ok := borderColor(v); ok {
				out.Border = c
				out.HasBorder = true
			}
		case "width":
			if n, ok := ParsePx(v); ok {
				out.Width = n
			}
		case "height":
			if n, ok := ParsePx(v); ok {
				out.Height = n
			}
		case "left", "x":
			if pct, ok := ParsePct(v); ok {
				out.LeftPct = pct
			} else if n, ok := ParsePx(v); ok {
				out.Left = n
			}
		case "top", "y":
			if pct, ok := ParsePct(v); ok {
				out.TopPct = pct
			} else if n, ok := ParsePx(v); ok {
				out.Top = n
			}
		case "padding":
			if n, ok := ParsePx(v); ok && n >= 0 {
				out.Padding = n
			}
		case "font-size":
			if n, ok := ParsePx(v); ok && n > 0 {
				out.FontSize = n
			}
		}
	}
	return out
}
