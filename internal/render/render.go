// Package render turns post content into sanitized HTML.
package render

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/cache"
	"github.com/debemdeboas/postboard/internal/theme"
	"github.com/debemdeboas/postboard/internal/util"
)

var renderLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

var policy = newPolicy()

// newPolicy is bluemonday's user content policy plus the class attributes
// chroma emits for highlighted code.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("div", "span", "pre", "code")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

func HighlightCode(code, language, highlightTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return html.EscapeString(code)
	}

	var buf strings.Builder
	if err := theme.GetFormatter().Format(&buf, styles.Get(highlightTheme), iterator); err != nil {
		return html.EscapeString(code)
	}
	return buf.String()
}

func RenderMarkdown(md []byte, highlightTheme string) []byte {
	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if code, ok := node.(*ast.CodeBlock); ok && entering {
				var lang string
				if info := code.Info; info != nil {
					lang = string(info)
				}
				fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", HighlightCode(string(code.Literal), lang, highlightTheme))
				return ast.GoToNext, true
			}
			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough |
			parser.SpaceHeadings | parser.BackslashLineBreak | parser.NoIntraEmphasis,
	).Parse(markdown.NormalizeNewlines(md))

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// RenderPlain escapes text and keeps its line breaks.
func RenderPlain(text string) []byte {
	escaped := html.EscapeString(string(markdown.NormalizeNewlines([]byte(text))))
	return []byte("<p>" + strings.ReplaceAll(escaped, "\n", "<br>\n") + "</p>")
}

// Sanitize strips anything the user content policy does not allow.
func Sanitize(b []byte) template.HTML {
	return template.HTML(policy.SanitizeBytes(b))
}

// Guards the check-render-set sequence in RenderContentCached
var renderCacheMutex sync.Mutex

// RenderContentCached renders post content as markdown or plain text,
// sanitizes it and memoizes the result by content hash and theme.
func RenderContentCached(content string, asMarkdown bool, highlightTheme string) template.HTML {
	contentHash := util.ContentHashString(content)
	if !asMarkdown {
		contentHash = "plain:" + contentHash
	}

	if cached, found := cache.GetRenderedContent(contentHash, highlightTheme); found {
		renderLogger.Debug().Str("contentHash", contentHash).Str("highlightTheme", highlightTheme).Msg("Cache hit for rendered content")
		return cached
	}

	renderLogger.Debug().Str("contentHash", contentHash).Str("highlightTheme", highlightTheme).Msg("Cache miss for rendered content")
	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	if cached, found := cache.GetRenderedContent(contentHash, highlightTheme); found {
		return cached
	}

	var raw []byte
	if asMarkdown {
		raw = RenderMarkdown([]byte(content), highlightTheme)
	} else {
		raw = RenderPlain(content)
	}

	out := Sanitize(raw)
	cache.SetRenderedContent(contentHash, highlightTheme, out)
	return out
}
