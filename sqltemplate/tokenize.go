package sqltemplate

import "strings"

// textTok and directiveTok are the two token kinds tokenizeTemplate
// produces: a run of literal text, or the raw content of one `{{...}}`
// occurrence (braces stripped).
type textTok string
type directiveTok string

// tokenizeTemplate splits text into alternating textTok/directiveTok values.
// It is a plain linear scan rather than a participle lexer: the directive
// grammar only needs to parse what is already known to lie between a
// matched `{{`/`}}` pair, so the outer split is simpler done by hand (the
// same two-layer shape hemanta212-scaf uses: a hand-written source scan
// feeding a participle-parsed inner grammar).
func tokenizeTemplate(text string) ([]any, error) {
	var toks []any
	i := 0
	for i < len(text) {
		start := strings.Index(text[i:], "{{")
		if start < 0 {
			if rest := text[i:]; rest != "" {
				toks = append(toks, textTok(rest))
			}
			break
		}
		start += i
		if start > i {
			toks = append(toks, textTok(text[i:start]))
		}
		end := strings.Index(text[start+2:], "}}")
		if end < 0 {
			return nil, ErrTemplateSyntax
		}
		end += start + 2
		toks = append(toks, directiveTok(strings.TrimSpace(text[start+2:end])))
		i = end + 2
	}
	return toks, nil
}
