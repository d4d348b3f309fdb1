package sqltemplate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrTemplateSyntax is the spec §7 taxonomy entry for an unclosed `{{…}}`,
// an unclosed if/each block, or a malformed directive.
var ErrTemplateSyntax = errors.New("sqltemplate: template syntax error")

// directiveBody is the participle grammar for the content inside one
// `{{...}}` occurrence of the text-template language (spec §4.4(b)). It is
// parsed once per occurrence; the surrounding text is split out by a plain
// string scan (tokenizeTemplate in tokenize.go) — the same two-phase lex-then-parse
// split hemanta212-scaf's Cypher grammar uses (lexer.go feeding parser.go).
type directiveBody struct {
	If      *ifHead   `  "if" @@`
	EndIf   bool      `| @"endif"`
	Each    *eachHead `| "each" @@`
	EndEach bool      `| @"endeach"`
	Call    *callExpr `| @@`
	Var     *path     `| @@`
}

type ifHead struct {
	Not  bool  `@"not"?`
	Cond *path `@@`
}

type eachHead struct {
	Item string `@Ident`
	Coll path   `"in" @@`
}

type callExpr struct {
	Name string   `@Ident "("`
	Args []string `(@Ident ("," @Ident)*)? ")"`
}

type path struct {
	Parts []string `@Ident ("." @Ident)*`
}

func (p path) String() string { return strings.Join(p.Parts, ".") }

var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[().,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var directiveParser = participle.MustBuild[directiveBody](
	participle.Lexer(directiveLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(4),
)

// Node is one element of a parsed directive template: literal text, a
// variable substitution, a function call, a conditional block, or a loop.
// Block nodes (*IfNode, *EachNode) are stored as pointers so the tree
// builder in ParseDirectiveTemplate can keep appending to their Body after
// they are already linked into their parent's child slice.
type Node interface{ isNode() }

type TextNode struct{ Text string }
type VarNode struct{ Path []string }
type CallNode struct {
	Name string
	Args []string
}
type IfNode struct {
	Not  bool
	Cond []string
	Body []Node
}
type EachNode struct {
	Item string
	Coll []string
	Body []Node
}

func (TextNode) isNode()  {}
func (VarNode) isNode()   {}
func (CallNode) isNode()  {}
func (*IfNode) isNode()   {}
func (*EachNode) isNode() {}

// Parsed is a parsed text-template-with-directives document: its node tree
// plus validation diagnostics (spec §4.4(b): "{ ok, errors[], warnings[] }").
type Parsed struct {
	Nodes    []Node
	OK       bool
	Errors   []string
	Warnings []string
}

// ParseDirectiveTemplate parses the text-template-with-directives language:
// {{if cond}}…{{endif}}, {{each item in coll}}…{{endeach}}, {{var}},
// {{fn(arg,…)}}. Nested if/each are supported. An unclosed `{{`, an
// unclosed if/each block, or an each without "item in coll" all produce
// ErrTemplateSyntax.
func ParseDirectiveTemplate(text string) (*Parsed, error) {
	if strings.Count(text, "{{") != strings.Count(text, "}}") {
		err := fmt.Errorf("%w: unclosed brace", ErrTemplateSyntax)
		return &Parsed{Errors: []string{err.Error()}}, err
	}
	tokens, err := tokenizeTemplate(text)
	if err != nil {
		return &Parsed{Errors: []string{err.Error()}}, err
	}

	type openBlock struct {
		container *[]Node // the slice this block was appended into
	}
	root := []Node{}
	var stack []*[]Node // stack of currently-open block bodies
	current := &root

	closeBlock := func(kind string) error {
		if len(stack) == 0 {
			err := fmt.Errorf("%w: %s without matching open block", ErrTemplateSyntax, kind)
			return err
		}
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			current = &root
		} else {
			current = stack[len(stack)-1]
		}
		return nil
	}

	for _, tok := range tokens {
		switch t := tok.(type) {
		case textTok:
			*current = append(*current, TextNode{Text: string(t)})
		case directiveTok:
			body, perr := directiveParser.ParseString("", string(t))
			if perr != nil {
				err := fmt.Errorf("%w: %v", ErrTemplateSyntax, perr)
				return &Parsed{Errors: []string{err.Error()}}, err
			}
			switch {
			case body.If != nil:
				n := &IfNode{Not: body.If.Not, Cond: body.If.Cond.Parts}
				*current = append(*current, n)
				stack = append(stack, &n.Body)
				current = &n.Body
			case body.EndIf:
				if err := closeBlock("endif"); err != nil {
					return &Parsed{Errors: []string{err.Error()}}, err
				}
			case body.Each != nil:
				n := &EachNode{Item: body.Each.Item, Coll: body.Each.Coll.Parts}
				*current = append(*current, n)
				stack = append(stack, &n.Body)
				current = &n.Body
			case body.EndEach:
				if err := closeBlock("endeach"); err != nil {
					return &Parsed{Errors: []string{err.Error()}}, err
				}
			case body.Call != nil:
				*current = append(*current, CallNode{Name: body.Call.Name, Args: body.Call.Args})
			case body.Var != nil:
				*current = append(*current, VarNode{Path: body.Var.Parts})
			}
		}
	}
	if len(stack) != 0 {
		err := fmt.Errorf("%w: unclosed if/each block", ErrTemplateSyntax)
		return &Parsed{Errors: []string{err.Error()}}, err
	}
	return &Parsed{Nodes: root, OK: true}, nil
}
