package todo

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/cst"
	"github.com/timtadh/lexmachine/machines"
)

// --- Grammar ---------------------------------------------------------------

// Project    ::=  'project' string '{' Todo* '}'
// Todo       ::=  'todo' ident [ string ] [ 'after' ident ]
//
// Comments starting with '//' will be filtered by the scanner.

// Tags of parse tree nodes.
const (
	TagProject      = "project"
	TagTodo         = "todo"
	TagName         = "name"
	TagDescription  = "description"
	TagPrerequisite = "prerequisite"
	TagKeyword      = "keyword"
	TagPunct        = "punct"
	TagSkipped      = "skipped"
)

// Parse parses a todo project. Syntax errors do not stop the parser: issues
// are reported and erroneous parts of the input are represented by parse tree
// nodes with an error set (see cst.Node.ParseError). An error is returned only
// if no scanner could be created.
func Parse(src *cst.Source) (*cst.Node, []arbor.Issue, error) {
	lm, err := Lexer()
	if err != nil {
		return nil, nil, err
	}
	scan, err := lm.Scanner(src.Text)
	if err != nil {
		return nil, nil, err
	}
	p := &parser{scan: scan}
	scan.SetErrorHandler(p.lexError)
	p.next()
	root := p.project()
	if !p.tok.IsEOF() {
		p.syntaxError(fmt.Errorf("unexpected %s after end of project", TokenName(p.tok.Kind)))
		for !p.tok.IsEOF() {
			p.next()
		}
	}
	src.Adopt(root)
	tracer().P("source", src.ID).Debugf("parsed with %d issues", len(p.issues))
	return root, p.issues, nil
}

type parser struct {
	scan   cst.Tokenizer
	tok    *cst.Token // lookahead
	issues []arbor.Issue
}

func (p *parser) next() *cst.Token {
	t := p.tok
	p.tok = p.scan.NextToken()
	return t
}

func (p *parser) lexError(err error) {
	issue := arbor.Issue{
		Type:     arbor.Lexical,
		Message:  err.Error(),
		Severity: arbor.Error,
	}
	if ui, ok := err.(*machines.UnconsumedInput); ok {
		issue.Message = fmt.Sprintf("unexpected input at line %d, column %d", ui.StartLine, ui.StartColumn)
		issue.Position = arbor.Pos(ui.StartLine, ui.StartColumn-1, ui.StartLine, ui.StartColumn)
	}
	p.issues = append(p.issues, issue)
}

func (p *parser) syntaxError(err error) error {
	p.issues = append(p.issues, arbor.Issue{
		Type:     arbor.Syntactic,
		Message:  err.Error(),
		Severity: arbor.Error,
		Position: p.tok.Pos,
	})
	return err
}

// match appends the lookahead as a leaf to n if it is of type t.
func (p *parser) match(n *cst.Node, t arbor.TokType, tag string) error {
	if p.tok.Kind != t {
		return p.syntaxError(fmt.Errorf("expected %s, found %s", TokenName(t), TokenName(p.tok.Kind)))
	}
	n.Append(cst.Leaf(tag, p.next()))
	return nil
}

// skip appends tokens to n as skipped input until a token is found at which
// parsing may resume.
func (p *parser) skip(n *cst.Node, until ...arbor.TokType) {
	for !p.tok.IsEOF() {
		for _, t := range until {
			if p.tok.Kind == t {
				return
			}
		}
		n.Append(cst.Leaf(TagSkipped, p.next()))
	}
}

func (p *parser) project() *cst.Node {
	n := cst.NewNode(TagProject)
	if err := p.header(n); err != nil {
		n.Failed(err)
		p.skip(n)
		return n
	}
	for {
		switch p.tok.Kind {
		case TODO:
			n.Append(p.todo())
		case RBRACE:
			n.Append(cst.Leaf(TagPunct, p.next()))
			return n
		case cst.EOF:
			p.syntaxError(fmt.Errorf("missing %s at end of input", TokenName(RBRACE)))
			return n
		default:
			err := p.syntaxError(fmt.Errorf("expected todo, found %s", TokenName(p.tok.Kind)))
			junk := cst.NewNode(TagTodo).Failed(err)
			p.skip(junk, TODO, RBRACE)
			n.Append(junk)
		}
	}
}

func (p *parser) header(n *cst.Node) error {
	if err := p.match(n, PROJECT, TagKeyword); err != nil {
		return err
	}
	if err := p.match(n, STRING, TagName); err != nil {
		return err
	}
	return p.match(n, LBRACE, TagPunct)
}

func (p *parser) todo() *cst.Node {
	n := cst.NewNode(TagTodo)
	n.Append(cst.Leaf(TagKeyword, p.next()))
	err := p.match(n, IDENT, TagName)
	if err == nil && p.tok.Kind == STRING {
		n.Append(cst.Leaf(TagDescription, p.next()))
	}
	if err == nil && p.tok.Kind == AFTER {
		n.Append(cst.Leaf(TagKeyword, p.next()))
		err = p.match(n, IDENT, TagPrerequisite)
	}
	if err == nil && p.tok.Kind != TODO && p.tok.Kind != RBRACE && !p.tok.IsEOF() {
		err = p.syntaxError(fmt.Errorf("unexpected %s in todo", TokenName(p.tok.Kind)))
	}
	if err != nil {
		n.Failed(err)
		p.skip(n, TODO, RBRACE)
	}
	return n
}
