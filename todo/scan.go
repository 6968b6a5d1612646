package todo

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"sync"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/cst"
	"github.com/timtadh/lexmachine"
)

// Token types of the todo language.
const (
	IDENT arbor.TokType = iota + 1
	STRING
	PROJECT
	TODO
	AFTER
	LBRACE = arbor.TokType('{')
	RBRACE = arbor.TokType('}')
)

// The tokens representing literal one-char lexemes
var literals = []string{"{", "}"}

// The keyword tokens
var keywords = []string{"project", "todo", "after"}

var tokenIds = map[string]int{
	"ID":      int(IDENT),
	"STRING":  int(STRING),
	"project": int(PROJECT),
	"todo":    int(TODO),
	"after":   int(AFTER),
	"{":       int(LBRACE),
	"}":       int(RBRACE),
}

// TokenName returns a readable name for a token type.
func TokenName(t arbor.TokType) string {
	switch t {
	case cst.EOF:
		return "end of input"
	case IDENT:
		return "identifier"
	case STRING:
		return "string"
	}
	for name, id := range tokenIds {
		if id == int(t) {
			return fmt.Sprintf("%q", name)
		}
	}
	return fmt.Sprintf("token(%d)", t)
}

var lexer *cst.LMAdapter
var lexerErr error
var lexerOnce sync.Once // monitors one-time creation of the lexer

// Lexer returns the lexmachine adapter for the todo language.
func Lexer() (*cst.LMAdapter, error) {
	lexerOnce.Do(func() {
		tracer().Infof("creating lexer")
		init := func(lexer *lexmachine.Lexer) {
			lexer.Add([]byte(`//[^\n]*\n?`), cst.Skip) // skip comments
			lexer.Add([]byte(`\"[^"\n]*\"`), cst.Action(tokenIds["STRING"]))
			lexer.Add([]byte(`([a-z]|[A-Z]|_)([a-z]|[A-Z]|[0-9]|_|-)*`), cst.Action(tokenIds["ID"]))
			lexer.Add([]byte(`( |\t|\n|\r)+`), cst.Skip)
		}
		lexer, lexerErr = cst.NewLMAdapter(init, literals, keywords, tokenIds)
	})
	return lexer, lexerErr
}
