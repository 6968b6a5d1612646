package cst

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"

	"github.com/npillmayer/arbor"
)

// EOF is the token type signalling the end of input.
const EOF arbor.TokType = -1

// Tokenizer is a scanner interface.
type Tokenizer interface {
	NextToken() *Token
	SetErrorHandler(func(error))
}

// Token is a token with a position in the input.
type Token struct {
	Kind arbor.TokType
	Text string
	Val  interface{}
	Sp   arbor.Span
	Pos  *arbor.Position
}

var _ arbor.Token = (*Token)(nil)

// MakeToken creates a token without a position.
func MakeToken(typ arbor.TokType, lexeme string, span arbor.Span) *Token {
	return &Token{Kind: typ, Text: lexeme, Sp: span}
}

func (t *Token) TokType() arbor.TokType {
	return t.Kind
}

func (t *Token) Lexeme() string {
	return t.Text
}

func (t *Token) Value() interface{} {
	if t.Val == nil {
		return t.Text
	}
	return t.Val
}

func (t *Token) Span() arbor.Span {
	return t.Sp
}

// IsEOF is a predicate.
func (t *Token) IsEOF() bool {
	return t == nil || t.Kind == EOF
}

func (t *Token) String() string {
	if t.IsEOF() {
		return "<EOF>"
	}
	return fmt.Sprintf("%q@%s", t.Text, t.Pos)
}
