package resolve

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/arbor/model"
)

// --- Symbols ---------------------------------------------------------------

// Symbol is a named entry of a symbol table, denoting an AST node.
type Symbol struct {
	name string
	Node *model.Node
}

// NewSymbol creates a symbol for a node.
func NewSymbol(name string, n *model.Node) *Symbol {
	return &Symbol{name: name, Node: n}
}

// Name gets the symbol's name.
func (s *Symbol) Name() string {
	return s.name
}

func (s *Symbol) String() string {
	return fmt.Sprintf("<sym '%s':%v>", s.name, s.Node)
}

// === Symbol Tables =========================================================

// SymbolTable stores symbols by name.
type SymbolTable struct {
	table *treemap.Map
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{table: treemap.NewWithStringComparator()}
}

// Resolve checks for a symbol in the table. Returns a symbol or nil.
func (t *SymbolTable) Resolve(name string) *Symbol {
	if sym, found := t.table.Get(name); found {
		return sym.(*Symbol)
	}
	return nil
}

// Define creates a new symbol and stores it, overwriting an existing symbol
// with this name. The name may not be empty.
// Returns the new symbol and the previously stored one (or nil).
func (t *SymbolTable) Define(name string, n *model.Node) (*Symbol, *Symbol) {
	if len(name) == 0 {
		return nil, nil
	}
	sym := NewSymbol(name, n)
	old := t.Resolve(name)
	t.table.Put(name, sym)
	return sym, old
}

// Size counts the symbols in a symbol table.
func (t *SymbolTable) Size() int {
	return t.table.Size()
}

// Each iterates over the symbols of the table in lexicographic order.
func (t *SymbolTable) Each(mapper func(string, *Symbol)) {
	it := t.table.Iterator()
	for it.Next() {
		mapper(it.Key().(string), it.Value().(*Symbol))
	}
}

// === Scopes ================================================================

// Scope is a named scope, which may contain symbol definitions. Scopes link back to a
// parent scope, forming a tree.
type Scope struct {
	Name   string
	Parent *Scope
	Node   *model.Node // the node opening the scope, if any
	symtab *SymbolTable
}

// NewScope creates a new scope.
func NewScope(name string, parent *Scope) *Scope {
	return &Scope{
		Name:   name,
		Parent: parent,
		symtab: NewSymbolTable(),
	}
}

func (s *Scope) String() string {
	return fmt.Sprintf("<scope %s>", s.Name)
}

// Symbols returns the symbol table of a scope.
func (s *Scope) Symbols() *SymbolTable {
	return s.symtab
}

// Define defines a symbol in the scope. Returns the new symbol and the
// previously stored symbol under this name, if any.
func (s *Scope) Define(name string, n *model.Node) (*Symbol, *Symbol) {
	return s.symtab.Define(name, n)
}

// Resolve finds a symbol, searching the scope and then its ancestors. Returns
// the symbol (or nil) and the scope the symbol was found in.
func (s *Scope) Resolve(name string) (*Symbol, *Scope) {
	for sc := s; sc != nil; sc = sc.Parent {
		if sym := sc.symtab.Resolve(name); sym != nil {
			return sym, sc
		}
	}
	return nil, nil
}

// ---------------------------------------------------------------------------

// ScopeTree can be treated as a stack while walking a tree, thus building a
// tree from scopes which are pushed and popped to/from the stack.
type ScopeTree struct {
	base *Scope
	tos  *Scope
}

// Current gets the current scope of a stack (TOS).
func (st *ScopeTree) Current() *Scope {
	if st.tos == nil {
		panic("attempt to access scope from empty stack")
	}
	return st.tos
}

// Globals gets the outermost scope.
func (st *ScopeTree) Globals() *Scope {
	if st.base == nil {
		panic("attempt to access global scope from empty stack")
	}
	return st.base
}

// Empty is a predicate.
func (st *ScopeTree) Empty() bool {
	return st.tos == nil
}

// PushNewScope pushes a new scope onto the stack of scopes.
func (st *ScopeTree) PushNewScope(name string) *Scope {
	sc := NewScope(name, st.tos)
	if st.tos == nil {
		st.base = sc
	}
	st.tos = sc
	tracer().P("scope", name).Debugf("pushing new scope")
	return sc
}

// PopScope pops the top-most (recent) scope.
func (st *ScopeTree) PopScope() *Scope {
	if st.tos == nil {
		panic("attempt to pop scope from empty stack")
	}
	sc := st.tos
	tracer().Debugf("popping scope [%s]", sc.Name)
	st.tos = st.tos.Parent
	return sc
}
