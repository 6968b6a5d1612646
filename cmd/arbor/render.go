package main

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/arbor/cst"
	"github.com/npillmayer/arbor/model"
	"github.com/pterm/pterm"
)

// showParseTree prints a parse tree as a tree on the terminal.
func showParseTree(root *cst.Node) {
	ll := pterm.LeveledList{}
	cst.TopDown(root, cst.Listener{
		Enter: func(n *cst.Node, ctx cst.Ctxt) bool {
			text := n.String()
			if n.ParseError() != nil {
				text = pterm.FgRed.Sprint(text + " !" + n.ParseError().Error())
			}
			ll = append(ll, pterm.LeveledListItem{Level: ctx.Level, Text: text})
			return true
		},
	}, cst.LtoR)
	renderTree(ll)
}

// showAST prints an AST as a tree on the terminal. Containment children are
// labelled with their feature name.
func showAST(root *model.Node) {
	renderTree(leveledNode(root, "", pterm.LeveledList{}, 0))
}

func leveledNode(n *model.Node, label string, ll pterm.LeveledList, level int) pterm.LeveledList {
	var sb strings.Builder
	if label != "" {
		sb.WriteString(pterm.FgCyan.Sprint(label + ": "))
	}
	sb.WriteString(n.String())
	for _, f := range n.Type().Attributes() {
		if v := n.Get(f.Name); v != nil {
			fmt.Fprintf(&sb, " %s=%v", f.Name, v)
		}
	}
	for _, f := range n.Type().References() {
		for _, r := range refsOf(n, f.Name, f.Many) {
			text := fmt.Sprintf(" %s→%s", f.Name, r)
			if !r.Resolved() {
				text = pterm.FgYellow.Sprint(text)
			}
			sb.WriteString(text)
		}
	}
	if p, ok := model.PlaceholderOf(n); ok {
		sb.WriteString(pterm.FgRed.Sprint(fmt.Sprintf(" [%s]", p)))
	}
	ll = append(ll, pterm.LeveledListItem{Level: level, Text: sb.String()})
	for _, f := range n.Type().Containments() {
		var children []*model.Node
		if f.Many {
			children = n.ChildList(f.Name)
		} else if c := n.Child(f.Name); c != nil {
			children = []*model.Node{c}
		}
		for _, c := range children {
			ll = leveledNode(c, f.Name, ll, level+1)
		}
	}
	return ll
}

func refsOf(n *model.Node, feature string, many bool) []*model.ReferenceByName {
	if many {
		return n.RefList(feature)
	}
	if r := n.Ref(feature); r != nil {
		return []*model.ReferenceByName{r}
	}
	return nil
}

func renderTree(ll pterm.LeveledList) {
	if len(ll) == 0 {
		return
	}
	root := pterm.NewTreeFromLeveledList(ll)
	pterm.DefaultTree.WithRoot(root).Render()
}

// showIssues prints issues, coloured by severity.
func showIssues(issues []arbor.Issue) {
	for _, is := range issues {
		switch is.Severity {
		case arbor.Error:
			pterm.Error.Println(is.String())
		case arbor.Warning:
			pterm.Warning.Println(is.String())
		default:
			pterm.Info.Println(is.String())
		}
	}
}

// sourceID derives a source ID from a file name. Characters not allowed in
// IDs are replaced by '-'.
func sourceID(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '-'
	}, base)
	if id == "" {
		return "source"
	} else if len(id) > 64 {
		id = id[:64]
	}
	return id
}
