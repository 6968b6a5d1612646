package main

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/arbor/cst"
	"github.com/npillmayer/arbor/graph"
	"github.com/npillmayer/arbor/model"
	"github.com/npillmayer/arbor/resolve"
	"github.com/npillmayer/arbor/todo"
	"github.com/npillmayer/arbor/transform"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func (a *app) replCmd() *cobra.Command {
	var initf string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive mode",
		Long: `Interactive mode. Enter todo projects directly or load them from files,
then inspect parse trees, ASTs and exported chunks. Type 'help' for a list
of commands, quit with <ctrl>D.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			repl, err := readline.New("arbor> ")
			if err != nil {
				return err
			}
			defer repl.Close()
			intp := &Intp{app: a, repl: repl}
			pterm.Info.Println("Welcome to arbor")
			tracer().Infof("Quit with <ctrl>D")
			intp.loadInitFile(initf)
			intp.REPL()
			return nil
		},
	}
	cmd.Flags().StringVar(&initf, "init", "", "file with commands to run initially")
	return cmd
}

// Intp is our interpreter object.
type Intp struct {
	app    *app
	repl   *readline.Instance
	result *todo.Result
	count  int // number of inline sources
}

func (intp *Intp) loadInitFile(filename string) {
	if filename == "" {
		return
	}
	f, err := os.Open(filename)
	if err != nil {
		tracer().Errorf("Unable to open init file: %s", filename)
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if _, err := intp.Eval(line); err != nil {
			tracer().Errorf("Error line %d: %v", lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		tracer().Errorf("Error while reading init file: %v", err)
	}
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := intp.Eval(line)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	fmt.Println("Good bye!")
}

var errNothingLoaded = errors.New("nothing loaded yet")

// Eval evaluates a line of input. Lines starting with the keyword 'project'
// are parsed as todo sources, everything else is a command.
func (intp *Intp) Eval(line string) (bool, error) {
	cmd, arg := line, ""
	if i := strings.IndexAny(line, " \t"); i > 0 {
		cmd, arg = line[:i], strings.TrimSpace(line[i+1:])
	}
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		intp.help()
	case "project":
		intp.count++
		return false, intp.use(todo.NewLoader(transform.FromConfig(intp.app.conf)).Load(&cst.Source{
			ID:   fmt.Sprintf("repl%d", intp.count),
			Text: line,
		}))
	case "load":
		if arg == "" {
			return false, errors.New("usage: load <file>")
		}
		return false, intp.use(intp.app.load(arg))
	case "tree":
		if intp.result == nil {
			return false, errNothingLoaded
		}
		showParseTree(intp.result.Tree)
	case "ast":
		if intp.result == nil || intp.result.AST == nil {
			return false, errNothingLoaded
		}
		showAST(intp.result.AST)
	case "issues":
		if intp.result == nil {
			return false, errNothingLoaded
		}
		if len(intp.result.Issues) == 0 {
			pterm.Info.Println("no issues")
		}
		showIssues(intp.result.Issues)
	case "find":
		return false, intp.find(arg)
	case "export":
		return false, intp.export(arg)
	default:
		return false, fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	return false, nil
}

func (intp *Intp) use(res *todo.Result, err error) error {
	if res != nil {
		showIssues(res.Issues)
	}
	if err != nil {
		return err
	}
	intp.result = res
	pterm.Info.Println(fmt.Sprintf("loaded %s", res.Source.ID))
	return nil
}

// find shows the nodes with a given name and the references to them.
func (intp *Intp) find(name string) error {
	if intp.result == nil || intp.result.AST == nil {
		return errNothingLoaded
	}
	found := 0
	_ = model.Walk(intp.result.AST, func(n *model.Node) error {
		if resolve.NameOf(n) == name {
			found++
			pterm.Info.Println(fmt.Sprintf("%s at %v", n, n.Position()))
		}
		for _, f := range n.Type().References() {
			for _, r := range refsOf(n, f.Name, f.Many) {
				if r.Name == name {
					pterm.Println(fmt.Sprintf("    referenced by %s.%s at %v", n, f.Name, n.Position()))
				}
			}
		}
		return nil
	})
	if found == 0 {
		return fmt.Errorf("no node named %q", name)
	}
	return nil
}

// export prints the current AST as a chunk in JSON format, or writes it to a
// file.
func (intp *Intp) export(filename string) error {
	if intp.result == nil || intp.result.AST == nil {
		return errNothingLoaded
	}
	g, err := intp.app.converter().Export(intp.result.AST)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = graph.EncodeJSON(&buf, g); err != nil {
		return err
	}
	return writeOutput(filename, buf.Bytes())
}

func (intp *Intp) help() {
	pterm.Println(`Commands:
  project "name" { ... }   parse a todo project given inline
  load <file>              load a todo source file
  tree                     show the parse tree
  ast                      show the AST
  issues                   show issues of the last load
  find <name>              show nodes with a name and references to them
  export [<file>]          export the AST as a JSON chunk
  quit                     leave interactive mode`)
}
