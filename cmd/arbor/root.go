package main

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// app holds state shared by all sub-commands.
type app struct {
	configFile string
	traceLevel string
	conf       *konfig
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "arbor",
		Short: "Work with ASTs of the todo example language",
		Long: `arbor parses, transforms, exports and imports syntax trees.

Source files are written in the todo example language; exported trees are
graph chunks in JSON or a compressed binary format. A model repository
may be run with 'arbor serve'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "arbor.toml", "configuration file")
	flags.StringVar(&a.traceLevel, "trace", "", "trace level for all tracers [Debug|Info|Error]")
	flags.Bool("transform.strict", false, "fail on nodes without a transformation rule")
	flags.Bool("convert.ignore-missing", false, "drop links to nodes which cannot be resolved")
	flags.String("repo.url", "http://localhost:7070", "base URL of the model repository")
	root.AddCommand(
		a.parseCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.validateCmd(),
		a.languageCmd(),
		a.idsCmd(),
		a.serveCmd(),
		a.replCmd(),
	)
	return root
}

// setup loads the configuration and initializes tracing and display.
func (a *app) setup(cmd *cobra.Command) error {
	conf, err := loadConfig(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.conf = conf
	if a.traceLevel != "" {
		for _, key := range tracers {
			conf.Set("tracelevel."+key, a.traceLevel)
		}
	}
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	if err = trace2go.ConfigureRoot(conf, "tracelevel", trace2go.ReplaceTracers(true)); err != nil {
		return err
	}
	tracing.SetTraceSelector(trace2go.Selector())
	initDisplay()
	tracer().P("config", a.configFile).Debugf("configuration loaded")
	return nil
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
	pterm.Warning.Prefix = pterm.Prefix{
		Text:  "  Warning",
		Style: pterm.NewStyle(pterm.BgYellow, pterm.FgBlack),
	}
}
