package main

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/npillmayer/arbor/convert"
	"github.com/npillmayer/arbor/cst"
	"github.com/npillmayer/arbor/graph"
	"github.com/npillmayer/arbor/ids"
	"github.com/npillmayer/arbor/meta"
	"github.com/npillmayer/arbor/repo"
	"github.com/npillmayer/arbor/todo"
	"github.com/npillmayer/arbor/transform"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// idBatchSize is the number of IDs requested from a repository at once.
const idBatchSize = 64

// --- Helpers ---------------------------------------------------------------

func (a *app) languages() []*meta.Registry {
	return []*meta.Registry{todo.Language()}
}

func (a *app) client() *repo.Client {
	return repo.NewClient(a.conf.GetString("repo.url"), nil)
}

// load runs the todo pipeline on a source file.
func (a *app) load(filename string) (*todo.Result, error) {
	text, err := readInput(filename)
	if err != nil {
		return nil, err
	}
	loader := todo.NewLoader(transform.FromConfig(a.conf))
	return loader.Load(&cst.Source{ID: sourceID(filename), Text: string(text)})
}

// converter creates a converter for the todo language. IDs are structural,
// rooted at the source ID of the tree's origin.
func (a *app) converter(opts ...convert.Option) *convert.Converter {
	provider := ids.NewCache(&ids.Structural{Source: ids.OriginSource{}})
	opts = append([]convert.Option{
		convert.WithIDProvider(provider),
		convert.FromConfig(a.conf),
	}, opts...)
	return convert.New(a.languages(), opts...)
}

func readInput(filename string) ([]byte, error) {
	if filename == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(filename)
}

func writeOutput(filename string, data []byte) error {
	if filename == "" || filename == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// decodeChunk decodes a chunk in JSON or binary format.
func decodeChunk(data []byte, binary bool) ([]*graph.Node, error) {
	if binary {
		return graph.DecodeBinary(data)
	}
	if err := graph.ValidateJSON(data); err != nil {
		return nil, err
	}
	return graph.DecodeJSON(bytes.NewReader(data))
}

// --- parse -----------------------------------------------------------------

func (a *app) parseCmd() *cobra.Command {
	var showTree bool
	cmd := &cobra.Command{
		Use:   "parse <file.todo|->",
		Short: "Parse a todo source and show the parse tree and the AST",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			res, err := a.load(args[0])
			if res != nil {
				if showTree {
					showParseTree(res.Tree)
				}
				if res.AST != nil {
					showAST(res.AST)
				}
				showIssues(res.Issues)
			}
			if err != nil {
				return err
			}
			if res.HasErrors() {
				return fmt.Errorf("%s has %d issues", args[0], len(res.Issues))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTree, "tree", false, "show the parse tree")
	return cmd
}

// --- export ----------------------------------------------------------------

func (a *app) exportCmd() *cobra.Command {
	var output string
	var binary, store, repoIDs bool
	cmd := &cobra.Command{
		Use:   "export <file.todo|->",
		Short: "Transform a todo source and export it as a graph chunk",
		Long: `Transform a todo source and export it as a graph chunk.

Examples:
  arbor export errands.todo -o errands.json
  arbor export errands.todo --binary -o errands.bin
  arbor export errands.todo --repo-ids --store
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.load(args[0])
			if err != nil {
				return err
			}
			showIssues(res.Issues)
			var opts []convert.Option
			if repoIDs {
				opts = append(opts, convert.WithIDProvider(
					ids.AssignFromSource(cmd.Context(), a.client(), idBatchSize)))
			}
			g, err := a.converter(opts...).Export(res.AST)
			if err != nil {
				return err
			}
			var data []byte
			if binary {
				if data, err = graph.EncodeBinary(g); err != nil {
					return err
				}
			} else {
				var buf bytes.Buffer
				if err = graph.EncodeJSON(&buf, g); err != nil {
					return err
				}
				data = buf.Bytes()
			}
			if store {
				chunk := data
				if binary {
					var buf bytes.Buffer
					if err = graph.EncodeJSON(&buf, g); err != nil {
						return err
					}
					chunk = buf.Bytes()
				}
				if err = a.client().StoreChunk(cmd.Context(), g.ID, chunk); err != nil {
					return err
				}
				pterm.Info.Println(fmt.Sprintf("stored chunk %s", g.ID))
				if output == "" {
					return nil
				}
			}
			if err = writeOutput(output, data); err != nil {
				return err
			}
			if output != "" && output != "-" {
				pterm.Info.Println(fmt.Sprintf("exported %d nodes (%s) to %s",
					len(graph.ThisAndDescendants(g)), humanize.Bytes(uint64(len(data))), output))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, default is stdout")
	cmd.Flags().BoolVar(&binary, "binary", false, "use the compressed binary format")
	cmd.Flags().BoolVar(&store, "store", false, "store the chunk in the repository")
	cmd.Flags().BoolVar(&repoIDs, "repo-ids", false, "take node IDs from the repository")
	return cmd
}

// --- import ----------------------------------------------------------------

func (a *app) importCmd() *cobra.Command {
	var chunk string
	var binary, resolve bool
	cmd := &cobra.Command{
		Use:   "import [<file.json|->]",
		Short: "Import a graph chunk and show the resulting ASTs",
		Long: `Import a graph chunk, from a file or from the repository, and show the
resulting ASTs.

Examples:
  arbor import errands.json
  arbor import --binary errands.bin
  arbor import --chunk errands --resolve
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var opts []convert.Option
			if resolve {
				r := a.client().NodeResolver(ctx, a.languages(), convert.FromConfig(a.conf))
				opts = append(opts, convert.WithResolver(r))
			}
			conv := a.converter(opts...)
			if chunk != "" {
				root, err := a.client().RetrieveAST(ctx, conv, chunk)
				if err != nil {
					return err
				}
				showAST(root)
				return nil
			}
			if len(args) == 0 {
				return errors.New("need a file name or a chunk ID")
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			roots, err := decodeChunk(data, binary)
			if err != nil {
				return err
			}
			for _, r := range roots {
				root, err := conv.Import(r)
				if err != nil {
					return err
				}
				showAST(root)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chunk, "chunk", "", "retrieve chunk with this ID from the repository")
	cmd.Flags().BoolVar(&binary, "binary", false, "input is in the compressed binary format")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "resolve unknown nodes with the repository")
	return cmd
}

// --- validate --------------------------------------------------------------

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.json>...",
		Short: "Validate graph chunks against the chunk schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			failed := 0
			for _, filename := range args {
				if err := validateFile(filename); err != nil {
					pterm.Error.Println(fmt.Sprintf("%s: %v", filename, err))
					failed++
					continue
				}
				pterm.Info.Println(fmt.Sprintf("%s: ok", filename))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d chunks are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func validateFile(filename string) error {
	data, err := readInput(filename)
	if err != nil {
		return err
	}
	roots, err := decodeChunk(data, false)
	if err != nil {
		return err
	}
	var nodes []*graph.Node
	for _, r := range roots {
		nodes = append(nodes, graph.ThisAndDescendants(r)...)
	}
	return graph.CheckContainment(nodes)
}

// --- language --------------------------------------------------------------

func (a *app) languageCmd() *cobra.Command {
	var output, version string
	cmd := &cobra.Command{
		Use:   "language",
		Short: "Print the description of the todo language",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			l := convert.ExportLanguage(todo.Language(), version)
			var buf bytes.Buffer
			if err := graph.EncodeLanguage(&buf, l); err != nil {
				return err
			}
			return writeOutput(output, buf.Bytes())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, default is stdout")
	cmd.Flags().StringVar(&version, "version", "1", "language version")
	return cmd
}

// --- ids -------------------------------------------------------------------

func (a *app) idsCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "ids",
		Short: "Get fresh node IDs from the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fresh, err := a.client().ProvideIDs(cmd.Context(), count)
			if err != nil {
				return err
			}
			for _, id := range fresh {
				fmt.Println(id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of IDs")
	return cmd
}

// --- serve -----------------------------------------------------------------

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a model repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.conf.GetString("serve.addr"), repo.NewServer(repo.FromConfig(a.conf)))
		},
	}
	cmd.Flags().String("serve.addr", ":7070", "address to listen on")
	cmd.Flags().String("repo.id-prefix", "r-", "prefix for IDs handed out")
	return cmd
}

// serve runs an HTTP server until ctx is done.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		pterm.Info.Println(fmt.Sprintf("repository listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	tracer().Infof("shutting down repository")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
