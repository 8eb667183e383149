package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/quillbar/launchcore/internal/config"
	"github.com/quillbar/launchcore/internal/dispatcher"
	"github.com/quillbar/launchcore/internal/fileindex"
	"github.com/quillbar/launchcore/internal/search"
	"github.com/quillbar/launchcore/internal/snippet"
	"github.com/quillbar/launchcore/internal/tui"
)

const (
	defaultDataDir     = ".launchcore"
	defaultConfigFile  = "launchcore.toml"
	defaultSearchLimit = 10
)

func main() {
	log := hclog.New(&hclog.LoggerOptions{Name: "launchcore", Level: hclog.Warn, Output: os.Stderr})

	cfg, err := config.Load(defaultConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "launchcore: loading %s: %v\n", defaultConfigFile, err)
	}

	root := &cobra.Command{
		Use:   "launchcore",
		Short: "Desktop launcher backend: fuzzy search, file index, and action dispatch",
	}

	var dataDir string
	root.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir, "directory holding persisted indexes and stores")

	// openFileIndex opens the File Indexer store, building its Config from
	// the TOML file (or sensible defaults) on every call.
	openFileIndex := func(roots []string) (*fileindex.Indexer, error) {
		fc := fileindex.DefaultConfig(roots...)
		if len(cfg.Index.Extensions) > 0 {
			fc.Extensions = cfg.Index.Extensions
		}
		if cfg.Index.MaxFiles > 0 {
			fc.MaxFiles = cfg.Index.MaxFiles
		}
		if cfg.Index.MaxDepth > 0 {
			fc.MaxDepth = cfg.Index.MaxDepth
		}
		fc.IndexHidden = cfg.Index.IndexHidden

		path := filepath.Join(dataDir, "files.json")
		return fileindex.Open(path, fc, log)
	}

	openEngine := func(fi *fileindex.Indexer) *search.Engine {
		e := search.NewEngine(search.NewIndexer())
		if fi != nil {
			e.SetFileIndexer(fi)
		}
		return e
	}

	openDispatcher := func() (*dispatcher.Dispatcher, error) {
		extDir := cfg.Dispatcher.ExtensionDir
		if extDir == "" {
			extDir = dataDir
		}
		path := filepath.Join(dataDir, "actions.json")
		d, err := dispatcher.Open(path, extDir, log)
		if err != nil {
			return nil, err
		}
		if cfg.Dispatcher.ImportDefaults {
			if err := d.ImportDefaults(); err != nil {
				return nil, err
			}
		}
		return d, nil
	}

	searchLimit := cfg.Search.DefaultLimit
	if searchLimit <= 0 {
		searchLimit = defaultSearchLimit
	}

	// ---- launchcore index <dir> [dir...] -----------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "index <dir> [dir...]",
		Short: "Scan directories into the file index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fi, err := openFileIndex(args)
			if err != nil {
				return err
			}
			fi.Enable()
			fi.RefreshIfNeeded(ctx)
			if err := fi.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Done. %d files indexed.\n", fi.FileCount())
			return nil
		},
	})

	// ---- launchcore watch <dir> [dir...] -----------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "watch <dir> [dir...]",
		Short: "Index directories then watch them for changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fi, err := openFileIndex(args)
			if err != nil {
				return err
			}
			fi.Enable()
			fi.RefreshIfNeeded(ctx)
			if err := fi.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Done. %d files indexed. Watching for changes… (Ctrl+C to stop)\n", fi.FileCount())

			fi.Start()
			<-ctx.Done()
			return fi.Flush()
		},
	})

	// ---- launchcore search <query> ------------------------------------------
	var jsonOut bool
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy-search the in-memory and file indexes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			fi, err := openFileIndex(nil)
			if err != nil {
				return err
			}
			engine := openEngine(fi)

			results, err := engine.Search(query, searchLimit)
			if err != nil {
				return err
			}
			if jsonOut {
				j, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal json: %w", err)
				}
				fmt.Println(string(j))
				return nil
			}
			if len(results) == 0 {
				fmt.Println("no results")
				return nil
			}
			for i, r := range results {
				fmt.Printf("%2d  %4d  %s\n", i+1, r.Score, r.Item.Name)
			}
			return nil
		},
	}
	searchCmd.Flags().BoolVar(&jsonOut, "json", false, "output results as JSON")
	root.AddCommand(searchCmd)

	// ---- launchcore dispatch ... --------------------------------------------
	dispatchCmd := &cobra.Command{
		Use:   "dispatch <query>",
		Short: "Run the action dispatcher against a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			d, err := openDispatcher()
			if err != nil {
				return err
			}
			results := d.Search(query)
			for _, r := range results {
				fmt.Printf("%-24s %.1f  %s\n", r.Title, r.Score, r.Subtitle)
			}
			return nil
		},
	}
	root.AddCommand(dispatchCmd)

	var toggleID string
	dispatchCmd.AddCommand(&cobra.Command{
		Use:   "import-defaults",
		Short: "Import the six canonical QuickLinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDispatcher()
			if err != nil {
				return err
			}
			return d.ImportDefaults()
		},
	})
	dispatchCmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle an action's enabled flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDispatcher()
			if err != nil {
				return err
			}
			toggleID = args[0]
			if !d.Toggle(toggleID) {
				return fmt.Errorf("no action with id %q", toggleID)
			}
			return nil
		},
	})
	dispatchCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every persisted action",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDispatcher()
			if err != nil {
				return err
			}
			for _, a := range d.GetAll() {
				status := "enabled"
				if !a.Enabled {
					status = "disabled"
				}
				fmt.Printf("%-28s %-8s %-13s keyword=%s\n", a.ID, a.Kind, status, a.Keyword)
			}
			return nil
		},
	})

	var quickLinkKeyword, quickLinkURL, quickLinkName string
	addQuickLinkCmd := &cobra.Command{
		Use:   "add-quicklink",
		Short: "Add a new QuickLink action",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDispatcher()
			if err != nil {
				return err
			}
			return d.Add(dispatcher.Action{
				ID:      uuid.NewString(),
				Name:    quickLinkName,
				Enabled: true,
				Kind:    dispatcher.KindQuickLink,
				Keyword: quickLinkKeyword,
				URL:     quickLinkURL,
			})
		},
	}
	addQuickLinkCmd.Flags().StringVar(&quickLinkName, "name", "", "display name")
	addQuickLinkCmd.Flags().StringVar(&quickLinkKeyword, "keyword", "", "trigger keyword")
	addQuickLinkCmd.Flags().StringVar(&quickLinkURL, "url", "", "URL template containing {query}")
	dispatchCmd.AddCommand(addQuickLinkCmd)

	// ---- launchcore snippet --------------------------------------------------
	var snippetTrigger, snippetContent string
	snippetCmd := &cobra.Command{
		Use:   "snippet",
		Short: "Test the snippet matcher against a line of text",
	}
	snippetCmd.AddCommand(&cobra.Command{
		Use:   "match <text>",
		Short: "Find the rightmost snippet trigger match in text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if snippetTrigger == "" || snippetContent == "" {
				return fmt.Errorf("both --trigger and --content are required")
			}
			m := snippet.New()
			if err := m.UpdateSnippets([]snippet.Snippet{
				{ID: "1", Trigger: snippetTrigger, Content: snippetContent, Enabled: true},
			}); err != nil {
				return err
			}
			text := strings.Join(args, " ")
			match, ok := m.FindMatch(text)
			if !ok {
				fmt.Println("no match")
				return nil
			}
			expanded, caret := m.Expand(text, match)
			fmt.Printf("matched %q -> %q (caret at %d)\n", match.Trigger, expanded, caret)
			return nil
		},
	})
	snippetCmd.PersistentFlags().StringVar(&snippetTrigger, "trigger", "", "snippet trigger string")
	snippetCmd.PersistentFlags().StringVar(&snippetContent, "content", "", "snippet expansion content")
	root.AddCommand(snippetCmd)

	// ---- launchcore tui -------------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive search-and-dispatch interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			fi, err := openFileIndex(cfg.Index.Roots)
			if err != nil {
				return err
			}
			fi.Enable()
			fi.Start()

			engine := openEngine(fi)
			d, err := openDispatcher()
			if err != nil {
				return err
			}

			m := tui.New(engine, d, searchLimit)
			p := tea.NewProgram(m, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
