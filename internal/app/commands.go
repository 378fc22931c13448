package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"quizbuilder/internal/service"
)

var docFlag = &cli.StringFlag{
	Name:    "doc",
	Aliases: []string{"d"},
	Usage:   "document `ID` to work on (default: most recently edited)",
}

// Commands returns the subcommands of the program.
func Commands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "new",
			Usage:     "Creates a new quiz document",
			ArgsUsage: "[NAME]",
			Action:    runNew,
		},
		{
			Name:   "list",
			Usage:  "Lists stored documents, most recently edited first",
			Action: runList,
		},
		{
			Name:      "rename",
			Usage:     "Renames a document",
			ArgsUsage: "ID NAME",
			Action:    runRename,
		},
		{
			Name:      "duplicate",
			Usage:     "Stores a copy of a document under a new id",
			ArgsUsage: "ID [NAME]",
			Action:    runDuplicate,
		},
		{
			Name:      "delete",
			Usage:     "Deletes a document",
			ArgsUsage: "ID",
			Action:    runDelete,
		},
		{
			Name:      "import",
			Usage:     "Stores a document from a JSON file such as a backup",
			ArgsUsage: "FILE",
			Action:    runImport,
		},
		{
			Name:   "export",
			Usage:  "Writes the markup and stylesheet of every screen to the code view directory",
			Flags:  []cli.Flag{docFlag},
			Action: runExport,
		},
		{
			Name:      "apply",
			Usage:     "Applies an edited screen markup (and stylesheet) to a document as one undo step",
			ArgsUsage: "MARKUP [STYLESHEET]",
			Flags:     []cli.Flag{docFlag},
			Action:    runApply,
		},
		{
			Name:   "history",
			Usage:  "Shows the undo and redo entries of a document",
			Flags:  []cli.Flag{docFlag},
			Action: runHistory,
		},
		{
			Name:   "watch",
			Usage:  "Exports the code view and applies edits to its files until interrupted",
			Flags:  []cli.Flag{docFlag},
			Action: runWatch,
		},
		{
			Name:   "mcp",
			Usage:  "Serves the editing tools over MCP on stdin/stdout",
			Flags:  []cli.Flag{docFlag},
			Action: func(ctx context.Context, cmd *cli.Command) error { return runMCP(ctx, cmd, version) },
		},
		{
			Name:  "backup",
			Usage: "Writes every document as JSON into a timestamped backup directory",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "schedule", Usage: "keep running and back up on the configured schedule"},
			},
			Action: runBackup,
		},
	}
}

// withApp builds the App for one command and shuts it down afterwards.
func withApp(ctx context.Context, fn func(*App) error) (err error) {
	env := EnvFromContext(ctx)
	a, err := New(ctx, env.Cfg, env.Log)
	if err != nil {
		return err
	}
	defer func() {
		if e := a.Shutdown(context.WithoutCancel(ctx)); e != nil {
			err = multierr.Append(err, e)
		}
	}()
	return fn(a)
}

// withDocument is withApp with the --doc document opened.
func withDocument(ctx context.Context, cmd *cli.Command, fn func(*App) error) error {
	return withApp(ctx, func(a *App) error {
		if err := a.OpenDocument(ctx, cmd.String("doc")); err != nil {
			return err
		}
		return fn(a)
	})
}

func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func warnExtraArgs(ctx context.Context, cmd *cli.Command, max int) {
	if cmd.Args().Len() > max {
		EnvFromContext(ctx).Log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[max:]))
	}
}

func runNew(ctx context.Context, cmd *cli.Command) error {
	warnExtraArgs(ctx, cmd, 1)
	name := cmd.Args().Get(0)
	if name == "" {
		name = service.DefaultDocumentName
	}
	return withApp(ctx, func(a *App) error {
		doc := a.Documents.Create(ctx, name)
		if doc == nil {
			return errors.New("unable to create document")
		}
		fmt.Fprintln(out(cmd), doc.ID)
		return nil
	})
}

func runList(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, func(a *App) error {
		tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tLAST EDITED")
		for _, d := range a.Documents.List(ctx) {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.Name, d.LastEdited.Local().Format(time.DateTime))
		}
		return tw.Flush()
	})
}

func runRename(ctx context.Context, cmd *cli.Command) error {
	warnExtraArgs(ctx, cmd, 2)
	id, name := cmd.Args().Get(0), cmd.Args().Get(1)
	if id == "" || name == "" {
		return errors.New("document id and new name are required")
	}
	return withApp(ctx, func(a *App) error {
		if !a.Documents.Rename(ctx, id, name) {
			return fmt.Errorf("unable to rename document %s", id)
		}
		return nil
	})
}

func runDuplicate(ctx context.Context, cmd *cli.Command) error {
	warnExtraArgs(ctx, cmd, 2)
	id := cmd.Args().Get(0)
	if id == "" {
		return errors.New("document id is required")
	}
	return withApp(ctx, func(a *App) error {
		cp := a.Documents.Duplicate(ctx, id, cmd.Args().Get(1))
		if cp == nil {
			return fmt.Errorf("unable to duplicate document %s", id)
		}
		fmt.Fprintln(out(cmd), cp.ID)
		return nil
	})
}

func runDelete(ctx context.Context, cmd *cli.Command) error {
	warnExtraArgs(ctx, cmd, 1)
	id := cmd.Args().Get(0)
	if id == "" {
		return errors.New("document id is required")
	}
	return withApp(ctx, func(a *App) error {
		if !a.Documents.Delete(ctx, id) {
			return fmt.Errorf("unable to delete document %s", id)
		}
		return nil
	})
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	warnExtraArgs(ctx, cmd, 1)
	file := cmd.Args().Get(0)
	if file == "" {
		return errors.New("no input file has been specified")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("unable to read document: %w", err)
	}
	return withApp(ctx, func(a *App) error {
		doc := a.Documents.Import(ctx, data)
		if doc == nil {
			return fmt.Errorf("unable to import %s", file)
		}
		fmt.Fprintln(out(cmd), doc.ID)
		return nil
	})
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	return withDocument(ctx, cmd, func(a *App) error {
		files, err := a.CodeView().Export(ctx)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(out(cmd), f)
		}
		return nil
	})
}

func runApply(ctx context.Context, cmd *cli.Command) error {
	warnExtraArgs(ctx, cmd, 2)
	markupFile := cmd.Args().Get(0)
	if markupFile == "" {
		return errors.New("no markup file has been specified")
	}
	markupText, err := os.ReadFile(markupFile)
	if err != nil {
		return fmt.Errorf("unable to read markup: %w", err)
	}
	var stylesheet []byte
	if f := cmd.Args().Get(1); f != "" {
		if stylesheet, err = os.ReadFile(f); err != nil {
			return fmt.Errorf("unable to read stylesheet: %w", err)
		}
	}
	return withDocument(ctx, cmd, func(a *App) error {
		n := a.Engine.ApplyMarkup(ctx, string(markupText), string(stylesheet))
		fmt.Fprintf(out(cmd), "%d element(s) changed\n", n)
		return nil
	})
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	return withDocument(ctx, cmd, func(a *App) error {
		h := a.Engine.History()
		w := out(cmd)
		fmt.Fprintf(w, "state: %s\n", h.State)
		for _, e := range h.Past {
			fmt.Fprintf(w, "  %s  %s\n", e.Timestamp.Local().Format(time.DateTime), e.Description)
		}
		fmt.Fprintf(w, "* %s  %s\n", h.Present.Timestamp.Local().Format(time.DateTime), h.Present.Description)
		for _, e := range h.Future {
			fmt.Fprintf(w, "  %s  %s (undone)\n", e.Timestamp.Local().Format(time.DateTime), e.Description)
		}
		return nil
	})
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	return withDocument(ctx, cmd, func(a *App) error {
		if err := a.StartBackground(ctx); err != nil {
			return err
		}
		return a.Watch(ctx)
	})
}

func runMCP(ctx context.Context, cmd *cli.Command, version string) error {
	return withDocument(ctx, cmd, func(a *App) error {
		if err := a.StartBackground(ctx); err != nil {
			return err
		}
		return a.ServeMCP(version)
	})
}

func runBackup(ctx context.Context, cmd *cli.Command) error {
	env := EnvFromContext(ctx)
	return withApp(ctx, func(a *App) error {
		if !cmd.Bool("schedule") {
			dir, err := a.Backup(ctx)
			if dir != "" {
				fmt.Fprintln(out(cmd), dir)
			}
			return err
		}
		env.Cfg.Backup.Enabled = true
		if err := a.StartBackground(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	})
}
