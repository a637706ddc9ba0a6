package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"acrobot/acronyms"
	"acrobot/config"
	"acrobot/nlp"
	"acrobot/storage"
)

var (
	acronymsFile string
	usePostgres  bool
)

var defineCmd = &cobra.Command{
	Use:   "define [acronym...]",
	Short: "Look acronyms up without connecting to Twitch",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDefine,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Append acronyms from a JSON file to the configured backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var importBackend string

func init() {
	def := os.Getenv("ACROBOT_ACRONYMS_FILE")
	if def == "" {
		def = "acronyms.json"
	}
	defineCmd.Flags().StringVar(&acronymsFile, "file", def, "Acronyms JSON file")
	defineCmd.Flags().BoolVar(&usePostgres, "postgres", false, "Read acronyms from Postgres instead of the file")

	backend := os.Getenv("ACROBOT_ACRONYMS_BACKEND")
	if backend == "" {
		backend = string(config.BackendFile)
	}
	importCmd.Flags().StringVar(&acronymsFile, "file", def, "Acronyms JSON file used by the file backend")
	importCmd.Flags().StringVar(&importBackend, "backend", backend, "Target backend: file or postgres")
}

// acronymWriter — хранилище, в которое можно дописывать акронимы.
type acronymWriter interface {
	Add(ctx context.Context, a acronyms.Acronym) error
}

func runDefine(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var store acronyms.Store
	if usePostgres {
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = storage.NewAcronymStore(pool)
	} else {
		js, err := acronyms.NewJSONStore(acronymsFile)
		if err != nil {
			return err
		}
		store = js
	}

	out := cmd.OutOrStdout()
	for _, token := range nlp.SplitAcronyms(strings.Join(args, " ")) {
		matches, err := store.Lookup(ctx, token)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Fprintf(out, "%s: no match\n", token)
			continue
		}
		for _, a := range matches {
			fmt.Fprintln(out, a.String())
		}
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	src, err := acronyms.NewJSONStore(args[0])
	if err != nil {
		return err
	}
	list, err := src.All(ctx)
	if err != nil {
		return err
	}

	var dst acronymWriter
	switch config.Backend(importBackend) {
	case config.BackendPostgres:
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := storage.Migrate(ctx, pool); err != nil {
			return err
		}
		dst = storage.NewAcronymStore(pool)
	case config.BackendFile:
		if filepath.Clean(acronymsFile) == filepath.Clean(args[0]) {
			return fmt.Errorf("import: %s is already the acronyms file", args[0])
		}
		js, err := acronyms.NewJSONStore(acronymsFile)
		if err != nil {
			return err
		}
		dst = js
	default:
		return fmt.Errorf("unknown backend %q", importBackend)
	}

	for _, a := range list {
		if err := dst.Add(ctx, a); err != nil {
			return fmt.Errorf("%s: %w", a.Name(), err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d acronyms from %s\n", len(list), args[0])
	return nil
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pg, err := config.LoadPostgres()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, pg.DSN())
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	return pool, nil
}
