package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-configform/pkg/events"
	"github.com/goliatone/go-configform/pkg/metadata"
	"github.com/goliatone/go-configform/pkg/renderers/tui"
	"github.com/goliatone/go-configform/pkg/session"
	"github.com/goliatone/go-configform/pkg/store"
)

func main() {
	settingsPath := flag.String("settings", defaultSettingsPath(), "settings JSON file (seeded from defaults when missing)")
	metadataDir := flag.String("metadata", "", "directory of extra form metadata documents (JSON or YAML)")
	roots := flag.String("roots", strings.Join(metadata.DefaultRoots, ","), "comma separated top-level settings keys")
	printOnly := flag.Bool("print", false, "print the current settings and exit")
	dumpSchema := flag.Bool("schema", false, "print the settings schema as JSON and exit")
	importPath := flag.String("import", "", "replace the settings with the given JSON file and exit")
	watch := flag.Bool("watch", false, "print the settings and reprint them whenever the file changes on disk")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	catalog, err := loadCatalog(*metadataDir)
	if err != nil {
		log.Fatalf("Failed to load form metadata: %v", err)
	}

	bus := events.NewBus()
	defer bus.Close()

	file := store.NewFile(*settingsPath,
		store.WithCatalog(catalog),
		store.WithRoots(splitRoots(*roots)...),
		store.WithDefaults(metadata.DefaultSettings()),
		store.WithBus(bus),
	)

	if *importPath != "" {
		data, err := os.ReadFile(*importPath)
		if err != nil {
			log.Fatalf("Failed to read import: %v", err)
		}
		if err := file.Import(data); err != nil {
			log.Fatalf("Failed to import settings: %v", err)
		}
		fmt.Printf("Settings imported into %s\n", file.Path())
		return
	}

	if *dumpSchema {
		resp, err := file.FetchSchema(ctx)
		if err != nil {
			log.Fatalf("Failed to build schema: %v", err)
		}
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode schema: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	var renderer *tui.Renderer
	var sess *session.Session
	sess, err = session.Open(ctx, file,
		session.WithSink(file),
		session.WithBus(bus),
		session.WithReloadHook(func(err error) {
			if err != nil {
				log.Printf("Failed to reload settings: %v", err)
				return
			}
			if *watch && renderer != nil {
				fmt.Println()
				if err := renderer.Print(ctx, sess); err != nil {
					log.Printf("Failed to print settings: %v", err)
				}
			}
		}),
	)
	if err != nil {
		log.Fatalf("Failed to open settings: %v", err)
	}
	defer sess.Close()

	renderer, err = tui.New(tui.WithTheme(tui.Theme{ErrorPrefix: "! "}))
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}

	if *printOnly || *watch {
		if err := renderer.Print(ctx, sess); err != nil {
			log.Fatalf("Failed to print settings: %v", err)
		}
	}
	if *printOnly {
		return
	}
	if *watch {
		watcher, err := file.Watch(store.WithWatchErrors(func(err error) {
			log.Printf("Watch error: %v", err)
		}))
		if err != nil {
			log.Fatalf("Failed to watch settings: %v", err)
		}
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Failed to watch settings: %v", err)
		}
		return
	}

	if err := renderer.Edit(ctx, sess); err != nil {
		if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
			fmt.Println("Aborted, nothing saved.")
			return
		}
		log.Fatalf("Failed to edit settings: %v", err)
	}
	fmt.Printf("Settings written to %s\n", file.Path())
}

func loadCatalog(dir string) (*metadata.Catalog, error) {
	catalog, err := metadata.Defaults()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return catalog, nil
	}
	extra, err := metadata.LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	catalog.Overlay(extra)
	return catalog, nil
}

func splitRoots(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(dir, "configform", "config.json")
}
