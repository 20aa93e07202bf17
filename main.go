package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cratescan/config"
	"cratescan/library"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: cratescan <command> [args]

commands:
  scan <dir>      build a catalog from a music directory
  dupes           find duplicate sets in the catalog
  resolve         resolve duplicate sets and write the merged catalog
  missing         list catalog tracks whose files are gone
  relocate        propose new locations for missing tracks

Configuration is taken from CRATESCAN_* environment variables.
`)
	os.Exit(2)
}

func main() {
	log.SetFlags(log.LstdFlags)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch flag.Arg(0) {
	case "scan":
		if flag.NArg() < 2 {
			usage()
		}
		err = runScan(ctx, cfg, flag.Arg(1))
	case "dupes":
		err = runDupes(ctx, cfg)
	case "resolve":
		err = runResolve(ctx, cfg)
	case "missing":
		err = runMissing(ctx, cfg)
	case "relocate":
		err = runRelocate(ctx, cfg)
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func runScan(ctx context.Context, cfg *config.Config, dir string) error {
	tracks, err := library.BuildCatalog(ctx, dir)
	if err != nil {
		return err
	}
	if err := library.SaveCatalog(cfg.CatalogPath, tracks); err != nil {
		return err
	}
	log.Printf("cataloged %d tracks into %s", len(tracks), cfg.CatalogPath)
	return nil
}

func findDuplicates(ctx context.Context, cfg *config.Config, tracks []library.Track) ([]library.DuplicateSet, *library.Fingerprinter, error) {
	fp := library.NewFingerprinter()
	if cfg.PersistFingerprints {
		if n, err := fp.LoadCache(cfg.CatalogPath); err != nil {
			log.Printf("fingerprint cache: %v", err)
		} else if n > 0 {
			log.Printf("fingerprint cache: %d entries loaded", n)
		}
	}
	sets, err := fp.FindDuplicates(ctx, tracks, library.DefaultDuplicateOptions())
	return sets, fp, err
}

func runDupes(ctx context.Context, cfg *config.Config) error {
	tracks, err := library.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	sets, fp, err := findDuplicates(ctx, cfg, tracks)
	if err != nil {
		return err
	}
	if cfg.PersistFingerprints {
		if err := fp.SaveCache(cfg.CatalogPath); err != nil {
			log.Printf("fingerprint cache: %v", err)
		}
	}

	if len(sets) == 0 {
		fmt.Println("no duplicates found")
		return nil
	}
	for _, set := range sets {
		fmt.Printf("%s set (confidence %d):\n", set.MatchType, set.Confidence)
		for _, t := range set.Tracks {
			fmt.Printf("  %s - %s  %s\n", t.Artist, t.Name, t.Location)
		}
	}
	fmt.Printf("%d duplicate sets\n", len(sets))
	return nil
}

func runResolve(ctx context.Context, cfg *config.Config) error {
	tracks, err := library.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	sets, _, err := findDuplicates(ctx, cfg, tracks)
	if err != nil {
		return err
	}

	resolved, err := library.Resolve(sets, library.Strategy(cfg.Strategy), cfg.PreferredPaths, nil)
	if err != nil {
		return err
	}

	// Drop losing members, replace winners with their merged copies.
	losers := make(map[string]bool)
	for _, set := range sets {
		winnerFound := false
		for _, t := range set.Tracks {
			if _, ok := resolved[t.ID]; ok {
				winnerFound = true
				break
			}
		}
		if !winnerFound {
			continue // manual strategy with no selection
		}
		for _, t := range set.Tracks {
			if _, ok := resolved[t.ID]; !ok {
				losers[t.ID] = true
			}
		}
	}

	var out []library.Track
	for _, t := range tracks {
		if losers[t.ID] {
			continue
		}
		if merged, ok := resolved[t.ID]; ok {
			out = append(out, merged)
			continue
		}
		out = append(out, t)
	}

	if err := library.SaveCatalog(cfg.CatalogPath, out); err != nil {
		return err
	}
	log.Printf("resolved %d sets, removed %d tracks", len(resolved), len(losers))
	return nil
}

func runMissing(ctx context.Context, cfg *config.Config) error {
	tracks, err := library.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	missing := library.ScanMissing(ctx, tracks)
	for _, t := range missing {
		fmt.Printf("%s - %s  %s\n", t.Artist, t.Name, t.Location)
	}
	fmt.Printf("%d of %d tracks missing\n", len(missing), len(tracks))
	return nil
}

func runRelocate(ctx context.Context, cfg *config.Config) error {
	tracks, err := library.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	opts := library.RelocationOptions{
		SearchPaths:           cfg.SearchPaths,
		SearchDepth:           cfg.SearchDepth,
		MatchThreshold:        cfg.MatchThreshold,
		IncludeSubdirectories: cfg.IncludeSubdirectories,
	}

	missing := library.ScanMissing(ctx, tracks)
	for _, t := range missing {
		candidates, err := library.FindCandidates(ctx, t, opts)
		if err != nil {
			return err
		}
		fmt.Printf("%s - %s  (%s)\n", t.Artist, t.Name, t.Location)
		if len(candidates) == 0 {
			fmt.Println("  no candidates")
			continue
		}
		for _, c := range candidates {
			fmt.Printf("  [%3d %s conf %.2f] %s\n", c.Score, c.MatchType, c.Confidence, c.Path)
		}
	}
	return nil
}
