// Package main implements the terravc-filter binary: a walker harness
// that replays an object stream through one spatial-filter session.
//
// Input is one object per line, `<situation> <kind> <hex-oid> [path]`,
// in whatever traversal order the producer chose (for example the
// output of a rev-list walk). Included objects are echoed to stdout;
// omitted objects are dropped.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/terravc/terravc/internal/config"
	"github.com/terravc/terravc/internal/filter"
	"github.com/terravc/terravc/internal/logger"
	"github.com/terravc/terravc/pkg/types"
)

const (
	exitFatal  = 1
	exitConfig = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		repoDir    string
		bounds     string
		inputPath  string
		configPath string
	)
	flag.StringVar(&repoDir, "repo", "", "repository metadata directory holding the spatial index")
	flag.StringVar(&bounds, "bounds", "", "filter bounds: <lng_w>,<lat_s>,<lng_e>,<lat_n>")
	flag.StringVar(&inputPath, "input", "-", "object stream file, or - for stdin")
	flag.StringVar(&configPath, "config", "", "optional config file (yaml or json)")
	flag.Parse()

	// A missing .env is fine; explicit environment wins either way.
	_ = godotenv.Load()

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "terravc-filter: %v\n", err)
			return exitConfig
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)

	log := logger.Build(cfg.Log, os.Stderr)

	if repoDir == "" || bounds == "" {
		log.Error().Msg("both -repo and -bounds are required")
		return exitConfig
	}

	in := os.Stdin
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			log.Error().Err(err).Msg("opening object stream")
			return exitConfig
		}
		defer f.Close()
		in = f
	}

	ctx := context.Background()
	session, err := filter.Init(ctx, filter.Params{
		Repo:   filter.DirRepository(repoDir),
		Bounds: bounds,
		Config: cfg,
		Logger: log,
	})
	if err != nil {
		log.Error().Err(err).Msg("session init failed")
		return exitConfig
	}
	defer session.Close()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		situation, obj, path, err := parseRecord(line)
		if err != nil {
			log.Error().Int("line", lineNo).Err(err).Msg("invalid object record")
			return exitFatal
		}

		directive, err := session.Visit(ctx, situation, obj, path, baseName(path))
		if err != nil {
			log.Error().Int("line", lineNo).Err(err).Msg("aborting traversal")
			return exitFatal
		}
		if directive.Show {
			fmt.Printf("%s %s %s\n", obj.Kind, obj.ID.Hex(), path)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("reading object stream")
		return exitFatal
	}

	return 0
}

// parseRecord parses `<situation> <kind> <hex-oid> [path]`.
func parseRecord(line string) (types.Situation, types.Object, string, error) {
	fields := strings.SplitN(line, " ", 4)
	if len(fields) < 3 {
		return 0, types.Object{}, "", fmt.Errorf("expected '<situation> <kind> <hex-oid> [path]', got %q", line)
	}

	situation, err := types.SituationFromString(fields[0])
	if err != nil {
		return 0, types.Object{}, "", err
	}
	kind, err := types.ObjectKindFromString(fields[1])
	if err != nil {
		return 0, types.Object{}, "", err
	}
	id, err := types.ObjectIDFromHex(fields[2])
	if err != nil {
		return 0, types.Object{}, "", err
	}

	path := ""
	if len(fields) == 4 {
		path = fields[3]
	}
	return situation, types.Object{ID: id, Kind: kind}, path, nil
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
