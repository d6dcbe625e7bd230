package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jdevelop/fs4search/fsqapi"
	"github.com/jdevelop/fs4search/internal/config"
)

var (
	flagQuery    = flag.String("query", "", "what to search for")
	flagNear     = flag.String("near", "", "geocodable place name, e.g. \"Chicago, IL\"")
	flagLL       = flag.String("ll", "", "latitude,longitude to search around")
	flagLimit    = flag.Int("limit", 0, "number of results, 1-50")
	flagIntent   = flag.String("intent", "", "checkin, browse, global or match")
	flagRadius   = flag.Int("radius", 0, "search radius in meters")
	flagSW       = flag.String("sw", "", "south-west corner lat,lng of a bounding box")
	flagNE       = flag.String("ne", "", "north-east corner lat,lng of a bounding box")
	flagCategory = flag.String("category", "", "comma separated category ids")
	flagUrl      = flag.String("url", "", "venue website to match")
	flagKML      = flag.String("kml", "", "write the results as KML to this file instead of JSON to stdout")
	flagConfig   = flag.String("config", config.DefaultConfigPath, "directory holding the config file")
	flagVerbose  = flag.Bool("v", false, "verbose logging")
)

func buildParams() (*fsqapi.SearchParams, error) {
	p := fsqapi.NewSearchParams()
	if *flagLL != "" {
		ll, err := fsqapi.ParseLatLng(*flagLL)
		if err != nil {
			return nil, err
		}
		p.SetLocation(ll.Lat, ll.Lng)
	}
	if *flagNear != "" {
		if *flagLL != "" {
			return nil, errors.New("-ll and -near are mutually exclusive")
		}
		p.SetLocationName(*flagNear)
	}
	p.SetQuery(*flagQuery)
	if *flagLimit != 0 {
		p.SetLimit(*flagLimit)
	}
	if *flagRadius != 0 {
		p.SetRadius(*flagRadius)
	}
	if *flagIntent != "" {
		p.SetIntent(*flagIntent)
	}
	if *flagSW != "" || *flagNE != "" {
		sw, err := fsqapi.ParseLatLng(*flagSW)
		if err != nil {
			return nil, fmt.Errorf("-sw: %w", err)
		}
		ne, err := fsqapi.ParseLatLng(*flagNE)
		if err != nil {
			return nil, fmt.Errorf("-ne: %w", err)
		}
		p.SetBoundingBox(sw, ne)
	}
	if *flagCategory != "" {
		p.SetCategoryIds(strings.Split(*flagCategory, ",")...)
	}
	p.SetUrl(*flagUrl)
	return p, nil
}

// authorize walks the user through the OAuth code flow on the console and
// stores the resulting token.
func authorize(ctx context.Context, cfg *config.Config) error {
	oauthCfg := cfg.OAuth()
	fmt.Println("Open this URL, grant access and paste the code from the redirect:")
	fmt.Println(fsqapi.PreAuthenticate(oauthCfg))

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return err
	}

	token, err := fsqapi.Authenticate(ctx, oauthCfg, code)
	if err != nil {
		return err
	}
	if err := cfg.SaveToken(token); err != nil {
		slog.Warn("failed to persist token", "error", err)
	}
	return nil
}

func main() {

	flag.Parse()

	level := slog.LevelInfo
	if *flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	params, err := buildParams()
	if err != nil {
		logger.Error("bad arguments", "error", err)
		os.Exit(2)
	}
	logger.Debug("searching", "params", params.ToMap())

	ctx := context.Background()

	if cfg.Authenticator() == nil {
		if cfg.ClientID == "" {
			logger.Error("no credentials configured", "hint", "set client.id and client.secret in "+*flagConfig+"/config.yaml")
			os.Exit(1)
		}
		if err := authorize(ctx, cfg); err != nil {
			logger.Error("authorization failed", "error", err)
			os.Exit(1)
		}
	}

	client := cfg.Client(logger)

	start := time.Now()
	res, err := client.SearchVenues(ctx, params)
	if err != nil {
		var serr *fsqapi.SearchError
		if errors.As(err, &serr) && serr.Kind == fsqapi.InvalidParameters {
			logger.Error("invalid search", "error", err, "hint", "-query needs -ll or -near and vice versa")
			os.Exit(2)
		}
		logger.Error("search failed", "error", err)
		os.Exit(1)
	}
	if res.Err() != nil {
		logger.Warn("response not understood", "error", res.Err())
	}
	logger.Info("search done", "venues", res.Count(), "skipped", len(res.Skipped()), "elapsed", time.Since(start))

	if *flagKML != "" {
		root, idToName, err := fsqapi.ResolveCategories(ctx, client)
		if err != nil {
			logger.Warn("could not fetch categories, grouping by primary category", "error", err)
		}

		w, err := os.Create(*flagKML)
		if err != nil {
			logger.Error("failed to create output", "error", err)
			os.Exit(1)
		}
		defer w.Close()

		if err := fsqapi.BuildKML(res, root, idToName).WriteIndent(w, "", "  "); err != nil {
			logger.Error("failed to write KML", "error", err)
			os.Exit(1)
		}
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Businesses()); err != nil {
		logger.Error("failed to write results", "error", err)
		os.Exit(1)
	}

}
