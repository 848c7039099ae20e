package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/switchsage/resolution-engine/internal/catalog"
	"github.com/switchsage/resolution-engine/internal/embedding"
	"github.com/switchsage/resolution-engine/internal/llm"
	"github.com/switchsage/resolution-engine/internal/resolution"
)

// buildService assembles the resolution service from the loaded config. The
// returned cleanup closes the catalog connection when one was opened.
func buildService() (*resolution.Service, catalog.Store, func(), error) {
	cleanup := func() {}

	var store catalog.Store
	if cfg.Database.Driver == "postgres" {
		pgStore, db, err := catalog.OpenPostgres(catalog.PostgresConfig{
			DSN:             cfg.Database.Postgres.DSN,
			MaxOpenConns:    cfg.Database.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Database.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("open catalog: %w", err)
		}
		store = pgStore
		cleanup = func() { db.Close() }
	} else if cfg.Database.FixturePath != "" {
		seeded, err := catalog.NewMemoryStoreFromFixture(cfg.Database.FixturePath)
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("seed catalog: %w", err)
		}
		store = seeded
	} else {
		store = catalog.NewMemoryStore()
	}

	var embedder embedding.Embedder
	if cfg.Embedding.APIKey != "" {
		client, err := embedding.NewClient(embedding.Config{
			APIKey:    cfg.Embedding.APIKey,
			BaseURL:   cfg.Embedding.BaseURL,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			Timeout:   cfg.Embedding.Timeout,
		})
		if err != nil {
			return nil, nil, cleanup, err
		}
		embedder = client
	}

	var generator llm.Generator
	if cfg.Generation.APIKey != "" {
		client, err := llm.NewClient(llm.Config{
			APIKey:     cfg.Generation.APIKey,
			BaseURL:    cfg.Generation.BaseURL,
			Model:      cfg.Generation.Model,
			Timeout:    cfg.Generation.Timeout,
			MaxRetries: cfg.Generation.MaxRetries,
		})
		if err != nil {
			return nil, nil, cleanup, err
		}
		generator = client
	}

	service := resolution.NewService(logger, store, embedder, generator, nil, resolution.ServiceOptions{
		Thresholds: resolution.Thresholds{
			Exact:          cfg.Resolution.ExactThreshold,
			Fuzzy:          cfg.Resolution.FuzzyThreshold,
			Embedding:      cfg.Resolution.EmbeddingThreshold,
			Disambiguation: cfg.Resolution.DisambiguationThreshold,
		},
		EnableBrandCompletion:  cfg.Resolution.EnableBrandCompletion,
		EnableAIDisambiguation: cfg.Resolution.EnableAIDisambiguation,
		MaxWorkers:             cfg.Resolution.MaxWorkers,
		FragmentTimeout:        cfg.Resolution.FragmentTimeout,
		BreakerCooldown:        cfg.Resolution.BreakerCooldown,
	})

	return service, store, cleanup, nil
}

func newResolveCmd() *cobra.Command {
	var brand string

	cmd := &cobra.Command{
		Use:   "resolve <fragment> [fragment...]",
		Short: "Resolve free-text switch references to canonical names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _, cleanup, err := buildService()
			if err != nil {
				return err
			}
			defer cleanup()

			queries := make([]resolution.ResolutionQuery, len(args))
			for i, fragment := range args {
				queries[i] = resolution.ResolutionQuery{
					QueryFragment: fragment,
					ImplicitBrand: brand,
				}
			}

			result, err := service.ResolveSwitches(cmd.Context(), queries, nil)
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(result)
			}

			for _, r := range result.ResolvedSwitches {
				marker := " "
				if !r.DatabaseMatch {
					marker = "?"
				}
				fmt.Printf("%s %-30s -> %-30s %.2f (%s)\n",
					marker, r.QueryFragment, r.ResolvedName, r.Confidence, r.MatchMethod)
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "implicit brand context for bare fragments (e.g. \"Cherry MX\")")
	return cmd
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <name> [name...]",
		Short: "Fetch full specifications with completeness annotations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _, cleanup, err := buildService()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, err := service.FetchSwitchSpecifications(cmd.Context(), args)
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(ctx)
			}

			fmt.Printf("Found %d of %d requested (completeness %.2f)\n",
				ctx.TotalFound, ctx.TotalRequested, ctx.DataQuality.OverallCompleteness)
			for _, r := range ctx.Results {
				if !r.Found {
					fmt.Printf("  %-30s not found\n", r.RequestedName)
					continue
				}
				missing := ""
				if r.Completeness != nil && len(r.Completeness.MissingFields) > 0 {
					missing = " missing: " + strings.Join(r.Completeness.MissingFields, ", ")
				}
				fmt.Printf("  %-30s %s%s\n", r.RequestedName, r.Record.Name, missing)
			}
			if ctx.DataQuality.RecommendLLMFallback {
				fmt.Println("Catalog data is thin for this request; downstream generation should lean on general knowledge.")
			}
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	var (
		manufacturer string
		switchType   string
		minForce     string
		maxForce     string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog by characteristics",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, cleanup, err := buildService()
			if err != nil {
				return err
			}
			defer cleanup()

			filter := catalog.Filter{
				Manufacturer: manufacturer,
				Type:         catalog.SwitchType(switchType),
				Limit:        limit,
			}
			filter.ActuationForceG = parseRange(minForce, maxForce)

			records, err := store.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(records)
			}

			for _, rec := range records {
				maker := "?"
				if rec.Manufacturer != nil {
					maker = *rec.Manufacturer
				}
				swType := "?"
				if rec.Type != nil {
					swType = string(*rec.Type)
				}
				fmt.Printf("%-30s %-12s %s\n", rec.Name, maker, swType)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manufacturer, "manufacturer", "", "filter by manufacturer")
	cmd.Flags().StringVar(&switchType, "type", "", "filter by type (linear, tactile, clicky)")
	cmd.Flags().StringVar(&minForce, "min-force", "", "minimum actuation force in grams")
	cmd.Flags().StringVar(&maxForce, "max-force", "", "maximum actuation force in grams")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum results")
	return cmd
}

func newNamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List every catalog switch name",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, cleanup, err := buildService()
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := store.ListNames(cmd.Context())
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(names)
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func parseRange(minStr, maxStr string) *catalog.FloatRange {
	var r catalog.FloatRange
	if v, err := strconv.ParseFloat(minStr, 64); err == nil {
		r.Min = &v
	}
	if v, err := strconv.ParseFloat(maxStr, 64); err == nil {
		r.Max = &v
	}
	if r.Min == nil && r.Max == nil {
		return nil
	}
	return &r
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
