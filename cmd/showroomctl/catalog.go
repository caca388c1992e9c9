package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/common/database"
	"showroom-workers/internal/models"
)

func newCatalogCmd() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and seed the car catalog",
	}

	var criteria catalog.Criteria
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog cars, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(cmd.OutOrStdout(), catalog.Default(), criteria)
		},
	}
	listCmd.Flags().StringVarP(&criteria.Keywords, "keywords", "k", "", "Match name, engine or transmission")
	listCmd.Flags().IntVar(&criteria.MinSeats, "min-seats", 0, "Minimum seating capacity")
	listCmd.Flags().Float64Var(&criteria.MaxPrice, "max-price", 0, "Maximum price in dollars")
	listCmd.Flags().IntVar(&criteria.Size, "size", 100, "Page size")
	listCmd.Flags().IntVar(&criteria.From, "from", 0, "Page offset")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Index the catalog into Elasticsearch when the index is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := es.Ping(ctx); err != nil {
				return err
			}
			n, err := catalog.Seed(ctx, es.Client, cfg.Catalog.Index, catalog.Default().All())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d cars into %q\n", n, cfg.Catalog.Index)
			return nil
		},
	}

	catalogCmd.AddCommand(listCmd, seedCmd)
	return catalogCmd
}

type catalogPage struct {
	Cars  []models.Car `json:"cars"`
	Total int          `json:"total"`
}

func runCatalogList(out io.Writer, cat *catalog.Catalog, criteria catalog.Criteria) error {
	cars, total := cat.Filter(criteria)
	if jsonOutput {
		return printJSON(out, catalogPage{Cars: cars, Total: total})
	}

	t := newTable("ID", "NAME", "ENGINE", "SEATS", "PRICE")
	for _, car := range cars {
		t.Row(string(car.ID), car.Name, car.Engine, car.SeatingCapacity, car.Price)
	}

	fmt.Fprintln(out, t.String())
	fmt.Fprintf(out, "%d of %d cars\n", len(cars), total)
	return nil
}
