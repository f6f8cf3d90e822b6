package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/infodemic/internal/catalog"
	"github.com/spf13/cobra"
)

var catalogFile string

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the actor and event type catalog into the database",
	Long: `Seed creates the database if needed and upserts the catalog of tags,
biases, organizations, characters, event types and outlets.

Seeding again is safe: catalog fields are refreshed, while cooldowns and
outlet readers/credibility are kept.

Example:
  infodemic seed
  infodemic seed --catalog ./my-catalog.yaml`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&catalogFile, "catalog", "", "catalog YAML file (default: built-in catalog)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var cat *catalog.Catalog
	if catalogFile != "" {
		cat, err = catalog.Load(catalogFile)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return err
	}

	if err := a.store.SeedCatalog(context.Background(), cat); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Seeding failed\n")
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Seeded %s\n", a.cfg.Store.Path)
	fmt.Fprintf(os.Stderr, "  Organizations: %d\n", len(cat.Organizations))
	fmt.Fprintf(os.Stderr, "  Characters:    %d\n", len(cat.Characters))
	fmt.Fprintf(os.Stderr, "  Event types:   %d\n", len(cat.EventTypes))
	fmt.Fprintf(os.Stderr, "  Outlets:       %d\n", len(cat.Outlets))
	return nil
}
