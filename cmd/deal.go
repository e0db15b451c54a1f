package cmd

import (
	"fmt"

	"github.com/arcanaland/dexmatch/internal/deck"
	"github.com/arcanaland/dexmatch/internal/game"
	"github.com/arcanaland/dexmatch/internal/species"
	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

// dealCmd represents the deal command
var dealCmd = &cobra.Command{
	Use:   "deal",
	Short: "Deal a deck and validate it",
	Long: `Deal samples species from the catalog for the chosen difficulty, fetches their
artwork and prints the shuffled deck together with its validation report.

Examples:
  dexmatch deal
  dexmatch deal --difficulty hard`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveDifficulty(cmd)
		if err != nil {
			return err
		}

		b := openBackend()
		defer b.Close()

		ctx := cmd.Context()
		c, err := b.loadCatalog(ctx)
		if err != nil {
			return err
		}

		builder := deck.NewBuilder(c, b.fetcher,
			deck.WithConcurrency(appConfig.FetchConcurrency),
			deck.WithLogger(logger))
		d, err := builder.Build(ctx, cfg.PairCount)
		if err != nil {
			return fmt.Errorf("dealing %s deck: %w", cfg.Difficulty, err)
		}

		fmt.Printf("Deck (%s, %d pairs):\n", cfg.Difficulty, d.PairCount())
		for i, c := range d {
			image := c.ImageURL
			if image == "" {
				image = colorize.YellowString("(no artwork)")
			}
			fmt.Printf("%3d. %-24s %s\n", i, species.DisplayName(c.PairKey), image)
		}

		results := deck.Validate(d)
		fmt.Println()
		fmt.Println("Validation Results:")
		fmt.Println("-------------------")

		if results.Valid() {
			fmt.Println(colorize.GreenString("✅ Deck is valid: every species appears exactly twice."))
		} else {
			fmt.Printf("❌ Deck has %d validation errors:\n", len(results.Errors))
			for i, err := range results.Errors {
				fmt.Printf("%d. %s\n", i+1, err)
			}
			return fmt.Errorf("validation failed")
		}

		if len(results.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for i, warn := range results.Warnings {
				fmt.Printf("%d. %s\n", i+1, warn)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(dealCmd)
	dealCmd.Flags().StringP("difficulty", "d", "", "Difficulty to deal for (easy, medium, hard); defaults to the configured one")
}

// resolveDifficulty reads --difficulty, falling back to the configured default.
func resolveDifficulty(cmd *cobra.Command) (game.Config, error) {
	name, _ := cmd.Flags().GetString("difficulty")
	if name == "" {
		name = appConfig.Difficulty
	}
	return game.LookupDifficulty(name)
}
