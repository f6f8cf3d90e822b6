package cli

import (
	"context"
	"fmt"

	"github.com/ppiankov/infodemic/internal/score"
	"github.com/spf13/cobra"
)

// outletCmd represents the outlet command
var outletCmd = &cobra.Command{
	Use:   "outlet",
	Short: "Show the outlet's standing and published articles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, a *app) error {
			media, articles, err := a.session.Outlet(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", media.Name)
			fmt.Printf("  Readers:     %d\n", media.Readers)
			fmt.Printf("  Credibility: %.2f/10\n", media.Credibility)
			fmt.Println()
			if len(articles) == 0 {
				fmt.Println("No articles published yet.")
				return nil
			}
			for _, art := range articles {
				fmt.Printf("  #%d %s  [%.1f %s] %s\n",
					art.ID, art.CreatedAt.Format("2006-01-02"), art.VeracityScore, score.Rating(art.VeracityScore), art.Title)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(outletCmd)
}
