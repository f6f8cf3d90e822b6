package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/infodemic/internal/generate"
	"github.com/ppiankov/infodemic/internal/score"
	"github.com/spf13/cobra"
)

var scoreTimeout time.Duration

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Submit the active event's evidence and publish the article",
	Long: `Score sends the ground truth, the statements and the evidence sorted
into fact panels to the generator, which writes the article and grades its
veracity from 1 to 10. The outlet's credibility and readers are updated.

An event can be scored once.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().DurationVar(&scoreTimeout, "timeout", 5*time.Minute, "overall timeout including retries")
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), scoreTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "⚙️  Grading story...\n")
	submitted := <-a.session.StartSubmit(ctx)
	if submitted.Err != nil {
		var failed *generate.GenerationFailedError
		if errors.As(submitted.Err, &failed) {
			fmt.Fprintf(os.Stderr, "✗ Scoring failed after %d attempts\n", failed.Attempts)
		}
		return submitted.Err
	}
	out := submitted.Outcome

	fmt.Fprintf(os.Stderr, "✓ Article #%d published\n", out.Article.ID)
	fmt.Println()
	fmt.Printf("═══ %s ═══\n", out.Article.Title)
	fmt.Println(out.Article.Content)
	fmt.Println()
	fmt.Printf("Veracity:    %.1f/10 (%s)\n", out.Article.VeracityScore, score.Rating(out.Article.VeracityScore))
	fmt.Printf("Verdict:     %s\n", out.Article.Verdict)
	fmt.Printf("Credibility: %.2f → %.2f\n", out.Before.Credibility, out.Media.Credibility)
	fmt.Printf("Readers:     %d → %d (+%d)\n", out.Before.Readers, out.Media.Readers, out.Media.Readers-out.Before.Readers)
	fmt.Println()
	return nil
}
