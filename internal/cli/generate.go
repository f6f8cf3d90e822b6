package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/infodemic/internal/generate"
	"github.com/ppiankov/infodemic/internal/model"
	"github.com/spf13/cobra"
)

var (
	eventTypeID     int64
	generateTimeout time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new news event and make it active",
	Long: `Generate picks relevant organizations and characters for an event type,
asks the configured generator for a fictional event with a hidden ground
truth and a set of statements, and stores the result as the active event.

Malformed replies and service failures re-run the whole cycle up to
generation.max_attempts times.

Example:
  infodemic generate
  infodemic generate --event-type 1`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Int64Var(&eventTypeID, "event-type", 0, "event type id (default: least recently used)")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 5*time.Minute, "overall timeout including retries")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "⚙️  Generating event...\n")
	round := <-a.session.StartRound(ctx, eventTypeID)
	if round.Err != nil {
		var failed *generate.GenerationFailedError
		if errors.As(round.Err, &failed) {
			fmt.Fprintf(os.Stderr, "✗ Generation failed after %d attempts\n", failed.Attempts)
		}
		return round.Err
	}
	res := round.Result

	fmt.Fprintf(os.Stderr, "✓ Event %d persisted (%d attempt(s))\n", res.Event.ID, res.Attempts)
	if res.Selection.Relaxed {
		fmt.Fprintf(os.Stderr, "  Note: some actors were reused before their cooldown elapsed\n")
	}
	for _, d := range res.Dropped {
		fmt.Fprintf(os.Stderr, "  ✗ Dropped statement from %q: %v\n", d.Tag, d.Err)
	}

	printEvent(res.Event, res.Statements)
	return nil
}

// printEvent writes the player-facing view of an event: no ground truth,
// no truthfulness flags
func printEvent(ev model.Event, statements []model.Statement) {
	fmt.Println()
	fmt.Printf("═══ %s ═══\n", ev.Title)
	fmt.Println(ev.Description)
	if ev.Location != "" {
		fmt.Printf("Location: %s\n", ev.Location)
	}
	fmt.Println()
	for _, st := range statements {
		fmt.Printf("  #%d [%s] %s\n", st.ID, st.Source, st.Content)
	}
	fmt.Println()
}
