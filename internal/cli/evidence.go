package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ppiankov/infodemic/internal/evidence"
	"github.com/ppiankov/infodemic/internal/model"
	"github.com/spf13/cobra"
)

// evidenceCmd groups the evidence board commands
var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Collect and sort evidence for the active event",
	Long: `Evidence commands operate on the active event.

Select phrases from statements, then assign each selection to the fact
panel it supports. Only assigned selections are sent for scoring.`,
}

var evidenceSelectCmd = &cobra.Command{
	Use:   "select <statement-id> <phrase>",
	Short: "Select a phrase from a statement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		statementID, err := parseID("statement id", args[0])
		if err != nil {
			return err
		}
		return withSession(func(ctx context.Context, a *app) error {
			sel, err := a.session.Select(ctx, statementID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Selection #%d: %q\n", sel.ID, sel.Phrase)
			return nil
		})
	},
}

var evidenceDeselectCmd = &cobra.Command{
	Use:   "deselect <statement-id> <phrase>",
	Short: "Remove a phrase selection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		statementID, err := parseID("statement id", args[0])
		if err != nil {
			return err
		}
		return withSession(func(ctx context.Context, a *app) error {
			removed, err := a.session.Deselect(ctx, statementID, args[1])
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(os.Stderr, "✓ Removed %q\n", args[1])
			} else {
				fmt.Fprintf(os.Stderr, "Nothing to remove\n")
			}
			return nil
		})
	},
}

var evidenceAssignCmd = &cobra.Command{
	Use:   "assign <selection-id> <panel-id>",
	Short: "Place a selection into a fact panel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		selectionID, err := parseID("selection id", args[0])
		if err != nil {
			return err
		}
		panelID, err := parseID("panel id", args[1])
		if err != nil {
			return err
		}
		return withSession(func(ctx context.Context, a *app) error {
			_, err := a.session.AssignToPanel(ctx, selectionID, panelID)
			var full *evidence.PanelFullError
			if errors.As(err, &full) {
				fmt.Fprintf(os.Stderr, "✗ Panel %d already holds %d selections\n", full.PanelID, full.Capacity)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Selection #%d assigned to panel %d\n", selectionID, panelID)
			return nil
		})
	},
}

var evidenceUnassignCmd = &cobra.Command{
	Use:   "unassign <selection-id>",
	Short: "Move a selection back to the unsorted pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selectionID, err := parseID("selection id", args[0])
		if err != nil {
			return err
		}
		return withSession(func(ctx context.Context, a *app) error {
			if _, err := a.session.Unassign(ctx, selectionID); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Selection #%d unassigned\n", selectionID)
			return nil
		})
	},
}

var evidenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active event's statements and selections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, a *app) error {
			ev, err := a.session.ActiveEvent(ctx)
			if err != nil {
				return err
			}
			statements, err := a.session.Statements(ctx)
			if err != nil {
				return err
			}
			printEvent(ev, statements)

			selections, err := a.session.Selections(ctx)
			if err != nil {
				return err
			}
			if len(selections) == 0 {
				fmt.Println("No selections yet.")
				return nil
			}
			fmt.Println("Selections:")
			for _, sel := range selections {
				fmt.Printf("  #%d from statement #%d: %q %s\n", sel.ID, sel.StatementID, sel.Phrase, placement(sel))
			}
			return nil
		})
	},
}

var evidencePanelsCmd = &cobra.Command{
	Use:   "panels",
	Short: "List the fact panels of the active event",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, a *app) error {
			panels, err := a.session.Panels(ctx)
			if err != nil {
				return err
			}
			selections, err := a.session.Selections(ctx)
			if err != nil {
				return err
			}
			counts := make(map[int64]int)
			for _, sel := range selections {
				if sel.PanelID != nil {
					counts[*sel.PanelID]++
				}
			}
			for _, p := range panels {
				fmt.Printf("  Panel %d: %s (%d/%d)\n", p.ID, p.Label, counts[p.ID], a.cfg.Evidence.PanelCapacity)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceSelectCmd)
	evidenceCmd.AddCommand(evidenceDeselectCmd)
	evidenceCmd.AddCommand(evidenceAssignCmd)
	evidenceCmd.AddCommand(evidenceUnassignCmd)
	evidenceCmd.AddCommand(evidenceListCmd)
	evidenceCmd.AddCommand(evidencePanelsCmd)
}

// withSession runs fn against a session without a generation provider
func withSession(fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(context.Background(), a)
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func placement(sel model.EvidenceSelection) string {
	if sel.PanelID == nil {
		return "(unsorted)"
	}
	return fmt.Sprintf("→ panel %d", *sel.PanelID)
}
