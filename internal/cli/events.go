package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listTypes bool

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List generated events, or event types with --types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		ctx := context.Background()

		if listTypes {
			types, err := a.store.ListEventTypes(ctx)
			if err != nil {
				return err
			}
			for _, et := range types {
				last := "never"
				if et.LastUsedAt != nil {
					last = et.LastUsedAt.Format("2006-01-02 15:04")
				}
				fmt.Printf("  %d  %-32s last used: %s\n", et.ID, et.Name, last)
			}
			return nil
		}

		events, err := a.store.ListEvents(ctx)
		if err != nil {
			return err
		}
		active, _ := a.store.ActiveEventID(ctx)
		if len(events) == 0 {
			fmt.Println("No events yet. Run 'infodemic generate'.")
			return nil
		}
		for _, ev := range events {
			marker := " "
			if ev.ID == active {
				marker = "*"
			}
			fmt.Printf("%s #%d %s  [%s] %s\n", marker, ev.ID, ev.CreatedAt.Format("2006-01-02 15:04"), ev.Status, ev.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().BoolVar(&listTypes, "types", false, "list event types instead")
}
