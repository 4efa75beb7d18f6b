package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/youruser/cardgrid/internal/deck"
	"github.com/youruser/cardgrid/internal/storage"
)

var (
	sessionNumber   int
	banlistCSV      string
	banlistPrevious string
)

var banlistCmd = &cobra.Command{
	Use:   "banlist",
	Short: "Manage session banlist images",
}

var banlistRenderCmd = &cobra.Command{
	Use:     "render",
	Short:   "Render a banlist CSV to banlist-images/{session}.png",
	Example: `  cardgrid banlist render --session 12 --csv session12.csv --previous session11.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := deck.LoadBanlistCSV(banlistCSV)
		if err != nil {
			return err
		}
		var previous *deck.Banlist
		if banlistPrevious != "" {
			p, err := deck.LoadBanlistCSV(banlistPrevious)
			if err != nil {
				return err
			}
			previous = &p
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		path, err := svc.BanlistImage(context.Background(), sessionNumber, current, previous)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", color.GreenString("wrote"), path)
		return nil
	},
}

func removeCmd(kind storage.Kind, key *int) *cobra.Command {
	return &cobra.Command{
		Use:   "rm",
		Short: fmt.Sprintf("Delete a %s image (no error if it does not exist)", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			if err := svc.Delete(kind, *key); err != nil {
				return err
			}
			fmt.Printf("%s %s image %d\n", color.YellowString("removed"), kind, *key)
			return nil
		},
	}
}

func existsCmd(kind storage.Kind, key *int) *cobra.Command {
	return &cobra.Command{
		Use:   "exists",
		Short: fmt.Sprintf("Report whether a %s image has been generated", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			ok, err := svc.Exists(kind, *key)
			if err != nil {
				return err
			}
			if ok {
				path, _ := svc.Store().Path(kind, *key)
				fmt.Printf("%s %s\n", color.GreenString("generated"), path)
			} else {
				fmt.Printf("%s %s image %d\n", color.RedString("not generated"), kind, *key)
			}
			return nil
		},
	}
}

func init() {
	banlistRenderCmd.Flags().StringVar(&banlistCSV, "csv", "", "banlist CSV (card_id,status)")
	banlistRenderCmd.Flags().StringVar(&banlistPrevious, "previous", "", "previous session's banlist CSV, for NEW markers")
	_ = banlistRenderCmd.MarkFlagRequired("csv")

	for _, c := range []*cobra.Command{banlistRenderCmd, removeCmd(storage.KindBanlist, &sessionNumber), existsCmd(storage.KindBanlist, &sessionNumber)} {
		c.Flags().IntVar(&sessionNumber, "session", 0, "session number")
		_ = c.MarkFlagRequired("session")
		banlistCmd.AddCommand(c)
	}
	RootCmd.AddCommand(banlistCmd)
}
