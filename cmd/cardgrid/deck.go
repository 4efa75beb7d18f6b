package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/youruser/cardgrid/internal/deck"
	"github.com/youruser/cardgrid/internal/storage"
)

var (
	deckID      int
	deckYDK     string
	deckBanlist string
)

// deckCmd represents the deck command group
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Manage decklist images",
}

var deckRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a .ydk deck to deck-images/{id}.png",
	Example: `  cardgrid deck render --id 42 --ydk deck.ydk
  cardgrid deck render --id 42 --ydk deck.ydk --banlist current.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(deckYDK)
		if err != nil {
			return err
		}
		defer f.Close()
		d, err := deck.ParseYDK(f)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", deckYDK, err)
		}
		d.ID = deckID

		var banlist *deck.Banlist
		if deckBanlist != "" {
			b, err := deck.LoadBanlistCSV(deckBanlist)
			if err != nil {
				return err
			}
			banlist = &b
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		path, err := svc.DeckImage(context.Background(), deckID, d, banlist)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s (%d main, %d extra, %d side)\n",
			color.GreenString("wrote"), path, len(d.Main), len(d.Extra), len(d.Side))
		return nil
	},
}

func init() {
	deckRenderCmd.Flags().StringVar(&deckYDK, "ydk", "", "deck file in YDK format")
	deckRenderCmd.Flags().StringVar(&deckBanlist, "banlist", "", "banlist CSV (card_id,status) used for badges")
	_ = deckRenderCmd.MarkFlagRequired("ydk")

	for _, c := range []*cobra.Command{deckRenderCmd, removeCmd(storage.KindDeck, &deckID), existsCmd(storage.KindDeck, &deckID)} {
		c.Flags().IntVar(&deckID, "id", 0, "decklist id")
		_ = c.MarkFlagRequired("id")
		deckCmd.AddCommand(c)
	}
	RootCmd.AddCommand(deckCmd)
}
