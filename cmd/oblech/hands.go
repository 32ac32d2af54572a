package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"

	"github.com/lox/oblech/internal/hands"
)

// HandsCmd prints the catalog grouped by category.
type HandsCmd struct {
	Plain bool `kong:"help='Print one label per line without tables'"`
}

func (c *HandsCmd) Run() error {
	if c.Plain {
		return printPlainCatalog(os.Stdout)
	}

	data := pterm.TableData{{"#", "Hand", "Category", "Cards"}}
	for i, l := range hands.All() {
		data = append(data, []string{
			fmt.Sprint(i + 1),
			string(l),
			hands.Lookup(l).Kind.String(),
			fmt.Sprint(hands.RequiredSize(l)),
		})
	}
	pterm.DefaultSection.Println("Hands, weakest first")
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printPlainCatalog(w io.Writer) error {
	for _, cat := range hands.Categories() {
		if _, err := fmt.Fprintf(w, "# %s\n", cat.Name); err != nil {
			return err
		}
		for _, l := range cat.Hands {
			if _, err := fmt.Fprintln(w, l); err != nil {
				return err
			}
		}
	}
	return nil
}
