package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"sitenerd/internal/store"
)

// pagesCmd inspects imported page content.
var pagesCmd = &cobra.Command{
	Use:   "pages [slug]",
	Short: "List imported pages, or preview one rendered in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPages,
}

func runPages(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	cs, err := store.Load(s.ctx.ContentStorePath())
	if err != nil {
		return s.fail("pages", err, nil)
	}

	if len(args) == 0 {
		slugs := cs.PageSlugs()
		if len(slugs) == 0 {
			fmt.Println("No pages imported yet.")
			return nil
		}
		for _, slug := range slugs {
			page := cs.Pages[slug]
			fmt.Printf("  /%s  %s\n", slug, page.Title)
		}
		return nil
	}

	page, ok := cs.Pages[args[0]]
	if !ok {
		return fmt.Errorf("no page with slug %q", args[0])
	}

	doc := fmt.Sprintf("# %s\n\n%s\n", page.Title, page.Body)
	rendered, err := glamour.Render(doc, "auto")
	if err != nil {
		// Fall back to the raw markdown rather than failing the preview.
		fmt.Print(doc)
		return nil
	}
	fmt.Print(rendered)
	return nil
}
