package importer

import (
	"fmt"

	"sitenerd/internal/spreadsheet"
)

var productColumns = []spreadsheet.TemplateColumn{
	{Header: "title", Required: true, Example: "Desk Lamp", Note: "display name"},
	{Header: "slug", Required: true, Example: "desk-lamp", Note: "lowercase letters, digits, hyphens, underscores, slashes; matched against image filenames"},
	{Header: "price", Required: true, Example: "49.99", Note: "number; currency symbols and thousands separators are stripped"},
	{Header: "description", Example: "A warm, adjustable desk lamp.", Note: "optional long text"},
	{Header: "sku", Example: "DL-001", Note: "optional stock keeping unit"},
	{Header: "category", Example: "lighting", Note: "optional grouping"},
	{Header: "tags", Example: "lighting, handmade", Note: "optional comma separated tags"},
	{Header: "image_main", Example: "", Note: "optional: a filename in content/images, or an http(s) URL; leave blank to match by slug"},
	{Header: "image_extra", Example: "", Note: "optional comma separated filenames for the gallery"},
	{Header: "image_alt_text", Example: "A lit desk lamp on a wooden desk", Note: "optional alt text for the main image"},
}

var pageColumns = []spreadsheet.TemplateColumn{
	{Header: "slug", Required: true, Example: "about", Note: "lowercase page identifier; becomes the page path"},
	{Header: "title", Required: true, Example: "About Us", Note: "page heading"},
	{Header: "hero_headline", Example: "Lamps made by hand", Note: "optional hero headline"},
	{Header: "hero_subtitle", Example: "Since 2019", Note: "optional hero subtitle"},
	{Header: "body_markdown", Example: "We make lamps by hand.", Note: "optional markdown body"},
	{Header: "hero_image", Example: "", Note: "optional: a filename in content/images, or an http(s) URL"},
}

var templateInstructions = []string{
	"Fill one row per item on the first sheet, then import the file.",
	"Columns marked * are required. The example row may be edited or deleted.",
	"Image columns can stay blank: files in content/images whose names start with the slug are matched automatically.",
	"Add slug_1, slug_2, ... files for extra gallery images.",
}

// WriteTemplate writes the starter xlsx for a collection.
func WriteTemplate(c Collection, path string) error {
	switch c {
	case CollectionProducts:
		return spreadsheet.WriteTemplate(path, "Products", productColumns, templateInstructions)
	case CollectionPages:
		return spreadsheet.WriteTemplate(path, "Pages", pageColumns, templateInstructions)
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
}
