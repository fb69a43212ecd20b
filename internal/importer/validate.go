package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sitenerd/internal/spreadsheet"
	"sitenerd/internal/store"
)

// Status classifies one row after validation and image resolution.
type Status string

const (
	StatusValid              Status = "valid"
	StatusFuzzyMatch         Status = "fuzzy-match"
	StatusMissingImage       Status = "missing-image"
	StatusMultipleCandidates Status = "multiple-candidates"
	StatusExternalURL        Status = "external-url"
	StatusInvalid            Status = "invalid"
)

// Eligible reports whether a row with this status may be applied. Everything
// but invalid is applied; the other non-valid statuses are warnings.
func (s Status) Eligible() bool {
	return s != StatusInvalid
}

// Collection names a content collection.
type Collection string

const (
	CollectionProducts Collection = "products"
	CollectionPages    Collection = "pages"
)

// Display returns the collection name as shown in reports.
func (c Collection) Display() string {
	switch c {
	case CollectionProducts:
		return "Products"
	case CollectionPages:
		return "Pages"
	default:
		return string(c)
	}
}

// RequiredColumns returns the columns a collection's spreadsheet must carry.
func (c Collection) RequiredColumns() []string {
	switch c {
	case CollectionProducts:
		return []string{"title", "slug", "price"}
	case CollectionPages:
		return []string{"slug", "title"}
	default:
		return nil
	}
}

// ImageColumn returns the collection's main-image column name.
func (c Collection) ImageColumn() string {
	if c == CollectionPages {
		return "hero_image"
	}
	return "image_main"
}

// RowResult is the validated form of one spreadsheet row.
type RowResult struct {
	SourceRow  int        `json:"source_row"`
	Slug       string     `json:"slug"`
	Status     Status     `json:"status"`
	Resolution Resolution `json:"resolution"`
	Messages   []string   `json:"messages,omitempty"`

	// Exactly one of Product/Page is set for eligible rows, matching the
	// file's collection.
	Product *store.Product `json:"product,omitempty"`
	Page    *store.Page    `json:"page,omitempty"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9\-_/]+$`)

// currencyStrip removes currency symbols and separators a user may paste
// into the price column.
var currencyStrip = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// ValidateRow validates one row of a collection and resolves its images.
func ValidateRow(c Collection, row spreadsheet.Row, resolver *Resolver) RowResult {
	slug := row.Get("slug")
	result := RowResult{SourceRow: row.SourceRow, Slug: slug}

	if msg := checkSlug(slug); msg != "" {
		result.Status = StatusInvalid
		result.Messages = append(result.Messages, msg)
		return result
	}

	switch c {
	case CollectionProducts:
		return validateProduct(row, result, resolver)
	case CollectionPages:
		return validatePage(row, result, resolver)
	default:
		result.Status = StatusInvalid
		result.Messages = append(result.Messages, fmt.Sprintf("unknown collection %q", c))
		return result
	}
}

func checkSlug(slug string) string {
	if slug == "" {
		return "slug is required"
	}
	if strings.ToLower(slug) != slug {
		return fmt.Sprintf("slug %q must be lowercase (try %q)", slug, strings.ToLower(slug))
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Sprintf("slug %q may only contain lowercase letters, digits, hyphens, underscores, and slashes", slug)
	}
	return ""
}

func validateProduct(row spreadsheet.Row, result RowResult, resolver *Resolver) RowResult {
	title := row.Get("title")
	if title == "" {
		result.Status = StatusInvalid
		result.Messages = append(result.Messages, "title is required")
		return result
	}

	price, err := parsePrice(row.Get("price"))
	if err != nil {
		result.Status = StatusInvalid
		result.Messages = append(result.Messages, err.Error())
		return result
	}

	res := resolver.Resolve(result.Slug, row.Get(CollectionProducts.ImageColumn()))
	res.Extras = resolver.mergeExplicitExtras(row.Get("image_extra"), res.Extras)
	res.AltText = row.Get("image_alt_text")
	result.Resolution = res
	result.Status = imageStatus(res, true)
	result.Messages = append(result.Messages, imageMessage(res, result.Status)...)

	result.Product = &store.Product{
		Slug:        result.Slug,
		Title:       title,
		Price:       price,
		Description: row.Get("description"),
		SKU:         row.Get("sku"),
		Category:    row.Get("category"),
		Tags:        splitTags(row.Get("tags")),
		Images:      store.Images{Main: res.Main, Extras: res.Extras, AltText: res.AltText},
	}
	return result
}

func validatePage(row spreadsheet.Row, result RowResult, resolver *Resolver) RowResult {
	title := row.Get("title")
	if title == "" {
		result.Status = StatusInvalid
		result.Messages = append(result.Messages, "title is required")
		return result
	}

	res := resolver.Resolve(result.Slug, row.Get(CollectionPages.ImageColumn()))
	result.Resolution = res
	// Pages do not need a hero image, so an unmatched slug is still valid.
	result.Status = imageStatus(res, false)
	result.Messages = append(result.Messages, imageMessage(res, result.Status)...)

	result.Page = &store.Page{
		Slug:         result.Slug,
		Title:        title,
		HeroHeadline: row.Get("hero_headline"),
		HeroSubtitle: row.Get("hero_subtitle"),
		Body:         row.Get("body_markdown"),
		HeroImage:    res.Main,
	}
	return result
}

// splitTags turns a comma separated tags cell into a clean list.
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parsePrice(raw string) (float64, error) {
	cleaned := currencyStrip.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("price is required")
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q is not a number", raw)
	}
	if price < 0 {
		return 0, fmt.Errorf("price %q is negative", raw)
	}
	return price, nil
}

// imageStatus maps a resolution to a row status. imageRequired controls
// whether an unmatched slug is a missing-image warning or simply valid.
func imageStatus(res Resolution, imageRequired bool) Status {
	switch {
	case res.Confidence == ConfidenceExternal:
		return StatusExternalURL
	case res.Main == "":
		if imageRequired {
			return StatusMissingImage
		}
		return StatusValid
	case res.Confidence == ConfidenceFuzzy && len(res.Candidates) > 1:
		return StatusMultipleCandidates
	case res.Confidence == ConfidenceFuzzy:
		return StatusFuzzyMatch
	default:
		return StatusValid
	}
}

func imageMessage(res Resolution, status Status) []string {
	switch status {
	case StatusMissingImage:
		return []string{"no matching image found"}
	case StatusFuzzyMatch:
		return []string{fmt.Sprintf("matched %s by prefix", res.Main)}
	case StatusMultipleCandidates:
		return []string{fmt.Sprintf("%d candidate images match; using %s (add a _main image or name one exactly after the slug to choose)", len(res.Candidates), res.Main)}
	case StatusExternalURL:
		return []string{"image is an external URL and will be referenced, not copied"}
	default:
		return nil
	}
}
