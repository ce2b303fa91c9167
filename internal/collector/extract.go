package collector

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
)

// Extraction is the outcome of applying a policy to one rendered page.
type Extraction struct {
	Cards   int
	Records listing.Dataset
	// Skipped holds one error per dropped card, in page order.
	Skipped []error
}

// Extract finds every card in page and resolves its fields through the policy.
// A page without cards yields an empty, non-nil dataset.
func Extract(page string, policy listing.Policy) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	cards := doc.Find(policy.CardSelector)
	res := &Extraction{
		Cards:   cards.Length(),
		Records: make(listing.Dataset, 0, cards.Length()),
	}
	cards.Each(func(i int, card *goquery.Selection) {
		rec, err := extractCard(card, policy.Fields)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Errorf("card %d: %w", i, err))
			return
		}
		res.Records = append(res.Records, rec)
	})
	return res, nil
}

func extractCard(card *goquery.Selection, fields []listing.FieldPolicy) (listing.Record, error) {
	var rec listing.Record
	for _, f := range fields {
		value, err := fieldValue(card, f)
		if err != nil {
			return listing.Record{}, err
		}
		switch f.Field {
		case listing.FieldTitle:
			rec.Title = value
		case listing.FieldCompany:
			rec.Company = value
		}
	}
	return rec, nil
}

func fieldValue(card *goquery.Selection, f listing.FieldPolicy) (string, error) {
	el := card.Find(f.Selector).First()
	if el.Length() == 0 {
		if f.OnMissing == listing.DropRecord {
			return "", &listing.MissingFieldError{Field: f.Field, Selector: f.Selector}
		}
		return f.Default, nil
	}
	if f.Attr != "" {
		// a present element without the attribute is an empty value, not a miss
		v, _ := el.Attr(f.Attr)
		return strings.TrimSpace(v), nil
	}
	return cleanText(el.Text()), nil
}

// cleanText collapses runs of whitespace, nbsp included, the way rendered text shows them.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
