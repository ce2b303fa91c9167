// Package normalize derives the working skills text of each record.
//
// The skills text is the lower-cased title. It stands in for real skill
// extraction because the search page only shows titles in its summary cards.
package normalize

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Manikandan-9/Job-Posting-Classification-Based/internal/listing"
)

// Lower applies full Unicode lower-casing, e.g. "İ" and "ẞ" map the same way
// everywhere regardless of locale.
func Lower(s string) string {
	// cases.Caser keeps state, so a fresh one per call
	return cases.Lower(language.Und).String(s)
}

// Skills returns a copy of ds with every record's Skills set to its lower-cased Title.
func Skills(ds listing.Dataset) listing.Dataset {
	out := ds.Clone()
	for i := range out {
		out[i].Skills = Lower(out[i].Title)
	}
	return out
}
