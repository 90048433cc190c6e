package engine

import (
	"strings"

	"github.com/tkivela/dealwatch/app/alert"
	"github.com/tkivela/dealwatch/app/source"
	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// Matches decides whether an item satisfies an alert's criteria. Pure
// predicate: no side effects, safe to apply in any order or concurrently.
//
// Price bounds are inclusive; an unset bound imposes no constraint. An item
// without a price (calendar events) fails any bounded alert. The keyword
// check passes when at least one keyword is a case-folded substring of the
// title; an alert with no keywords matches nothing.
func Matches(a alert.Alert, item source.RawItem) bool {
	if a.PriceMin != nil && (item.Price == nil || *item.Price < *a.PriceMin) {
		return false
	}
	if a.PriceMax != nil && (item.Price == nil || *item.Price > *a.PriceMax) {
		return false
	}

	title := foldCaser.String(item.Title)
	for _, keyword := range a.Keywords {
		if strings.Contains(title, foldCaser.String(keyword)) {
			return true
		}
	}

	return false
}
