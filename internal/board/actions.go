package board

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/dennisdiepolder/workforce/internal/types"
)

// NextStatus cycles new -> scheduled -> in_progress -> done -> new
func NextStatus(s types.Status) types.Status {
	for i, st := range types.Statuses {
		if st == s {
			return types.Statuses[(i+1)%len(types.Statuses)]
		}
	}
	return types.StatusNew
}

// DialURI strips whitespace from phone and returns a tel: URI.
// ok is false when nothing dialable remains.
func DialURI(phone string) (uri string, ok bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
	if compact == "" {
		return "", false
	}
	return "tel:" + url.PathEscape(compact), true
}

// DeletePrompt is the confirmation text shown before a delete is issued
func DeletePrompt(c types.Call) string {
	return fmt.Sprintf("Delete service call for %q?", c.DisplayName())
}
