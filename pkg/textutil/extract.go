// Package textutil provides small text extraction helpers used when
// recovering embedded fragments from portal page sources.
package textutil

import "strings"

// Between returns the text strictly between the first occurrence of left and
// the first occurrence of right after it. The second return value is false
// when either delimiter is absent; absence is a legitimate state (a marker
// may simply not be on the page yet), so no error is involved.
func Between(s, left, right string) (string, bool) {
	start := strings.Index(s, left)
	if start < 0 {
		return "", false
	}
	start += len(left)
	end := strings.Index(s[start:], right)
	if end < 0 {
		return "", false
	}
	return s[start : start+end], true
}
