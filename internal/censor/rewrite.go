// ABOUTME: Value rewriter replacing merged intervals with a masking character
// ABOUTME: Copies untouched runs verbatim and masks one rune per masked rune

package censor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Rewrite returns value with every interval replaced by maskChar, one
// masking rune per masked rune, so the character length never changes.
//
// The intervals must be disjoint and ascending (the output of
// MergeIntervals). An interval that begins before the end of the previous one
// is a caller bug and panics.
func Rewrite(value string, intervals []Interval, maskChar rune) string {
	if len(intervals) == 0 {
		return value
	}

	mask := string(maskChar)

	var sb strings.Builder
	sb.Grow(len(value))

	cursor := 0
	for _, iv := range intervals {
		if iv.Start < cursor || iv.End < iv.Start || iv.End > len(value) {
			panic(fmt.Sprintf("censor: interval %s out of order at cursor %d (len %d)", iv, cursor, len(value)))
		}
		sb.WriteString(value[cursor:iv.Start])
		sb.WriteString(strings.Repeat(mask, utf8.RuneCountInString(value[iv.Start:iv.End])))
		cursor = iv.End
	}

	sb.WriteString(value[cursor:])
	return sb.String()
}
