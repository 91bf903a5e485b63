package query

import (
	"regexp"
	"strings"
)

// Kind tags how a document-query input should be interpreted.
type Kind int

const (
	// KindFreeText falls back to analyzed multi-field matching.
	KindFreeText Kind = iota
	// KindNumericID treats the input as an exact document id.
	KindNumericID
	// KindFileType treats the input as a document file extension lookup.
	KindFileType
)

// Class is the classifier outcome; FileType carries the lowercased extension
// when Kind is KindFileType.
type Class struct {
	Kind     Kind
	FileType string
}

var (
	numericRe  = regexp.MustCompile(`^\d+$`)
	fileTypeRe = regexp.MustCompile(`(?i)\b(doc|docx|pdf|xls|xlsx)\b`)
)

// Classify dispatches a document-query input. The priority order is part of
// the contract: a purely numeric string is always an id lookup, then a
// word-bounded extension token wins, then free text. Ambiguous inputs resolve
// to the first matching branch.
func Classify(input string) Class {
	if numericRe.MatchString(input) {
		return Class{Kind: KindNumericID}
	}
	if m := fileTypeRe.FindStringSubmatch(input); m != nil {
		return Class{Kind: KindFileType, FileType: strings.ToLower(m[1])}
	}
	return Class{Kind: KindFreeText}
}
