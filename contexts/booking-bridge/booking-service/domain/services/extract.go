package services

import (
	"strings"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
)

const (
	// DefaultKeyPrefix marks attributes written by the booking widget.
	DefaultKeyPrefix = "__cow_"

	keyInternalID     = "__cow_internal_id"
	keyIntegrityToken = "__cow_integrity"
	keyScheduleExact  = "Date"
)

// attributeEntry is one (source, key, value) tuple from the order's attribute
// bags. Building the full sequence up front keeps the last-write-wins
// precedence explicit instead of buried in control flow.
type attributeEntry struct {
	source string
	key    string
	value  string
}

const (
	sourceNoteAttribute    = "note_attribute"
	sourceLineItemProperty = "line_item_property"
)

// scanAttributes flattens note attributes followed by every line item's
// properties, in order. Line-item properties therefore win over note
// attributes whenever both define the same logical field.
func scanAttributes(order entities.RawOrder) []attributeEntry {
	entries := make([]attributeEntry, 0, len(order.NoteAttributes))
	for _, attr := range order.NoteAttributes {
		entries = append(entries, attributeEntry{
			source: sourceNoteAttribute,
			key:    attr.Name,
			value:  attr.Value,
		})
	}
	for _, item := range order.LineItems {
		for _, prop := range item.Properties {
			entries = append(entries, attributeEntry{
				source: sourceLineItemProperty,
				key:    prop.Name,
				value:  prop.Value,
			})
		}
	}
	return entries
}

// ExtractMetadata pulls the booking widget's scheduling metadata out of an
// order's attribute bags. One pass over the flattened sequence, last write
// wins per field. It never fails; absent metadata leaves fields empty.
//
// The schedule-text rules compete: the exact key "Date" and any key whose
// lowercase form contains "data" both target ScheduleText. Whichever matching
// attribute is visited last wins. The substring rule is broad and can
// false-positive on unrelated attributes; it matches the upstream widget's
// observed behavior and is kept as-is.
func ExtractMetadata(order entities.RawOrder) entities.EventMetadata {
	var meta entities.EventMetadata
	for _, entry := range scanAttributes(order) {
		switch {
		case entry.key == keyInternalID:
			meta.InternalID = entry.value
		case entry.key == keyIntegrityToken:
			meta.IntegrityToken = entry.value
		case entry.key == keyScheduleExact:
			meta.ScheduleText = entry.value
		case strings.Contains(strings.ToLower(entry.key), "data"):
			meta.ScheduleText = entry.value
		}
	}
	return meta
}

// Qualifies reports whether the order carries booking metadata at all: at
// least one note attribute or line-item property whose key starts with the
// configured prefix. Orders failing this test are excluded from every
// booking-oriented query regardless of other content.
func Qualifies(order entities.RawOrder, prefix string) bool {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	for _, entry := range scanAttributes(order) {
		if strings.HasPrefix(entry.key, prefix) {
			return true
		}
	}
	return false
}
