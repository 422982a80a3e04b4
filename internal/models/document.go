package models

import (
	"fmt"
	"time"
)

// IDField is the pseudo field that filters on the document id.
const IDField = "$id"

// Document is a schema-flexible record as returned by a document store.
type Document struct {
	ID         string
	Collection string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Fields     map[string]any
}

// String returns a field as a string, or "" when it is absent.
func (d Document) String(field string) string {
	v, ok := d.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// DocumentList is one page of query results.
type DocumentList struct {
	Total     int
	Documents []Document
}

// Filter is an equality filter on a named field.
type Filter struct {
	Field string
	Value string
}

func Equal(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// Matches reports whether doc satisfies the filter.
func (f Filter) Matches(doc Document) bool {
	if f.Field == IDField {
		return doc.ID == f.Value
	}
	v, ok := doc.Fields[f.Field]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}
