// Package options holds the fixed category and status option tables returned
// alongside task listings. The tables are static data; everything here is a
// pure function over them.
package options

import (
	"fmt"
	"strings"
)

// Option pairs a stable id with the label clients render for it.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// All is the wildcard clients send when no option filter is selected.
const All = "All"

var categoryOptions = []Option{
	{ID: "work", Label: "Work"},
	{ID: "personal", Label: "Personal"},
	{ID: "shopping", Label: "Shopping"},
	{ID: "home", Label: "Home"},
	{ID: "other", Label: "Other"},
}

var statusOptions = []Option{
	{ID: "todo", Label: "To Do"},
	{ID: "inprogress", Label: "In Progress"},
	{ID: "completed", Label: "Completed"},
}

// Categories returns a copy of the category option table.
func Categories() []Option {
	return append([]Option(nil), categoryOptions...)
}

// Statuses returns a copy of the status option table.
func Statuses() []Option {
	return append([]Option(nil), statusOptions...)
}

func ValidCategory(id string) bool {
	return find(categoryOptions, id) != nil
}

func ValidStatus(id string) bool {
	return find(statusOptions, id) != nil
}

// ResolveCategories parses a comma-separated category id list. It returns nil
// for the wildcard (or empty) input, meaning "no restriction", and rejects
// unknown ids.
func ResolveCategories(csv string) ([]string, error) {
	return resolve(categoryOptions, "category", csv)
}

// ResolveStatuses parses a comma-separated status id list with the same
// wildcard semantics as ResolveCategories.
func ResolveStatuses(csv string) ([]string, error) {
	return resolve(statusOptions, "status", csv)
}

func resolve(table []Option, kind, csv string) ([]string, error) {
	if csv == "" || csv == All {
		return nil, nil
	}
	var ids []string
	for _, raw := range strings.Split(csv, ",") {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if find(table, id) == nil {
			return nil, fmt.Errorf("unknown %s id %q", kind, id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func find(table []Option, id string) *Option {
	for i := range table {
		if table[i].ID == id {
			return &table[i]
		}
	}
	return nil
}
