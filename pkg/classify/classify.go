package classify

import (
	"github.com/bcgov/mmti-sync/pkg/records"
)

// Category is the target collection group of a MEM collection.
type Category string

const (
	Authorizations           Category = "Authorizations"
	ComplianceAndEnforcement Category = "Compliance and Enforcement"
	Other                    Category = "Other"
)

// Warner receives classification warnings.
type Warner interface {
	Warnf(format string, args ...interface{})
}

// memTypes is the source of truth for MEM collection types. It groups raw
// collection types under the category they are filed in.
var memTypes = map[Category][]string{
	Authorizations:           {"Permit", "Permit Amendment"},
	ComplianceAndEnforcement: {"Inspection Report"},
	Other:                    {"Annual Report", "Management Plan", "Dam Safety Inspection"},
}

// eaoTypes plays the same role for rows of an EAO export.
var eaoTypes = map[Category][]string{
	Authorizations:           {"Certificate", "Certificate Amendment"},
	ComplianceAndEnforcement: {"Inspection Report"},
	Other:                    {"Management Plan", "Annual Report"},
}

// reverse maps, built from the tables above
var (
	memTypeMap map[string]Category
	eaoTypeMap map[string]Category
)

func init() {
	memTypeMap = invert(memTypes)
	eaoTypeMap = invert(eaoTypes)
}

func invert(groups map[Category][]string) map[string]Category {
	out := make(map[string]Category)
	for cat, types := range groups {
		for _, t := range types {
			out[t] = cat
		}
	}
	return out
}

// ParseCategory matches an explicit parent type against the known
// category names.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case Authorizations, ComplianceAndEnforcement, Other:
		return Category(s), true
	}
	return "", false
}

// Classify picks the category of a MEM collection. An explicit parent type
// wins over the collection type. Anything unrecognized is filed as Other
// and reported to log, so every collection lands in exactly one category.
func Classify(c records.ExternalCollection, log Warner) Category {
	if c.ParentType != "" {
		if cat, ok := ParseCategory(c.ParentType); ok {
			return cat
		}
		warn(log, "unknown collection parent type %q (type %q), filing as %s", c.ParentType, c.Type, Other)
		return Other
	}

	if cat, ok := memTypeMap[c.Type]; ok {
		return cat
	}
	warn(log, "unknown collection type %q, filing as %s", c.Type, Other)
	return Other
}

// ClassifyEAO picks the category of an EAO export row by its type.
// Types outside the table are not importable.
func ClassifyEAO(collectionType string) (Category, bool) {
	cat, ok := eaoTypeMap[collectionType]
	return cat, ok
}

func warn(log Warner, format string, args ...interface{}) {
	if log == nil {
		return
	}
	log.Warnf(format, args...)
}
