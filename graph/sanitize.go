package graph

import (
	"encoding/json"
	"strings"
)

// Delimiters used by the Neo4j CSV output. Property values are scrubbed of
// both so a value can never break a row or an array cell.
const (
	CSVDelimiter   = '|'
	ArrayDelimiter = ';'
)

var (
	valueReplacer = strings.NewReplacer(
		string(CSVDelimiter), "",
		string(ArrayDelimiter), " ",
		"'", "",
		`"`, "",
	)
	idReplacer = strings.NewReplacer(" ", "_", ":", "_")
)

// ontologyLabels are node labels that correspond to ontology terms. The
// writer gives these an extra :ontology_term label on import.
var ontologyLabels = map[string]bool{
	"go":     true,
	"bto":    true,
	"efo":    true,
	"cl":     true,
	"clo":    true,
	"uberon": true,
	"hpo":    true,
}

// IsOntologyLabel reports whether label names an ontology term type.
func IsOntologyLabel(label string) bool {
	return ontologyLabels[strings.ToLower(label)]
}

// SanitizeID normalizes an identifier for graph import: lowercased, trimmed,
// with spaces and colons folded to underscores. "GO:0008150" becomes
// "go_0008150".
func SanitizeID(id string) string {
	return idReplacer.Replace(strings.ToLower(strings.TrimSpace(id)))
}

// SanitizeLabel normalizes a node or edge label. Dotted labels keep their
// last segment, spaces become underscores, and the result is lowercased.
func SanitizeLabel(label string) string {
	if i := strings.LastIndex(label, "."); i >= 0 {
		label = label[i+1:]
	}
	return strings.ToLower(strings.ReplaceAll(label, " ", "_"))
}

// SanitizeValue scrubs a property value for CSV output. Strings lose the CSV
// and array delimiters plus quote characters; lists are sanitized per element
// and JSON-encoded; everything else passes through unchanged.
func SanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return valueReplacer.Replace(val)
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = valueReplacer.Replace(s)
		}
		return mustJSON(items)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = SanitizeValue(item)
		}
		return mustJSON(items)
	default:
		return v
	}
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
