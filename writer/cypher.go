package writer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// nodeCypher generates the import statements for one node CSV file: a
// uniqueness constraint on id plus a batched apoc LOAD CSV merge. Ontology
// term labels get an extra :ontology_term label.
func nodeCypher(csvPath, label string, ontology bool) string {
	absolute := toFileURI(csvPath)
	additionalLabel := ""
	if ontology {
		additionalLabel = ":ontology_term"
	}
	return fmt.Sprintf(`CREATE CONSTRAINT IF NOT EXISTS FOR (n:%[1]s) REQUIRE n.id IS UNIQUE;

CALL apoc.periodic.iterate(
    "LOAD CSV WITH HEADERS FROM 'file:///%[2]s' AS row FIELDTERMINATOR '|' RETURN row",
    "MERGE (n:%[1]s%[3]s {id: row.id})
    SET n += apoc.map.removeKeys(row, ['id'])",
    {batchSize:1000, parallel:true, concurrency:4}
)
YIELD batches, total
RETURN batches, total;
`, label, absolute, additionalLabel)
}

// edgeCypher generates the import statement for one edge CSV file, matching
// source and target nodes by the labels the schema declares.
func edgeCypher(csvPath string, et EdgeType, label string) string {
	absolute := toFileURI(csvPath)
	relType := label
	if et.OutputLabel != "" {
		relType = et.OutputLabel
	}
	return fmt.Sprintf(`CALL apoc.periodic.iterate(
    "LOAD CSV WITH HEADERS FROM 'file:///%s' AS row FIELDTERMINATOR '|' RETURN row",
    "MATCH (source:%s {id: row.source_id})
    MATCH (target:%s {id: row.target_id})
    MERGE (source)-[r:%s]->(target)
    SET r += apoc.map.removeKeys(row, ['source_id', 'target_id', 'label'])",
    {batchSize:1000, parallel:true, concurrency:4}
)
YIELD batches, total
RETURN batches, total;
`, absolute, et.Source, et.Target, relType)
}

// toFileURI renders an absolute slash-separated path for a file:/// URI.
func toFileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return strings.TrimPrefix(filepath.ToSlash(abs), "/")
}
