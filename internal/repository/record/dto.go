package record

import (
	"strconv"

	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
)

// Reserved hash fields. Field names must start with a letter, so these never collide.
const (
	hashID       = "__id"
	hashRevision = "__revision"
)

// buildHashFields converts a domain Record into a flat map for HSET.
func buildHashFields(rec domrec.Record) map[string]string {
	fields := rec.Fields()
	m := make(map[string]string, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m[hashID] = rec.ID()
	m[hashRevision] = strconv.Itoa(rec.Revision())
	return m
}

// parseHashFields converts a flat hash map back into a domain Record.
func parseHashFields(id string, m map[string]string) domrec.Record {
	fields := make(map[string]string, len(m))
	revision := 1
	for k, v := range m {
		switch k {
		case hashID:
			id = v
		case hashRevision:
			if n, err := strconv.Atoi(v); err == nil {
				revision = n
			}
		default:
			fields[k] = v
		}
	}
	return domrec.Reconstruct(id, fields, revision)
}
