// Package citation cross-checks that every highlight recorded in a
// backup was anchored, producing the completeness report. Pure
// aggregation: no highlight's fate is ever silently dropped.
package citation
