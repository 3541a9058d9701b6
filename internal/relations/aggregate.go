// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relations

import (
	"sort"

	"github.com/pdiddy/works-engine/pkg/types"
)

// neighborSets accumulates one DOI's distinct neighbors per category.
type neighborSets struct {
	intraWork       map[string]bool
	sharedProject   map[string]bool
	datasetCitation map[string]bool
}

// Aggregate symmetrizes the edge set and groups it into per-DOI entries.
// Every edge is doubled (endpoints swapped, flags kept) before grouping,
// so both orientations are materialized identically; downstream never has
// to union directions. Neighbor lists are distinct and sorted, entries are
// sorted by DOI, and a DOI with no categorized neighbor is omitted rather
// than emitted empty.
func Aggregate(edges []types.RelationEdge) []types.RelationEntry {
	byDOI := make(map[string]*neighborSets)

	record := func(from, to string, e types.RelationEdge) {
		s, ok := byDOI[from]
		if !ok {
			s = &neighborSets{
				intraWork:       make(map[string]bool),
				sharedProject:   make(map[string]bool),
				datasetCitation: make(map[string]bool),
			}
			byDOI[from] = s
		}
		if e.IntraWork {
			s.intraWork[to] = true
		}
		if e.SharedProject {
			s.sharedProject[to] = true
		}
		if e.DatasetRelation {
			s.datasetCitation[to] = true
		}
	}

	for _, e := range edges {
		record(e.WorkDOI, e.RelatedDOI, e)
		record(e.RelatedDOI, e.WorkDOI, e)
	}

	dois := make([]string, 0, len(byDOI))
	for doi := range byDOI {
		dois = append(dois, doi)
	}
	sort.Strings(dois)

	var entries []types.RelationEntry
	for _, doi := range dois {
		s := byDOI[doi]
		entry := types.RelationEntry{
			DOI:                 doi,
			IntraWorkDOIs:       sortedKeys(s.intraWork),
			SharedProjectDOIs:   sortedKeys(s.sharedProject),
			DatasetCitationDOIs: sortedKeys(s.datasetCitation),
		}
		if len(entry.IntraWorkDOIs) == 0 && len(entry.SharedProjectDOIs) == 0 && len(entry.DatasetCitationDOIs) == 0 {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
