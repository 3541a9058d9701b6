// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relations

import (
	"github.com/pdiddy/works-engine/internal/identifier"
	"github.com/pdiddy/works-engine/internal/tables"
	"github.com/pdiddy/works-engine/pkg/types"
)

// Summary counts extraction outcomes for one relation source (prd104 R1.4).
// Dropped rows are not errors; the counts make the drop rate observable.
type Summary struct {
	// Edges counts rows that produced a classified edge.
	Edges int

	// Dropped counts rows where either endpoint yielded no DOI.
	Dropped int

	// SelfLoops counts rows whose endpoints resolved to the same DOI.
	SelfLoops int
}

// Total returns the number of raw relation rows examined.
func (s Summary) Total() int {
	return s.Edges + s.Dropped + s.SelfLoops
}

// FromDataCite converts DataCite relatedIdentifier rows into classified
// edges. Both endpoints pass through DOI extraction, so URL-embedded and
// free-text identifiers resolve; rows without two distinct DOIs are
// dropped and counted.
func FromDataCite(rows []tables.DataCiteRelationRow) ([]types.RelationEdge, Summary) {
	var edges []types.RelationEdge
	var summary Summary
	for _, row := range rows {
		edge, outcome := makeEdge(row.DOI, row.RelatedIdentifier, row.RelationType, classify(dataciteVocab, row.RelationType))
		switch outcome {
		case outcomeEdge:
			edges = append(edges, edge)
			summary.Edges++
		case outcomeSelfLoop:
			summary.SelfLoops++
		default:
			summary.Dropped++
		}
	}
	return edges, summary
}

// FromCrossref converts Crossref relation-map rows into classified edges.
func FromCrossref(rows []tables.CrossrefRelationRow) ([]types.RelationEdge, Summary) {
	var edges []types.RelationEdge
	var summary Summary
	for _, row := range rows {
		edge, outcome := makeEdge(row.DOI, row.RelatedID, row.RelationType, classify(crossrefVocab, row.RelationType))
		switch outcome {
		case outcomeEdge:
			edges = append(edges, edge)
			summary.Edges++
		case outcomeSelfLoop:
			summary.SelfLoops++
		default:
			summary.Dropped++
		}
	}
	return edges, summary
}

// FromCorpus converts publication-to-dataset citation pairs into edges.
// The corpus has no relation vocabulary: every surviving row is a dataset
// relation and nothing else.
func FromCorpus(rows []tables.CorpusCitationRow) ([]types.RelationEdge, Summary) {
	var edges []types.RelationEdge
	var summary Summary
	for _, row := range rows {
		edge, outcome := makeEdge(row.PublicationID, row.DatasetID, "", relationFlags{})
		switch outcome {
		case outcomeEdge:
			edge.DatasetRelation = true
			edges = append(edges, edge)
			summary.Edges++
		case outcomeSelfLoop:
			summary.SelfLoops++
		default:
			summary.Dropped++
		}
	}
	return edges, summary
}

type edgeOutcome int

const (
	outcomeEdge edgeOutcome = iota
	outcomeDropped
	outcomeSelfLoop
)

// makeEdge extracts both endpoint DOIs and assembles a classified edge.
func makeEdge(rawFrom, rawTo, relationType string, flags relationFlags) (types.RelationEdge, edgeOutcome) {
	from := identifier.ExtractDOI(rawFrom)
	to := identifier.ExtractDOI(rawTo)
	if from == nil || to == nil {
		return types.RelationEdge{}, outcomeDropped
	}
	if *from == *to {
		return types.RelationEdge{}, outcomeSelfLoop
	}
	return types.RelationEdge{
		WorkDOI:       *from,
		RelatedDOI:    *to,
		RelationType:  relationType,
		IntraWork:     flags.intraWork,
		SharedProject: flags.sharedProject,
	}, outcomeEdge
}
