// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RelationEdge is one directed DOI-to-DOI edge extracted from a relation
// source, tagged with its semantic category flags. After aggregation the
// graph is symmetric: every edge also exists with its endpoints swapped
// and the same flags.
// Per prd104-relations R1.1-R1.3.
type RelationEdge struct {
	// WorkDOI is the DOI of the work asserting the relation.
	WorkDOI string `json:"workDoi" yaml:"work_doi"`

	// RelatedDOI is the DOI on the other end of the relation.
	RelatedDOI string `json:"relatedDoi" yaml:"related_doi"`

	// RelationType is the raw controlled-vocabulary token from the source
	// (e.g. "IsVersionOf", "is-preprint-of"). Empty for corpus edges.
	RelationType string `json:"relationType" yaml:"relation_type"`

	// IntraWork is true when the relation type implies both DOIs are
	// variants of the same work (preprint, version, translation).
	IntraWork bool `json:"isIntraWork" yaml:"is_intra_work"`

	// SharedProject is true when the relation type suggests a common
	// originating project (derivation, supplement, documentation).
	SharedProject bool `json:"isPossibleSharedProject" yaml:"is_possible_shared_project"`

	// DatasetRelation is true for edges from the dataset-citation corpus,
	// linking a publication to a dataset it cites.
	DatasetRelation bool `json:"isDatasetRelation" yaml:"is_dataset_relation"`
}

// RelationEntry is the aggregated relation index row for one DOI: the
// distinct, lexicographically sorted neighbor DOIs in each category. An
// entry exists only when at least one list is non-empty.
// Per prd104-relations R3.1-R3.3.
type RelationEntry struct {
	// DOI is the entry's own Digital Object Identifier.
	DOI string `json:"doi" yaml:"doi"`

	// IntraWorkDOIs lists neighbors related as variants of the same work.
	IntraWorkDOIs []string `json:"intraWorkDois" yaml:"intra_work_dois"`

	// SharedProjectDOIs lists neighbors suggesting a shared project.
	SharedProjectDOIs []string `json:"possibleSharedProjectDois" yaml:"possible_shared_project_dois"`

	// DatasetCitationDOIs lists dataset neighbors cited by or citing this DOI.
	DatasetCitationDOIs []string `json:"datasetCitationDois" yaml:"dataset_citation_dois"`
}
