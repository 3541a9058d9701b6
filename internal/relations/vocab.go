// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relations builds the DOI relation index: it extracts DOI-to-DOI
// edges from per-source relation tables, classifies them against fixed
// per-source vocabularies, symmetrizes the graph, and aggregates per-DOI
// neighbor lists.
// Implements: prd104-relations (R1-R3); docs/ARCHITECTURE § Relations.
package relations

// relationFlags is the classification of one controlled-vocabulary
// relation token. The zero value (both false) is the default for tokens
// absent from a vocabulary.
type relationFlags struct {
	intraWork     bool
	sharedProject bool
}

// dataciteVocab classifies DataCite relationType tokens (CamelCase, per
// the DataCite metadata schema). Intra-work tokens assert the two DOIs are
// variants of one work; shared-project tokens suggest a common originating
// project. Citation, review, and metadata tokens stay unlisted: citing a
// work is no evidence of shared provenance.
var dataciteVocab = buildVocab(
	[]string{
		"HasVersion", "IsVersionOf", "IsNewVersionOf", "IsPreviousVersionOf",
		"IsVariantFormOf", "IsOriginalFormOf", "IsIdenticalTo",
		"Obsoletes", "IsObsoletedBy",
	},
	[]string{
		"IsSupplementTo", "IsSupplementedBy", "IsDescribedBy", "Describes",
		"IsDocumentedBy", "Documents", "IsDerivedFrom", "IsSourceOf",
		"IsContinuedBy", "Continues", "IsCompiledBy", "Compiles",
		"IsRequiredBy", "Requires", "IsPartOf", "HasPart",
		"IsCollectedBy", "Collects",
	},
)

// crossrefVocab classifies Crossref relation tokens (kebab-case, per the
// Crossref relations schema). Same reading as dataciteVocab; comment,
// reply, review, and reference tokens default to neither category.
var crossrefVocab = buildVocab(
	[]string{
		"is-preprint-of", "has-preprint", "is-translation-of", "has-translation",
		"is-version-of", "has-version", "is-manuscript-of", "has-manuscript",
		"is-expression-of", "has-expression", "is-manifestation-of", "has-manifestation",
		"is-format-of", "has-format", "is-replaced-by", "replaces",
		"is-same-as", "is-identical-to", "is-variant-form-of", "is-original-form-of",
	},
	[]string{
		"is-supplement-to", "is-supplemented-by", "is-derived-from", "has-derivation",
		"is-based-on", "is-basis-for", "is-continued-by", "continues",
		"is-part-of", "has-part", "is-documented-by", "documents",
		"is-compiled-by", "compiles", "requires", "is-required-by",
		"finances", "is-financed-by", "is-related-material", "has-related-material",
	},
)

func buildVocab(intraWork, sharedProject []string) map[string]relationFlags {
	vocab := make(map[string]relationFlags, len(intraWork)+len(sharedProject))
	for _, token := range intraWork {
		f := vocab[token]
		f.intraWork = true
		vocab[token] = f
	}
	for _, token := range sharedProject {
		f := vocab[token]
		f.sharedProject = true
		vocab[token] = f
	}
	return vocab
}

// classify looks a token up in vocab. Unlisted tokens keep both flags
// false; the edge survives but lands in no category.
func classify(vocab map[string]relationFlags, token string) relationFlags {
	return vocab[token]
}
