package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "works-engine/0.1"). Per prd101-sources R5.1.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the snapshot acquisition stage.
// Per prd101-sources R1.1-R1.4.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// SnapshotsDir is the base directory for downloaded source snapshots
	// (contains ror/, datacite/, openalex/, crossref/, corpus/).
	SnapshotsDir string `json:"snapshots_dir" yaml:"snapshots_dir"`

	// MaxRetries is the number of retry attempts for failed downloads (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// TransformConfig holds settings for the per-source transform stage.
// Per prd101-sources R2.1-R2.4.
type TransformConfig struct {
	// SnapshotsDir is the base directory for downloaded source snapshots.
	SnapshotsDir string `json:"snapshots_dir" yaml:"snapshots_dir"`

	// TablesDir is the output directory for canonicalized table files.
	TablesDir string `json:"tables_dir" yaml:"tables_dir"`
}

// WorksConfig holds settings for the canonical works build stage.
// Per prd102-works R1.1.
type WorksConfig struct {
	// TablesDir is the directory holding canonicalized table files.
	TablesDir string `json:"tables_dir" yaml:"tables_dir"`

	// WorksFile is the output path for the merged works table (JSONL).
	WorksFile string `json:"works_file" yaml:"works_file"`
}

// ExportFormat selects the state export encoding.
// Per prd103-state R4.2.
type ExportFormat string

const (
	ExportJSONL ExportFormat = "jsonl"
	ExportYAML  ExportFormat = "yaml"
)

// StateConfig holds settings for the DOI state store and diff engine.
// Per prd103-state R2.1, R3.1-R3.3.
type StateConfig struct {
	// DBPath is the SQLite database file holding the DOI state history.
	DBPath string `json:"db_path" yaml:"db_path"`

	// Retention is the maximum number of history records kept per DOI
	// after each run's prune step (default 10).
	Retention int `json:"retention" yaml:"retention"`

	// ExportDir is the directory for per-run changeset exports.
	ExportDir string `json:"export_dir" yaml:"export_dir"`

	// Format selects the export encoding: jsonl or yaml.
	Format ExportFormat `json:"format" yaml:"format"`
}

// RelationsConfig holds settings for the relation index build stage.
// Per prd104-relations R1.1.
type RelationsConfig struct {
	// TablesDir is the directory holding canonicalized relation table files.
	TablesDir string `json:"tables_dir" yaml:"tables_dir"`

	// RelationsFile is the output path for the aggregated relation index (JSONL).
	RelationsFile string `json:"relations_file" yaml:"relations_file"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Transform TransformConfig `json:"transform" yaml:"transform"`
	Works     WorksConfig     `json:"works" yaml:"works"`
	State     StateConfig     `json:"state" yaml:"state"`
	Relations RelationsConfig `json:"relations" yaml:"relations"`
}
