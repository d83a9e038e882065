// internal/workers/maintenance/orphan-cleanup/models.go
package orphancleanup

import "interview-workers/internal/maintenance"

type Input struct {
	DryRun          bool `json:"dryRun,omitempty"`
	EnforceCascades bool `json:"enforceCascades,omitempty"`
}

type Output struct {
	DryRun          bool                     `json:"dryRun"`
	Tables          []maintenance.TableCount `json:"tables"`
	Total           int64                    `json:"total"`
	CascadesAdded   []string                 `json:"cascadesAdded,omitempty"`
	CascadesPresent []string                 `json:"cascadesPresent,omitempty"`
	KeysReplaced    []string                 `json:"keysReplaced,omitempty"`
}
