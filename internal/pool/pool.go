// Package pool constructs and queries worker identity pools. A pool is
// built deterministically from configuration: the same config always
// yields the same identities, so worker IDs are stable across restarts.
package pool

import (
	"fmt"

	"github.com/apexmind/swarm/pkg/models"
)

// trinityRoles are the three roles of a coordination team, in team order.
var trinityRoles = []string{"ingest", "analyze", "publish"}

// trinityCapabilities are carried by every trinity team member.
var trinityCapabilities = []string{"data_processing", "analysis", "content_generation"}

// DefaultSpecializations is the round-robin specialization assignment
// for specialist workers.
var DefaultSpecializations = []string{
	"file_categorization", "document_analysis", "code_review",
	"data_extraction", "pattern_recognition", "content_generation",
	"web_scraping", "api_integration", "memory_management",
	"structure_optimization", "metadata_generation", "format_conversion",
}

// Config describes the shape of a worker pool.
type Config struct {
	// TrinityTeams is the number of three-member coordination teams.
	TrinityTeams int
	// Specialists is the number of single-specialization workers.
	Specialists int
	// Specializations is the round-robin assignment list for
	// specialists. Empty means DefaultSpecializations.
	Specializations []string
}

// DefaultConfig returns the standard pool shape: 10 trinity teams and
// 170 specialists, 200 workers total.
func DefaultConfig() Config {
	return Config{
		TrinityTeams: 10,
		Specialists:  170,
	}
}

// Build constructs the worker identities for the given config. The
// construction is a pure function of the config: no side effects, no
// registration, identical output for identical input.
func Build(cfg Config) []models.WorkerIdentity {
	specs := cfg.Specializations
	if len(specs) == 0 {
		specs = DefaultSpecializations
	}

	workers := make([]models.WorkerIdentity, 0, cfg.TrinityTeams*len(trinityRoles)+cfg.Specialists)

	for team := 0; team < cfg.TrinityTeams; team++ {
		for _, role := range trinityRoles {
			workers = append(workers, models.WorkerIdentity{
				ID:           fmt.Sprintf("trinity_%02d_%s", team, role),
				Kind:         models.WorkerKindTrinity,
				Capabilities: trinityCapabilities,
			})
		}
	}

	for i := 0; i < cfg.Specialists; i++ {
		spec := specs[i%len(specs)]
		workers = append(workers, models.WorkerIdentity{
			ID:           fmt.Sprintf("specialist_%03d_%s", i, spec),
			Kind:         models.WorkerKindSpecialist,
			Capabilities: []string{spec, "collaboration", "optimization"},
		})
	}

	return workers
}

// ByCapability returns the workers carrying the given capability tag.
func ByCapability(workers []models.WorkerIdentity, cap string) []models.WorkerIdentity {
	var out []models.WorkerIdentity
	for _, w := range workers {
		if w.HasCapability(cap) {
			out = append(out, w)
		}
	}
	return out
}

// allocationTable maps task types to the capability their workers need.
var allocationTable = map[models.TaskType]string{
	models.TaskTypeFileOrganization:   "file_categorization",
	models.TaskTypeDocumentProcessing: "document_analysis",
	models.TaskTypeCodeAnalysis:       "code_review",
}

// defaultTrinityWorkers is how many trinity workers handle a task with
// no capability mapping: three full teams.
const defaultTrinityWorkers = 9

// ForTask selects the workers to dispatch a task to. Task types in the
// allocation table get every worker with the matching capability; other
// types get the first three trinity teams.
func ForTask(workers []models.WorkerIdentity, taskType models.TaskType) []models.WorkerIdentity {
	if cap, ok := allocationTable[taskType]; ok {
		return ByCapability(workers, cap)
	}

	var out []models.WorkerIdentity
	for _, w := range workers {
		if w.Kind != models.WorkerKindTrinity {
			continue
		}
		out = append(out, w)
		if len(out) == defaultTrinityWorkers {
			break
		}
	}
	return out
}
