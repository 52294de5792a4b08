package pool

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/apexmind/swarm/pkg/models"
)

// Manifest is an explicit pool definition loaded from a YAML file. It
// covers the generated shape plus any hand-defined workers appended to
// the pool.
type Manifest struct {
	// TrinityTeams is the number of three-member coordination teams.
	TrinityTeams int `yaml:"trinity_teams"`
	// Specialists is the number of generated specialist workers.
	Specialists int `yaml:"specialists"`
	// Specializations overrides the round-robin assignment list.
	Specializations []string `yaml:"specializations,omitempty"`
	// Workers lists explicitly defined identities appended after the
	// generated ones.
	Workers []ManifestWorker `yaml:"workers,omitempty"`
}

// ManifestWorker is a hand-defined worker entry in a manifest.
type ManifestWorker struct {
	ID           string   `yaml:"id"`
	Kind         string   `yaml:"kind"`
	Capabilities []string `yaml:"capabilities,omitempty"`
}

// LoadManifest reads and parses a pool manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	for i, w := range m.Workers {
		if w.ID == "" {
			return nil, fmt.Errorf("manifest %s: worker %d has no id", path, i)
		}
	}

	return &m, nil
}

// Build constructs the pool described by the manifest: the generated
// workers followed by the explicit entries.
func (m *Manifest) Build() []models.WorkerIdentity {
	workers := Build(Config{
		TrinityTeams:    m.TrinityTeams,
		Specialists:     m.Specialists,
		Specializations: m.Specializations,
	})

	for _, w := range m.Workers {
		kind := models.WorkerKind(w.Kind)
		if kind == "" {
			kind = models.WorkerKindSpecialist
		}
		workers = append(workers, models.WorkerIdentity{
			ID:           w.ID,
			Kind:         kind,
			Capabilities: w.Capabilities,
		})
	}

	return workers
}
