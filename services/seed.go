package services

import (
	"context"
	"fmt"
	"os"

	"mps_intranet_go/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedLawyer is one lawyer entry of a seed file
type SeedLawyer struct {
	LawyerInput `yaml:",inline"`
	Permissions []string `yaml:"permissions"`
}

// SeedFile is the YAML document read from SEED_FILE
type SeedFile struct {
	Lawyers []SeedLawyer `yaml:"lawyers"`
}

// DefaultSeed returns the built-in accounts used when no seed file is configured
func DefaultSeed() []LawyerInput {
	return []LawyerInput{
		{
			Username:    "adv01",
			Password:    "mps2024",
			Name:        "Dr. Carlos Silva",
			Email:       "carlos.silva@mpsadv.com.br",
			Specialty:   "Direito Civil",
			Phone:       "(65) 3321-5001",
			Permissions: models.DefaultPermissions(),
		},
		{
			Username:    "adv02",
			Password:    "mps2024",
			Name:        "Dra. Ana Costa",
			Email:       "ana.costa@mpsadv.com.br",
			Specialty:   "Direito Trabalhista",
			Phone:       "(65) 3321-5002",
			Permissions: models.DefaultPermissions(),
		},
		{
			Username:    "admin",
			Password:    "admin123",
			Name:        "Administrador",
			Email:       "admin@mpsadv.com.br",
			Specialty:   "Gestão",
			Phone:       "(65) 3321-5000",
			Permissions: models.AllPermissions,
		},
	}
}

// LoadSeedFile reads lawyer accounts from a YAML seed file
func LoadSeedFile(path string) ([]LawyerInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document
func ParseSeed(data []byte) ([]LawyerInput, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(file.Lawyers) == 0 {
		return nil, fmt.Errorf("%w: seed file lists no lawyers", ErrValidation)
	}

	out := make([]LawyerInput, 0, len(file.Lawyers))
	for _, entry := range file.Lawyers {
		in := entry.LawyerInput
		perms, err := models.ParsePermissions(entry.Permissions)
		if err != nil {
			return nil, fmt.Errorf("%w: lawyer %s: %v", ErrValidation, in.Username, err)
		}
		in.Permissions = perms
		out = append(out, in)
	}
	return out, nil
}

// SeedLawyers creates the initial accounts when the store has no lawyers yet.
// It returns the number of accounts created.
func SeedLawyers(ctx context.Context, lawyers *LawyerService, activity *ActivityLog, seedFile string, logger *zap.Logger) (int, error) {
	count, err := lawyers.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Debug("lawyers already present, skipping seed", zap.Int64("count", count))
		return 0, nil
	}

	inputs := DefaultSeed()
	source := "built-in defaults"
	if seedFile != "" {
		if inputs, err = LoadSeedFile(seedFile); err != nil {
			return 0, err
		}
		source = seedFile
	}

	for _, in := range inputs {
		if _, err := lawyers.Provision(ctx, in); err != nil {
			return 0, fmt.Errorf("failed to seed lawyer %s: %w", in.Username, err)
		}
	}

	description := fmt.Sprintf("system initialized with %d lawyers from %s", len(inputs), source)
	if _, err := activity.Record(ctx, models.ActivitySystemInitialized, description, SystemActor); err != nil {
		return 0, err
	}

	logger.Info("seeded lawyers", zap.Int("count", len(inputs)), zap.String("source", source))
	return len(inputs), nil
}
