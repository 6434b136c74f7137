package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/openassess/grading-controller/internal/models"
)

// GraderSettings is the self-configuration a grading worker reads once at
// startup from its settings file.
type GraderSettings struct {
	GraderType models.GraderType `mapstructure:"grader_type"`
}

// LoadGraderSettings reads a grading worker's settings file. The file declares
// at minimum the grader type the worker registers as.
func LoadGraderSettings(path string) (GraderSettings, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return GraderSettings{}, fmt.Errorf("failed to read grader settings file: %w", err)
	}

	var settings GraderSettings
	if err := v.Unmarshal(&settings); err != nil {
		return GraderSettings{}, fmt.Errorf("failed to parse grader settings: %w", err)
	}

	if !settings.GraderType.Valid() {
		return GraderSettings{}, fmt.Errorf("invalid grader_type %q in settings file", settings.GraderType)
	}

	return settings, nil
}
