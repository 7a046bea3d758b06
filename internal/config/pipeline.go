package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults used when a field is absent from the config file, or when no
// config file is given at all.
const (
	DefaultDataPath      = "school_data.csv"
	DefaultRegionColumn  = "STATE"
	DefaultRevenueColumn = "TOTALREV"
	DefaultEngine        = EngineFrame
)

// Aggregation engines.
const (
	EngineFrame = "frame"
	EngineSQL   = "sql"
)

// DefaultRegions is the fixed region list the pipeline filters on.
var DefaultRegions = []string{"Texas", "California", "Alabama", "Iowa", "Washington", "Hawaii"}

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// PipelineConfig is the optional JSON config for the school statistics
// pipeline. Nil fields fall back to the defaults above via the Get* methods.
type PipelineConfig struct {
	DataPath      *string  `json:"data_path,omitempty"`
	Regions       []string `json:"regions,omitempty"`
	RegionColumn  *string  `json:"region_column,omitempty"`
	RevenueColumn *string  `json:"revenue_column,omitempty"`
	Engine        *string  `json:"engine,omitempty"` // "frame" or "sql"
}

func ptrString(v string) *string { return &v }

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// DefaultPipelineConfig returns a config with every field populated from the
// package defaults.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		DataPath:      ptrString(DefaultDataPath),
		Regions:       append([]string(nil), DefaultRegions...),
		RegionColumn:  ptrString(DefaultRegionColumn),
		RevenueColumn: ptrString(DefaultRevenueColumn),
		Engine:        ptrString(DefaultEngine),
	}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file keep their defaults, so partial configs are safe.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the set fields hold usable values.
func (c *PipelineConfig) Validate() error {
	if c.DataPath != nil && strings.TrimSpace(*c.DataPath) == "" {
		return fmt.Errorf("data_path must not be empty")
	}
	if c.RegionColumn != nil && strings.TrimSpace(*c.RegionColumn) == "" {
		return fmt.Errorf("region_column must not be empty")
	}
	if c.RevenueColumn != nil && strings.TrimSpace(*c.RevenueColumn) == "" {
		return fmt.Errorf("revenue_column must not be empty")
	}
	if c.RegionColumn != nil && c.RevenueColumn != nil && *c.RegionColumn == *c.RevenueColumn {
		return fmt.Errorf("region_column and revenue_column must differ, both are %q", *c.RegionColumn)
	}
	if c.Engine != nil {
		switch *c.Engine {
		case EngineFrame, EngineSQL:
		default:
			return fmt.Errorf("engine must be %q or %q, got %q", EngineFrame, EngineSQL, *c.Engine)
		}
	}
	for i, r := range c.Regions {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("regions[%d] is empty", i)
		}
	}
	return nil
}

// GetDataPath returns the data_path value or the default.
func (c *PipelineConfig) GetDataPath() string {
	if c.DataPath == nil {
		return DefaultDataPath
	}
	return *c.DataPath
}

// GetRegions returns a copy of the regions list, or the defaults when the
// list is absent. An explicitly empty list in JSON also yields the defaults.
func (c *PipelineConfig) GetRegions() []string {
	if len(c.Regions) == 0 {
		return append([]string(nil), DefaultRegions...)
	}
	return append([]string(nil), c.Regions...)
}

// GetRegionColumn returns the region_column value or the default.
func (c *PipelineConfig) GetRegionColumn() string {
	if c.RegionColumn == nil {
		return DefaultRegionColumn
	}
	return *c.RegionColumn
}

// GetRevenueColumn returns the revenue_column value or the default.
func (c *PipelineConfig) GetRevenueColumn() string {
	if c.RevenueColumn == nil {
		return DefaultRevenueColumn
	}
	return *c.RevenueColumn
}

// GetEngine returns the engine value or the default.
func (c *PipelineConfig) GetEngine() string {
	if c.Engine == nil {
		return DefaultEngine
	}
	return *c.Engine
}
