package virtual

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Size is a screen size in pixels.
type Size struct {
	Width  int `yaml:"width" toml:"width" json:"width"`
	Height int `yaml:"height" toml:"height" json:"height"`
}

// BoundsSpec is a node rectangle in a fixture.
type BoundsSpec struct {
	X      int `yaml:"x" toml:"x" json:"x"`
	Y      int `yaml:"y" toml:"y" json:"y"`
	Width  int `yaml:"width" toml:"width" json:"width"`
	Height int `yaml:"height" toml:"height" json:"height"`
}

// NodeSpec describes one element and its subtree.
type NodeSpec struct {
	ControlType  string            `yaml:"controlType" toml:"controlType" json:"controlType"`
	AutomationID string            `yaml:"automationId" toml:"automationId" json:"automationId"`
	ClassName    string            `yaml:"className" toml:"className" json:"className"`
	Name         string            `yaml:"name" toml:"name" json:"name"`
	FrameworkID  string            `yaml:"frameworkId" toml:"frameworkId" json:"frameworkId"`
	Handle       string            `yaml:"handle" toml:"handle" json:"handle"`
	Enabled      *bool             `yaml:"enabled" toml:"enabled" json:"enabled"`
	Offscreen    bool              `yaml:"offscreen" toml:"offscreen" json:"offscreen"`
	Password     bool              `yaml:"password" toml:"password" json:"password"`
	Dialog       bool              `yaml:"dialog" toml:"dialog" json:"dialog"`
	Bounds       *BoundsSpec       `yaml:"bounds" toml:"bounds" json:"bounds"`
	Properties   map[string]string `yaml:"properties" toml:"properties" json:"properties"`
	Text         *string           `yaml:"text" toml:"text" json:"text"`
	Value        *string           `yaml:"value" toml:"value" json:"value"`
	RangeValue   *float64          `yaml:"rangeValue" toml:"rangeValue" json:"rangeValue"`
	Toggle       string            `yaml:"toggle" toml:"toggle" json:"toggle"`
	Selected     *bool             `yaml:"selected" toml:"selected" json:"selected"`
	Children     []NodeSpec        `yaml:"children" toml:"children" json:"children"`
}

// AppSpec is a launchable application template.
type AppSpec struct {
	Path    string     `yaml:"path" toml:"path" json:"path"`
	Windows []NodeSpec `yaml:"windows" toml:"windows" json:"windows"`
}

// Fixture describes a virtual desktop.
type Fixture struct {
	Screen       Size       `yaml:"screen" toml:"screen" json:"screen"`
	Desktop      []NodeSpec `yaml:"desktop" toml:"desktop" json:"desktop"`
	Applications []AppSpec  `yaml:"applications" toml:"applications" json:"applications"`
	// Running lists application paths started with the desktop.
	Running []string `yaml:"running" toml:"running" json:"running"`
}

//go:embed default_desktop.yaml
var defaultDesktop []byte

// DefaultFixture returns the built-in demo desktop.
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultDesktop, "yaml")
}

// LoadFixture reads a fixture file; the format follows the extension.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseFixture decodes a fixture in yaml, toml or json format.
func ParseFixture(data []byte, format string) (*Fixture, error) {
	var f Fixture
	var err error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &f)
	case "toml":
		err = toml.Unmarshal(data, &f)
	case "json":
		err = sonic.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s fixture: %w", format, err)
	}
	return &f, nil
}
