package translation

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultDetectorName is used when no detector is configured.
const DefaultDetectorName = ModelDetectorName

// Registry stores language detectors and resolves a default one.
type Registry struct {
	detectors       map[string]Detector
	defaultDetector string
}

func NewRegistry(defaultDetector string) *Registry {
	normalizedDefault := normalizeDetectorName(defaultDetector)
	if normalizedDefault == "" {
		normalizedDefault = DefaultDetectorName
	}

	return &Registry{
		detectors:       make(map[string]Detector),
		defaultDetector: normalizedDefault,
	}
}

// Register adds one detector.
func (r *Registry) Register(detector Detector) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if detector == nil {
		return fmt.Errorf("detector is nil")
	}
	name := normalizeDetectorName(detector.Name())
	if name == "" {
		return fmt.Errorf("detector name is required")
	}
	r.detectors[name] = detector
	return nil
}

// Detector resolves a detector by name. Empty names use the configured default.
func (r *Registry) Detector(name string) (Detector, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if len(r.detectors) == 0 {
		return nil, fmt.Errorf("no language detectors are registered")
	}

	resolvedName := normalizeDetectorName(name)
	if resolvedName == "" {
		resolvedName = r.defaultDetector
	}
	detector, ok := r.detectors[resolvedName]
	if ok {
		return detector, nil
	}

	return nil, fmt.Errorf("language detector %q is not registered (available: %s)", resolvedName, strings.Join(r.DetectorNames(), ", "))
}

func (r *Registry) DefaultDetector() string {
	if r == nil {
		return ""
	}
	return r.defaultDetector
}

func (r *Registry) DetectorNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeDetectorName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
