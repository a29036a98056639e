package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

// Sentinel errors for load-time failures.
var (
	ErrMissingArtifact  = errors.New("missing artifact")
	ErrArtifactMismatch = pipeline.ErrArtifactMismatch
)

// MissingError reports an artifact file that was found in none of the search
// directories. Dir is the primary directory it was expected in.
type MissingError struct {
	File string
	Dir  string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("artifact %q not found in %q", e.File, e.Dir)
}

func (e *MissingError) Is(target error) bool { return target == ErrMissingArtifact }

// MismatchError reports an artifact whose shape or feature order does not
// match the pipeline's fixed feature contract.
type MismatchError struct {
	Path   string
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("artifact %q: %s", e.Path, e.Reason)
}

func (e *MismatchError) Is(target error) bool { return target == ErrArtifactMismatch }

// Paths locates the two artifact files.
type Paths struct {
	// Dir is the primary directory; relative file names are resolved here first.
	Dir string

	// Fallback directories searched after Dir, in order.
	Fallback []string

	ModelFile  string
	ScalerFile string
}

// Set holds the loaded, immutable artifacts.
type Set struct {
	Scaler     *StandardScaler
	Model      *KMeans
	ScalerPath string
	ModelPath  string
}

// Load resolves and parses both artifacts. The scaler is loaded first so a
// missing scaler is reported before a missing model, matching the order the
// files are used in.
func Load(p Paths) (*Set, error) {
	scalerPath, err := resolve(p, p.ScalerFile)
	if err != nil {
		return nil, err
	}
	modelPath, err := resolve(p, p.ModelFile)
	if err != nil {
		return nil, err
	}

	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, err
	}
	model, err := LoadKMeans(modelPath)
	if err != nil {
		return nil, err
	}

	return &Set{
		Scaler:     scaler,
		Model:      model,
		ScalerPath: scalerPath,
		ModelPath:  modelPath,
	}, nil
}

// resolve returns the first existing candidate for name. Absolute names are
// used as-is.
func resolve(p Paths, name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", &MissingError{File: filepath.Base(name), Dir: filepath.Dir(name)}
		}
		return name, nil
	}

	dirs := append([]string{p.Dir}, p.Fallback...)
	for _, d := range dirs {
		if d == "" {
			continue
		}
		candidate := filepath.Join(d, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	dir := p.Dir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return "", &MissingError{File: name, Dir: dir}
}

// SearchPaths builds Paths for the configured directory. A relative dir is
// also looked up next to the running binary, then the binary's own directory
// is tried.
func SearchPaths(dir, modelFile, scalerFile string) Paths {
	p := Paths{Dir: dir, ModelFile: modelFile, ScalerFile: scalerFile}
	if exe := ExecutableDir(); exe != "" {
		if !filepath.IsAbs(dir) {
			p.Fallback = append(p.Fallback, filepath.Join(exe, dir))
		}
		p.Fallback = append(p.Fallback, exe)
	}
	return p
}

// ExecutableDir returns the directory of the running binary, or "" if it
// cannot be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// header is the part shared by every artifact file.
type header struct {
	Kind         string   `yaml:"kind"`
	FeatureNames []string `yaml:"feature_names"`
}

func readFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("artifact: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("artifact: parse %q: %w", path, err)
	}
	return nil
}

// checkFeatureNames asserts the artifact was fitted on the pipeline's column
// order. Files without feature_names skip the check.
func checkFeatureNames(path string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != pipeline.FeatureCount {
		return &MismatchError{Path: path, Reason: fmt.Sprintf("fitted on %d features, want %d", len(names), pipeline.FeatureCount)}
	}
	for i, n := range names {
		if n != pipeline.FeatureOrder[i] {
			return &MismatchError{Path: path, Reason: fmt.Sprintf("feature %d is %q, want %q", i, n, pipeline.FeatureOrder[i])}
		}
	}
	return nil
}
