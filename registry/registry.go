// Package registry persists named environments: the model artifacts forming
// an ensemble, their shared species type map, and optional HPC submission
// settings.
//
// Environments are created or overwritten atomically by Set and are
// read-only thereafter. There is no process-wide current environment; every
// caller holds an explicit *Registry.
package registry

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/quenbyak/epsel/potential"
)

// All is the pseudo-label accepted by Reset to delete every environment.
const All = "all"

// ErrUnknownLabel indicates a lookup of an environment that was never set.
type ErrUnknownLabel struct {
	Label string
}

func (e *ErrUnknownLabel) Error() string {
	return fmt.Sprintf("unknown environment label %q", e.Label)
}

// SubmitTemplate carries HPC batch-submission settings for an environment.
// Job templating and submission themselves are external concerns; the
// registry only stores and returns the settings verbatim.
type SubmitTemplate struct {
	// Comment is a single "#SBATCH ..." line with all scheduler flags.
	Comment string `json:"comment"`
	// Env holds environment variables exported by the submission script.
	Env map[string]string `json:"env,omitempty"`
}

// ParseSubmitScript extracts a SubmitTemplate from a shell script: every
// "#SBATCH" line contributes its flags to one combined comment, and every
// "export KEY=VALUE" line contributes an environment variable.
func ParseSubmitScript(r io.Reader) (*SubmitTemplate, error) {
	var flags []string
	env := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "#SBATCH"):
			flags = append(flags, strings.Fields(line)[1:]...)
		case strings.HasPrefix(line, "export "):
			kv := strings.TrimSpace(strings.TrimPrefix(line, "export "))
			if key, val, ok := strings.Cut(kv, "="); ok {
				env[key] = val
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("registry: read submit script: %w", err)
	}
	if len(flags) == 0 {
		return nil, fmt.Errorf("registry: no #SBATCH lines found in submit script")
	}

	tpl := &SubmitTemplate{Comment: "#SBATCH " + strings.Join(flags, " ")}
	if len(env) > 0 {
		tpl.Env = env
	}
	return tpl, nil
}

// Environment is one persisted, labeled model collection.
type Environment struct {
	Label      string            `json:"label"`
	ModelPaths []string          `json:"model_paths"`
	TypeMap    potential.TypeMap `json:"type_map"`
	Submit     *SubmitTemplate   `json:"submit,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TypeMapReader reads the species type map declared by a model artifact.
type TypeMapReader func(ctx context.Context, path string) (potential.TypeMap, error)

// Registry stores environments in a pluggable Store.
type Registry struct {
	store       Store
	readTypeMap TypeMapReader
	now         func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithTypeMapReader overrides how artifact type maps are read.
// The default reads the artifact file header.
func WithTypeMapReader(fn TypeMapReader) Option {
	return func(r *Registry) { r.readTypeMap = fn }
}

// New creates a Registry over the given store.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		store: store,
		readTypeMap: func(_ context.Context, path string) (potential.TypeMap, error) {
			h, err := potential.ReadArtifactHeaderFile(path)
			if err != nil {
				return nil, err
			}
			return h.TypeMap, nil
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Set validates modelPaths and atomically overwrites the labeled
// environment. All artifacts must declare identical type maps; a single
// call must supply the full ensemble, since setting one model replaces
// rather than appends. An empty label resolves to the default label.
// An existing submit template on the label is carried over.
func (r *Registry) Set(ctx context.Context, label string, modelPaths ...string) (*Environment, error) {
	label = normalize(label)
	if label == All {
		return nil, fmt.Errorf("registry: %q is reserved and cannot name an environment", All)
	}
	if len(modelPaths) == 0 {
		return nil, fmt.Errorf("registry: set %q: no model paths given", label)
	}

	typeMap, err := r.readTypeMap(ctx, modelPaths[0])
	if err != nil {
		return nil, fmt.Errorf("registry: set %q: %w", label, err)
	}
	for _, path := range modelPaths[1:] {
		tm, err := r.readTypeMap(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("registry: set %q: %w", label, err)
		}
		if !typeMap.Equal(tm) {
			return nil, &potential.ErrTypeMapMismatch{Model: path, Want: typeMap, Got: tm}
		}
	}

	env := &Environment{
		Label:      label,
		ModelPaths: append([]string(nil), modelPaths...),
		TypeMap:    typeMap,
		CreatedAt:  r.now(),
	}
	prev, err := r.store.Get(ctx, label)
	switch {
	case err == nil:
		if prev.Submit != nil {
			env.Submit = prev.Submit
		}
	default:
		var unknown *ErrUnknownLabel
		if !errors.As(err, &unknown) {
			return nil, fmt.Errorf("registry: set %q: %w", label, err)
		}
	}

	if err := r.store.Put(ctx, env); err != nil {
		return nil, fmt.Errorf("registry: set %q: %w", label, err)
	}
	return env, nil
}

// SetSubmit attaches HPC submission settings to an existing environment.
func (r *Registry) SetSubmit(ctx context.Context, label string, tpl *SubmitTemplate) error {
	label = normalize(label)
	if tpl == nil || !strings.HasPrefix(tpl.Comment, "#SBATCH") {
		return fmt.Errorf("registry: submit template for %q must carry an #SBATCH comment", label)
	}

	env, err := r.Get(ctx, label)
	if err != nil {
		return err
	}
	env.Submit = tpl
	if err := r.store.Put(ctx, env); err != nil {
		return fmt.Errorf("registry: set submit for %q: %w", label, err)
	}
	return nil
}

// Get returns the labeled environment, or *ErrUnknownLabel.
// An empty label resolves to the default label.
func (r *Registry) Get(ctx context.Context, label string) (*Environment, error) {
	return r.store.Get(ctx, normalize(label))
}

// Reset deletes one environment, or every environment when label is All.
func (r *Registry) Reset(ctx context.Context, label string) error {
	if label == All {
		labels, err := r.store.List(ctx)
		if err != nil {
			return fmt.Errorf("registry: reset all: %w", err)
		}
		for _, l := range labels {
			if err := r.store.Delete(ctx, l); err != nil {
				return fmt.Errorf("registry: reset %q: %w", l, err)
			}
		}
		return nil
	}

	label = normalize(label)
	if err := r.store.Delete(ctx, label); err != nil {
		return fmt.Errorf("registry: reset %q: %w", label, err)
	}
	return nil
}

// Labels returns all stored environment labels, sorted.
func (r *Registry) Labels(ctx context.Context) ([]string, error) {
	return r.store.List(ctx)
}

func normalize(label string) string {
	if label == "" {
		return potential.DefaultLabel
	}
	return label
}
