// Package normalizer maps heterogeneous insurer document schemas onto the
// canonical claim record shape.
package normalizer

import (
	"fmt"
	"sync"
	"time"

	"github.com/opensource-health/centinela/internal/domain"
	"github.com/opensource-health/centinela/internal/fieldpath"
)

// Normalizer resolves per-insurer mapping tables against raw extracted
// records. Configs are treated as immutable snapshots: LoadConfigs swaps the
// whole table, so an in-flight normalization never sees a partial edit.
type Normalizer struct {
	mu      sync.RWMutex
	configs map[domain.InsurerCode]*domain.InsurerConfig

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// New creates a normalizer preloaded with the built-in insurer configs.
func New() *Normalizer {
	n := &Normalizer{
		configs: make(map[domain.InsurerCode]*domain.InsurerConfig),
		now:     time.Now,
	}
	for _, cfg := range BuiltinConfigs() {
		n.configs[cfg.Code] = cfg
	}
	return n
}

// LoadConfigs replaces the active mapping tables with a new snapshot.
// Built-ins stay in place for insurers the snapshot does not cover.
func (n *Normalizer) LoadConfigs(configs []*domain.InsurerConfig) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, cfg := range configs {
		if cfg != nil && cfg.Code != "" {
			n.configs[cfg.Code] = cfg
		}
	}
}

// Config returns the active mapping table for an insurer.
func (n *Normalizer) Config(code domain.InsurerCode) (*domain.InsurerConfig, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	cfg, ok := n.configs[code]
	return cfg, ok
}

// Configs returns the active mapping tables.
func (n *Normalizer) Configs() []*domain.InsurerConfig {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*domain.InsurerConfig, 0, len(n.configs))
	for _, cfg := range n.configs {
		out = append(out, cfg)
	}
	return out
}

// Normalize maps a raw record onto the canonical shape. An unknown insurer
// code is a configuration error (fail fast); everything after that point is
// accumulated per-field and the call always returns a result, never panics.
func (n *Normalizer) Normalize(code domain.InsurerCode, raw map[string]any) (*domain.NormalizationResult, error) {
	cfg, ok := n.Config(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownInsurer, code)
	}

	result := &domain.NormalizationResult{
		Success:    true,
		Raw:        raw,
		Normalized: make(map[string]any),
		Metadata: domain.NormalizationMetadata{
			InsurerCode:  code,
			NormalizedAt: n.now().UTC(),
			MappedFields: make(map[string]string),
		},
	}

	for canonical, entry := range cfg.Mappings {
		n.applyMapping(result, canonical, entry)
	}

	n.deriveFields(result)

	result.Normalized[domain.ProviderField] = string(code)
	return result, nil
}

// applyMapping resolves one mapping entry. Failures are recorded and
// processing continues; there is no short-circuit.
func (n *Normalizer) applyMapping(result *domain.NormalizationResult, canonical string, entry domain.MappingEntry) {
	value := fieldpath.Get(result.Raw, entry.SourcePath)

	if fieldpath.IsEmpty(value) {
		if entry.Optional {
			result.Metadata.MissingFields = append(result.Metadata.MissingFields, entry.SourcePath)
			return
		}
		result.Success = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("campo requerido ausente: %s (fuente %s)", canonical, entry.SourcePath))
		return
	}

	if entry.Parser != "" {
		parser, err := LookupParser(entry.Parser)
		if err != nil {
			result.Success = false
			result.Metadata.MappingErrors = append(result.Metadata.MappingErrors,
				domain.MappingError{Field: canonical, Error: err.Error()})
			return
		}
		parsed, err := parser(value)
		if err != nil {
			result.Success = false
			result.Metadata.MappingErrors = append(result.Metadata.MappingErrors,
				domain.MappingError{Field: canonical, Error: err.Error()})
			return
		}
		value = parsed
	}

	if entry.Validator != "" {
		validator, err := LookupValidator(entry.Validator)
		if err != nil {
			result.Success = false
			result.Metadata.MappingErrors = append(result.Metadata.MappingErrors,
				domain.MappingError{Field: canonical, Error: err.Error()})
			return
		}
		if !validator(value) {
			// Validator failure is an error regardless of optionality,
			// and the field is not written.
			result.Success = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("campo invalido: %s (fuente %s)", canonical, entry.SourcePath))
			return
		}
	}

	fieldpath.Set(result.Normalized, canonical, value)
	result.Metadata.MappedFields[canonical] = entry.SourcePath
}

// deriveFields computes fields that exist in no source schema.
func (n *Normalizer) deriveFields(result *domain.NormalizationResult) {
	ingreso := fieldpath.Get(result.Normalized, domain.FieldFechaIngreso)
	egreso := fieldpath.Get(result.Normalized, domain.FieldFechaEgreso)
	hospitalaria := !fieldpath.IsEmpty(ingreso) && !fieldpath.IsEmpty(egreso)
	fieldpath.Set(result.Normalized, domain.FieldAtencionHospitalaria, hospitalaria)

	if fieldpath.IsEmpty(fieldpath.Get(result.Normalized, domain.FieldFechaInforme)) {
		fieldpath.Set(result.Normalized, domain.FieldFechaInforme, n.now().Format("02/01/2006"))
		result.Warnings = append(result.Warnings, "fecha.informe ausente; se usa la fecha actual")
	}
}
