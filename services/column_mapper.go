package services

import (
	"context"
	"errors"
	"strings"

	"cellar-service/apperrors"

	"go.uber.org/zap"
)

// ErrOracleUnavailable signals that the assisted suggestion could not be
// produced. It never leaves the service layer; callers fall back to the
// static suggestion.
var ErrOracleUnavailable = errors.New("mapping oracle unavailable")

// MappingOracle is the external semantic-mapping service. Given headers and
// sample values per header it returns a best-guess header-to-target map.
// It is a best-effort enhancement, not a dependency: one failed attempt
// means the caller uses the static alias suggestion.
type MappingOracle interface {
	MapHeaders(ctx context.Context, headers []string, samples map[string][]string) (map[string]string, error)
}

// maxSamplesPerHeader bounds the sample values included in oracle prompts.
const maxSamplesPerHeader = 3

type ColumnMapper struct {
	oracle MappingOracle
}

// NewColumnMapper builds a mapper. A nil oracle disables assisted
// suggestions; Suggest keeps working unchanged.
func NewColumnMapper(oracle MappingOracle) *ColumnMapper {
	return &ColumnMapper{oracle: oracle}
}

// Suggest derives a mapping from the static alias table alone. It is pure:
// identical headers always produce an identical mapping. Unmatched headers
// become custom targets, never silently dropped; blank headers are skipped.
func (m *ColumnMapper) Suggest(headers []string) map[string]string {
	mapping := make(map[string]string, len(headers))
	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			mapping[h] = MappingTargetSkip
			continue
		}
		if target, ok := AliasTarget(h); ok {
			mapping[h] = target
			continue
		}
		mapping[h] = CustomTargetPrefix + h
	}
	return mapping
}

// SuggestAssisted refines the static suggestion through the oracle. Every
// oracle value is validated against the target grammar; a header with an
// invalid or missing value falls back to the static lookup for that header
// only. A transport or parse failure returns ErrOracleUnavailable and the
// caller must use the static suggestion unmodified; a partially-trusted
// oracle result is never returned.
func (m *ColumnMapper) SuggestAssisted(ctx context.Context, headers []string, sampleRows []map[string]string) (map[string]string, error) {
	if m.oracle == nil {
		return nil, ErrOracleUnavailable
	}

	raw, err := m.oracle.MapHeaders(ctx, headers, sampleValues(headers, sampleRows))
	if err != nil {
		zap.L().Warn("mapping oracle call failed, using static suggestion", zap.Error(err))
		return nil, ErrOracleUnavailable
	}

	static := m.Suggest(headers)
	mapping := make(map[string]string, len(headers))
	for _, h := range headers {
		if target, ok := raw[h]; ok && IsValidTarget(target) {
			mapping[h] = target
			continue
		}
		mapping[h] = static[h]
	}
	return mapping, nil
}

// IsValidTarget reports whether target is within the fixed mapping grammar:
// a canonical field, "skip", or "custom:<non-empty name>".
func IsValidTarget(target string) bool {
	if target == MappingTargetSkip {
		return true
	}
	if IsCanonicalField(target) {
		return true
	}
	if strings.HasPrefix(target, CustomTargetPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(target, CustomTargetPrefix)) != ""
	}
	return false
}

// ValidateMapping enforces the confirmation rules: every target must be in
// the grammar and at least one header must map to "name".
func ValidateMapping(mapping map[string]string) error {
	if len(mapping) == 0 {
		return apperrors.NewValidation("mapping must not be empty")
	}
	hasName := false
	for header, target := range mapping {
		if !IsValidTarget(target) {
			return apperrors.NewValidation("unrecognized mapping target %q for header %q", target, header)
		}
		if target == FieldName {
			hasName = true
		}
	}
	if !hasName {
		return apperrors.NewValidation("mapping must assign at least one header to %q", FieldName)
	}
	return nil
}

// Mapping target grammar, alongside the canonical field names.
const (
	// MappingTargetSkip drops a column during row conversion.
	MappingTargetSkip = "skip"
	// CustomTargetPrefix retains a column under its own name instead of a
	// canonical field, e.g. "custom:Cellar Location".
	CustomTargetPrefix = "custom:"
)

// sampleValues collects up to maxSamplesPerHeader distinct non-empty values
// per header for the oracle prompt.
func sampleValues(headers []string, rows []map[string]string) map[string][]string {
	samples := make(map[string][]string, len(headers))
	for _, h := range headers {
		var values []string
		for _, row := range rows {
			if len(values) >= maxSamplesPerHeader {
				break
			}
			value := strings.TrimSpace(row[h])
			if value == "" {
				continue
			}
			dup := false
			for _, v := range values {
				if v == value {
					dup = true
					break
				}
			}
			if !dup {
				values = append(values, value)
			}
		}
		if len(values) > 0 {
			samples[h] = values
		}
	}
	return samples
}
