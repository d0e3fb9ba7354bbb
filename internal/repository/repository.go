// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-health/centinela/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveClaim stores a claim with tenant isolation.
func (r *SQLRepository) SaveClaim(ctx context.Context, tenantID string, claim *domain.Claim) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	raw, _ := json.Marshal(claim.Raw)
	normalized, _ := json.Marshal(claim.Normalized)

	query := `
		INSERT INTO claims (
			id, tenant_id, insurer_code, raw, normalized, received_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			insurer_code = excluded.insurer_code,
			raw = excluded.raw,
			normalized = excluded.normalized
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		claim.ID, tenantID, string(claim.InsurerCode),
		string(raw), string(normalized), claim.ReceivedAt,
	)
	return err
}

// GetClaim retrieves a claim by ID with tenant isolation.
func (r *SQLRepository) GetClaim(ctx context.Context, tenantID string, claimID string) (*domain.Claim, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, insurer_code, raw, normalized, received_at
		FROM claims
		WHERE tenant_id = ? AND id = ?
	`

	var claim domain.Claim
	var insurer, raw, normalized string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, claimID).Scan(
		&claim.ID, &claim.TenantID, &insurer, &raw, &normalized, &claim.ReceivedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	claim.InsurerCode = domain.InsurerCode(insurer)
	json.Unmarshal([]byte(raw), &claim.Raw)
	if normalized != "" {
		json.Unmarshal([]byte(normalized), &claim.Normalized)
	}

	return &claim, nil
}

// SaveRule stores a scoring rule with tenant isolation. Same id, tenant, and
// version upserts in place; a new version inserts alongside the old one.
func (r *SQLRepository) SaveRule(ctx context.Context, tenantID string, rule *domain.ScoringRule) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	targets, _ := json.Marshal(rule.ProviderTargets)
	mappings, _ := json.Marshal(rule.FieldMappings)
	conditions, _ := json.Marshal(rule.Conditions)
	affected, _ := json.Marshal(rule.AffectedFields)

	isCustom := 0
	if rule.IsCustom {
		isCustom = 1
	}
	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO scoring_rules (
			id, tenant_id, name, description, version, level, points,
			provider_targets, field_mappings, normalized_field_name,
			conditions, logic_operator, affected_fields, is_custom, enabled,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id, version) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			level = excluded.level,
			points = excluded.points,
			provider_targets = excluded.provider_targets,
			field_mappings = excluded.field_mappings,
			normalized_field_name = excluded.normalized_field_name,
			conditions = excluded.conditions,
			logic_operator = excluded.logic_operator,
			affected_fields = excluded.affected_fields,
			is_custom = excluded.is_custom,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, tenantID, rule.Name, rule.Description,
		rule.Version, string(rule.Level), rule.Points,
		string(targets), string(mappings), rule.NormalizedFieldName,
		string(conditions), string(rule.LogicOperator), string(affected),
		isCustom, enabled, now, now,
	)
	return err
}

// GetRule retrieves the latest enabled version of a rule with tenant isolation.
func (r *SQLRepository) GetRule(ctx context.Context, tenantID string, ruleID string) (*domain.ScoringRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, version, level, points,
			   provider_targets, field_mappings, normalized_field_name,
			   conditions, logic_operator, affected_fields, is_custom, enabled
		FROM scoring_rules
		WHERE tenant_id = ? AND id = ? AND enabled = 1
		ORDER BY version DESC
		LIMIT 1
	`

	rule, err := r.scanRule(r.db.QueryRowContext(ctx, r.rebind(query), tenantID, ruleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rule, err
}

// ListRules retrieves the latest enabled version of every scoring rule for a
// tenant. Older versions stay in the table for history but never load.
func (r *SQLRepository) ListRules(ctx context.Context, tenantID string) ([]*domain.ScoringRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, version, level, points,
			   provider_targets, field_mappings, normalized_field_name,
			   conditions, logic_operator, affected_fields, is_custom, enabled
		FROM scoring_rules AS r
		WHERE tenant_id = ? AND enabled = 1
		  AND version = (
			SELECT MAX(version) FROM scoring_rules AS v
			WHERE v.tenant_id = r.tenant_id AND v.id = r.id AND v.enabled = 1
		  )
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.ScoringRule
	for rows.Next() {
		rule, err := r.scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) scanRule(row rowScanner) (*domain.ScoringRule, error) {
	var rule domain.ScoringRule
	var level, logic string
	var targets, mappings, conditions, affected sql.NullString
	var isCustom, enabled int

	err := row.Scan(
		&rule.ID, &rule.TenantID, &rule.Name, &rule.Description,
		&rule.Version, &level, &rule.Points,
		&targets, &mappings, &rule.NormalizedFieldName,
		&conditions, &logic, &affected, &isCustom, &enabled,
	)
	if err != nil {
		return nil, err
	}

	rule.Level = domain.SeverityLevel(level)
	rule.LogicOperator = domain.LogicOperator(logic)
	rule.IsCustom = isCustom == 1
	rule.Enabled = enabled == 1
	if targets.Valid {
		json.Unmarshal([]byte(targets.String), &rule.ProviderTargets)
	}
	if mappings.Valid {
		json.Unmarshal([]byte(mappings.String), &rule.FieldMappings)
	}
	if conditions.Valid {
		if err := json.Unmarshal([]byte(conditions.String), &rule.Conditions); err != nil {
			return nil, fmt.Errorf("failed to parse rule conditions for %s: %w", rule.ID, err)
		}
	}
	if affected.Valid {
		json.Unmarshal([]byte(affected.String), &rule.AffectedFields)
	}

	return &rule, nil
}

// DeleteRule soft-deletes a rule by setting enabled = 0 on every version.
func (r *SQLRepository) DeleteRule(ctx context.Context, tenantID string, ruleID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		UPDATE scoring_rules
		SET enabled = 0, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), tenantID, ruleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveAudit stores an audit result with tenant isolation.
func (r *SQLRepository) SaveAudit(ctx context.Context, tenantID string, audit *domain.Audit) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	findings, _ := json.Marshal(audit.Findings)
	metadata, _ := json.Marshal(audit.Metadata)

	query := `
		INSERT INTO audits (
			id, tenant_id, claim_id, timestamp,
			medical_report_score, policy_score, combined_score,
			findings, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		audit.ID, tenantID, audit.ClaimID, audit.Timestamp,
		audit.MedicalReportScore, audit.PolicyScore, audit.CombinedScore,
		string(findings), string(metadata),
	)
	return err
}

// GetAudit retrieves an audit by ID with tenant isolation.
func (r *SQLRepository) GetAudit(ctx context.Context, tenantID string, auditID string) (*domain.Audit, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, claim_id, timestamp,
			   medical_report_score, policy_score, combined_score,
			   findings, metadata
		FROM audits
		WHERE tenant_id = ? AND id = ?
	`

	audit, err := r.scanAudit(r.db.QueryRowContext(ctx, r.rebind(query), tenantID, auditID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return audit, err
}

// ListAuditsByClaim retrieves every audit of a claim, newest first. Manual
// corrections re-audit the claim, so one claim accumulates a history.
func (r *SQLRepository) ListAuditsByClaim(ctx context.Context, tenantID string, claimID string) ([]*domain.Audit, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, claim_id, timestamp,
			   medical_report_score, policy_score, combined_score,
			   findings, metadata
		FROM audits
		WHERE tenant_id = ? AND claim_id = ?
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []*domain.Audit
	for rows.Next() {
		audit, err := r.scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}

	return audits, rows.Err()
}

func (r *SQLRepository) scanAudit(row rowScanner) (*domain.Audit, error) {
	var audit domain.Audit
	var policyScore, combinedScore sql.NullInt64
	var findings, metadata string

	err := row.Scan(
		&audit.ID, &audit.TenantID, &audit.ClaimID, &audit.Timestamp,
		&audit.MedicalReportScore, &policyScore, &combinedScore,
		&findings, &metadata,
	)
	if err != nil {
		return nil, err
	}

	if policyScore.Valid {
		v := int(policyScore.Int64)
		audit.PolicyScore = &v
	}
	if combinedScore.Valid {
		v := int(combinedScore.Int64)
		audit.CombinedScore = &v
	}
	json.Unmarshal([]byte(findings), &audit.Findings)
	json.Unmarshal([]byte(metadata), &audit.Metadata)

	return &audit, nil
}

// SavePolicy stores a patient policy with tenant isolation.
func (r *SQLRepository) SavePolicy(ctx context.Context, tenantID string, policy *domain.PatientPolicy) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	coberturas, _ := json.Marshal(policy.CoberturasIncluidas)
	exclusiones, _ := json.Marshal(policy.ExclusionesPermanentes)

	query := `
		INSERT INTO policies (
			numero_poliza, tenant_id, titular,
			vigencia_desde, vigencia_hasta, fecha_antiguedad,
			suma_asegurada, deducible, coaseguro,
			coberturas, exclusiones, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(numero_poliza, tenant_id) DO UPDATE SET
			titular = excluded.titular,
			vigencia_desde = excluded.vigencia_desde,
			vigencia_hasta = excluded.vigencia_hasta,
			fecha_antiguedad = excluded.fecha_antiguedad,
			suma_asegurada = excluded.suma_asegurada,
			deducible = excluded.deducible,
			coaseguro = excluded.coaseguro,
			coberturas = excluded.coberturas,
			exclusiones = excluded.exclusiones,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		policy.NumeroPoliza, tenantID, policy.Titular,
		policy.VigenciaDesde, policy.VigenciaHasta, policy.FechaAntiguedad,
		policy.SumaAsegurada, policy.Deducible, policy.Coaseguro,
		string(coberturas), string(exclusiones), time.Now().UTC(),
	)
	return err
}

// GetPolicy retrieves a patient policy by policy number with tenant isolation.
func (r *SQLRepository) GetPolicy(ctx context.Context, tenantID string, numeroPoliza string) (*domain.PatientPolicy, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT numero_poliza, tenant_id, titular,
			   vigencia_desde, vigencia_hasta, fecha_antiguedad,
			   suma_asegurada, deducible, coaseguro,
			   coberturas, exclusiones
		FROM policies
		WHERE tenant_id = ? AND numero_poliza = ?
	`

	var policy domain.PatientPolicy
	var coberturas, exclusiones sql.NullString

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, numeroPoliza).Scan(
		&policy.NumeroPoliza, &policy.TenantID, &policy.Titular,
		&policy.VigenciaDesde, &policy.VigenciaHasta, &policy.FechaAntiguedad,
		&policy.SumaAsegurada, &policy.Deducible, &policy.Coaseguro,
		&coberturas, &exclusiones,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if coberturas.Valid {
		json.Unmarshal([]byte(coberturas.String), &policy.CoberturasIncluidas)
	}
	if exclusiones.Valid {
		json.Unmarshal([]byte(exclusiones.String), &policy.ExclusionesPermanentes)
	}

	return &policy, nil
}

// SaveInsurerConfig stores an insurer mapping table with tenant isolation.
func (r *SQLRepository) SaveInsurerConfig(ctx context.Context, tenantID string, cfg *domain.InsurerConfig) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	mappings, _ := json.Marshal(cfg.Mappings)

	query := `
		INSERT INTO insurer_configs (
			code, tenant_id, display_name, mappings, updated_at
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code, tenant_id) DO UPDATE SET
			display_name = excluded.display_name,
			mappings = excluded.mappings,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		string(cfg.Code), tenantID, cfg.DisplayName,
		string(mappings), time.Now().UTC(),
	)
	return err
}

// GetInsurerConfig retrieves an insurer mapping table with tenant isolation.
func (r *SQLRepository) GetInsurerConfig(ctx context.Context, tenantID string, code domain.InsurerCode) (*domain.InsurerConfig, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT code, display_name, mappings
		FROM insurer_configs
		WHERE tenant_id = ? AND code = ?
	`

	var cfg domain.InsurerConfig
	var codeStr, mappings string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, string(code)).Scan(
		&codeStr, &cfg.DisplayName, &mappings,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg.Code = domain.InsurerCode(codeStr)
	if err := json.Unmarshal([]byte(mappings), &cfg.Mappings); err != nil {
		return nil, fmt.Errorf("failed to parse insurer mappings for %s: %w", cfg.Code, err)
	}

	return &cfg, nil
}

// ListInsurerConfigs retrieves every insurer mapping table for a tenant.
func (r *SQLRepository) ListInsurerConfigs(ctx context.Context, tenantID string) ([]*domain.InsurerConfig, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT code, display_name, mappings
		FROM insurer_configs
		WHERE tenant_id = ?
		ORDER BY code
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.InsurerConfig
	for rows.Next() {
		var cfg domain.InsurerConfig
		var codeStr, mappings string

		if err := rows.Scan(&codeStr, &cfg.DisplayName, &mappings); err != nil {
			return nil, err
		}

		cfg.Code = domain.InsurerCode(codeStr)
		if err := json.Unmarshal([]byte(mappings), &cfg.Mappings); err != nil {
			return nil, fmt.Errorf("failed to parse insurer mappings for %s: %w", cfg.Code, err)
		}
		configs = append(configs, &cfg)
	}

	return configs, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
