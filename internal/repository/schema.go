package repository

// Schema definitions for the Centinela database.
// Compatible with both SQLite and PostgreSQL.

const schemaClaims = `
CREATE TABLE IF NOT EXISTS claims (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    insurer_code TEXT NOT NULL,
    raw TEXT NOT NULL,
    normalized TEXT,
    received_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_tenant ON claims(tenant_id);
CREATE INDEX IF NOT EXISTS idx_claims_insurer ON claims(tenant_id, insurer_code);
CREATE INDEX IF NOT EXISTS idx_claims_received ON claims(tenant_id, received_at);
`

const schemaScoringRules = `
CREATE TABLE IF NOT EXISTS scoring_rules (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    level TEXT NOT NULL,
    points INTEGER NOT NULL,
    provider_targets TEXT NOT NULL,
    field_mappings TEXT,
    normalized_field_name TEXT,
    conditions TEXT NOT NULL,
    logic_operator TEXT NOT NULL,
    affected_fields TEXT,
    is_custom INTEGER NOT NULL DEFAULT 0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id, version)
);

CREATE INDEX IF NOT EXISTS idx_scoring_rules_tenant ON scoring_rules(tenant_id);
CREATE INDEX IF NOT EXISTS idx_scoring_rules_enabled ON scoring_rules(tenant_id, enabled);
`

const schemaAudits = `
CREATE TABLE IF NOT EXISTS audits (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    claim_id TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    medical_report_score INTEGER NOT NULL,
    policy_score INTEGER,
    combined_score INTEGER,
    findings TEXT NOT NULL,
    metadata TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audits_tenant ON audits(tenant_id);
CREATE INDEX IF NOT EXISTS idx_audits_claim ON audits(tenant_id, claim_id);
CREATE INDEX IF NOT EXISTS idx_audits_timestamp ON audits(tenant_id, timestamp);
`

const schemaPolicies = `
CREATE TABLE IF NOT EXISTS policies (
    numero_poliza TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    titular TEXT NOT NULL,
    vigencia_desde TEXT NOT NULL,
    vigencia_hasta TEXT NOT NULL,
    fecha_antiguedad TEXT NOT NULL,
    suma_asegurada REAL NOT NULL,
    deducible REAL NOT NULL,
    coaseguro REAL NOT NULL,
    coberturas TEXT,
    exclusiones TEXT,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (numero_poliza, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_policies_tenant ON policies(tenant_id);
`

const schemaInsurerConfigs = `
CREATE TABLE IF NOT EXISTS insurer_configs (
    code TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    mappings TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (code, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_insurer_configs_tenant ON insurer_configs(tenant_id);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaClaims,
		schemaScoringRules,
		schemaAudits,
		schemaPolicies,
		schemaInsurerConfigs,
	}
}
