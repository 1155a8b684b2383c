package mysql

import "strings"

const currentSchemaVersion = 1

// schema is the full DDL. MySQL does not accept multiple statements in
// one Exec, so it is split on semicolons before execution.
const schema = `
CREATE TABLE IF NOT EXISTS config (
    ` + "`key`" + ` VARCHAR(128) PRIMARY KEY,
    ` + "`value`" + ` TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS identities (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL DEFAULT '',
    role VARCHAR(32) NOT NULL,
    contract_id VARCHAR(64) NOT NULL DEFAULT '',
    department_id VARCHAR(64) NOT NULL DEFAULT '',
    reports_to VARCHAR(64) NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    INDEX idx_identities_contract (contract_id),
    INDEX idx_identities_reports_to (reports_to)
);

CREATE TABLE IF NOT EXISTS beneficiaries (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    owner_identity_id VARCHAR(64) NOT NULL DEFAULT '',
    contract_id VARCHAR(64) NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_beneficiaries_contract (contract_id),
    INDEX idx_beneficiaries_owner (owner_identity_id)
);

CREATE TABLE IF NOT EXISTS law_firms (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS case_groups (
    id VARCHAR(64) PRIMARY KEY,
    beneficiary_id VARCHAR(64) NOT NULL,
    pathway VARCHAR(32) NOT NULL,
    status VARCHAR(32) NOT NULL,
    approval_status VARCHAR(32) NOT NULL,
    created_by VARCHAR(64) NOT NULL,
    responsible_id VARCHAR(64) NOT NULL DEFAULT '',
    law_firm_id VARCHAR(64) NOT NULL DEFAULT '',
    approver_id VARCHAR(64) NOT NULL DEFAULT '',
    decided_at TIMESTAMP NULL,
    submission_notes TEXT,
    approval_notes TEXT,
    rejection_reason TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_case_groups_beneficiary (beneficiary_id),
    INDEX idx_case_groups_approval (approval_status)
);

CREATE TABLE IF NOT EXISTS petitions (
    id VARCHAR(64) PRIMARY KEY,
    case_group_id VARCHAR(64) NOT NULL,
    petition_type VARCHAR(32) NOT NULL,
    status VARCHAR(32) NOT NULL,
    case_status VARCHAR(32) NOT NULL,
    filed_at TIMESTAMP NULL,
    decided_at TIMESTAMP NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_petitions_case_group (case_group_id),
    FOREIGN KEY (case_group_id) REFERENCES case_groups(id)
);

CREATE TABLE IF NOT EXISTS milestones (
    id VARCHAR(64) PRIMARY KEY,
    case_group_id VARCHAR(64) NOT NULL DEFAULT '',
    petition_id VARCHAR(64) NOT NULL DEFAULT '',
    milestone_type VARCHAR(64) NOT NULL,
    completed_at TIMESTAMP NOT NULL,
    created_by VARCHAR(64) NOT NULL DEFAULT '',
    INDEX idx_milestones_case_group (case_group_id),
    INDEX idx_milestones_petition (petition_id)
);

CREATE TABLE IF NOT EXISTS todos (
    id VARCHAR(64) PRIMARY KEY,
    assignee_id VARCHAR(64) NOT NULL,
    case_group_id VARCHAR(64) NOT NULL,
    title VARCHAR(255) NOT NULL,
    due_date TIMESTAMP NOT NULL,
    done BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    completed_at TIMESTAMP NULL,
    INDEX idx_todos_case_group (case_group_id),
    INDEX idx_todos_assignee (assignee_id)
);

CREATE TABLE IF NOT EXISTS notifications (
    id VARCHAR(64) PRIMARY KEY,
    recipient_id VARCHAR(64) NOT NULL,
    message TEXT NOT NULL,
    link VARCHAR(255) NOT NULL DEFAULT '',
    ` + "`read`" + ` BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_notifications_recipient (recipient_id)
);

CREATE TABLE IF NOT EXISTS audit_log (
    id VARCHAR(64) PRIMARY KEY,
    actor VARCHAR(64) NOT NULL,
    action VARCHAR(64) NOT NULL,
    entity_id VARCHAR(64) NOT NULL,
    old_value TEXT,
    new_value TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_audit_entity (entity_id)
);

INSERT INTO config (` + "`key`, `value`" + `) VALUES ('schema_version', '1')
    ON DUPLICATE KEY UPDATE ` + "`value` = `value`" + `;
`

// splitStatements splits the schema blob into individual statements.
func splitStatements(blob string) []string {
	parts := strings.Split(blob, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
