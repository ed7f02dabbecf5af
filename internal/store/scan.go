package store

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pactorhq/pactor/internal/models"
)

// contractColumns lists the columns selected for contract queries.
const contractColumns = `id, org_id, reference, title, counterparty_name, counterparty_email,
	amount, start_date, end_date, description, field_data, annexure_data,
	status, finance_required, current_sequence, created_by_user_id, created_at, updated_at`

// versionColumns lists the columns selected for contract version queries.
const versionColumns = `id, org_id, contract_id, sequence, field_data, annexure_data,
	created_by_user_id, created_at`

// approvalColumns lists the columns selected for approval record queries.
const approvalColumns = `id, org_id, contract_id, type, status, acted_by_user_id,
	acted_at, comment, escalated_to_user_id, created_at, updated_at`

// changelogColumns lists the columns selected for changelog queries.
const changelogColumns = `id, contract_id, version_id, from_sequence, to_sequence,
	field_changes, content_change, created_at`

// marshalFieldData encodes tracked field data for a jsonb column.
func marshalFieldData(fields map[string]models.FieldValue) ([]byte, error) {
	if fields == nil {
		fields = map[string]models.FieldValue{}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshalling field data: %w", err)
	}

	return data, nil
}

// scanContract scans a single row into a models.Contract.
func scanContract(scan func(dest ...any) error) (*models.Contract, error) {
	var c models.Contract
	var fieldData []byte

	err := scan(
		&c.ID,
		&c.OrgID,
		&c.Reference,
		&c.Title,
		&c.CounterpartyName,
		&c.CounterpartyEmail,
		&c.Amount,
		&c.StartDate,
		&c.EndDate,
		&c.Description,
		&fieldData,
		&c.AnnexureData,
		&c.Status,
		&c.FinanceRequired,
		&c.CurrentSequence,
		&c.CreatedByUserID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fieldData, &c.FieldData); err != nil {
		return nil, fmt.Errorf("unmarshalling contract field data: %w", err)
	}

	return &c, nil
}

// scanVersion scans a single row into a models.ContractVersion.
func scanVersion(scan func(dest ...any) error) (*models.ContractVersion, error) {
	var v models.ContractVersion
	var fieldData []byte

	err := scan(
		&v.ID,
		&v.OrgID,
		&v.ContractID,
		&v.Sequence,
		&fieldData,
		&v.AnnexureData,
		&v.CreatedByUserID,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fieldData, &v.FieldData); err != nil {
		return nil, fmt.Errorf("unmarshalling version field data: %w", err)
	}

	return &v, nil
}

// scanApproval scans a single row into a models.ApprovalRecord.
func scanApproval(scan func(dest ...any) error) (*models.ApprovalRecord, error) {
	var r models.ApprovalRecord

	err := scan(
		&r.ID,
		&r.OrgID,
		&r.ContractID,
		&r.Type,
		&r.Status,
		&r.ActedByUserID,
		&r.ActedAt,
		&r.Comment,
		&r.EscalatedToUserID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// scanChangelog scans a single row into a models.ChangeLogEntry.
func scanChangelog(scan func(dest ...any) error) (*models.ChangeLogEntry, error) {
	var e models.ChangeLogEntry
	var fieldChanges, contentChange []byte

	err := scan(
		&e.ID,
		&e.ContractID,
		&e.VersionID,
		&e.FromSequence,
		&e.ToSequence,
		&fieldChanges,
		&contentChange,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fieldChanges, &e.FieldChanges); err != nil {
		return nil, fmt.Errorf("unmarshalling field changes: %w", err)
	}

	if contentChange != nil {
		e.ContentChange = &models.ContentChange{}
		if err := json.Unmarshal(contentChange, e.ContentChange); err != nil {
			return nil, fmt.Errorf("unmarshalling content change: %w", err)
		}
	}

	return &e, nil
}

// collectContracts scans all rows into a contract slice.
func collectContracts(rows pgx.Rows) ([]models.Contract, error) {
	contracts := make([]models.Contract, 0, 16)

	for rows.Next() {
		c, err := scanContract(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning contract row: %w", err)
		}

		contracts = append(contracts, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contract rows: %w", err)
	}

	return contracts, nil
}

// collectVersions scans all rows into a version slice.
func collectVersions(rows pgx.Rows) ([]models.ContractVersion, error) {
	versions := make([]models.ContractVersion, 0, 16)

	for rows.Next() {
		v, err := scanVersion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning version row: %w", err)
		}

		versions = append(versions, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating version rows: %w", err)
	}

	return versions, nil
}
