package database

import (
	"context"
	"database/sql"

	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

const ownerDriverColumns = `
	notice_no, owner_driver_indicator, id_type, id_no, name,
	address_line_1, address_line_2, postal_code, current_offender,
	is_sync, created_by, created_at
`

func scanOwnerDriver(row interface {
	Scan(dest ...interface{}) error
}) (*model.OwnerDriver, error) {
	od := model.OwnerDriver{}
	var name, addr1, addr2, postal, createdBy sql.NullString
	err := row.Scan(
		&od.NoticeNo, &od.Indicator, &od.IDType, &od.IDNo, &name,
		&addr1, &addr2, &postal, &od.CurrentOffender,
		&od.IsSync, &createdBy, &od.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	od.Name = name.String
	od.AddressLine1 = addr1.String
	od.AddressLine2 = addr2.String
	od.PostalCode = postal.String
	od.CreatedBy = createdBy.String
	return &od, nil
}

// GetCurrentOffender returns the particulars record currently answerable
// for the notice, or nil when none is marked.
func (d Datasource) GetCurrentOffender(ctx context.Context, noticeNo string) (*model.OwnerDriver, error) {
	row := d.Intranet.QueryRowContext(ctx, `
		SELECT `+ownerDriverColumns+`
		FROM ocms_owner_driver
		WHERE notice_no = $1 AND current_offender = 'Y'
	`, noticeNo)

	record, err := scanOwnerDriver(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve current offender", err)
	}
	return record, nil
}

// IsCurrentOffenderElsewhere reports whether the identity is answerable
// for any other notice right now.
func (d Datasource) IsCurrentOffenderElsewhere(ctx context.Context, idNo, excludeNoticeNo string) (bool, error) {
	var exists bool
	err := d.Intranet.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ocms_owner_driver
			WHERE id_no = $1 AND notice_no <> $2 AND current_offender = 'Y'
		)
	`, idNo, excludeNoticeNo).Scan(&exists)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check offender records", err)
	}
	return exists, nil
}

// ExistsInParticulars reports whether the identity already appears in any
// hirer or driver record.
func (d Datasource) ExistsInParticulars(ctx context.Context, idNo string) (bool, error) {
	var exists bool
	err := d.Intranet.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ocms_owner_driver
			WHERE id_no = $1 AND owner_driver_indicator IN ('H', 'D')
		)
	`, idNo).Scan(&exists)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check particulars records", err)
	}
	return exists, nil
}

// HasParticulars reports whether the notice already carries a record with
// the given indicator.
func (d Datasource) HasParticulars(ctx context.Context, noticeNo, indicator string) (bool, error) {
	var exists bool
	err := d.Intranet.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ocms_owner_driver
			WHERE notice_no = $1 AND owner_driver_indicator = $2
		)
	`, noticeNo, indicator).Scan(&exists)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check notice particulars", err)
	}
	return exists, nil
}

// CreateOwnerDriver inserts a particulars record as the current offender,
// demoting whoever held that position, in one transaction.
func (d Datasource) CreateOwnerDriver(ctx context.Context, record *model.OwnerDriver) error {
	tx, err := d.Intranet.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		UPDATE ocms_owner_driver
		SET current_offender = 'N', is_sync = 'N'
		WHERE notice_no = $1 AND current_offender = 'Y'
	`, record.NoticeNo)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to demote current offender", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ocms_owner_driver (
			notice_no, owner_driver_indicator, id_type, id_no, name,
			address_line_1, address_line_2, postal_code, current_offender,
			is_sync, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'Y', 'N', $9, NOW())
	`, record.NoticeNo, record.Indicator, record.IDType, record.IDNo, record.Name,
		record.AddressLine1, record.AddressLine2, record.PostalCode, record.CreatedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create particulars record", err)
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit particulars record", err)
	}
	return nil
}

func (d Datasource) GetUnsyncedOwnerDrivers(ctx context.Context, limit int) ([]model.OwnerDriver, error) {
	rows, err := d.Intranet.QueryContext(ctx, `
		SELECT `+ownerDriverColumns+`
		FROM ocms_owner_driver
		WHERE is_sync = 'N'
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve unsynced particulars records", err)
	}
	defer rows.Close()

	records := []model.OwnerDriver{}
	for rows.Next() {
		record, err := scanOwnerDriver(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan particulars data", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over particulars records", err)
	}
	return records, nil
}

func (d Datasource) MarkOwnerDriverSynced(ctx context.Context, noticeNo, indicator, idNo string) error {
	_, err := d.Intranet.ExecContext(ctx, `
		UPDATE ocms_owner_driver SET is_sync = 'Y'
		WHERE notice_no = $1 AND owner_driver_indicator = $2 AND id_no = $3
	`, noticeNo, indicator, idNo)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark particulars record synced", err)
	}
	return nil
}

func (d Datasource) UpsertInternetOwnerDriver(ctx context.Context, record *model.OwnerDriver) error {
	_, err := d.Internet.ExecContext(ctx, `
		INSERT INTO ocms_owner_driver (
			notice_no, owner_driver_indicator, id_type, id_no, name,
			address_line_1, address_line_2, postal_code, current_offender,
			is_sync, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'Y', $10, $11)
		ON CONFLICT (notice_no, owner_driver_indicator, id_no) DO UPDATE SET
			name = EXCLUDED.name,
			address_line_1 = EXCLUDED.address_line_1,
			address_line_2 = EXCLUDED.address_line_2,
			postal_code = EXCLUDED.postal_code,
			current_offender = EXCLUDED.current_offender
	`, record.NoticeNo, record.Indicator, record.IDType, record.IDNo, record.Name,
		record.AddressLine1, record.AddressLine2, record.PostalCode, record.CurrentOffender,
		record.CreatedBy, record.CreatedAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to upsert particulars replica", err)
	}
	return nil
}
