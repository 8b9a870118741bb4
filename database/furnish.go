package database

import (
	"context"
	"database/sql"

	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

const furnishColumns = `
	application_id, notice_no, owner_driver_indicator, id_type, id_no, name,
	address_line_1, address_line_2, postal_code, status, reject_reason,
	notify_email, notify_phone, is_sync, submitted_at, processed_at, processed_by
`

func scanFurnish(row interface {
	Scan(dest ...interface{}) error
}) (*model.FurnishApplication, error) {
	f := model.FurnishApplication{}
	var name, addr1, addr2, postal, reason, email, phone, processedBy sql.NullString
	var processedAt sql.NullTime
	err := row.Scan(
		&f.ApplicationID, &f.NoticeNo, &f.Indicator, &f.IDType, &f.IDNo, &name,
		&addr1, &addr2, &postal, &f.Status, &reason,
		&email, &phone, &f.IsSync, &f.SubmittedAt, &processedAt, &processedBy,
	)
	if err != nil {
		return nil, err
	}
	f.Name = name.String
	f.AddressLine1 = addr1.String
	f.AddressLine2 = addr2.String
	f.PostalCode = postal.String
	f.RejectReason = reason.String
	f.NotifyEmail = email.String
	f.NotifyPhone = phone.String
	f.ProcessedAt = processedAt.Time
	f.ProcessedBy = processedBy.String
	return &f, nil
}

func (d Datasource) GetFurnishApplication(ctx context.Context, applicationID string) (*model.FurnishApplication, error) {
	row := d.Intranet.QueryRowContext(ctx, `
		SELECT `+furnishColumns+`
		FROM ocms_furnish_application
		WHERE application_id = $1
	`, applicationID)

	application, err := scanFurnish(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Furnish application not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve furnish application", err)
	}
	return application, nil
}

// GetSubmittedFurnishApplications lists applications awaiting the
// approval checks, oldest first.
func (d Datasource) GetSubmittedFurnishApplications(ctx context.Context, limit int) ([]model.FurnishApplication, error) {
	rows, err := d.Intranet.QueryContext(ctx, `
		SELECT `+furnishColumns+`
		FROM ocms_furnish_application
		WHERE status = 'S'
		ORDER BY submitted_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve submitted furnish applications", err)
	}
	defer rows.Close()

	return collectFurnish(rows)
}

func (d Datasource) UpdateFurnishStatus(ctx context.Context, applicationID, status, rejectReason, processedBy string) error {
	result, err := d.Intranet.ExecContext(ctx, `
		UPDATE ocms_furnish_application
		SET status = $2, reject_reason = $3, processed_at = NOW(), processed_by = $4, is_sync = 'N'
		WHERE application_id = $1
	`, applicationID, status, rejectReason, processedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update furnish status", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Furnish application not found", nil)
	}
	return nil
}

// GetUnsyncedInternetFurnish lists applications captured on the internet
// store that have not yet been pulled across.
func (d Datasource) GetUnsyncedInternetFurnish(ctx context.Context, limit int) ([]model.FurnishApplication, error) {
	rows, err := d.Internet.QueryContext(ctx, `
		SELECT `+furnishColumns+`
		FROM ocms_furnish_application
		WHERE is_sync = 'N'
		ORDER BY submitted_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve unsynced furnish applications", err)
	}
	defer rows.Close()

	return collectFurnish(rows)
}

func (d Datasource) MarkInternetFurnishSynced(ctx context.Context, applicationID string) error {
	_, err := d.Internet.ExecContext(ctx, `
		UPDATE ocms_furnish_application SET is_sync = 'Y' WHERE application_id = $1
	`, applicationID)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark furnish application synced", err)
	}
	return nil
}

// UpsertFurnishApplication lands a pulled application on the intranet
// store. Replays of the same application are harmless: the row is only
// refreshed while it still awaits processing.
func (d Datasource) UpsertFurnishApplication(ctx context.Context, application *model.FurnishApplication) error {
	_, err := d.Intranet.ExecContext(ctx, `
		INSERT INTO ocms_furnish_application (
			application_id, notice_no, owner_driver_indicator, id_type, id_no, name,
			address_line_1, address_line_2, postal_code, status,
			notify_email, notify_phone, is_sync, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'Y', $13)
		ON CONFLICT (application_id) DO UPDATE SET
			name = EXCLUDED.name,
			address_line_1 = EXCLUDED.address_line_1,
			address_line_2 = EXCLUDED.address_line_2,
			postal_code = EXCLUDED.postal_code,
			notify_email = EXCLUDED.notify_email,
			notify_phone = EXCLUDED.notify_phone
		WHERE ocms_furnish_application.status = 'S'
	`, application.ApplicationID, application.NoticeNo, application.Indicator,
		application.IDType, application.IDNo, application.Name,
		application.AddressLine1, application.AddressLine2, application.PostalCode,
		application.Status, application.NotifyEmail, application.NotifyPhone, application.SubmittedAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to upsert furnish application", err)
	}
	return nil
}

func collectFurnish(rows *sql.Rows) ([]model.FurnishApplication, error) {
	applications := []model.FurnishApplication{}
	for rows.Next() {
		application, err := scanFurnish(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan furnish application data", err)
		}
		applications = append(applications, *application)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over furnish applications", err)
	}
	return applications, nil
}
