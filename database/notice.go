package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

const noticeColumns = `
	notice_no, vehicle_no, rule_code, offence_date, amount_payable,
	processing_stage, next_processing_date, last_processing_date,
	suspension_type, is_sync, created_at, updated_by, updated_at
`

func scanNotice(row interface {
	Scan(dest ...interface{}) error
}) (*model.Notice, error) {
	notice := model.Notice{}
	var nextDue, lastProcessed sql.NullTime
	var updatedBy sql.NullString
	err := row.Scan(
		&notice.NoticeNo, &notice.VehicleNo, &notice.RuleCode, &notice.OffenceDate,
		&notice.AmountPayable, &notice.ProcessingStage, &nextDue, &lastProcessed,
		&notice.SuspensionType, &notice.IsSync, &notice.CreatedAt, &updatedBy, &notice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	notice.NextProcessingDate = nextDue.Time
	notice.LastProcessingDate = lastProcessed.Time
	notice.UpdatedBy = updatedBy.String
	return &notice, nil
}

func (d Datasource) GetNotice(ctx context.Context, noticeNo string) (*model.Notice, error) {
	row := d.Intranet.QueryRowContext(ctx, `
		SELECT `+noticeColumns+`
		FROM ocms_valid_offence_notice
		WHERE notice_no = $1
	`, noticeNo)

	notice, err := scanNotice(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Notice not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve notice", err)
	}
	return notice, nil
}

// UpdateNoticeStage moves a notice to the given stage, stamps the last
// processing date and queues the row for replication.
func (d Datasource) UpdateNoticeStage(ctx context.Context, noticeNo, stage string, nextDue time.Time, updatedBy string) error {
	result, err := d.Intranet.ExecContext(ctx, `
		UPDATE ocms_valid_offence_notice
		SET processing_stage = $2,
			next_processing_date = $3,
			last_processing_date = NOW(),
			is_sync = 'N',
			updated_by = $4,
			updated_at = NOW()
		WHERE notice_no = $1
	`, noticeNo, stage, nextDue, updatedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update notice stage", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Notice not found", nil)
	}
	return nil
}

// UpdateNoticePayable restates a notice's payable amount, as when an
// approved reduction lands. The amount is the new payable, not a delta.
func (d Datasource) UpdateNoticePayable(ctx context.Context, noticeNo string, amount decimal.Decimal, updatedBy string) error {
	result, err := d.Intranet.ExecContext(ctx, `
		UPDATE ocms_valid_offence_notice
		SET amount_payable = $2,
			is_sync = 'N',
			updated_by = $3,
			updated_at = NOW()
		WHERE notice_no = $1
	`, noticeNo, amount, updatedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update notice payable amount", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Notice not found", nil)
	}
	return nil
}

func (d Datasource) SetNoticeSuspensionType(ctx context.Context, noticeNo, suspensionType, updatedBy string) error {
	result, err := d.Intranet.ExecContext(ctx, `
		UPDATE ocms_valid_offence_notice
		SET suspension_type = $2,
			is_sync = 'N',
			updated_by = $3,
			updated_at = NOW()
		WHERE notice_no = $1
	`, noticeNo, suspensionType, updatedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update notice suspension type", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Notice not found", nil)
	}
	return nil
}

// GetNoticesDueForStageAdvance picks unsuspended notices sitting in the
// reminder/demand chain whose next processing date has lapsed.
func (d Datasource) GetNoticesDueForStageAdvance(ctx context.Context, asOf time.Time, limit int) ([]model.Notice, error) {
	rows, err := d.Intranet.QueryContext(ctx, `
		SELECT `+noticeColumns+`
		FROM ocms_valid_offence_notice
		WHERE next_processing_date <= $1
		AND suspension_type = ''
		AND processing_stage IN ('RD1', 'RD2', 'RR3', 'DN1', 'DN2')
		ORDER BY next_processing_date
		LIMIT $2
	`, asOf, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve notices due for stage advance", err)
	}
	defer rows.Close()

	return collectNotices(rows)
}

// GetVIPNoticesForReloop finds unsuspended notices at a court-warning
// stage whose vehicle carries the VIP flag. These get a fresh hold instead
// of progressing to court action.
func (d Datasource) GetVIPNoticesForReloop(ctx context.Context, limit int) ([]model.Notice, error) {
	rows, err := d.Intranet.QueryContext(ctx, `
		SELECT n.notice_no, n.vehicle_no, n.rule_code, n.offence_date, n.amount_payable,
			n.processing_stage, n.next_processing_date, n.last_processing_date,
			n.suspension_type, n.is_sync, n.created_at, n.updated_by, n.updated_at
		FROM ocms_valid_offence_notice n
		JOIN ocms_vip_vehicle v ON v.vehicle_no = n.vehicle_no
		WHERE n.processing_stage IN ('RR3', 'DR3')
		AND n.suspension_type = ''
		ORDER BY n.notice_no
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve notices for relooping", err)
	}
	defer rows.Close()

	return collectNotices(rows)
}

func (d Datasource) IsVIPVehicle(ctx context.Context, vehicleNo string) (bool, error) {
	var exists bool
	err := d.Intranet.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM ocms_vip_vehicle WHERE vehicle_no = $1)
	`, vehicleNo).Scan(&exists)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check vehicle flag", err)
	}
	return exists, nil
}

func (d Datasource) GetUnsyncedNotices(ctx context.Context, limit int) ([]model.Notice, error) {
	rows, err := d.Intranet.QueryContext(ctx, `
		SELECT `+noticeColumns+`
		FROM ocms_valid_offence_notice
		WHERE is_sync = 'N'
		ORDER BY updated_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve unsynced notices", err)
	}
	defer rows.Close()

	return collectNotices(rows)
}

func (d Datasource) MarkNoticeSynced(ctx context.Context, noticeNo string) error {
	_, err := d.Intranet.ExecContext(ctx, `
		UPDATE ocms_valid_offence_notice SET is_sync = 'Y' WHERE notice_no = $1
	`, noticeNo)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark notice synced", err)
	}
	return nil
}

// UpsertInternetNotice writes a replica row to the internet store. The
// replica always carries is_sync = 'Y'; the flag only ever tracks pending
// work on the source side.
func (d Datasource) UpsertInternetNotice(ctx context.Context, notice *model.Notice) error {
	_, err := d.Internet.ExecContext(ctx, `
		INSERT INTO ocms_valid_offence_notice (
			notice_no, vehicle_no, rule_code, offence_date, amount_payable,
			processing_stage, next_processing_date, last_processing_date,
			suspension_type, is_sync, created_at, updated_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'Y', $10, $11, NOW())
		ON CONFLICT (notice_no) DO UPDATE SET
			vehicle_no = EXCLUDED.vehicle_no,
			rule_code = EXCLUDED.rule_code,
			amount_payable = EXCLUDED.amount_payable,
			processing_stage = EXCLUDED.processing_stage,
			next_processing_date = EXCLUDED.next_processing_date,
			last_processing_date = EXCLUDED.last_processing_date,
			suspension_type = EXCLUDED.suspension_type,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
	`, notice.NoticeNo, notice.VehicleNo, notice.RuleCode, notice.OffenceDate,
		notice.AmountPayable, notice.ProcessingStage, nullTime(notice.NextProcessingDate),
		nullTime(notice.LastProcessingDate), notice.SuspensionType, notice.CreatedAt, notice.UpdatedBy)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred: "+pqErr.Code.Name(), err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to upsert notice replica", err)
	}
	return nil
}

func collectNotices(rows *sql.Rows) ([]model.Notice, error) {
	notices := []model.Notice{}
	for rows.Next() {
		notice, err := scanNotice(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan notice data", err)
		}
		notices = append(notices, *notice)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over notices", err)
	}
	return notices, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
