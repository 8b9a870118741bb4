package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

const suspensionColumns = `
	notice_no, sr_no, suspension_type, reason_code, remarks, source_system,
	suspended_at, revival_due_at, revived_at, created_by, updated_by, updated_at
`

func scanSuspension(row interface {
	Scan(dest ...interface{}) error
}) (*model.Suspension, error) {
	s := model.Suspension{}
	var remarks, source, createdBy, updatedBy sql.NullString
	var revivalDue, revived sql.NullTime
	err := row.Scan(
		&s.NoticeNo, &s.SrNo, &s.Type, &s.ReasonCode, &remarks, &source,
		&s.SuspendedAt, &revivalDue, &revived, &createdBy, &updatedBy, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Remarks = remarks.String
	s.Source = source.String
	s.RevivalDueAt = revivalDue.Time
	s.RevivedAt = revived.Time
	s.CreatedBy = createdBy.String
	s.UpdatedBy = updatedBy.String
	return &s, nil
}

// NextSuspensionSrNo allocates the next serial number for a notice's
// suspension history. Reduction records created in the same unit of work
// share the number.
func (d Datasource) NextSuspensionSrNo(ctx context.Context, noticeNo string) (int, error) {
	var srNo int
	err := d.Intranet.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sr_no), 0) + 1
		FROM ocms_suspended_notice
		WHERE notice_no = $1
	`, noticeNo).Scan(&srNo)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to allocate suspension serial number", err)
	}
	return srNo, nil
}

// CreateSuspension inserts a suspension entry and stamps the suspension
// type onto the notice in one transaction.
func (d Datasource) CreateSuspension(ctx context.Context, suspension *model.Suspension) error {
	tx, err := d.Intranet.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ocms_suspended_notice (
			notice_no, sr_no, suspension_type, reason_code, remarks, source_system,
			suspended_at, revival_due_at, created_by, updated_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, NOW())
	`, suspension.NoticeNo, suspension.SrNo, suspension.Type, suspension.ReasonCode,
		suspension.Remarks, suspension.Source, suspension.SuspendedAt,
		nullTime(suspension.RevivalDueAt), suspension.CreatedBy)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return apierror.NewAPIError(apierror.ErrConflict, "Suspension entry with this serial number already exists", err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create suspension", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ocms_valid_offence_notice
		SET suspension_type = $2, is_sync = 'N', updated_by = $3, updated_at = NOW()
		WHERE notice_no = $1
	`, suspension.NoticeNo, suspension.Type, suspension.CreatedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to stamp suspension on notice", err)
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit suspension", err)
	}
	return nil
}

// GetActiveSuspension returns the latest unrevived suspension entry for a
// notice, or nil when the notice carries none.
func (d Datasource) GetActiveSuspension(ctx context.Context, noticeNo string) (*model.Suspension, error) {
	row := d.Intranet.QueryRowContext(ctx, `
		SELECT `+suspensionColumns+`
		FROM ocms_suspended_notice
		WHERE notice_no = $1 AND revived_at IS NULL
		ORDER BY sr_no DESC
		LIMIT 1
	`, noticeNo)

	suspension, err := scanSuspension(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve active suspension", err)
	}
	return suspension, nil
}

// GetSuspensionsDueForRevival lists temporary suspensions whose hold
// period has lapsed as of the given time.
func (d Datasource) GetSuspensionsDueForRevival(ctx context.Context, asOf time.Time, limit int) ([]model.Suspension, error) {
	rows, err := d.Intranet.QueryContext(ctx, `
		SELECT `+suspensionColumns+`
		FROM ocms_suspended_notice
		WHERE suspension_type = 'TS'
		AND revived_at IS NULL
		AND revival_due_at <= $1
		ORDER BY revival_due_at
		LIMIT $2
	`, asOf, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve suspensions due for revival", err)
	}
	defer rows.Close()

	suspensions := []model.Suspension{}
	for rows.Next() {
		suspension, err := scanSuspension(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan suspension data", err)
		}
		suspensions = append(suspensions, *suspension)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over suspensions", err)
	}
	return suspensions, nil
}

// ReviveSuspension closes a suspension entry and releases the notice in
// one transaction. The notice resumes at its current stage with a fresh
// next processing date, so time spent frozen never counts against the
// stage's dwell.
func (d Datasource) ReviveSuspension(ctx context.Context, noticeNo string, srNo int, revivedBy string) error {
	tx, err := d.Intranet.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE ocms_suspended_notice
		SET revived_at = NOW(), updated_by = $3, updated_at = NOW()
		WHERE notice_no = $1 AND sr_no = $2 AND revived_at IS NULL
	`, noticeNo, srNo, revivedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to revive suspension", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Active suspension entry not found", nil)
	}

	var stage string
	err = tx.QueryRowContext(ctx, `
		SELECT processing_stage FROM ocms_valid_offence_notice WHERE notice_no = $1
	`, noticeNo).Scan(&stage)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read notice stage for revival", err)
	}

	// Terminal stages keep a null next processing date.
	var nextDue time.Time
	if _, dwellDays, ok := model.NextStage(stage); ok {
		nextDue = time.Now().AddDate(0, 0, dwellDays)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ocms_valid_offence_notice
		SET suspension_type = '', next_processing_date = $3, is_sync = 'N', updated_by = $2, updated_at = NOW()
		WHERE notice_no = $1
	`, noticeNo, revivedBy, nullTime(nextDue))
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to release notice", err)
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit revival", err)
	}
	return nil
}

// ConvertSuspensionToPermanent upgrades a temporary suspension to a
// permanent one on both the entry and its notice.
func (d Datasource) ConvertSuspensionToPermanent(ctx context.Context, noticeNo string, srNo int, updatedBy string) error {
	tx, err := d.Intranet.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE ocms_suspended_notice
		SET suspension_type = 'PS', revival_due_at = NULL, updated_by = $3, updated_at = NOW()
		WHERE notice_no = $1 AND sr_no = $2 AND revived_at IS NULL
	`, noticeNo, srNo, updatedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to convert suspension", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Active suspension entry not found", nil)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ocms_valid_offence_notice
		SET suspension_type = 'PS', is_sync = 'N', updated_by = $2, updated_at = NOW()
		WHERE notice_no = $1
	`, noticeNo, updatedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to stamp permanent suspension on notice", err)
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit conversion", err)
	}
	return nil
}
