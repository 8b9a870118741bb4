package database

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

func (d Datasource) GetReductionByReceipt(ctx context.Context, receiptNo string) (*model.Reduction, error) {
	reduction := model.Reduction{}
	var reason, suspensionSource, approvedBy sql.NullString
	var expiry sql.NullTime

	row := d.Intranet.QueryRowContext(ctx, `
		SELECT reduction_id, notice_no, sr_no, receipt_no, reduction_date,
			original_amount, amount_reduced, new_amount_payable,
			reason, expiry_date, suspension_source, approved_by, created_at
		FROM ocms_reduced_offence_amount
		WHERE receipt_no = $1
	`, receiptNo)

	err := row.Scan(&reduction.ReductionID, &reduction.NoticeNo, &reduction.SrNo,
		&reduction.ReceiptNo, &reduction.ReductionDate, &reduction.OriginalAmount,
		&reduction.AmountReduced, &reduction.NewAmountPayable,
		&reason, &expiry, &suspensionSource, &approvedBy, &reduction.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve reduction", err)
	}
	reduction.Reason = reason.String
	reduction.ExpiryDate = expiry.Time
	reduction.SuspensionSource = suspensionSource.String
	reduction.ApprovedBy = approvedBy.String
	return &reduction, nil
}

// CreateReductionWithSuspension records a reduced offence amount together
// with its companion suspension entry in one transaction. Both rows carry
// the same serial number, so either side of the pair resolves the other.
func (d Datasource) CreateReductionWithSuspension(ctx context.Context, reduction *model.Reduction, suspension *model.Suspension) error {
	tx, err := d.Intranet.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ocms_reduced_offence_amount (
			reduction_id, notice_no, sr_no, receipt_no, reduction_date,
			original_amount, amount_reduced, new_amount_payable,
			reason, expiry_date, suspension_source, approved_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
	`, reduction.ReductionID, reduction.NoticeNo, reduction.SrNo, reduction.ReceiptNo,
		reduction.ReductionDate, reduction.OriginalAmount, reduction.AmountReduced,
		reduction.NewAmountPayable, reduction.Reason, nullTime(reduction.ExpiryDate),
		reduction.SuspensionSource, reduction.ApprovedBy)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return apierror.NewAPIError(apierror.ErrConflict, "Reduction for this receipt already exists", err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create reduction", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ocms_suspended_notice (
			notice_no, sr_no, suspension_type, reason_code, remarks, source_system,
			suspended_at, revival_due_at, created_by, updated_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, NOW())
	`, suspension.NoticeNo, suspension.SrNo, suspension.Type, suspension.ReasonCode,
		suspension.Remarks, suspension.Source, suspension.SuspendedAt,
		nullTime(suspension.RevivalDueAt), suspension.CreatedBy)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create companion suspension", err)
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
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit reduction", err)
	}
	return nil
}
