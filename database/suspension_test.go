package database

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/model"
)

func suspensionRows(suspensions ...model.Suspension) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"notice_no", "sr_no", "suspension_type", "reason_code", "remarks", "source_system",
		"suspended_at", "revival_due_at", "revived_at", "created_by", "updated_by", "updated_at",
	})
	for _, s := range suspensions {
		var revived interface{}
		if !s.RevivedAt.IsZero() {
			revived = s.RevivedAt
		}
		rows.AddRow(s.NoticeNo, s.SrNo, s.Type, s.ReasonCode, s.Remarks, s.Source,
			s.SuspendedAt, s.RevivalDueAt, revived, s.CreatedBy, s.UpdatedBy, s.UpdatedAt)
	}
	return rows
}

// timeNear matches a driver argument within a minute of the wanted time.
type timeNear struct {
	want time.Time
}

func (a timeNear) Match(v driver.Value) bool {
	got, ok := v.(time.Time)
	if !ok {
		return false
	}
	diff := got.Sub(a.want)
	return diff > -time.Minute && diff < time.Minute
}

func TestNextSuspensionSrNo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(sr_no\), 0\) \+ 1`).
		WithArgs("1000000001").
		WillReturnRows(sqlmock.NewRows([]string{"sr_no"}).AddRow(3))

	srNo, err := ds.NextSuspensionSrNo(context.Background(), "1000000001")
	require.NoError(t, err)
	assert.Equal(t, 3, srNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSuspension(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	suspension := model.Suspension{
		NoticeNo:     "1000000001",
		SrNo:         1,
		Type:         model.SuspensionTemporary,
		ReasonCode:   model.ReasonPDP,
		SuspendedAt:  time.Now(),
		RevivalDueAt: time.Now().AddDate(0, 0, 21),
		CreatedBy:    model.SystemUserID,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ocms_suspended_notice").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE ocms_valid_offence_notice").
		WithArgs(suspension.NoticeNo, suspension.Type, suspension.CreatedBy).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = ds.CreateSuspension(context.Background(), &suspension)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSuspension_RollsBackOnNoticeUpdateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	suspension := model.Suspension{
		NoticeNo:     "1000000001",
		SrNo:         1,
		Type:         model.SuspensionTemporary,
		ReasonCode:   model.ReasonHST,
		SuspendedAt:  time.Now(),
		RevivalDueAt: time.Now().AddDate(0, 0, 7),
		CreatedBy:    model.SystemUserID,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ocms_suspended_notice").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE ocms_valid_offence_notice").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = ds.CreateSuspension(context.Background(), &suspension)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSuspensionsDueForRevival(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	asOf := time.Now()
	due := model.Suspension{
		NoticeNo:     "1000000001",
		SrNo:         1,
		Type:         model.SuspensionTemporary,
		ReasonCode:   model.ReasonReduction,
		SuspendedAt:  asOf.AddDate(0, 0, -8),
		RevivalDueAt: asOf.AddDate(0, 0, -1),
		UpdatedAt:    asOf,
	}
	mock.ExpectQuery("SELECT .+ FROM ocms_suspended_notice").
		WithArgs(asOf, 100).
		WillReturnRows(suspensionRows(due))

	suspensions, err := ds.GetSuspensionsDueForRevival(context.Background(), asOf, 100)
	require.NoError(t, err)
	require.Len(t, suspensions, 1)
	assert.Equal(t, model.ReasonReduction, suspensions[0].ReasonCode)
	assert.True(t, suspensions[0].Active())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveSuspension_NoneReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	mock.ExpectQuery("SELECT .+ FROM ocms_suspended_notice").
		WithArgs("1000000001").
		WillReturnRows(suspensionRows())

	suspension, err := ds.GetActiveSuspension(context.Background(), "1000000001")
	require.NoError(t, err)
	assert.Nil(t, suspension)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviveSuspension_ResumesStageWithFreshDueDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ocms_suspended_notice").
		WithArgs("1000000001", 2, model.SystemUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT processing_stage FROM ocms_valid_offence_notice").
		WithArgs("1000000001").
		WillReturnRows(sqlmock.NewRows([]string{"processing_stage"}).AddRow(model.StageRD1))
	// The released notice picks up a full RD1 dwell from the moment of
	// revival, not the date it carried before the freeze.
	mock.ExpectExec("UPDATE ocms_valid_offence_notice").
		WithArgs("1000000001", model.SystemUserID, timeNear{want: time.Now().AddDate(0, 0, 14)}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = ds.ReviveSuspension(context.Background(), "1000000001", 2, model.SystemUserID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviveSuspension_TerminalStageCarriesNoDueDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ocms_suspended_notice").
		WithArgs("1000000001", 1, model.SystemUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT processing_stage FROM ocms_valid_offence_notice").
		WithArgs("1000000001").
		WillReturnRows(sqlmock.NewRows([]string{"processing_stage"}).AddRow(model.StageDR3))
	mock.ExpectExec("UPDATE ocms_valid_offence_notice").
		WithArgs("1000000001", model.SystemUserID, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = ds.ReviveSuspension(context.Background(), "1000000001", 1, model.SystemUserID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviveSuspension_AlreadyRevived(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ocms_suspended_notice").
		WithArgs("1000000001", 2, model.SystemUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = ds.ReviveSuspension(context.Background(), "1000000001", 2, model.SystemUserID)
	require.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertSuspensionToPermanent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Intranet: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ocms_suspended_notice").
		WithArgs("1000000001", 1, model.SystemUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE ocms_valid_offence_notice").
		WithArgs("1000000001", model.SystemUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = ds.ConvertSuspensionToPermanent(context.Background(), "1000000001", 1, model.SystemUserID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
