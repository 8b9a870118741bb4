/*
Copyright 2025 OCMS Project Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ocms

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ocmsproject/ocms/database"
	"github.com/ocmsproject/ocms/internal/apierror"
	"github.com/ocmsproject/ocms/internal/notification"
	"github.com/ocmsproject/ocms/model"
)

const furnishBatchLimit = 500

// FurnishOutcome is the decision reached for one application, together
// with which side effects actually happened while applying it.
type FurnishOutcome struct {
	ApplicationID     string `json:"application_id"`
	Status            string `json:"status"`
	Reason            string `json:"reason,omitempty"`
	RecordUpdated     bool   `json:"record_updated"`
	SuspensionRevived bool   `json:"suspension_revived"`
	EmailSentToOwner  bool   `json:"email_sent_to_owner"`
	SMSSentToOwner    bool   `json:"sms_sent_to_owner"`
}

// NotificationPrefs selects which owner-facing channels a decision may
// use. A channel still needs a contact on the application to fire.
type NotificationPrefs struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

// allChannels is the default for system-driven processing: notify on
// every channel the application carries a contact for.
var allChannels = NotificationPrefs{Email: true, SMS: true}

// FurnishService decides furnish applications. Every application runs the
// same check battery: hard failures reject it, doubtful ones park it for
// an officer, and a clean pass transfers liability to the furnished party.
type FurnishService struct {
	datasource  database.IDataSource
	suspensions *SuspensionService
}

func NewFurnishService(ds database.IDataSource, suspensions *SuspensionService) *FurnishService {
	return &FurnishService{datasource: ds, suspensions: suspensions}
}

// ProcessApplication runs the check battery on a submitted application
// and applies the outcome.
func (s *FurnishService) ProcessApplication(ctx context.Context, applicationID, processedBy string) (*FurnishOutcome, error) {
	app, err := s.datasource.GetFurnishApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != model.FurnishSubmitted {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("application %s is not awaiting processing (status %s)", applicationID, app.Status), nil)
	}

	notice, err := s.datasource.GetNotice(ctx, app.NoticeNo)
	if err != nil {
		return nil, err
	}
	// Permanent suspension outranks every other check: a notice frozen for
	// good is rejected for that reason even when the stage window has also
	// closed.
	if notice.SuspensionType == model.SuspensionPermanent {
		return s.reject(ctx, app, "notice is permanently suspended", processedBy, allChannels)
	}
	if !model.FurnishableStage(notice.ProcessingStage) {
		return s.reject(ctx, app,
			fmt.Sprintf("particulars cannot be furnished at stage %s", notice.ProcessingStage), processedBy, allChannels)
	}

	review, reason, err := s.needsManualReview(ctx, app)
	if err != nil {
		return nil, err
	}
	if review {
		return s.park(ctx, app, notice, reason, processedBy)
	}

	return s.approve(ctx, app, notice, processedBy, allChannels)
}

// needsManualReview runs the doubt checks. Any hit parks the application
// rather than deciding it, since each one may have an innocent
// explanation only an officer can verify.
func (s *FurnishService) needsManualReview(ctx context.Context, app *model.FurnishApplication) (bool, string, error) {
	elsewhere, err := s.datasource.IsCurrentOffenderElsewhere(ctx, app.IDNo, app.NoticeNo)
	if err != nil {
		return false, "", err
	}
	if elsewhere {
		return true, "furnished party is the current offender on another notice", nil
	}

	known, err := s.datasource.ExistsInParticulars(ctx, app.IDNo)
	if err != nil {
		return false, "", err
	}
	if known {
		return true, "furnished party already appears in furnished particulars", nil
	}

	already, err := s.datasource.HasParticulars(ctx, app.NoticeNo, app.Indicator)
	if err != nil {
		return false, "", err
	}
	if already {
		return true, fmt.Sprintf("notice already holds %s particulars", app.Indicator), nil
	}

	offender, err := s.datasource.GetCurrentOffender(ctx, app.NoticeNo)
	if err != nil {
		return false, "", err
	}
	if offender == nil {
		return true, "notice has no current offender on record", nil
	}

	return false, "", nil
}

// park sends the application for an officer's decision and freezes the
// notice so the reminder chain does not run past the pending review.
func (s *FurnishService) park(ctx context.Context, app *model.FurnishApplication, notice *model.Notice, reason, processedBy string) (*FurnishOutcome, error) {
	if err := s.datasource.UpdateFurnishStatus(ctx, app.ApplicationID, model.FurnishManualReview, reason, processedBy); err != nil {
		return nil, err
	}

	if !notice.Suspended() {
		_, err := s.suspensions.CreateSuspension(ctx, notice.NoticeNo, model.SuspensionTemporary,
			model.ReasonPDP, "pending furnish review of "+app.ApplicationID, model.SourceOCMS, processedBy)
		if err != nil && !apierror.IsBusiness(err) {
			return nil, err
		}
	}

	return &FurnishOutcome{ApplicationID: app.ApplicationID, Status: model.FurnishManualReview, Reason: reason}, nil
}

func (s *FurnishService) reject(ctx context.Context, app *model.FurnishApplication, reason, processedBy string, prefs NotificationPrefs) (*FurnishOutcome, error) {
	if err := s.datasource.UpdateFurnishStatus(ctx, app.ApplicationID, model.FurnishRejected, reason, processedBy); err != nil {
		return nil, err
	}
	emailSent, smsSent := s.notify(app, prefs, "furnish-rejected",
		fmt.Sprintf("Your furnish application %s was rejected: %s", app.ApplicationID, reason))
	return &FurnishOutcome{
		ApplicationID:    app.ApplicationID,
		Status:           model.FurnishRejected,
		Reason:           reason,
		EmailSentToOwner: emailSent,
		SMSSentToOwner:   smsSent,
	}, nil
}

// approve records the furnished party as the current offender, restarts
// the appropriate chain against them and lifts any review hold.
func (s *FurnishService) approve(ctx context.Context, app *model.FurnishApplication, notice *model.Notice, processedBy string, prefs NotificationPrefs) (*FurnishOutcome, error) {
	offender := model.OwnerDriver{
		NoticeNo:        app.NoticeNo,
		Indicator:       app.Indicator,
		IDType:          app.IDType,
		IDNo:            app.IDNo,
		Name:            app.Name,
		AddressLine1:    app.AddressLine1,
		AddressLine2:    app.AddressLine2,
		PostalCode:      app.PostalCode,
		CurrentOffender: "Y",
		CreatedBy:       processedBy,
		CreatedAt:       time.Now(),
	}
	if err := s.datasource.CreateOwnerDriver(ctx, &offender); err != nil {
		return nil, err
	}

	newStage := app.StageAfterApproval()
	_, dwellDays, _ := model.NextStage(newStage)
	if err := s.datasource.UpdateNoticeStage(ctx, app.NoticeNo, newStage, time.Now().AddDate(0, 0, dwellDays), processedBy); err != nil {
		return nil, err
	}

	// A review hold from an earlier parking of this notice no longer has a
	// reason to exist.
	revived := false
	active, err := s.datasource.GetActiveSuspension(ctx, app.NoticeNo)
	if err != nil {
		return nil, err
	}
	if active != nil && active.Type == model.SuspensionTemporary && active.ReasonCode == model.ReasonPDP {
		if err := s.datasource.ReviveSuspension(ctx, active.NoticeNo, active.SrNo, processedBy); err != nil {
			return nil, err
		}
		revived = true
	}

	if err := s.datasource.UpdateFurnishStatus(ctx, app.ApplicationID, model.FurnishApproved, "", processedBy); err != nil {
		return nil, err
	}
	emailSent, smsSent := s.notify(app, prefs, "furnish-approved",
		fmt.Sprintf("Your furnish application %s was approved. Notice %s now proceeds against the furnished party.", app.ApplicationID, app.NoticeNo))
	return &FurnishOutcome{
		ApplicationID:     app.ApplicationID,
		Status:            model.FurnishApproved,
		RecordUpdated:     true,
		SuspensionRevived: revived,
		EmailSentToOwner:  emailSent,
		SMSSentToOwner:    smsSent,
	}, nil
}

// RejectApplication is the officer's manual rejection. It never runs the
// check battery; the officer's reason stands on its own. prefs picks the
// channels the owner is told on.
func (s *FurnishService) RejectApplication(ctx context.Context, applicationID, reason, processedBy string, prefs NotificationPrefs) (*FurnishOutcome, error) {
	app, err := s.datasource.GetFurnishApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.Open() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("application %s is already decided (status %s)", applicationID, app.Status), nil)
	}
	if reason == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "a rejection reason is required", nil)
	}
	return s.reject(ctx, app, reason, processedBy, prefs)
}

// ApproveApplication is the officer's manual approval of a parked
// application. The battery already ran when the application was parked;
// the officer's decision overrides the doubt it raised.
func (s *FurnishService) ApproveApplication(ctx context.Context, applicationID, processedBy string, prefs NotificationPrefs) (*FurnishOutcome, error) {
	app, err := s.datasource.GetFurnishApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != model.FurnishManualReview {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("application %s is not under review (status %s)", applicationID, app.Status), nil)
	}

	notice, err := s.datasource.GetNotice(ctx, app.NoticeNo)
	if err != nil {
		return nil, err
	}
	if !model.FurnishableStage(notice.ProcessingStage) {
		return s.reject(ctx, app,
			fmt.Sprintf("particulars cannot be furnished at stage %s", notice.ProcessingStage), processedBy, prefs)
	}
	return s.approve(ctx, app, notice, processedBy, prefs)
}

// GetApplication looks a furnish application up by id.
func (s *FurnishService) GetApplication(ctx context.Context, applicationID string) (*model.FurnishApplication, error) {
	return s.datasource.GetFurnishApplication(ctx, applicationID)
}

// notify reports per-channel gateway acceptance. Delivery failures are
// logged, never escalated.
func (s *FurnishService) notify(app *model.FurnishApplication, prefs NotificationPrefs, template, body string) (emailSent, smsSent bool) {
	if prefs.Email && app.NotifyEmail != "" {
		emailSent = notification.SendEmail(app.NotifyEmail, app.NoticeNo, template, body)
		if !emailSent {
			logrus.Warnf("email notification not delivered for application %s", app.ApplicationID)
		}
	}
	if prefs.SMS && app.NotifyPhone != "" {
		smsSent = notification.SendSMS(app.NotifyPhone, app.NoticeNo, template, body)
		if !smsSent {
			logrus.Warnf("sms notification not delivered for application %s", app.ApplicationID)
		}
	}
	return emailSent, smsSent
}

// JobNameFurnishApproval identifies the furnish processing job.
const JobNameFurnishApproval = "furnish-approval"

// FurnishApprovalJob processes the backlog of submitted applications.
type FurnishApprovalJob struct {
	service *FurnishService

	pending []model.FurnishApplication
}

func NewFurnishApprovalJob(service *FurnishService) *FurnishApprovalJob {
	return &FurnishApprovalJob{service: service}
}

func (j *FurnishApprovalJob) Name() string { return JobNameFurnishApproval }

func (j *FurnishApprovalJob) ValidatePreConditions(ctx context.Context) error {
	if j.service == nil {
		return fmt.Errorf("furnish service not configured")
	}
	return nil
}

func (j *FurnishApprovalJob) Initialize(ctx context.Context) error {
	pending, err := j.service.datasource.GetSubmittedFurnishApplications(ctx, furnishBatchLimit)
	if err != nil {
		return asTechnical(err, "loading submitted furnish applications")
	}
	j.pending = pending
	return nil
}

func (j *FurnishApprovalJob) Execute(ctx context.Context) (JobResult, error) {
	var successCount, failureCount int
	for i := range j.pending {
		app := &j.pending[i]
		if _, err := j.service.ProcessApplication(ctx, app.ApplicationID, model.SystemUserID); err != nil {
			failureCount++
			logrus.Errorf("processing furnish application %s: %v", app.ApplicationID, err)
			continue
		}
		successCount++
	}
	return batchResult(JobNameFurnishApproval, successCount, failureCount), nil
}

func (j *FurnishApprovalJob) Cleanup(ctx context.Context) {
	j.pending = nil
}
