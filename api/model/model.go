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
package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/ocmsproject/ocms/model"
)

// CreateSuspension is the request body for placing a suspension on a
// notice.
type CreateSuspension struct {
	NoticeNo       string `json:"notice_no"`
	SuspensionType string `json:"suspension_type"`
	ReasonCode     string `json:"reason_code"`
	Remarks        string `json:"remarks"`
	Source         string `json:"source_system"`
	CreatedBy      string `json:"created_by"`
}

func (s *CreateSuspension) ValidateCreateSuspension() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.NoticeNo, validation.Required),
		validation.Field(&s.SuspensionType, validation.Required,
			validation.In(model.SuspensionTemporary, model.SuspensionPermanent)),
		validation.Field(&s.ReasonCode, validation.Required,
			validation.In(model.ReasonVIPOneShot, model.ReasonVIPLoop, model.ReasonHST,
				model.ReasonReduction, model.ReasonPDP, model.ReasonFP)),
		validation.Field(&s.CreatedBy, validation.Required),
	)
}

// CreateReduction is the request body for recording a receipted
// composition amount reduction. AmountReduced is the discount taken off;
// AmountPayable is the amount the notice settles at afterwards.
type CreateReduction struct {
	NoticeNo          string          `json:"notice_no"`
	ReceiptNo         string          `json:"receipt_no"`
	AmountReduced     decimal.Decimal `json:"amount_reduced"`
	AmountPayable     decimal.Decimal `json:"amount_payable"`
	DateOfReduction   time.Time       `json:"date_of_reduction"`
	ExpiryDate        time.Time       `json:"expiry_date"`
	ReasonOfReduction string          `json:"reason_of_reduction"`
	SuspensionSource  string          `json:"suspension_source"`
	ApprovedBy        string          `json:"approved_by"`
}

func positiveAmount(field string) validation.RuleFunc {
	return func(value interface{}) error {
		amount, ok := value.(decimal.Decimal)
		if !ok || !amount.IsPositive() {
			return errors.New(field + " must be a positive amount")
		}
		return nil
	}
}

func (r *CreateReduction) ValidateCreateReduction() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.NoticeNo, validation.Required),
		validation.Field(&r.ReceiptNo, validation.Required),
		validation.Field(&r.AmountReduced, validation.By(positiveAmount("amount_reduced"))),
		validation.Field(&r.AmountPayable, validation.By(func(value interface{}) error {
			amount, ok := value.(decimal.Decimal)
			if !ok || amount.IsNegative() {
				return errors.New("amount_payable cannot be negative")
			}
			return nil
		})),
		validation.Field(&r.ApprovedBy, validation.Required),
	)
}

// DecideFurnish is the request body for an officer's manual furnish
// decision. Reason is required on rejection only. The notify flags pick
// the owner-facing channels used to announce the decision.
type DecideFurnish struct {
	Reason        string `json:"reason"`
	ProcessedBy   string `json:"processed_by"`
	NotifyByEmail bool   `json:"notify_by_email"`
	NotifyBySMS   bool   `json:"notify_by_sms"`
}

func (d *DecideFurnish) ValidateApprove() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.ProcessedBy, validation.Required),
	)
}

func (d *DecideFurnish) ValidateReject() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Reason, validation.Required),
		validation.Field(&d.ProcessedBy, validation.Required),
	)
}

// JobCallback is the request body an external agency posts to deliver an
// outcome token against a pending request.
type JobCallback struct {
	RequestID string `json:"request_id"`
	Token     string `json:"token"`
}

func (j *JobCallback) ValidateJobCallback() error {
	return validation.ValidateStruct(j,
		validation.Field(&j.RequestID, validation.Required),
		validation.Field(&j.Token, validation.Required),
	)
}
