package domain

import "errors"

var (
	ErrBillNotFound   = errors.New("bill_not_found")
	ErrInvalidID      = errors.New("invalid_bill_id")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrInvalidTotal   = errors.New("invalid_total_amount")
	ErrInvalidSource  = errors.New("invalid_payment_source")
	ErrOverpayment    = errors.New("overpayment_rejected")
	ErrConflict       = errors.New("concurrent_update_conflict")
	ErrInvalidPatient = errors.New("invalid_patient")
)
