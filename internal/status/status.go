// Package status resolves application lifecycle codes into display labels and
// the edit-lock decision that gates every mutating action in the portal.
package status

import (
	"fmt"

	"studyportal/pkg/types"
)

const (
	LabelDraft   = "Draft"
	LabelUnknown = "Unknown"
)

// Resolution is the display label and edit decision for a status code.
type Resolution struct {
	Label    string
	Editable bool
}

var table = map[types.ApplicationStatus]Resolution{
	types.ApplicationStatusSubmitted:   {Label: "Submitted", Editable: false},
	types.ApplicationStatusPending:     {Label: "Pending", Editable: true},
	types.ApplicationStatusUnderReview: {Label: "Under Review", Editable: false},
	types.ApplicationStatusRejected:    {Label: "Rejected", Editable: true},
	types.ApplicationStatusApproved:    {Label: "Approved", Editable: false},
}

// Resolve maps a status code to its label and edit permission. A nil code
// means no application exists yet and is editable so one can be created.
// Codes outside the table are never editable.
func Resolve(code *types.ApplicationStatus) Resolution {
	if code == nil {
		return Resolution{Label: LabelDraft, Editable: true}
	}

	res, ok := table[*code]
	if !ok {
		return Resolution{Label: LabelUnknown, Editable: false}
	}

	return res
}

// CanEdit reports whether edit, delete and resubmit actions are permitted.
func CanEdit(code *types.ApplicationStatus) bool {
	return Resolve(code).Editable
}

// Label is shorthand for Resolve(code).Label.
func Label(code *types.ApplicationStatus) string {
	return Resolve(code).Label
}

// LockedError is returned when a mutation is attempted while the status
// does not permit edits.
type LockedError struct {
	Label string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("editing is disabled while the application is %s", e.Label)
}

// RequireEditable returns a *LockedError unless CanEdit(code).
func RequireEditable(code *types.ApplicationStatus) error {
	res := Resolve(code)
	if !res.Editable {
		return &LockedError{Label: res.Label}
	}
	return nil
}

// CanSubmit reports whether the application can be submitted or resubmitted.
// A nil code is a first submission. It is the same decision as CanEdit.
func CanSubmit(code *types.ApplicationStatus) bool {
	return CanEdit(code)
}

var reviewTransitions = map[types.ApplicationStatus][]types.ApplicationStatus{
	types.ApplicationStatusSubmitted: {
		types.ApplicationStatusUnderReview,
		types.ApplicationStatusRejected,
	},
	types.ApplicationStatusUnderReview: {
		types.ApplicationStatusApproved,
		types.ApplicationStatusRejected,
	},
}

// ReviewTargets lists the statuses a reviewer may move an application to.
func ReviewTargets(from *types.ApplicationStatus) []types.ApplicationStatus {
	if from == nil {
		return nil
	}
	return reviewTransitions[*from]
}

// CanReview reports whether a reviewer may move an application from one
// status to another.
func CanReview(from *types.ApplicationStatus, to types.ApplicationStatus) bool {
	for _, target := range ReviewTargets(from) {
		if target == to {
			return true
		}
	}
	return false
}

var documentLabels = map[types.DocumentStatus]string{
	types.DocumentStatusUploaded:    "Uploaded",
	types.DocumentStatusUnderReview: "Under Review",
	types.DocumentStatusRejected:    "Rejected",
	types.DocumentStatusApproved:    "Approved",
}

// DocumentLabel maps a document status code to its display label.
func DocumentLabel(code types.DocumentStatus) string {
	if label, ok := documentLabels[code]; ok {
		return label
	}
	return LabelUnknown
}

// All returns every known application status in code order.
func All() []types.ApplicationStatus {
	return []types.ApplicationStatus{
		types.ApplicationStatusSubmitted,
		types.ApplicationStatusPending,
		types.ApplicationStatusUnderReview,
		types.ApplicationStatusRejected,
		types.ApplicationStatusApproved,
	}
}
