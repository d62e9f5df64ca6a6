package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"studyportal/internal/documents"
	"studyportal/internal/status"
	"studyportal/internal/utils"
	"studyportal/internal/wizard"
	"studyportal/pkg/types"
)

type documentPage struct {
	step  wizard.Step
	group documents.Group
}

var documentPages = []documentPage{
	{step: wizard.StepAcademicDocuments, group: documents.GroupAcademic},
	{step: wizard.StepSupportingDocuments, group: documents.GroupSupporting},
}

var errDocumentsMissing = errors.New("required documents missing")

// SlotRow is one document slot as rendered on a page.
type SlotRow struct {
	Slot      documents.Slot
	Entry     documents.Entry
	HasEntry  bool
	CanRemove bool
	Accept    string
	UploadURL string
	DeleteURL string
	ReviewURL string
}

type DocumentsPageData struct {
	PortalPageData
	Rows    []SlotRow
	CanEdit bool
	Missing []documents.Slot
}

func slotRows(t *documents.Tracker, g documents.Group, base string) []SlotRow {
	slots := documents.SlotsFor(g)
	rows := make([]SlotRow, 0, len(slots))
	for _, slot := range slots {
		entry, ok := t.Entry(slot.Type)
		rows = append(rows, SlotRow{
			Slot:      slot,
			Entry:     entry,
			HasEntry:  ok,
			CanRemove: t.CanRemove(slot.Type),
			Accept:    slot.Accept.FormAccept(),
			UploadURL: fmt.Sprintf("%s/%s/upload", base, slot.Type),
			DeleteURL: fmt.Sprintf("%s/%s/delete", base, slot.Type),
		})
	}
	return rows
}

func slotLabels(slots []documents.Slot) string {
	labels := make([]string, 0, len(slots))
	for _, s := range slots {
		labels = append(labels, s.Label)
	}
	return strings.Join(labels, ", ")
}

// slotFromPath resolves the :slot parameter and checks it belongs to the page.
func slotFromPath(r *http.Request, g documentPage) (documents.Slot, bool) {
	slot, ok := documents.Lookup(types.DocumentType(r.PathValue("slot")))
	if !ok || slot.Group != g.group {
		return documents.Slot{}, false
	}
	return slot, true
}

func (s *Service) newTracker(personalInfoID int, appStatus *types.ApplicationStatus) *documents.Tracker {
	return documents.NewTracker(s.repos.Documents, personalInfoID, appStatus)
}

func (s *Service) handleGetDocuments(w http.ResponseWriter, r *http.Request, g documentPage) {
	var ctx = r.Context()

	applicant, ctrl, ok := s.openStep(w, r, g.step, false)
	if !ok {
		return
	}

	tracker := s.newTracker(applicant.PersonalInfoID(), applicant.Status)

	data := &DocumentsPageData{
		PortalPageData: newPortalPage(ctrl, applicant),
		CanEdit:        tracker.CanEdit(),
	}
	data.withMode(wizard.ModeFor(false, applicant.Status))

	if err := tracker.Load(ctx, g.group); err != nil {
		s.logger.WithError(err).WithField("group", g.group).Error("failed to load documents")
		_, data.Error = flashFor(err)
	}

	data.Rows = slotRows(tracker, g.group, g.step.Path())
	data.Missing = tracker.Missing(g.group)

	s.render(w, r, "page.portal.documents", data)
}

func (s *Service) handlePostDocumentsContinue(w http.ResponseWriter, r *http.Request, g documentPage) {
	var ctx = r.Context()
	path := g.step.Path()

	applicant, ctrl, ok := s.openStep(w, r, g.step, false)
	if !ok {
		return
	}

	tracker := s.newTracker(applicant.PersonalInfoID(), applicant.Status)

	next, err := ctrl.Advance(ctx, func(ctx context.Context, p wizard.Progress) (wizard.Progress, error) {
		if err := tracker.Load(ctx, g.group); err != nil {
			return p, err
		}
		if !tracker.Complete(g.group) {
			return p, errDocumentsMissing
		}
		return p, nil
	})
	if errors.Is(err, errDocumentsMissing) {
		s.redirectWithError(w, r, path, "Please upload: "+slotLabels(tracker.Missing(g.group))+".")
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("group", g.group).Error("failed to continue from documents step")
		s.redirectForError(w, r, path, err)
		return
	}

	http.Redirect(w, r, next.Path(), http.StatusSeeOther)
}

func (s *Service) handlePostDocumentUpload(w http.ResponseWriter, r *http.Request, g documentPage) {
	var ctx = r.Context()
	path := g.step.Path()

	slot, ok := slotFromPath(r, g)
	if !ok {
		http.NotFound(w, r)
		return
	}

	applicant, _, ok := s.openStep(w, r, g.step, false)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.RecordUpload(string(slot.Type), "too_large")
			s.redirectWithError(w, r, path, "File is too large.")
			return
		}
		s.redirectWithError(w, r, path, "Please choose a file to upload.")
		return
	}
	defer file.Close()

	if header.Size > s.config.MaxUploadBytes {
		s.metrics.RecordUpload(string(slot.Type), "too_large")
		s.redirectWithError(w, r, path, "File is too large.")
		return
	}

	uploadID := utils.CorrelationID()
	logger := s.logger.WithFields(logrus.Fields{
		"upload_id":        uploadID,
		"slot":             slot.Type,
		"personal_info_id": applicant.PersonalInfoID(),
		"file_name":        header.Filename,
		"size":             header.Size,
	})

	tracker := s.newTracker(applicant.PersonalInfoID(), applicant.Status)
	entry, err := tracker.Upload(ctx, slot.Type, header.Filename, file, func(percent int) {
		logger.WithField("percent", percent).Debug("upload progress")
	})
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrFileType):
			s.metrics.RecordUpload(string(slot.Type), "rejected_type")
		case isLocked(err):
			s.metrics.RecordUpload(string(slot.Type), "locked")
			s.lockDenied(w, r, path, "document_upload", err)
			return
		default:
			s.metrics.RecordUpload(string(slot.Type), "failed")
			logger.WithError(err).Error("document upload failed")
		}
		s.redirectForError(w, r, path, err)
		return
	}

	s.metrics.RecordUpload(string(slot.Type), "ok")
	logger.WithField("doc_id", entry.DocID).Info("document uploaded")

	s.redirectWithNotice(w, r, path, fmt.Sprintf("%s uploaded.", slot.Label))
}

func (s *Service) handlePostDocumentDelete(w http.ResponseWriter, r *http.Request, g documentPage) {
	var ctx = r.Context()
	path := g.step.Path()

	slot, ok := slotFromPath(r, g)
	if !ok {
		http.NotFound(w, r)
		return
	}

	applicant, _, ok := s.openStep(w, r, g.step, false)
	if !ok {
		return
	}

	if err := status.RequireEditable(applicant.Status); err != nil {
		s.lockDenied(w, r, path, "document_delete", err)
		return
	}

	tracker := s.newTracker(applicant.PersonalInfoID(), applicant.Status)
	if err := tracker.Load(ctx, g.group); err != nil {
		s.logger.WithError(err).Error("failed to load documents before delete")
		s.redirectForError(w, r, path, err)
		return
	}

	outcome, err := tracker.Remove(ctx, slot.Type)
	switch {
	case errors.Is(err, documents.ErrSlotEmpty):
		s.redirectWithNotice(w, r, path, msgAlreadyDeleted)
		return
	case errors.Is(err, documents.ErrEntryLocked):
		s.redirectWithWarning(w, r, path, "This document has been locked by the admissions team.")
		return
	case isLocked(err):
		s.lockDenied(w, r, path, "document_delete", err)
		return
	case err != nil:
		s.logger.WithError(err).WithField("slot", slot.Type).Error("failed to delete document")
		s.redirectForError(w, r, path, err)
		return
	}

	if outcome == documents.AlreadyDeleted {
		s.redirectWithNotice(w, r, path, msgAlreadyDeleted)
		return
	}

	s.redirectWithNotice(w, r, path, fmt.Sprintf("%s removed.", slot.Label))
}
