package server

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"studyportal/internal/documents"
	"studyportal/internal/status"
	"studyportal/internal/wizard"
	"studyportal/pkg/types"
)

type SummaryPageData struct {
	PortalPageData
	PersonalInfo *types.PersonalInformation
	Academic     *types.AcademicApplication
	Program      *types.AcademicProgram
	Academics    []SlotRow
	Supporting   []SlotRow
	Missing      []documents.Slot
	CanSubmit    bool
}

// loadAllDocuments fills the tracker for both document groups.
func loadAllDocuments(r *http.Request, t *documents.Tracker) error {
	eg, ctx := errgroup.WithContext(r.Context())
	for _, g := range documentPages {
		eg.Go(func() error {
			return t.Load(ctx, g.group)
		})
	}
	return eg.Wait()
}

func missingDocuments(t *documents.Tracker) []documents.Slot {
	var out []documents.Slot
	for _, g := range documentPages {
		out = append(out, t.Missing(g.group)...)
	}
	return out
}

func (s *Service) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	applicant, ctrl, ok := s.openStep(w, r, wizard.StepSummary, true)
	if !ok {
		return
	}

	data := &SummaryPageData{
		PortalPageData: newPortalPage(ctrl, applicant),
		PersonalInfo:   applicant.PersonalInfo,
		Academic:       applicant.Academic,
		Program:        applicant.Lookups.Program(applicant.Academic.AcademicProgramID),
	}
	data.withMode(wizard.ModeFor(true, applicant.Status))

	tracker := s.newTracker(applicant.PersonalInfoID(), applicant.Status)
	if err := loadAllDocuments(r, tracker); err != nil {
		s.logger.WithError(err).Error("failed to load documents for summary")
		_, data.Error = flashFor(err)
	}

	data.Academics = slotRows(tracker, documents.GroupAcademic, wizard.StepAcademicDocuments.Path())
	data.Supporting = slotRows(tracker, documents.GroupSupporting, wizard.StepSupportingDocuments.Path())
	data.Missing = missingDocuments(tracker)
	data.CanSubmit = status.CanSubmit(applicant.Status) && len(data.Missing) == 0

	s.render(w, r, "page.portal.summary", data)
}

func (s *Service) handlePostSummarySubmit(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	path := wizard.StepSummary.Path()

	applicant, _, ok := s.openStep(w, r, wizard.StepSummary, false)
	if !ok {
		return
	}

	if !status.CanSubmit(applicant.Status) {
		s.metrics.RecordLockDenial("application_submit")
		s.redirectWithWarning(w, r, path, "Your application cannot be submitted while it is "+status.Label(applicant.Status)+".")
		return
	}

	tracker := s.newTracker(applicant.PersonalInfoID(), applicant.Status)
	if err := loadAllDocuments(r, tracker); err != nil {
		s.logger.WithError(err).Error("failed to load documents before submit")
		s.redirectForError(w, r, path, err)
		return
	}
	if missing := missingDocuments(tracker); len(missing) > 0 {
		s.redirectWithError(w, r, path, "Please upload: "+slotLabels(missing)+".")
		return
	}

	if _, err := s.repos.Applications.Submit(ctx, applicant.PersonalInfoID()); err != nil {
		s.logger.WithError(err).Error("failed to submit application")
		s.redirectForError(w, r, path, err)
		return
	}

	s.logger.WithField("personal_info_id", applicant.PersonalInfoID()).Info("application submitted")
	s.redirectWithNotice(w, r, wizard.StepApplicationStatus.Path(), "Application submitted.")
}
