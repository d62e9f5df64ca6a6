package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"studyportal/internal/academic"
	"studyportal/internal/backend"
	"studyportal/internal/status"
	"studyportal/internal/store"
	"studyportal/internal/validation"
	"studyportal/internal/wizard"
	"studyportal/pkg/types"
)

type PersonalInfoPageData struct {
	PortalPageData
	Form        types.PersonalInformation
	FieldErrors map[string]string
}

type AcademicInfoPageData struct {
	PortalPageData
	Record           *types.AcademicApplication
	Selection        academic.Selection
	Schools          []types.School
	Programs         []types.AcademicProgram
	Courses          []types.CourseOfInterest
	RequiresTopic    bool
	ResearchTopicMax int
	PhDLevel         types.ProgramLevel
	FieldErrors      map[string]string
}

// lockDenied records a refused mutation and sends the student back with the
// status warning.
func (s *Service) lockDenied(w http.ResponseWriter, r *http.Request, path, action string, err error) {
	s.metrics.RecordLockDenial(action)
	s.logger.WithError(err).WithField("action", action).Info("edit refused by application status")
	s.redirectForError(w, r, path, err)
}

func isLocked(err error) bool {
	var locked *status.LockedError
	return errors.As(err, &locked)
}

func (s *Service) handleGetPersonalInfo(w http.ResponseWriter, r *http.Request) {
	s.renderPersonalInfo(w, r, false)
}

func (s *Service) handleGetPersonalInfoEdit(w http.ResponseWriter, r *http.Request) {
	s.renderPersonalInfo(w, r, true)
}

func (s *Service) renderPersonalInfo(w http.ResponseWriter, r *http.Request, edit bool) {
	applicant, ctrl, ok := s.openStep(w, r, wizard.StepPersonalInfo, false)
	if !ok {
		return
	}

	mode := wizard.ModeFor(applicant.PersonalInfo != nil, applicant.Status)
	if edit && !mode.CanEdit {
		s.lockDenied(w, r, wizard.StepPersonalInfo.Path(), "personal_info_edit", status.RequireEditable(applicant.Status))
		return
	}

	data := &PersonalInfoPageData{
		PortalPageData: newPortalPage(ctrl, applicant),
	}
	data.withMode(mode.Editing(edit))

	if applicant.PersonalInfo != nil {
		data.Form = *applicant.PersonalInfo
	} else if identity, err := s.identityFromContext(r.Context()); err == nil {
		data.Form.Email = identity.Email
	}

	s.render(w, r, "page.portal.personal-info", data)
}

func (s *Service) handlePostPersonalInfo(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	path := wizard.StepPersonalInfo.Path()

	applicant, ctrl, ok := s.openStep(w, r, wizard.StepPersonalInfo, false)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, path, "Invalid form payload.")
		return
	}

	var form types.PersonalInformation
	if err := decoder.Decode(&form, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode personal information form")
		s.redirectWithError(w, r, path, "Invalid form payload.")
		return
	}
	trimPersonalInfo(&form)

	identity, _ := s.identityFromContext(ctx)
	form.UserID = identity.UserID

	next, err := ctrl.Advance(ctx, func(ctx context.Context, p wizard.Progress) (wizard.Progress, error) {
		if err := status.RequireEditable(p.ApplicationStatus); err != nil {
			return p, err
		}
		if errs := s.validator.Struct(form); errs != nil {
			return p, errs
		}

		if applicant.PersonalInfo == nil {
			if err := s.repos.PersonalInfo.Create(ctx, &form); err != nil {
				return p, err
			}
		} else {
			form.ID = applicant.PersonalInfo.ID
			if err := s.repos.PersonalInfo.Update(ctx, &form); err != nil {
				return p, err
			}
		}

		p.PersonalInfoID = form.ID
		return p, nil
	})
	if err != nil {
		if errs, ok := validation.As(err); ok {
			data := &PersonalInfoPageData{
				PortalPageData: newPortalPage(ctrl, applicant),
				Form:           form,
				FieldErrors:    errs,
			}
			data.withMode(wizard.ModeFor(applicant.PersonalInfo != nil, applicant.Status).Editing(true))
			data.Error = "Please fix the highlighted fields."
			s.renderStatus(w, r, http.StatusUnprocessableEntity, "page.portal.personal-info", data)
			return
		}
		if isLocked(err) {
			s.lockDenied(w, r, path, "personal_info_save", err)
			return
		}

		s.logger.WithError(err).Error("failed to save personal information")
		s.redirectForError(w, r, path, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":          identity.UserID,
		"personal_info_id": form.ID,
	}).Info("personal information saved")

	s.redirectWithNotice(w, r, next.Path(), "Personal information saved.")
}

func trimPersonalInfo(p *types.PersonalInformation) {
	for _, f := range []*string{
		&p.FirstName, &p.MiddleName, &p.LastName, &p.Email, &p.PhoneNumber,
		&p.DateOfBirth, &p.Gender, &p.Nationality, &p.Address, &p.PassportNumber,
	} {
		*f = strings.TrimSpace(*f)
	}
}

func (s *Service) handleGetAcademicInfo(w http.ResponseWriter, r *http.Request) {
	s.renderAcademicInfo(w, r, false)
}

func (s *Service) handleGetAcademicInfoEdit(w http.ResponseWriter, r *http.Request) {
	s.renderAcademicInfo(w, r, true)
}

func newAcademicPage(ctrl *wizard.Controller, a *store.Applicant, sel academic.Selection) *AcademicInfoPageData {
	program := a.Lookups.Program(sel.AcademicProgramID)
	return &AcademicInfoPageData{
		PortalPageData:   newPortalPage(ctrl, a),
		Record:           a.Academic,
		Selection:        sel,
		Schools:          a.Lookups.Schools,
		Programs:         a.Lookups.Programs,
		Courses:          a.Lookups.Courses,
		RequiresTopic:    academic.IsPhD(program),
		ResearchTopicMax: academic.ResearchTopicMaxLength,
		PhDLevel:         types.ProgramLevelPhD,
	}
}

func (s *Service) renderAcademicInfo(w http.ResponseWriter, r *http.Request, edit bool) {
	applicant, ctrl, ok := s.openStep(w, r, wizard.StepAcademicInfo, true)
	if !ok {
		return
	}

	mode := wizard.ModeFor(applicant.Academic != nil, applicant.Status)
	if edit && !mode.CanEdit {
		s.lockDenied(w, r, wizard.StepAcademicInfo.Path(), "academic_info_edit", status.RequireEditable(applicant.Status))
		return
	}

	data := newAcademicPage(ctrl, applicant, academic.FromApplication(applicant.Academic))
	data.withMode(mode.Editing(edit))

	s.render(w, r, "page.portal.academic-info", data)
}

func (s *Service) handlePostAcademicInfo(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	path := wizard.StepAcademicInfo.Path()

	applicant, ctrl, ok := s.openStep(w, r, wizard.StepAcademicInfo, true)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, path, "Invalid form payload.")
		return
	}

	var sel academic.Selection
	if err := decoder.Decode(&sel, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode academic information form")
		s.redirectWithError(w, r, path, "Invalid form payload.")
		return
	}

	program := applicant.Lookups.Program(sel.AcademicProgramID)
	notice := "Academic information saved."

	next, err := ctrl.Advance(ctx, func(ctx context.Context, p wizard.Progress) (wizard.Progress, error) {
		if err := status.RequireEditable(p.ApplicationStatus); err != nil {
			return p, err
		}
		if errs := academic.Validate(sel, program); errs != nil {
			return p, errs
		}

		input := academic.Payload(p.PersonalInfoID, sel, program)

		if applicant.Academic != nil {
			if err := s.repos.Academic.Update(ctx, applicant.Academic.ID, input); err != nil {
				return p, err
			}
			p.HasAcademicRecord = true
			return p, nil
		}

		_, existed, err := s.repos.Academic.Create(ctx, input)
		if err != nil {
			return p, err
		}
		if existed {
			notice = "Your academic information was already submitted."
		}

		p.HasAcademicRecord = true
		return p, nil
	})
	if err != nil {
		if errs, ok := validation.As(err); ok {
			data := newAcademicPage(ctrl, applicant, sel)
			data.FieldErrors = errs
			data.withMode(wizard.ModeFor(applicant.Academic != nil, applicant.Status).Editing(true))
			data.Error = "Please fix the highlighted fields."
			s.renderStatus(w, r, http.StatusUnprocessableEntity, "page.portal.academic-info", data)
			return
		}
		if isLocked(err) {
			s.lockDenied(w, r, path, "academic_info_save", err)
			return
		}

		s.logger.WithError(err).Error("failed to save academic information")
		s.redirectForError(w, r, path, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"personal_info_id": applicant.PersonalInfoID(),
		"program_id":       sel.AcademicProgramID,
		"phd":              academic.IsPhD(program),
	}).Info("academic information saved")

	s.redirectWithNotice(w, r, next.Path(), notice)
}

func (s *Service) handlePostAcademicInfoDelete(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	path := wizard.StepAcademicInfo.Path()

	applicant, _, ok := s.openStep(w, r, wizard.StepAcademicInfo, false)
	if !ok {
		return
	}

	if applicant.Academic == nil {
		s.redirectWithNotice(w, r, path, msgAlreadyDeleted)
		return
	}

	if err := status.RequireEditable(applicant.Status); err != nil {
		s.lockDenied(w, r, path, "academic_info_delete", err)
		return
	}

	err := s.repos.Academic.Delete(ctx, applicant.Academic.ID)
	if errors.Is(err, backend.ErrNotFound) {
		s.redirectWithNotice(w, r, path, msgAlreadyDeleted)
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to delete academic information")
		s.redirectForError(w, r, path, err)
		return
	}

	s.redirectWithNotice(w, r, path, "Academic information deleted.")
}
