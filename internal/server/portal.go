package server

import (
	"errors"
	"net/http"

	"studyportal/internal/status"
	"studyportal/internal/store"
	"studyportal/internal/wizard"
	"studyportal/pkg/types"
)

// PortalPageData is the frame every student portal page renders in.
type PortalPageData struct {
	types.BasePageData
	Step        wizard.Step
	Nav         []wizard.NavItem
	StatusLabel string
	Mode        wizard.Mode
}

type DashboardPageData struct {
	PortalPageData
	Applicant    *store.Applicant
	ContinueStep wizard.Step
	ContinuePath string
	CanSubmit    bool
}

type StatusPageData struct {
	PortalPageData
	Applicant   *store.Applicant
	Description string
	CanSubmit   bool
}

type InboxPageData struct {
	PortalPageData
	Messages []*types.Message
	Unread   int
}

var statusDescriptions = map[string]string{
	status.LabelDraft:   "You have not started an application yet.",
	"Submitted":         "Your application has been submitted and is waiting for review.",
	"Pending":           "Your application is saved. Submit it from the summary page when you are ready.",
	"Under Review":      "Our admissions team is reviewing your application.",
	"Rejected":          "Your application was not accepted. You can update it and submit again.",
	"Approved":          "Congratulations, your application has been approved.",
	status.LabelUnknown: "We could not determine the state of your application. Please contact us.",
}

func progressOf(a *store.Applicant) wizard.Progress {
	return wizard.Progress{
		PersonalInfoID:    a.PersonalInfoID(),
		HasAcademicRecord: a.Academic != nil,
		ApplicationStatus: a.Status,
	}
}

// prerequisitePath is where a student is sent when a step is not open yet.
func prerequisitePath(err error) string {
	if errors.Is(err, wizard.ErrAcademicInfoRequired) {
		return wizard.StepAcademicInfo.Path()
	}
	if errors.Is(err, wizard.ErrPersonalInfoRequired) {
		return wizard.StepPersonalInfo.Path()
	}
	return wizard.StepDashboard.Path()
}

// openStep loads the signed-in applicant and opens the wizard at step. When it
// returns false the response has already been written.
func (s *Service) openStep(w http.ResponseWriter, r *http.Request, step wizard.Step, withLookups bool) (*store.Applicant, *wizard.Controller, bool) {
	var ctx = r.Context()

	identity, err := s.identityFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain identity")
		s.redirectToLogin(w, r)
		return nil, nil, false
	}

	applicant, err := s.repos.Applicants.Load(ctx, identity.UserID, withLookups)
	if err != nil {
		s.logger.WithError(err).WithField("step", step).Error("failed to load applicant")

		_, msg := flashFor(err)
		data := &PortalPageData{
			BasePageData: types.BasePageData{Title: step.Title(), Error: msg},
			Step:         step,
		}
		s.renderStatus(w, r, http.StatusBadGateway, "page.portal.unavailable", data)
		return nil, nil, false
	}

	ctrl, err := wizard.New(step, progressOf(applicant))
	if err != nil {
		s.logger.WithError(err).WithField("step", step).Debug("step prerequisites not met")
		s.redirectForError(w, r, prerequisitePath(err), err)
		return nil, nil, false
	}

	return applicant, ctrl, true
}

func newPortalPage(ctrl *wizard.Controller, a *store.Applicant) PortalPageData {
	step := ctrl.Current()
	return PortalPageData{
		BasePageData: types.BasePageData{Title: step.Title()},
		Step:         step,
		Nav:          ctrl.Nav(),
		StatusLabel:  status.Label(a.Status),
	}
}

// withMode applies a step's rendering mode, including the editing-disabled
// banner.
func (p *PortalPageData) withMode(m wizard.Mode) {
	p.Mode = m
	if m.Notice != "" && p.Warning == "" {
		p.Warning = m.Notice
	}
}

func continueStep(a *store.Applicant) wizard.Step {
	switch {
	case a.PersonalInfo == nil:
		return wizard.StepPersonalInfo
	case a.Academic == nil:
		return wizard.StepAcademicInfo
	default:
		return wizard.StepSummary
	}
}

func (s *Service) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	applicant, ctrl, ok := s.openStep(w, r, wizard.StepDashboard, false)
	if !ok {
		return
	}

	next := continueStep(applicant)
	data := &DashboardPageData{
		PortalPageData: newPortalPage(ctrl, applicant),
		Applicant:      applicant,
		ContinueStep:   next,
		ContinuePath:   next.Path(),
		CanSubmit:      applicant.Academic != nil && status.CanSubmit(applicant.Status),
	}

	s.render(w, r, "page.portal.dashboard", data)
}

// handleBack moves one step backwards. Going back is never blocked.
func (s *Service) handleBack(w http.ResponseWriter, r *http.Request) {
	step, ok := wizard.Parse(r.PathValue("step"))
	if !ok {
		http.Redirect(w, r, wizard.StepDashboard.Path(), http.StatusSeeOther)
		return
	}

	prev, ok := wizard.Previous(step)
	if !ok {
		prev = wizard.StepDashboard
	}

	http.Redirect(w, r, prev.Path(), http.StatusSeeOther)
}

func (s *Service) handleGetApplicationStatus(w http.ResponseWriter, r *http.Request) {
	applicant, ctrl, ok := s.openStep(w, r, wizard.StepApplicationStatus, false)
	if !ok {
		return
	}

	page := newPortalPage(ctrl, applicant)
	data := &StatusPageData{
		PortalPageData: page,
		Applicant:      applicant,
		Description:    statusDescriptions[page.StatusLabel],
		CanSubmit:      applicant.Academic != nil && status.CanSubmit(applicant.Status),
	}

	s.render(w, r, "page.portal.status", data)
}

func (s *Service) handleGetInbox(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	applicant, ctrl, ok := s.openStep(w, r, wizard.StepInbox, false)
	if !ok {
		return
	}

	identity, _ := s.identityFromContext(ctx)

	data := &InboxPageData{
		PortalPageData: newPortalPage(ctrl, applicant),
	}

	messages, err := s.repos.Messages.Inbox(ctx, identity.UserID)
	if err != nil {
		s.logger.WithError(err).Error("failed to load inbox")
		_, data.Error = flashFor(err)
	}
	data.Messages = messages
	for _, m := range messages {
		if !m.IsRead {
			data.Unread++
		}
	}

	s.render(w, r, "page.portal.inbox", data)
}
