// Package wizard sequences the student application steps. Moving forward
// requires the current step's submit to succeed and the next step's
// prerequisites to hold; moving back is always allowed.
package wizard

import (
	"context"
	"errors"
	"fmt"

	"studyportal/internal/status"
	"studyportal/pkg/types"
)

type Step string

const (
	StepDashboard           Step = "dashboard-home"
	StepPersonalInfo        Step = "personal-info"
	StepAcademicInfo        Step = "academic-info"
	StepAcademicDocuments   Step = "academic-documents"
	StepSupportingDocuments Step = "supporting-documents"
	StepSummary             Step = "summary"
	StepApplicationStatus   Step = "application-status"
	StepInbox               Step = "inbox"
)

const EditingDisabledNotice = "Notice: Editing disabled"

var (
	ErrPersonalInfoRequired = errors.New("please complete your personal information first")
	ErrAcademicInfoRequired = errors.New("please complete your academic information first")
	ErrUnknownStep          = errors.New("wizard: unknown step")
	ErrLastStep             = errors.New("wizard: no step after this one")
)

// sequence is the linear part of the wizard. Dashboard, application status
// and inbox sit outside it and can be opened at any time.
var sequence = []Step{
	StepPersonalInfo,
	StepAcademicInfo,
	StepAcademicDocuments,
	StepSupportingDocuments,
	StepSummary,
}

var titles = map[Step]string{
	StepDashboard:           "Dashboard",
	StepPersonalInfo:        "Personal Information",
	StepAcademicInfo:        "Academic Information",
	StepAcademicDocuments:   "Academic Documents",
	StepSupportingDocuments: "Supporting Documents",
	StepSummary:             "Summary",
	StepApplicationStatus:   "Application Status",
	StepInbox:               "Inbox",
}

var paths = map[Step]string{
	StepDashboard:           "/portal",
	StepPersonalInfo:        "/portal/personal-info",
	StepAcademicInfo:        "/portal/academic-info",
	StepAcademicDocuments:   "/portal/academic-documents",
	StepSupportingDocuments: "/portal/supporting-documents",
	StepSummary:             "/portal/summary",
	StepApplicationStatus:   "/portal/status",
	StepInbox:               "/portal/inbox",
}

func Parse(s string) (Step, bool) {
	step := Step(s)
	_, ok := titles[step]
	return step, ok
}

func (s Step) Title() string {
	return titles[s]
}

func (s Step) Path() string {
	return paths[s]
}

// Sequence returns the linear steps in order.
func Sequence() []Step {
	out := make([]Step, len(sequence))
	copy(out, sequence)
	return out
}

func index(s Step) int {
	for i, step := range sequence {
		if step == s {
			return i
		}
	}
	return -1
}

func Next(s Step) (Step, bool) {
	i := index(s)
	if i < 0 || i == len(sequence)-1 {
		return "", false
	}
	return sequence[i+1], true
}

func Previous(s Step) (Step, bool) {
	i := index(s)
	if i <= 0 {
		return "", false
	}
	return sequence[i-1], true
}

// Progress is what the backend already holds for the student.
type Progress struct {
	PersonalInfoID    int
	HasAcademicRecord bool
	ApplicationStatus *types.ApplicationStatus
}

// Prerequisite reports why step cannot be opened yet, or nil.
func Prerequisite(step Step, p Progress) error {
	switch step {
	case StepAcademicInfo, StepAcademicDocuments, StepSupportingDocuments:
		if p.PersonalInfoID == 0 {
			return ErrPersonalInfoRequired
		}
	case StepSummary:
		if p.PersonalInfoID == 0 {
			return ErrPersonalInfoRequired
		}
		if !p.HasAcademicRecord {
			return ErrAcademicInfoRequired
		}
	case StepDashboard, StepPersonalInfo, StepApplicationStatus, StepInbox:
	default:
		return ErrUnknownStep
	}
	return nil
}

// SubmitFunc runs a step's validation and network write and returns the
// progress that results from it.
type SubmitFunc func(ctx context.Context, p Progress) (Progress, error)

type Controller struct {
	current  Step
	progress Progress
}

// New opens the wizard at step. It fails when the step's prerequisites do
// not hold so a step cannot be reached by addressing it directly.
func New(step Step, p Progress) (*Controller, error) {
	if err := Prerequisite(step, p); err != nil {
		return nil, err
	}
	return &Controller{current: step, progress: p}, nil
}

func (c *Controller) Current() Step {
	return c.current
}

func (c *Controller) Progress() Progress {
	return c.progress
}

// Advance runs submit for the current step and moves to the next one. On
// any failure the controller stays where it is and returns the error.
func (c *Controller) Advance(ctx context.Context, submit SubmitFunc) (Step, error) {
	next, ok := Next(c.current)
	if !ok {
		return c.current, ErrLastStep
	}

	p, err := submit(ctx, c.progress)
	if err != nil {
		return c.current, err
	}
	c.progress = p

	if err := Prerequisite(next, p); err != nil {
		return c.current, err
	}

	c.current = next
	return c.current, nil
}

// Back moves to the previous step without running anything.
func (c *Controller) Back() Step {
	if prev, ok := Previous(c.current); ok {
		c.current = prev
	}
	return c.current
}

// Jump moves to any step whose prerequisites hold.
func (c *Controller) Jump(step Step) error {
	if err := Prerequisite(step, c.progress); err != nil {
		return fmt.Errorf("open %s: %w", step, err)
	}
	c.current = step
	return nil
}

// NavItem is one entry of the step navigation.
type NavItem struct {
	Step    Step
	Title   string
	Path    string
	Active  bool
	Enabled bool
}

func (c *Controller) Nav() []NavItem {
	steps := append([]Step{StepDashboard}, sequence...)
	steps = append(steps, StepApplicationStatus, StepInbox)

	out := make([]NavItem, 0, len(steps))
	for _, s := range steps {
		out = append(out, NavItem{
			Step:    s,
			Title:   s.Title(),
			Path:    s.Path(),
			Active:  s == c.current,
			Enabled: Prerequisite(s, c.progress) == nil,
		})
	}
	return out
}

// Mode is how a step renders when it is opened.
type Mode struct {
	ReadOnly    bool
	CanEdit     bool
	Notice      string
	StatusLabel string
}

// ModeFor decides the rendering mode of a step. A step whose record already
// exists opens read-only; the edit affordance follows the application status.
func ModeFor(recordExists bool, code *types.ApplicationStatus) Mode {
	res := status.Resolve(code)
	m := Mode{
		ReadOnly:    recordExists,
		CanEdit:     res.Editable,
		StatusLabel: res.Label,
	}
	if !res.Editable {
		m.ReadOnly = true
		m.Notice = EditingDisabledNotice
	}
	return m
}

// Editing switches an opened step into its edit form when the student asked
// for it and the status allows it.
func (m Mode) Editing(requested bool) Mode {
	if requested && m.CanEdit {
		m.ReadOnly = false
	}
	return m
}
