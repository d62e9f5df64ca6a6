// Package academic decides which academic-selection fields are required for a
// chosen program and validates a selection against that set.
package academic

import (
	"sort"
	"strings"
	"unicode/utf8"

	"studyportal/internal/validation"
	"studyportal/pkg/types"
)

type Field string

const (
	FieldSchool        Field = "school_id"
	FieldProgram       Field = "academic_program_id"
	FieldCourse        Field = "course_of_interest_id"
	FieldResearchTopic Field = "research_topic"
)

const ResearchTopicMaxLength = 200

type FieldSet map[Field]struct{}

func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Sorted returns the fields in a stable order.
func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsPhD reports whether the selected program is doctoral. It is computed from
// the program on every call and never cached.
func IsPhD(program *types.AcademicProgram) bool {
	return program != nil && program.ProgramLevel == types.ProgramLevelPhD
}

// RequiredFields returns the required set for the selected program. School,
// program and course are always required; a PhD program adds the research topic.
func RequiredFields(program *types.AcademicProgram) FieldSet {
	set := FieldSet{
		FieldSchool:  {},
		FieldProgram: {},
		FieldCourse:  {},
	}
	if IsPhD(program) {
		set[FieldResearchTopic] = struct{}{}
	}
	return set
}

// Selection is the academic-info form state. ResearchTopic keeps whatever the
// student typed even when the selected program no longer requires it.
type Selection struct {
	SchoolID           int    `form:"school_id"`
	AcademicProgramID  int    `form:"academic_program_id"`
	CourseOfInterestID int    `form:"course_of_interest_id"`
	ResearchTopic      string `form:"research_topic"`
}

// Validate checks sel against RequiredFields(program). A nil result means the
// selection may be submitted.
func Validate(sel Selection, program *types.AcademicProgram) validation.Errors {
	required := RequiredFields(program)
	errs := validation.Errors{}

	if required.Has(FieldSchool) && sel.SchoolID <= 0 {
		errs.Add(string(FieldSchool), "Please select a school.")
	}

	if required.Has(FieldProgram) && (sel.AcademicProgramID <= 0 || program == nil) {
		errs.Add(string(FieldProgram), "Please select an academic program.")
	}

	if required.Has(FieldCourse) && sel.CourseOfInterestID <= 0 {
		errs.Add(string(FieldCourse), "Please select a course of interest.")
	}

	if required.Has(FieldResearchTopic) {
		topic := strings.TrimSpace(sel.ResearchTopic)
		switch {
		case topic == "":
			errs.Add(string(FieldResearchTopic), "A research topic is required for PhD programs.")
		case utf8.RuneCountInString(topic) > ResearchTopicMaxLength:
			errs.Add(string(FieldResearchTopic), "Research topic must be 200 characters or fewer.")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Payload builds the create/update body. The research topic is only sent
// while the program requires it.
func Payload(personalInfoID int, sel Selection, program *types.AcademicProgram) types.AcademicApplicationInput {
	input := types.AcademicApplicationInput{
		PersonalInformationID: personalInfoID,
		SchoolID:              sel.SchoolID,
		AcademicProgramID:     sel.AcademicProgramID,
		CourseOfInterestID:    sel.CourseOfInterestID,
	}

	if RequiredFields(program).Has(FieldResearchTopic) {
		topic := strings.TrimSpace(sel.ResearchTopic)
		input.ResearchTopic = &topic
	}

	return input
}

// FromApplication turns a stored record back into form state.
func FromApplication(app *types.AcademicApplication) Selection {
	if app == nil {
		return Selection{}
	}

	sel := Selection{
		SchoolID:           app.SchoolID,
		AcademicProgramID:  app.AcademicProgramID,
		CourseOfInterestID: app.CourseOfInterestID,
	}
	if app.ResearchTopic != nil {
		sel.ResearchTopic = *app.ResearchTopic
	}
	return sel
}
