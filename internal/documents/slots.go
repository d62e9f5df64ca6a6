// Package documents tracks the per-type document slots of an application:
// which files each slot accepts, what is currently stored in it, and whether
// it may be replaced or removed.
package documents

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"studyportal/pkg/types"
)

type Group string

const (
	GroupAcademic   Group = "academic"
	GroupSupporting Group = "supporting"
)

const (
	mimePDF  = "application/pdf"
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Accept is a MIME allow-list together with the message shown when a file
// falls outside it.
type Accept struct {
	Types   []string
	Message string
}

var (
	AcceptPDF = Accept{
		Types:   []string{mimePDF},
		Message: "Only PDF files are allowed.",
	}
	AcceptPDFOrWord = Accept{
		Types:   []string{mimePDF, mimeDOC, mimeDOCX},
		Message: "Only PDF or DOCX files are allowed.",
	}
)

// Allows reports whether the sniffed type of a file is on the list.
func (a Accept) Allows(m *mimetype.MIME) bool {
	if m == nil {
		return false
	}
	for _, t := range a.Types {
		if m.Is(t) {
			return true
		}
	}
	return false
}

// FormAccept renders the list for an <input type="file" accept=...> attribute.
func (a Accept) FormAccept() string {
	return strings.Join(a.Types, ",")
}

type Slot struct {
	Type     types.DocumentType
	Label    string
	Group    Group
	Accept   Accept
	Required bool
}

var slots = []Slot{
	{Type: types.DocTypeDegreeCert, Label: "Degree Certificate", Group: GroupAcademic, Accept: AcceptPDF, Required: true},
	{Type: types.DocTypeWaecOrNeco, Label: "WAEC/NECO Certificate", Group: GroupAcademic, Accept: AcceptPDF, Required: true},
	{Type: types.DocTypeTranscript, Label: "Transcript", Group: GroupAcademic, Accept: AcceptPDF},
	{Type: types.DocTypeCurriculumVitae, Label: "Curriculum Vitae", Group: GroupSupporting, Accept: AcceptPDFOrWord, Required: true},
	{Type: types.DocTypePersonalStatement, Label: "Personal Statement", Group: GroupSupporting, Accept: AcceptPDFOrWord, Required: true},
	{Type: types.DocTypeReferenceLetter, Label: "Reference Letter", Group: GroupSupporting, Accept: AcceptPDFOrWord},
	{Type: types.DocTypePassport, Label: "International Passport", Group: GroupSupporting, Accept: AcceptPDF, Required: true},
}

// Lookup returns the slot for a document type.
func Lookup(t types.DocumentType) (Slot, bool) {
	for _, s := range slots {
		if s.Type == t {
			return s, true
		}
	}
	return Slot{}, false
}

// SlotsFor returns the slots of a group in display order.
func SlotsFor(g Group) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Group == g {
			out = append(out, s)
		}
	}
	return out
}

func AllSlots() []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}
