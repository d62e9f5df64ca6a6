package types

// ApplicationStatus is the backend's integer-coded lifecycle status of an
// academic application. A nil *ApplicationStatus means no application exists yet.
type ApplicationStatus int

const (
	ApplicationStatusSubmitted   ApplicationStatus = 1
	ApplicationStatusPending     ApplicationStatus = 2
	ApplicationStatusUnderReview ApplicationStatus = 3
	ApplicationStatusRejected    ApplicationStatus = 4
	ApplicationStatusApproved    ApplicationStatus = 5
)

func (s ApplicationStatus) Ptr() *ApplicationStatus {
	return &s
}

type ProgramLevel int

const (
	ProgramLevelUndergraduate ProgramLevel = 0
	ProgramLevelMasters       ProgramLevel = 1
	ProgramLevelPhD           ProgramLevel = 2
	ProgramLevelCertificate   ProgramLevel = 3
)

func (l ProgramLevel) String() string {
	switch l {
	case ProgramLevelUndergraduate:
		return "Undergraduate"
	case ProgramLevelMasters:
		return "Masters"
	case ProgramLevelPhD:
		return "PhD"
	case ProgramLevelCertificate:
		return "Certificate"
	default:
		return "Unknown"
	}
}

type School struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type AcademicProgram struct {
	ID              int          `json:"id"`
	Description     string       `json:"description"`
	Faculty         string       `json:"faculty"`
	ProgramLevel    ProgramLevel `json:"programLevel"`
	DurationInYears int          `json:"durationInYears"`
}

type CourseOfInterest struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AcademicApplication is the student's academic-program selection record.
// The backend returns display names alongside the ids; ids may be zero on read
// and are resolved against the lookup lists.
type AcademicApplication struct {
	ID                    int                `json:"id"`
	PersonalInformationID int                `json:"studentPersonalInformationId"`
	SchoolID              int                `json:"schoolId"`
	AcademicProgramID     int                `json:"academicProgramId"`
	CourseOfInterestID    int                `json:"courseOfInterestId"`
	School                string             `json:"school,omitempty"`
	AcademicProgram       string             `json:"academicProgram,omitempty"`
	CourseOfInterest      string             `json:"courseOfInterest,omitempty"`
	ResearchTopic         *string            `json:"researchTopic"`
	ApplicationStatus     *ApplicationStatus `json:"applicationStatus"`
}

// AcademicApplicationInput is the create/update body for the academic record.
type AcademicApplicationInput struct {
	PersonalInformationID int     `json:"studentPersonalInformationId"`
	SchoolID              int     `json:"schoolId"`
	AcademicProgramID     int     `json:"academicProgramId"`
	CourseOfInterestID    int     `json:"courseOfInterestId"`
	ResearchTopic         *string `json:"researchTopic"`
}

// ApplicationState is the result of the application-status endpoint.
type ApplicationState struct {
	ID                    int                `json:"id"`
	PersonalInformationID int                `json:"studentPersonalInformationId"`
	ApplicationStatus     *ApplicationStatus `json:"applicationStatus"`
}

// ApplicationSummary is one row of the back-office application list.
type ApplicationSummary struct {
	ID                    int                `json:"id"`
	PersonalInformationID int                `json:"studentPersonalInformationId"`
	StudentName           string             `json:"studentName"`
	Email                 string             `json:"email"`
	AcademicProgram       string             `json:"academicProgram"`
	ApplicationStatus     *ApplicationStatus `json:"applicationStatus"`
}

type PersonalInformation struct {
	ID             int    `json:"id"`
	UserID         string `json:"userId"`
	FirstName      string `json:"firstName" form:"first_name" validate:"required,max=100"`
	MiddleName     string `json:"middleName" form:"middle_name" validate:"omitempty,max=100"`
	LastName       string `json:"lastName" form:"last_name" validate:"required,max=100"`
	Email          string `json:"email" form:"email" validate:"required,email"`
	PhoneNumber    string `json:"phoneNumber" form:"phone_number" validate:"required,e164"`
	DateOfBirth    string `json:"dateOfBirth" form:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender         string `json:"gender" form:"gender" validate:"required,oneof=Male Female"`
	Nationality    string `json:"nationality" form:"nationality" validate:"required"`
	Address        string `json:"address" form:"address" validate:"required,max=250"`
	PassportNumber string `json:"passportNumber" form:"passport_number" validate:"omitempty,alphanum,max=20"`
}
