package types

// DocumentType names a document slot. The value doubles as the backend
// resource path for that slot.
type DocumentType string

// Document type constants
const (
	DocTypeDegreeCert        DocumentType = "DegreeCert"
	DocTypeWaecOrNeco        DocumentType = "WaecOrNeco"
	DocTypeTranscript        DocumentType = "Transcript"
	DocTypeCurriculumVitae   DocumentType = "CurriculumVitae"
	DocTypePersonalStatement DocumentType = "PersonalStatement"
	DocTypeReferenceLetter   DocumentType = "ReferenceLetter"
	DocTypePassport          DocumentType = "Passport"
)

type DocumentStatus int

const (
	DocumentStatusUploaded    DocumentStatus = 1
	DocumentStatusUnderReview DocumentStatus = 2
	DocumentStatusRejected    DocumentStatus = 3
	DocumentStatusApproved    DocumentStatus = 4
)

// DocumentRecord is the backend's record for one uploaded document.
type DocumentRecord struct {
	ID          int            `json:"id"`
	OwnerID     int            `json:"studentPersonalInformationId"`
	FileName    string         `json:"fileName"`
	Status      DocumentStatus `json:"status"`
	DownloadURL string         `json:"downloadUrl"`
	ViewURL     string         `json:"viewUrl"`
}
