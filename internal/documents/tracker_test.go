package documents

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyportal/internal/backend"
	"studyportal/internal/status"
	"studyportal/pkg/types"
)

const (
	pdfBody = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n"
	pngBody = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"
)

type fakeRemote struct {
	mu        sync.Mutex
	records   map[types.DocumentType][]types.DocumentRecord
	uploadErr error
	deleteErr error
	uploads   int
	deletes   []int
	received  string
}

func (f *fakeRemote) ListDocuments(_ context.Context, dt types.DocumentType, _ int) ([]types.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, ok := f.records[dt]
	if !ok {
		return nil, &backend.APIError{StatusCode: http.StatusNotFound}
	}
	return recs, nil
}

func (f *fakeRemote) UploadDocument(_ context.Context, dt types.DocumentType, ownerID int, file backend.FilePart, progress backend.ProgressFunc) (*types.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++

	body, _ := io.ReadAll(file.Content)
	f.received = string(body)

	if progress != nil {
		for _, p := range []int{0, 40, 100} {
			progress(p)
		}
	}
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &types.DocumentRecord{ID: 11, OwnerID: ownerID, FileName: file.FileName, Status: types.DocumentStatusUploaded, ViewURL: "https://files.example/11"}, nil
}

func (f *fakeRemote) DeleteDocument(_ context.Context, _ types.DocumentType, docID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, docID)
	return f.deleteErr
}

func TestUploadRejectsPNGForWordSlot(t *testing.T) {
	remote := &fakeRemote{}
	tr := NewTracker(remote, 42, nil)

	var events []int
	_, err := tr.Upload(context.Background(), types.DocTypeCurriculumVitae, "photo.png", strings.NewReader(pngBody), func(p int) {
		events = append(events, p)
	})

	var upErr *UploadError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "Only PDF or DOCX files are allowed.", upErr.Message)
	assert.ErrorIs(t, err, ErrFileType)
	assert.Empty(t, events)
	assert.Zero(t, remote.uploads)
}

// docxWithLeadingEntry builds a DOCX whose first zip entry is size bytes of
// uncompressed data, pushing the word/ entries that far into the file.
func docxWithLeadingEntry(t *testing.T, name string, size int) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write(bytes.Repeat([]byte{0xFF, 0xD8, 0x00, 0x10}, size/4))
	require.NoError(t, err)

	for _, entry := range []string{"[Content_Types].xml", "word/document.xml"} {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte("<?xml version=\"1.0\"?><w:document/>"))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUploadAcceptsDOCXWithLargeThumbnail(t *testing.T) {
	docx := docxWithLeadingEntry(t, "docProps/thumbnail.jpeg", 64<<10)
	remote := &fakeRemote{}
	tr := NewTracker(remote, 42, nil)

	_, err := tr.Upload(context.Background(), types.DocTypeCurriculumVitae, "cv.docx", bytes.NewReader(docx), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, remote.uploads)
	assert.Equal(t, string(docx), remote.received)
}

func TestCheckRejectsPlainZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	slot, ok := Lookup(types.DocTypeCurriculumVitae)
	require.True(t, ok)

	_, mtype, err := Check(slot, &buf)
	assert.ErrorIs(t, err, ErrFileType)
	assert.True(t, mtype.Is("application/zip"))
}

func TestUploadRejectsNonPDFForPDFSlot(t *testing.T) {
	tr := NewTracker(&fakeRemote{}, 42, nil)

	_, err := tr.Upload(context.Background(), types.DocTypeDegreeCert, "degree.png", strings.NewReader(pngBody), nil)

	var upErr *UploadError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "Only PDF files are allowed.", upErr.Message)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	tr := NewTracker(&fakeRemote{}, 42, nil)

	_, err := tr.Upload(context.Background(), types.DocTypeDegreeCert, "empty.pdf", strings.NewReader(""), nil)
	assert.ErrorIs(t, err, ErrFileType)
}

func TestUploadSuccessRecordsEntry(t *testing.T) {
	remote := &fakeRemote{}
	tr := NewTracker(remote, 42, types.ApplicationStatusPending.Ptr())

	var events []int
	entry, err := tr.Upload(context.Background(), types.DocTypeDegreeCert, "degree.pdf", strings.NewReader(pdfBody), func(p int) {
		events = append(events, p)
	})
	require.NoError(t, err)

	assert.Equal(t, Entry{Name: "degree.pdf", URL: "https://files.example/11", DocID: 11, Status: types.DocumentStatusUploaded}, entry)
	assert.False(t, entry.Locked)
	assert.Equal(t, pdfBody, remote.received)
	assert.Equal(t, []int{0, 40, 100}, events)

	got, ok := tr.Entry(types.DocTypeDegreeCert)
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestUploadFailureUsesServerMessage(t *testing.T) {
	remote := &fakeRemote{uploadErr: &backend.APIError{StatusCode: http.StatusBadRequest, Message: "File exceeds 5MB"}}
	tr := NewTracker(remote, 42, nil)

	_, err := tr.Upload(context.Background(), types.DocTypeDegreeCert, "degree.pdf", strings.NewReader(pdfBody), nil)

	var upErr *UploadError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "File exceeds 5MB", upErr.Message)

	_, ok := tr.Entry(types.DocTypeDegreeCert)
	assert.False(t, ok)
}

func TestUploadFailureFallbackKeepsPreviousEntry(t *testing.T) {
	remote := &fakeRemote{
		records: map[types.DocumentType][]types.DocumentRecord{
			types.DocTypeDegreeCert: {{ID: 3, FileName: "old.pdf", DownloadURL: "https://files.example/3"}},
		},
		uploadErr: backend.ErrTransport,
	}
	tr := NewTracker(remote, 42, nil)
	require.NoError(t, tr.Load(context.Background(), GroupAcademic))

	_, err := tr.Upload(context.Background(), types.DocTypeDegreeCert, "new.pdf", strings.NewReader(pdfBody), nil)

	var upErr *UploadError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "Upload failed. Please try again.", upErr.Message)

	got, ok := tr.Entry(types.DocTypeDegreeCert)
	require.True(t, ok)
	assert.Equal(t, 3, got.DocID)
	assert.Equal(t, "https://files.example/3", got.URL)
}

func TestUploadNeedsOwnerAndEditableStatus(t *testing.T) {
	_, err := NewTracker(&fakeRemote{}, 0, nil).Upload(context.Background(), types.DocTypeDegreeCert, "d.pdf", strings.NewReader(pdfBody), nil)
	assert.ErrorIs(t, err, ErrNoOwner)

	remote := &fakeRemote{}
	_, err = NewTracker(remote, 42, types.ApplicationStatusApproved.Ptr()).Upload(context.Background(), types.DocTypeDegreeCert, "d.pdf", strings.NewReader(pdfBody), nil)
	var locked *status.LockedError
	assert.True(t, errors.As(err, &locked))
	assert.Zero(t, remote.uploads)
}

func TestRemove(t *testing.T) {
	remote := &fakeRemote{records: map[types.DocumentType][]types.DocumentRecord{
		types.DocTypeCurriculumVitae: {{ID: 8, FileName: "cv.pdf"}},
	}}
	tr := NewTracker(remote, 42, types.ApplicationStatusRejected.Ptr())
	require.NoError(t, tr.Load(context.Background(), GroupSupporting))
	require.True(t, tr.CanRemove(types.DocTypeCurriculumVitae))

	outcome, err := tr.Remove(context.Background(), types.DocTypeCurriculumVitae)
	require.NoError(t, err)
	assert.Equal(t, Removed, outcome)
	assert.Equal(t, []int{8}, remote.deletes)

	_, ok := tr.Entry(types.DocTypeCurriculumVitae)
	assert.False(t, ok)

	_, err = tr.Remove(context.Background(), types.DocTypeCurriculumVitae)
	assert.ErrorIs(t, err, ErrSlotEmpty)
}

func TestRemoveNotFoundIsAlreadyDeleted(t *testing.T) {
	remote := &fakeRemote{
		records:   map[types.DocumentType][]types.DocumentRecord{types.DocTypePassport: {{ID: 5}}},
		deleteErr: &backend.APIError{StatusCode: http.StatusNotFound},
	}
	tr := NewTracker(remote, 42, nil)
	require.NoError(t, tr.Load(context.Background(), GroupSupporting))

	outcome, err := tr.Remove(context.Background(), types.DocTypePassport)
	require.NoError(t, err)
	assert.Equal(t, AlreadyDeleted, outcome)

	_, ok := tr.Entry(types.DocTypePassport)
	assert.False(t, ok)
}

func TestRemoveBlockedWhenLocked(t *testing.T) {
	remote := &fakeRemote{records: map[types.DocumentType][]types.DocumentRecord{
		types.DocTypePassport: {{ID: 5}},
	}}

	tr := NewTracker(remote, 42, types.ApplicationStatusUnderReview.Ptr())
	require.NoError(t, tr.Load(context.Background(), GroupSupporting))
	assert.False(t, tr.CanRemove(types.DocTypePassport))

	_, err := tr.Remove(context.Background(), types.DocTypePassport)
	var locked *status.LockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, "Under Review", locked.Label)

	tr = NewTracker(remote, 42, nil)
	tr.set(types.DocTypePassport, Entry{DocID: 5, Locked: true})
	assert.False(t, tr.CanRemove(types.DocTypePassport))
	_, err = tr.Remove(context.Background(), types.DocTypePassport)
	assert.ErrorIs(t, err, ErrEntryLocked)

	assert.Empty(t, remote.deletes)
}

func TestLoadedEntriesAreNeverLocked(t *testing.T) {
	remote := &fakeRemote{records: map[types.DocumentType][]types.DocumentRecord{
		types.DocTypeDegreeCert: {{ID: 1, Status: types.DocumentStatusApproved}},
	}}
	tr := NewTracker(remote, 42, nil)
	require.NoError(t, tr.Load(context.Background(), GroupAcademic))

	e, ok := tr.Entry(types.DocTypeDegreeCert)
	require.True(t, ok)
	assert.False(t, e.Locked)
}

func TestCompletion(t *testing.T) {
	remote := &fakeRemote{records: map[types.DocumentType][]types.DocumentRecord{
		types.DocTypeDegreeCert: {{ID: 1}},
	}}
	tr := NewTracker(remote, 42, nil)
	require.NoError(t, tr.Load(context.Background(), GroupAcademic))

	assert.False(t, tr.Complete(GroupAcademic))
	missing := tr.Missing(GroupAcademic)
	require.Len(t, missing, 1)
	assert.Equal(t, types.DocTypeWaecOrNeco, missing[0].Type)

	tr.set(types.DocTypeWaecOrNeco, Entry{DocID: 2})
	assert.True(t, tr.Complete(GroupAcademic))

	var required []types.DocumentType
	for _, s := range tr.Missing(GroupSupporting) {
		required = append(required, s.Type)
	}
	assert.Equal(t, []types.DocumentType{types.DocTypeCurriculumVitae, types.DocTypePersonalStatement, types.DocTypePassport}, required)
}

func TestSlots(t *testing.T) {
	s, ok := Lookup(types.DocTypeReferenceLetter)
	require.True(t, ok)
	assert.Equal(t, GroupSupporting, s.Group)
	assert.Equal(t, AcceptPDFOrWord, s.Accept)

	s, ok = Lookup(types.DocTypePassport)
	require.True(t, ok)
	assert.Equal(t, AcceptPDF, s.Accept)

	_, ok = Lookup("Selfie")
	assert.False(t, ok)

	assert.Len(t, SlotsFor(GroupAcademic), 3)
	assert.Len(t, AllSlots(), 7)
}
