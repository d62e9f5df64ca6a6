package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"studyportal/internal/backend"
	"studyportal/internal/status"
	"studyportal/pkg/types"
)

const uploadFailedMessage = "Upload failed. Please try again."

// sniffLen is how much of a file is read to detect its type. DOCX is told
// apart from a plain zip by its word/ entries, which can sit behind a large
// thumbnail or media entry, so the head has to reach well past them.
const sniffLen = 1 << 20

func init() {
	mimetype.SetLimit(sniffLen)
}

var (
	ErrUnknownSlot = errors.New("documents: unknown document type")
	ErrNoOwner     = errors.New("documents: personal information must be saved first")
	ErrSlotEmpty   = errors.New("documents: nothing uploaded for this document type")
	ErrEntryLocked = errors.New("documents: document is locked")
)

// Remote is the backend surface the tracker needs. store.DocumentRepository
// implements it.
type Remote interface {
	ListDocuments(ctx context.Context, docType types.DocumentType, personalInfoID int) ([]types.DocumentRecord, error)
	UploadDocument(ctx context.Context, docType types.DocumentType, personalInfoID int, file backend.FilePart, progress backend.ProgressFunc) (*types.DocumentRecord, error)
	DeleteDocument(ctx context.Context, docType types.DocumentType, docID int) error
}

// Entry is what a slot currently holds.
type Entry struct {
	Name   string
	URL    string
	DocID  int
	Status types.DocumentStatus

	// Locked is carried for every entry but nothing sets it yet. Remove
	// honours it so a future admin lock only needs to set the flag.
	Locked bool
}

// UploadError is a failed upload. Message is safe to show to the student.
type UploadError struct {
	Slot    types.DocumentType
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upload %s: %s", e.Slot, e.Message)
	}
	return fmt.Sprintf("upload %s: %s: %v", e.Slot, e.Message, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

var ErrFileType = errors.New("documents: file type not allowed")

type Outcome int

const (
	Removed Outcome = iota + 1
	AlreadyDeleted
)

// Tracker holds the slot entries for one applicant. It is built per request
// and is safe for concurrent use by the goroutines of that request.
type Tracker struct {
	remote         Remote
	personalInfoID int
	status         *types.ApplicationStatus

	mu      sync.Mutex
	entries map[types.DocumentType]Entry
}

func NewTracker(remote Remote, personalInfoID int, appStatus *types.ApplicationStatus) *Tracker {
	return &Tracker{
		remote:         remote,
		personalInfoID: personalInfoID,
		status:         appStatus,
		entries:        make(map[types.DocumentType]Entry),
	}
}

// Load fetches the current record of every slot in the group concurrently.
// A slot with no record stays empty.
func (t *Tracker) Load(ctx context.Context, g Group) error {
	if t.personalInfoID == 0 {
		return ErrNoOwner
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, slot := range SlotsFor(g) {
		eg.Go(func() error {
			records, err := t.remote.ListDocuments(ctx, slot.Type, t.personalInfoID)
			if errors.Is(err, backend.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("list %s: %w", slot.Type, err)
			}
			if len(records) == 0 {
				return nil
			}

			// the newest upload wins
			rec := records[len(records)-1]
			t.set(slot.Type, entryFromRecord(rec))
			return nil
		})
	}

	return eg.Wait()
}

func (t *Tracker) set(dt types.DocumentType, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[dt] = e
}

func (t *Tracker) Entry(dt types.DocumentType) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[dt]
	return e, ok
}

// CanEdit reports whether uploads and removals are open for this applicant.
func (t *Tracker) CanEdit() bool {
	return status.CanEdit(t.status)
}

// CanRemove reports whether the remove action should be offered for a slot.
func (t *Tracker) CanRemove(dt types.DocumentType) bool {
	e, ok := t.Entry(dt)
	return ok && !e.Locked && t.CanEdit()
}

// Check sniffs the head of a file and returns a reader that still yields the
// whole file. It makes no network call.
func Check(slot Slot, content io.Reader) (io.Reader, *mimetype.MIME, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("read file head: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if n == 0 || !slot.Accept.Allows(mtype) {
		return nil, mtype, &UploadError{Slot: slot.Type, Message: slot.Accept.Message, Err: ErrFileType}
	}

	return io.MultiReader(bytes.NewReader(head), content), mtype, nil
}

// Upload validates the file type, then posts it while reporting progress.
// On failure the slot keeps whatever it held before.
func (t *Tracker) Upload(ctx context.Context, dt types.DocumentType, fileName string, content io.Reader, progress backend.ProgressFunc) (Entry, error) {
	slot, ok := Lookup(dt)
	if !ok {
		return Entry{}, ErrUnknownSlot
	}

	body, mtype, err := Check(slot, content)
	if err != nil {
		return Entry{}, err
	}

	if t.personalInfoID == 0 {
		return Entry{}, ErrNoOwner
	}
	if err := status.RequireEditable(t.status); err != nil {
		return Entry{}, err
	}

	file := backend.FilePart{
		Field:       "file",
		FileName:    fileName,
		ContentType: mtype.String(),
		Content:     body,
	}

	rec, err := t.remote.UploadDocument(ctx, dt, t.personalInfoID, file, progress)
	if err != nil {
		if ctx.Err() != nil {
			return Entry{}, err
		}
		msg, ok := backend.Message(err)
		if !ok {
			msg = uploadFailedMessage
		}
		return Entry{}, &UploadError{Slot: dt, Message: msg, Err: err}
	}

	entry := entryFromRecord(*rec)
	if entry.Name == "" {
		entry.Name = fileName
	}
	t.set(dt, entry)

	return entry, nil
}

// Remove deletes the slot's document. A document the backend no longer has
// is cleared locally and reported as AlreadyDeleted.
func (t *Tracker) Remove(ctx context.Context, dt types.DocumentType) (Outcome, error) {
	if _, ok := Lookup(dt); !ok {
		return 0, ErrUnknownSlot
	}

	entry, ok := t.Entry(dt)
	if !ok {
		return 0, ErrSlotEmpty
	}
	if entry.Locked {
		return 0, ErrEntryLocked
	}
	if err := status.RequireEditable(t.status); err != nil {
		return 0, err
	}

	err := t.remote.DeleteDocument(ctx, dt, entry.DocID)
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		return 0, fmt.Errorf("delete %s %d: %w", dt, entry.DocID, err)
	}

	t.mu.Lock()
	delete(t.entries, dt)
	t.mu.Unlock()

	if err != nil {
		return AlreadyDeleted, nil
	}
	return Removed, nil
}

// Missing lists the required slots of a group that hold nothing.
func (t *Tracker) Missing(g Group) []Slot {
	var out []Slot
	for _, s := range SlotsFor(g) {
		if !s.Required {
			continue
		}
		if _, ok := t.Entry(s.Type); !ok {
			out = append(out, s)
		}
	}
	return out
}

func (t *Tracker) Complete(g Group) bool {
	return len(t.Missing(g)) == 0
}

func entryFromRecord(rec types.DocumentRecord) Entry {
	url := rec.ViewURL
	if url == "" {
		url = rec.DownloadURL
	}
	return Entry{
		Name:   rec.FileName,
		URL:    url,
		DocID:  rec.ID,
		Status: rec.Status,
		Locked: false,
	}
}
