package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"studyportal/internal/backend"
	"studyportal/internal/documents"
	"studyportal/internal/metrics"
	"studyportal/internal/status"
	"studyportal/pkg/types"
)

// StatusOption is one choice in a review dropdown.
type StatusOption struct {
	Code  int
	Label string
}

type ApplicationRow struct {
	types.ApplicationSummary
	StatusLabel string
	Targets     []StatusOption
}

type StatusCount struct {
	Label string
	Count int
}

type AdminPageData struct {
	types.BasePageData
	Applications int
	Users        int
	Counts       []StatusCount
}

type AdminApplicationsPageData struct {
	types.BasePageData
	Filter       string
	Applications []ApplicationRow
	Statuses     []StatusOption
}

type AdminDocumentsPageData struct {
	types.BasePageData
	Application ApplicationRow
	Rows        []SlotRow
	Statuses    []StatusOption
}

type AdminUsersPageData struct {
	types.BasePageData
	Users []*types.User
	Self  string
}

type AdminMessagesPageData struct {
	types.BasePageData
	Users       []*types.User
	Form        types.NewMessage
	FieldErrors map[string]string
}

type AdminAnalyticsPageData struct {
	types.BasePageData
	Total   int
	Counts  []StatusCount
	Traffic metrics.Snapshot
}

func statusOptions(codes []types.ApplicationStatus) []StatusOption {
	out := make([]StatusOption, 0, len(codes))
	for _, c := range codes {
		out = append(out, StatusOption{Code: int(c), Label: status.Label(c.Ptr())})
	}
	return out
}

func documentStatusOptions() []StatusOption {
	codes := []types.DocumentStatus{
		types.DocumentStatusUploaded,
		types.DocumentStatusUnderReview,
		types.DocumentStatusRejected,
		types.DocumentStatusApproved,
	}
	out := make([]StatusOption, 0, len(codes))
	for _, c := range codes {
		out = append(out, StatusOption{Code: int(c), Label: status.DocumentLabel(c)})
	}
	return out
}

func applicationRow(app types.ApplicationSummary) ApplicationRow {
	return ApplicationRow{
		ApplicationSummary: app,
		StatusLabel:        status.Label(app.ApplicationStatus),
		Targets:            statusOptions(status.ReviewTargets(app.ApplicationStatus)),
	}
}

// countByStatus tallies applications per label, in lifecycle order, with
// anything else under Draft or Unknown.
func countByStatus(apps []types.ApplicationSummary) []StatusCount {
	tally := make(map[string]int)
	for _, app := range apps {
		tally[status.Label(app.ApplicationStatus)]++
	}

	labels := []string{status.LabelDraft}
	for _, c := range status.All() {
		labels = append(labels, status.Label(c.Ptr()))
	}
	labels = append(labels, status.LabelUnknown)

	out := make([]StatusCount, 0, len(labels))
	for _, l := range labels {
		out = append(out, StatusCount{Label: l, Count: tally[l]})
	}
	return out
}

// findApplication locates an application by id in the back-office list; the
// backend has no single-application endpoint.
func (s *Service) findApplication(r *http.Request) (types.ApplicationSummary, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return types.ApplicationSummary{}, backend.ErrNotFound
	}

	apps, err := s.repos.Applications.All(r.Context())
	if err != nil {
		return types.ApplicationSummary{}, err
	}
	for _, app := range apps {
		if app.ID == id {
			return app, nil
		}
	}
	return types.ApplicationSummary{}, backend.ErrNotFound
}

func (s *Service) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	var (
		apps  []types.ApplicationSummary
		users []*types.User
	)

	data := &AdminPageData{
		BasePageData: types.BasePageData{Title: "Admin"},
	}

	eg, ctx := errgroup.WithContext(r.Context())
	eg.Go(func() (err error) {
		apps, err = s.repos.Applications.All(ctx)
		return err
	})
	eg.Go(func() (err error) {
		users, err = s.repos.Users.Users(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		s.logger.WithError(err).Error("failed to load admin overview")
		_, data.Error = flashFor(err)
	}

	data.Applications = len(apps)
	data.Users = len(users)
	data.Counts = countByStatus(apps)

	s.render(w, r, "page.admin", data)
}

func (s *Service) handleGetAdminApplications(w http.ResponseWriter, r *http.Request) {
	data := &AdminApplicationsPageData{
		BasePageData: types.BasePageData{Title: "Applications"},
		Filter:       strings.TrimSpace(r.URL.Query().Get("status")),
		Statuses:     statusOptions(status.All()),
	}

	apps, err := s.repos.Applications.All(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load applications")
		_, data.Error = flashFor(err)
	}

	for _, app := range apps {
		row := applicationRow(app)
		if data.Filter != "" && !strings.EqualFold(row.StatusLabel, data.Filter) {
			continue
		}
		data.Applications = append(data.Applications, row)
	}

	s.render(w, r, "page.admin.applications", data)
}

func (s *Service) handlePostAdminApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	const path = "/admin/applications"

	app, err := s.findApplication(r)
	if errors.Is(err, backend.ErrNotFound) {
		s.redirectWithError(w, r, path, "Application not found.")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to load application for review")
		s.redirectForError(w, r, path, err)
		return
	}

	code, err := strconv.Atoi(r.FormValue("status"))
	if err != nil {
		s.redirectWithError(w, r, path, "Please choose a status.")
		return
	}
	to := types.ApplicationStatus(code)

	if !status.CanReview(app.ApplicationStatus, to) {
		s.redirectWithWarning(w, r, path, fmt.Sprintf(
			"An application cannot move from %s to %s.",
			status.Label(app.ApplicationStatus), status.Label(to.Ptr()),
		))
		return
	}

	if err := s.repos.Applications.UpdateStatus(ctx, app.ID, to); err != nil {
		s.logger.WithError(err).WithField("application_id", app.ID).Error("failed to update application status")
		s.redirectForError(w, r, path, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"application_id": app.ID,
		"from":           status.Label(app.ApplicationStatus),
		"to":             status.Label(to.Ptr()),
	}).Info("application status updated")

	s.redirectWithNotice(w, r, path, fmt.Sprintf("Application %d is now %s.", app.ID, status.Label(to.Ptr())))
}

func (s *Service) handleGetAdminDocuments(w http.ResponseWriter, r *http.Request) {
	app, err := s.findApplication(r)
	if errors.Is(err, backend.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to load application for document review")
		s.redirectForError(w, r, "/admin/applications", err)
		return
	}

	data := &AdminDocumentsPageData{
		BasePageData: types.BasePageData{Title: "Application Documents"},
		Application:  applicationRow(app),
		Statuses:     documentStatusOptions(),
	}

	tracker := s.newTracker(app.PersonalInformationID, app.ApplicationStatus)
	if err := loadAllDocuments(r, tracker); err != nil {
		s.logger.WithError(err).Error("failed to load documents for review")
		_, data.Error = flashFor(err)
	}

	base := fmt.Sprintf("/admin/applications/%d/documents", app.ID)
	for _, slot := range documents.AllSlots() {
		entry, ok := tracker.Entry(slot.Type)
		data.Rows = append(data.Rows, SlotRow{
			Slot:      slot,
			Entry:     entry,
			HasEntry:  ok,
			ReviewURL: fmt.Sprintf("%s/%s/%d/status", base, slot.Type, entry.DocID),
		})
	}

	s.render(w, r, "page.admin.documents", data)
}

func (s *Service) handlePostAdminDocumentStatus(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	appID := r.PathValue("id")
	path := fmt.Sprintf("/admin/applications/%s/documents", appID)

	slot, ok := documents.Lookup(types.DocumentType(r.PathValue("slot")))
	if !ok {
		http.NotFound(w, r)
		return
	}

	docID, err := strconv.Atoi(r.PathValue("docID"))
	if err != nil || docID == 0 {
		s.redirectWithError(w, r, path, "Nothing has been uploaded for this document yet.")
		return
	}

	code, err := strconv.Atoi(r.FormValue("status"))
	to := types.DocumentStatus(code)
	if err != nil || status.DocumentLabel(to) == status.LabelUnknown {
		s.redirectWithError(w, r, path, "Please choose a document status.")
		return
	}

	err = s.repos.Documents.UpdateDocumentStatus(ctx, slot.Type, docID, to)
	if errors.Is(err, backend.ErrNotFound) {
		s.redirectWithNotice(w, r, path, msgAlreadyDeleted)
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("slot", slot.Type).Error("failed to update document status")
		s.redirectForError(w, r, path, err)
		return
	}

	s.redirectWithNotice(w, r, path, fmt.Sprintf("%s marked %s.", slot.Label, status.DocumentLabel(to)))
}

func (s *Service) handleGetAdminUsers(w http.ResponseWriter, r *http.Request) {
	identity, _ := s.identityFromContext(r.Context())

	data := &AdminUsersPageData{
		BasePageData: types.BasePageData{Title: "Users"},
		Self:         identity.UserID,
	}

	users, err := s.repos.Users.Users(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load users")
		_, data.Error = flashFor(err)
	}
	data.Users = users

	s.render(w, r, "page.admin.users", data)
}

func (s *Service) handlePostAdminUserDelete(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	const path = "/admin/users"

	identity, _ := s.identityFromContext(ctx)
	userID := r.PathValue("id")

	if userID == identity.UserID {
		s.redirectWithWarning(w, r, path, "You cannot delete your own account.")
		return
	}

	err := s.repos.Users.Delete(ctx, userID)
	if errors.Is(err, backend.ErrNotFound) {
		s.redirectWithNotice(w, r, path, msgAlreadyDeleted)
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("target_user_id", userID).Error("failed to delete user")
		s.redirectForError(w, r, path, err)
		return
	}

	s.logger.WithField("target_user_id", userID).Info("user deleted")
	s.redirectWithNotice(w, r, path, "User deleted.")
}

func (s *Service) adminMessagesPage(r *http.Request) *AdminMessagesPageData {
	data := &AdminMessagesPageData{
		BasePageData: types.BasePageData{Title: "Messages"},
	}

	users, err := s.repos.Users.Users(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load message recipients")
		_, data.Error = flashFor(err)
	}
	data.Users = users
	return data
}

func (s *Service) handleGetAdminMessages(w http.ResponseWriter, r *http.Request) {
	data := s.adminMessagesPage(r)
	data.Form.RecipientUserID = r.URL.Query().Get("to")

	s.render(w, r, "page.admin.messages", data)
}

func (s *Service) handlePostAdminMessage(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	const path = "/admin/messages"

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, path, "Invalid form payload.")
		return
	}

	var msg types.NewMessage
	if err := decoder.Decode(&msg, r.PostForm); err != nil {
		s.logger.WithError(err).Error("failed to decode message form")
		s.redirectWithError(w, r, path, "Invalid form payload.")
		return
	}
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Body = strings.TrimSpace(msg.Body)

	if errs := s.validator.Struct(msg); errs != nil {
		data := s.adminMessagesPage(r)
		data.Form = msg
		data.FieldErrors = errs
		data.Error = "Please fix the highlighted fields."
		s.renderStatus(w, r, http.StatusUnprocessableEntity, "page.admin.messages", data)
		return
	}

	if err := s.repos.Messages.Send(ctx, &msg); err != nil {
		s.logger.WithError(err).Error("failed to send message")
		s.redirectForError(w, r, path, err)
		return
	}

	s.redirectWithNotice(w, r, path, "Message sent.")
}

func (s *Service) handleGetAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	data := &AdminAnalyticsPageData{
		BasePageData: types.BasePageData{Title: "Analytics"},
		Traffic:      s.metrics.Snapshot(),
	}

	apps, err := s.repos.Applications.All(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load applications for analytics")
		_, data.Error = flashFor(err)
	}
	data.Total = len(apps)
	data.Counts = countByStatus(apps)

	s.render(w, r, "page.admin.analytics", data)
}
