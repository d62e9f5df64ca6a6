package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

type route struct {
	status int
	body   string
}

type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]route
	seen   []string
	bodies map[string]string
}

func newFakeBackend(t *testing.T, routes map[string]route) (*fakeBackend, *backend.Client) {
	t.Helper()
	fb := &fakeBackend{routes: routes, bodies: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, backend.New(srv.URL, time.Second)
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.seen = append(f.seen, key)
	f.bodies[key] = string(body)
	rt, ok := f.routes[key]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if rt.status != 0 {
		w.WriteHeader(rt.status)
	}
	_, _ = io.WriteString(w, rt.body)
}

func (f *fakeBackend) called(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.seen {
		if k == key {
			return true
		}
	}
	return false
}

func (f *fakeBackend) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func okResult(result string) route {
	return route{body: `{"statusCode":200,"result":` + result + `}`}
}

var lookupRoutes = map[string]route{
	"GET /School":           okResult(`[{"id":1,"name":"University of Lagos"},{"id":2,"name":"University of Ibadan"}]`),
	"GET /AcademicProgram":  okResult(`[{"id":10,"description":"MSc Computer Science","programLevel":1},{"id":11,"description":"PhD Physics","programLevel":2}]`),
	"GET /CourseOfInterest": okResult(`[{"id":20,"name":"Data Science"},{"id":21,"name":"Astrophysics"}]`),
}

func withRoutes(extra map[string]route) map[string]route {
	out := map[string]route{}
	for k, v := range lookupRoutes {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func newApplicantRepo(c *backend.Client) *ApplicantRepository {
	return NewApplicantRepository(
		NewPersonalInfoRepository(c),
		NewAcademicRepository(c),
		NewApplicationRepository(c),
		NewLookupRepository(c),
	)
}

func TestLoadApplicantMapsNamesToIDs(t *testing.T) {
	_, c := newFakeBackend(t, withRoutes(map[string]route{
		"GET /StudentPersonalInfo/user/u1": okResult(`{"id":42,"firstName":"Ada","lastName":"Obi"}`),
		"GET /StudentApplication/application?StudentPersonalInformationId=42": okResult(`{"id":5,"studentPersonalInformationId":42,"applicationStatus":4}`),
		"GET /AcademicInformation?StudentPersonalInformationId=42":            okResult(`{"id":9,"school":"University of Ibadan","academicProgram":"PhD Physics","courseOfInterest":"Astrophysics","researchTopic":"Dark matter","applicationStatus":2}`),
	}))

	a, err := newApplicantRepo(c).Load(context.Background(), "u1", true)
	require.NoError(t, err)

	assert.Equal(t, 42, a.PersonalInfoID())
	require.NotNil(t, a.Academic)
	assert.Equal(t, 2, a.Academic.SchoolID)
	assert.Equal(t, 11, a.Academic.AcademicProgramID)
	assert.Equal(t, 21, a.Academic.CourseOfInterestID)

	require.NotNil(t, a.Status)
	assert.Equal(t, types.ApplicationStatusRejected, *a.Status)
}

func TestLoadApplicantWithoutPersonalInfo(t *testing.T) {
	fb, c := newFakeBackend(t, withRoutes(nil))

	a, err := newApplicantRepo(c).Load(context.Background(), "nobody", true)
	require.NoError(t, err)

	assert.Nil(t, a.PersonalInfo)
	assert.Nil(t, a.Academic)
	assert.Nil(t, a.Status)
	assert.Zero(t, a.PersonalInfoID())
	assert.True(t, a.Lookups.Complete())
	assert.False(t, fb.called("GET /AcademicInformation?StudentPersonalInformationId=0"))
}

func TestLoadApplicantSkipsMappingWhenListIncomplete(t *testing.T) {
	routes := withRoutes(map[string]route{
		"GET /StudentPersonalInfo/user/u1":                      okResult(`{"id":42}`),
		"GET /AcademicInformation?StudentPersonalInformationId=42": okResult(`{"id":9,"school":"University of Lagos","academicProgram":"MSc Computer Science","courseOfInterest":"Data Science","applicationStatus":2}`),
		"GET /CourseOfInterest": okResult(`[]`),
	})
	_, c := newFakeBackend(t, routes)

	a, err := newApplicantRepo(c).Load(context.Background(), "u1", true)
	require.NoError(t, err)

	require.NotNil(t, a.Academic)
	assert.Zero(t, a.Academic.SchoolID)
	assert.Zero(t, a.Academic.CourseOfInterestID)

	// no application-status record: fall back to the academic record's status
	require.NotNil(t, a.Status)
	assert.Equal(t, types.ApplicationStatusPending, *a.Status)
}

func TestLoadApplicantPropagatesTransportFailure(t *testing.T) {
	_, c := newFakeBackend(t, withRoutes(map[string]route{
		"GET /StudentPersonalInfo/user/u1": {status: http.StatusInternalServerError, body: `{"statusCode":500,"message":"boom"}`},
	}))

	_, err := newApplicantRepo(c).Load(context.Background(), "u1", false)
	require.Error(t, err)
}

func TestAcademicCreateAlreadyExistsIsSoftSuccess(t *testing.T) {
	_, c := newFakeBackend(t, map[string]route{
		"POST /AcademicInformation": {status: http.StatusBadRequest, body: `{"statusCode":400,"result":null,"message":"Academic information already exists"}`},
	})

	app, existed, err := NewAcademicRepository(c).Create(context.Background(), types.AcademicApplicationInput{PersonalInformationID: 42})
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Nil(t, app)
}

func TestAcademicCreateSendsPayload(t *testing.T) {
	fb, c := newFakeBackend(t, map[string]route{
		"POST /AcademicInformation": {status: http.StatusCreated, body: `{"statusCode":201,"result":{"id":9,"applicationStatus":2}}`},
	})

	topic := "Dark matter"
	app, existed, err := NewAcademicRepository(c).Create(context.Background(), types.AcademicApplicationInput{
		PersonalInformationID: 42, SchoolID: 2, AcademicProgramID: 11, CourseOfInterestID: 21, ResearchTopic: &topic,
	})
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, 9, app.ID)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(fb.body("POST /AcademicInformation")), &sent))
	assert.Equal(t, "Dark matter", sent["researchTopic"])
	assert.EqualValues(t, 42, sent["studentPersonalInformationId"])
}

func TestAcademicDeleteNotFoundStaysMatchable(t *testing.T) {
	_, c := newFakeBackend(t, nil)

	err := NewAcademicRepository(c).Delete(context.Background(), 9)
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestPersonalInfoCreateSetsID(t *testing.T) {
	_, c := newFakeBackend(t, map[string]route{
		"POST /StudentPersonalInfo": {status: http.StatusCreated, body: `{"statusCode":201,"result":{"id":42}}`},
		"PUT /StudentPersonalInfo/42": {body: `{"statusCode":200,"result":null}`},
	})
	repo := NewPersonalInfoRepository(c)

	info := &types.PersonalInformation{FirstName: "Ada"}
	require.NoError(t, repo.Create(context.Background(), info))
	assert.Equal(t, 42, info.ID)

	require.NoError(t, repo.Update(context.Background(), info))
	assert.ErrorIs(t, repo.Update(context.Background(), &types.PersonalInformation{}), ErrNoPersonalInfo)
}

func TestDocumentUploadAndList(t *testing.T) {
	fb, c := newFakeBackend(t, map[string]route{
		"POST /DegreeCert": {status: http.StatusCreated, body: `{"statusCode":201,"result":{"id":3,"fileName":"d.pdf","status":1}}`},
		"GET /DegreeCert?StudentPersonalInformationId=42": okResult(`[{"id":3,"fileName":"d.pdf","status":1}]`),
		"PUT /DegreeCert/3/status":                        okResult(`null`),
	})
	repo := NewDocumentRepository(c)

	doc, err := repo.UploadDocument(context.Background(), types.DocTypeDegreeCert, 42, backend.FilePart{
		Field: "file", FileName: "d.pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF-1.4"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.ID)
	assert.Contains(t, fb.body("POST /DegreeCert"), "StudentPersonalInformationId")

	docs, err := repo.ListDocuments(context.Background(), types.DocTypeDegreeCert, 42)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	docs, err = repo.ListDocuments(context.Background(), types.DocTypePassport, 42)
	require.NoError(t, err)
	assert.Empty(t, docs)

	require.NoError(t, repo.UpdateDocumentStatus(context.Background(), types.DocTypeDegreeCert, 3, types.DocumentStatusApproved))
	assert.JSONEq(t, `{"status":4}`, fb.body("PUT /DegreeCert/3/status"))
}

func TestApplicationStateMissingIsNil(t *testing.T) {
	_, c := newFakeBackend(t, nil)

	state, err := NewApplicationRepository(c).State(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, state.ApplicationStatus)
}

func TestApplicationStatusUpdate(t *testing.T) {
	fb, c := newFakeBackend(t, map[string]route{
		"PUT /StudentApplication/5/status": okResult(`null`),
	})

	require.NoError(t, NewApplicationRepository(c).UpdateStatus(context.Background(), 5, types.ApplicationStatusUnderReview))
	assert.JSONEq(t, `{"applicationStatus":3}`, fb.body("PUT /StudentApplication/5/status"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	_, c := newFakeBackend(t, map[string]route{
		"POST /Auth/login": {status: http.StatusUnauthorized, body: `{"statusCode":401,"message":"Invalid credentials"}`},
	})

	_, err := NewAuthRepository(c).Login(context.Background(), types.Credentials{Email: "a@b.co", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginReturnsToken(t *testing.T) {
	_, c := newFakeBackend(t, map[string]route{
		"POST /Auth/login": okResult(`{"token":"jwt","expiresIn":3600}`),
	})

	tok, err := NewAuthRepository(c).Login(context.Background(), types.Credentials{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok.Token)
	assert.Equal(t, 3600, tok.ExpiresIn)
}

func TestInboxEmpty(t *testing.T) {
	_, c := newFakeBackend(t, map[string]route{
		"GET /Message/user/u1": okResult(`null`),
	})

	msgs, err := NewMessageRepository(c).Inbox(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
