package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type school struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveBackendCall(method, resource string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, method+" "+resource)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetDecodesEnvelopeResult(t *testing.T) {
	obs := &recordingObserver{}
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/School", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{"statusCode":200,"result":[{"id":1,"name":"University of Lagos"}]}`)
	})

	c := New(srv.URL+"/", 0, WithObserver(obs))
	ctx := WithRequestID(WithToken(context.Background(), "tkn"), "req-1")

	var out []school
	require.NoError(t, c.Get(ctx, "School", nil, &out))
	assert.Equal(t, []school{{ID: 1, Name: "University of Lagos"}}, out)
	assert.Equal(t, []string{"GET School"}, obs.calls)
}

func TestGetPassesQuery(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/StudentApplication/application", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("StudentPersonalInformationId"))
		_, _ = io.WriteString(w, `{"statusCode":200,"result":{"id":5,"applicationStatus":2}}`)
	})

	c := New(srv.URL, time.Second)
	var out struct {
		ID                int `json:"id"`
		ApplicationStatus int `json:"applicationStatus"`
	}
	q := url.Values{"StudentPersonalInformationId": []string{"42"}}
	require.NoError(t, c.Get(context.Background(), "StudentApplication/application", q, &out))
	assert.Equal(t, 2, out.ApplicationStatus)
}

func TestEnvelopeFailureStatusCode(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"statusCode":400,"result":null,"message":"School is invalid"}`)
	})

	err := New(srv.URL, time.Second).Post(context.Background(), "AcademicInformation", nil, map[string]int{"schoolId": 0}, &school{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.StatusCode)

	msg, ok := Message(err)
	require.True(t, ok)
	assert.Equal(t, "School is invalid", msg)
}

func TestMissingResultIsNotFound(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"statusCode":200,"result":null,"message":"No record"}`)
	})

	err := New(srv.URL, time.Second).Get(context.Background(), "StudentPersonalInfo/user/u1", nil, &school{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPNotFound(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := New(srv.URL, time.Second).Delete(context.Background(), "AcademicInformation/9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAlreadyExistsMessage(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"statusCode":400,"result":null,"message":"Academic record already exists for this student"}`)
	})

	err := New(srv.URL, time.Second).Post(context.Background(), "AcademicInformation", nil, struct{}{}, &school{})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "token expired")
	})

	err := New(srv.URL, time.Second).Get(context.Background(), "User", nil, &[]school{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	msg, _ := Message(err)
	assert.Equal(t, "token expired", msg)
}

func TestDeleteWithoutBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, New(srv.URL, time.Second).Delete(context.Background(), "DegreeCert/3"))
}

func TestTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	err := New(srv.URL, 50*time.Millisecond).Get(context.Background(), "School", nil, &[]school{})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestCancelledContextIsNotTransportError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := New(srv.URL, 5*time.Second).Get(ctx, "School", nil, &[]school{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestUploadSendsMultipartWithProgress(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "42", r.FormValue("StudentPersonalInformationId"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "degree.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4 fake", string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"statusCode":201,"result":{"id":77,"name":"degree.pdf"}}`)
	})

	var progress []int
	var out school
	err := New(srv.URL, time.Second).Upload(
		context.Background(),
		"DegreeCert",
		map[string]string{"StudentPersonalInformationId": "42"},
		FilePart{Field: "file", FileName: "degree.pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF-1.4 fake")},
		func(pct int) { progress = append(progress, pct) },
		&out,
	)
	require.NoError(t, err)
	assert.Equal(t, 77, out.ID)

	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1])
	}
}

func TestResourceOf(t *testing.T) {
	assert.Equal(t, "StudentPersonalInfo", resourceOf("StudentPersonalInfo/user/abc"))
	assert.Equal(t, "School", resourceOf("/School"))
}
