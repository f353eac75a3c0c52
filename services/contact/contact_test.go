package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/go-feishu/framework/http"
	"github.com/km-arc/go-feishu/framework/http/validation"
)

type staticAuth string

func (a staticAuth) Call(_ context.Context, fn func(token string) error) error {
	return fn(string(a))
}

type directory struct {
	hits int32
}

func (d *directory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&d.hits, 1)
	if r.Header.Get("Authorization") != "Bearer t-1" {
		_, _ = w.Write([]byte(`{"code":99991663,"msg":"Invalid access token"}`))
		return
	}

	switch r.URL.Path {
	case "/contact/v3/users/ou_1":
		if r.URL.Query().Get("user_id_type") != OpenID {
			_, _ = w.Write([]byte(`{"code":40001,"msg":"bad id type"}`))
			return
		}
		time.Sleep(10 * time.Millisecond)
		_, _ = w.Write([]byte(`{"code":0,"data":{"user":{"open_id":"ou_1","name":"Lin","department_ids":["od_1"]}}}`))
	case "/contact/v3/users/batch_get_id":
		var body map[string][]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		out := map[string]any{"code": 0, "data": map[string]any{"user_list": []map[string]string{
			{"user_id": "ou_1", "email": body["emails"][0]},
		}}}
		_ = json.NewEncoder(w).Encode(out)
	case "/contact/v3/departments/od_1":
		_, _ = w.Write([]byte(`{"code":0,"data":{"department":{"name":"R&D","open_department_id":"od_1","member_count":12}}}`))
	default:
		http.NotFound(w, r)
	}
}

func newContact(t *testing.T, token string) (*Contact, *directory) {
	t.Helper()
	d := &directory{}
	server := httptest.NewServer(d)
	t.Cleanup(server.Close)
	client := gohttp.NewClient(gohttp.WithOptions(gohttp.Options{BaseURI: server.URL}))
	return New(staticAuth(token), client, time.Minute), d
}

func TestUser_FetchesAndCaches(t *testing.T) {
	t.Parallel()

	c, d := newContact(t, "t-1")

	u, err := c.User(context.Background(), "ou_1", "")
	require.NoError(t, err)
	assert.Equal(t, "Lin", u.Name)
	assert.Equal(t, []string{"od_1"}, u.DepartmentIDs)

	again, err := c.User(context.Background(), "ou_1", OpenID)
	require.NoError(t, err)
	assert.Same(t, u, again)
	assert.EqualValues(t, 1, atomic.LoadInt32(&d.hits))

	c.Forget("ou_1", OpenID)
	_, err = c.User(context.Background(), "ou_1", OpenID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&d.hits))
}

func TestUser_ConcurrentLookupsShareOneRequest(t *testing.T) {
	t.Parallel()

	c, d := newContact(t, "t-1")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := c.User(context.Background(), "ou_1", OpenID)
			assert.NoError(t, err)
			assert.Equal(t, "ou_1", u.OpenID)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&d.hits))
}

func TestUser_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	c, d := newContact(t, "stale")

	_, err := c.User(context.Background(), "ou_1", OpenID)
	assert.True(t, gohttp.IsTokenInvalid(err))
	_, err = c.User(context.Background(), "ou_1", OpenID)
	assert.Error(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&d.hits))
}

func TestUser_Validation(t *testing.T) {
	t.Parallel()

	c, d := newContact(t, "t-1")

	_, err := c.User(context.Background(), "", OpenID)
	assert.ErrorIs(t, err, validation.ErrValidation)

	_, err = c.User(context.Background(), "ou_1", "email")
	assert.ErrorIs(t, err, validation.ErrValidation)
	assert.Zero(t, atomic.LoadInt32(&d.hits))
}

func TestBatchGetID(t *testing.T) {
	t.Parallel()

	c, _ := newContact(t, "t-1")

	res, err := c.BatchGetID(context.Background(), []string{"lin@example.com"}, nil, "")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, UserIDResult{UserID: "ou_1", Email: "lin@example.com"}, res[0])

	none, err := c.BatchGetID(context.Background(), nil, nil, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDepartment(t *testing.T) {
	t.Parallel()

	c, _ := newContact(t, "t-1")

	dep, err := c.Department(context.Background(), "od_1", "")
	require.NoError(t, err)
	assert.Equal(t, "R&D", dep.Name)
	assert.Equal(t, 12, dep.MemberCount)

	_, err = c.Department(context.Background(), "od_1", "union_id")
	assert.ErrorIs(t, err, validation.ErrValidation)
}

func TestUser_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	arrived := make(chan struct{}, 1)
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		arrived <- struct{}{}
		<-gate
		_, _ = w.Write([]byte(`{"code":0,"data":{"user":{"open_id":"ou_1","name":"Lin"}}}`))
	}))
	t.Cleanup(server.Close)
	client := gohttp.NewClient(gohttp.WithOptions(gohttp.Options{BaseURI: server.URL}))
	c := New(staticAuth("t-1"), client, time.Minute)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.User(first, "ou_1", OpenID)
		firstErr <- err
	}()
	<-arrived

	second := make(chan *User, 1)
	go func() {
		u, err := c.User(context.Background(), "ou_1", OpenID)
		assert.NoError(t, err)
		second <- u
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(gate)
	u := <-second
	require.NotNil(t, u)
	assert.Equal(t, "Lin", u.Name)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}
