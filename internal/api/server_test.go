package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/SundayYogurt/rote_service/config"
	"github.com/SundayYogurt/rote_service/internal/api"
	"github.com/SundayYogurt/rote_service/internal/dto"
	"github.com/SundayYogurt/rote_service/internal/helper"
	"github.com/SundayYogurt/rote_service/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func newClient(t *testing.T) *client {
	t.Helper()
	app := api.NewApp(config.Config{
		BaseURL:         "*",
		AccessSecret:    testSecret,
		ChangePageLimit: 20,
	}, testutil.NewDB(t))

	token, err := helper.SetupAuth(testSecret).GenerateToken(uuid.New(), "alice@example.com")
	require.NoError(t, err)
	return &client{t: t, app: app, token: token}
}

func (c *client) do(method, target, body string) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (c *client) changes(target string) []dto.ChangeResponse {
	c.t.Helper()
	status, env := c.do(http.MethodGet, target, "")
	require.Equal(c.t, http.StatusOK, status, env.Message)
	assert.Equal(c.t, 0, env.Code)
	assert.Equal(c.t, "ok", env.Message)

	var out []dto.ChangeResponse
	require.NoError(c.t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	c.token = ""
	status, env := c.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, env.Code)
}

func TestChanges_RequireAuth(t *testing.T) {
	c := newClient(t)
	c.token = ""
	for _, target := range []string{
		"/v2/api/changes/user",
		"/v2/api/changes/after?timestamp=0",
		"/v2/api/changes/origin/" + uuid.NewString(),
	} {
		status, env := c.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, status, target)
		assert.Equal(t, http.StatusUnauthorized, env.Code, target)
		assert.True(t, len(env.Data) == 0 || string(env.Data) == "null", target)
	}

	c.token = "garbage"
	status, _ := c.do(http.MethodGet, "/v2/api/changes/user", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestChanges_SyncAfterMutations(t *testing.T) {
	c := newClient(t)
	since := strconv.FormatInt(time.Now().Add(-time.Minute).UnixMilli(), 10)

	status, env := c.do(http.MethodPost, "/v2/api/rotes", `{"content":"hello","tags":["x"]}`)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var rote struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rote))

	status, env = c.do(http.MethodPatch, "/v2/api/rotes/"+rote.ID.String(), `{"pin":true}`)
	require.Equal(t, http.StatusOK, status, env.Message)

	got := c.changes("/v2/api/changes/after?timestamp=" + since)
	require.Len(t, got, 2)
	assert.Equal(t, "CREATE", string(got[0].Action))
	assert.Equal(t, "UPDATE", string(got[1].Action))
	assert.Equal(t, rote.ID, got[0].OriginID)
	require.NotNil(t, got[1].Rote)
	assert.True(t, got[1].Rote.Pin)
	assert.Equal(t, []string{"x"}, got[1].Rote.Tags)

	// resume from the newest record
	cursor := got[1].CreatedAt.Format(time.RFC3339Nano)
	assert.Empty(t, c.changes("/v2/api/changes/after?timestamp="+cursor))

	byOrigin := c.changes("/v2/api/changes/origin/" + rote.ID.String())
	require.Len(t, byOrigin, 2)
	assert.Equal(t, "UPDATE", string(byOrigin[0].Action), "newest first")

	assert.Len(t, c.changes("/v2/api/changes/rote/"+rote.ID.String()+"?limit=1"), 1)
	assert.Len(t, c.changes("/v2/api/changes/user?action=create"), 1)
	assert.Len(t, c.changes("/v2/api/changes/user?action=BOGUS"), 2, "unknown actions are ignored")

	status, _ = c.do(http.MethodDelete, "/v2/api/rotes/"+rote.ID.String(), "")
	require.Equal(t, http.StatusOK, status)

	all := c.changes("/v2/api/changes/after?timestamp=" + since + "&limit=100")
	require.Len(t, all, 3)
	assert.Equal(t, "DELETE", string(all[2].Action))
	for _, rec := range all {
		assert.Nil(t, rec.NoteID)
		assert.Nil(t, rec.Rote)
	}
}

func TestChanges_BadRequests(t *testing.T) {
	c := newClient(t)
	for _, target := range []string{
		"/v2/api/changes/origin/not-a-uuid",
		"/v2/api/changes/rote/123",
		"/v2/api/changes/after",
		"/v2/api/changes/after?timestamp=soon",
		"/v2/api/changes/user?skip=abc",
		"/v2/api/changes/user?limit=500",
		"/v2/api/changes/user?skip=-1",
	} {
		status, env := c.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, status, target)
		assert.Equal(t, http.StatusBadRequest, env.Code, target)
		assert.NotEmpty(t, env.Message, target)
	}
}

func TestRotes_ErrorsKeepEnvelope(t *testing.T) {
	c := newClient(t)

	status, env := c.do(http.MethodPatch, "/v2/api/rotes/"+uuid.NewString(), `{"pin":true}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, http.StatusNotFound, env.Code)

	status, env = c.do(http.MethodPost, "/v2/api/rotes", `{"content":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, http.StatusBadRequest, env.Code)

	status, env = c.do(http.MethodGet, "/v2/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, http.StatusNotFound, env.Code)
}

func TestRotes_AttachmentsAndReactions(t *testing.T) {
	c := newClient(t)

	status, env := c.do(http.MethodPost, "/v2/api/rotes", `{"content":"pics","state":"public"}`)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var rote struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rote))

	var attIDs []string
	for i := 0; i < 2; i++ {
		status, env = c.do(http.MethodPost, "/v2/api/attachments", `{"url":"https://cdn.example.com/p.png"}`)
		require.Equal(t, http.StatusCreated, status, env.Message)
		var att struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &att))
		attIDs = append(attIDs, att.ID)
	}

	base := "/v2/api/rotes/" + rote.ID.String()
	body := `{"attachment_ids":["` + strings.Join(attIDs, `","`) + `"]}`
	status, env = c.do(http.MethodPut, base+"/attachments", body)
	require.Equal(t, http.StatusOK, status, env.Message)

	reversed := `{"attachment_ids":["` + attIDs[1] + `","` + attIDs[0] + `"]}`
	status, env = c.do(http.MethodPut, base+"/attachments/order", reversed)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = c.do(http.MethodDelete, base+"/attachments/"+attIDs[0], "")
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = c.do(http.MethodPost, base+"/reactions", `{"type":"heart"}`)
	require.Equal(t, http.StatusCreated, status, env.Message)
	status, env = c.do(http.MethodDelete, base+"/reactions/heart", "")
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = c.do(http.MethodDelete, "/v2/api/attachments/"+attIDs[1], "")
	require.Equal(t, http.StatusOK, status, env.Message)

	recs := c.changes("/v2/api/changes/rote/" + rote.ID.String() + "?limit=100")
	// create, bind, reorder, unbind, react, unreact, delete bound attachment
	assert.Len(t, recs, 7)
}
