package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	api "github.com/GriffinCanCode/deskdriver/internal/api/http"
	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/deskdriver/internal/providers/virtual"
	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

const base = "/wd/hub"

type harness struct {
	t        *testing.T
	router   *gin.Engine
	provider *virtual.Provider
	registry *automation.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fixture, err := virtual.DefaultFixture()
	require.NoError(t, err)
	provider, err := virtual.New(fixture)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	logger := zap.NewNop()
	scripts := automation.NewDispatcher(provider, nil, automation.DispatcherConfig{}, logger)
	registry := automation.NewRegistry(provider, scripts, automation.RegistryConfig{}, logger)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	api.Register(router, api.NewHandlers(registry, automation.NewExecutor(2), metrics, logger), base)
	return &harness{t: t, router: router, provider: provider, registry: registry}
}

type response struct {
	Code  int
	Value json.RawMessage
}

func (h *harness) do(method, path string, body any) response {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env struct {
		Value json.RawMessage `json:"value"`
	}
	if w.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return response{Code: w.Code, Value: env.Value}
}

func (r response) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Value, dst))
}

func (r response) errorBody(t *testing.T) api.ErrorBody {
	t.Helper()
	var body api.ErrorBody
	r.decode(t, &body)
	return body
}

func (h *harness) newSession(caps map[string]any) string {
	h.t.Helper()
	resp := h.do(http.MethodPost, base+"/session", map[string]any{
		"capabilities": map[string]any{"alwaysMatch": caps},
	})
	require.Equal(h.t, http.StatusOK, resp.Code, string(resp.Value))
	var created api.NewSessionResponse
	resp.decode(h.t, &created)
	require.NotEmpty(h.t, created.SessionID)
	return string(created.SessionID)
}

func (h *harness) find(sid, using, value string) string {
	h.t.Helper()
	resp := h.do(http.MethodPost, base+"/session/"+sid+"/element", api.LocatorRequest{Using: using, Value: value})
	require.Equal(h.t, http.StatusOK, resp.Code, string(resp.Value))
	var ref map[string]string
	resp.decode(h.t, &ref)
	require.Equal(h.t, ref[api.ElementKey], ref["ELEMENT"])
	return ref[api.ElementKey]
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, base+"/status", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var status api.StatusResponse
	resp.decode(t, &status)
	assert.True(t, status.Ready)
	assert.Equal(t, 0, status.Sessions)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestCreateSession(t *testing.T) {
	t.Run("launch with vendor prefix", func(t *testing.T) {
		h := newHarness(t)
		sid := h.newSession(map[string]any{"appium:app": "notepad.exe"})

		resp := h.do(http.MethodGet, base+"/session/"+sid+"/title", nil)
		require.Equal(t, http.StatusOK, resp.Code)
		var title string
		resp.decode(t, &title)
		assert.Equal(t, "Untitled - Notepad", title)
	})

	t.Run("legacy desired capabilities", func(t *testing.T) {
		h := newHarness(t)
		resp := h.do(http.MethodPost, base+"/session", map[string]any{
			"desiredCapabilities": map[string]any{"app": "Root"},
		})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 1, h.registry.Len())
	})

	t.Run("missing app", func(t *testing.T) {
		h := newHarness(t)
		resp := h.do(http.MethodPost, base+"/session", map[string]any{
			"capabilities": map[string]any{"alwaysMatch": map[string]any{}},
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "invalid argument", resp.errorBody(t).Error)
	})

	t.Run("unknown application", func(t *testing.T) {
		h := newHarness(t)
		resp := h.do(http.MethodPost, base+"/session", map[string]any{
			"capabilities": map[string]any{"alwaysMatch": map[string]any{"appium:app": "missing.exe"}},
		})
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, "session not created", resp.errorBody(t).Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		h := newHarness(t)
		req := httptest.NewRequest(http.MethodPost, base+"/session", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteSession(t *testing.T) {
	h := newHarness(t)
	sid := h.newSession(map[string]any{"appium:app": "calc.exe"})

	resp := h.do(http.MethodDelete, base+"/session/"+sid, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "null", string(resp.Value))
	assert.Equal(t, 0, h.registry.Len())

	resp = h.do(http.MethodDelete, base+"/session/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "invalid session id", resp.errorBody(t).Error)
}

func TestUnknownSession(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, base+"/session/nope/title", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	body := resp.errorBody(t)
	assert.Equal(t, "invalid session id", body.Error)
	assert.Contains(t, body.Message, "nope")
}

func TestElementCommands(t *testing.T) {
	h := newHarness(t)
	sid := h.newSession(map[string]any{"appium:app": "calc.exe"})
	path := base + "/session/" + sid

	t.Run("click toggles checkbox", func(t *testing.T) {
		eid := h.find(sid, "accessibility id", "KeepOnTop")

		resp := h.do(http.MethodPost, path+"/element/"+eid+"/click", map[string]any{})
		require.Equal(t, http.StatusOK, resp.Code)

		resp = h.do(http.MethodGet, path+"/element/"+eid+"/selected", nil)
		var selected bool
		resp.decode(t, &selected)
		assert.True(t, selected)
	})

	t.Run("text and attributes", func(t *testing.T) {
		eid := h.find(sid, "accessibility id", "CalculatorResults")

		var text string
		h.do(http.MethodGet, path+"/element/"+eid+"/text", nil).decode(t, &text)
		assert.Equal(t, "0", text)

		var name string
		h.do(http.MethodGet, path+"/element/"+eid+"/attribute/Name", nil).decode(t, &name)
		assert.Equal(t, "Display is 0", name)

		resp := h.do(http.MethodGet, path+"/element/"+eid+"/attribute/NoSuchProperty", nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "null", string(resp.Value))
	})

	t.Run("enabled and displayed", func(t *testing.T) {
		clear := h.find(sid, "accessibility id", "clearButton")
		var enabled bool
		h.do(http.MethodGet, path+"/element/"+clear+"/enabled", nil).decode(t, &enabled)
		assert.False(t, enabled)

		secret := h.find(sid, "name", "Secret")
		var displayed bool
		h.do(http.MethodGet, path+"/element/"+secret+"/displayed", nil).decode(t, &displayed)
		assert.False(t, displayed)
	})

	t.Run("nested find", func(t *testing.T) {
		pad := h.find(sid, "accessibility id", "NumberPad")

		resp := h.do(http.MethodPost, path+"/element/"+pad+"/elements", api.LocatorRequest{Using: "tag name", Value: "Button"})
		require.Equal(t, http.StatusOK, resp.Code)
		var refs []map[string]string
		resp.decode(t, &refs)
		assert.Len(t, refs, 3)
	})

	t.Run("xpath", func(t *testing.T) {
		resp := h.do(http.MethodPost, path+"/elements", api.LocatorRequest{Using: "xpath", Value: "//ListItem"})
		require.Equal(t, http.StatusOK, resp.Code)
		var refs []map[string]string
		resp.decode(t, &refs)
		assert.Len(t, refs, 2)
	})
}

func TestFindErrors(t *testing.T) {
	h := newHarness(t)
	sid := h.newSession(map[string]any{"appium:app": "notepad.exe"})
	path := base + "/session/" + sid

	tests := []struct {
		name   string
		url    string
		using  string
		value  string
		status int
		code   string
	}{
		{"no match", path + "/element", "name", "Missing", http.StatusNotFound, "no such element"},
		{"no matches", path + "/elements", "class name", "Missing", http.StatusNotFound, "no such element"},
		{"bad strategy", path + "/element", "css selector", "div", http.StatusBadRequest, "unsupported operation"},
		{"bad tag", path + "/element", "tag name", "Widget", http.StatusBadRequest, "invalid argument"},
		{"stale parent", path + "/element/missing/element", "name", "File", http.StatusNotFound, "no such element"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodPost, tt.url, api.LocatorRequest{Using: tt.using, Value: tt.value})
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.code, resp.errorBody(t).Error)
		})
	}
}

func TestSendKeysAndClear(t *testing.T) {
	h := newHarness(t)
	sid := h.newSession(map[string]any{"appium:app": "notepad.exe"})
	path := base + "/session/" + sid
	eid := h.find(sid, "accessibility id", "15")

	var r automation.Rect
	h.do(http.MethodGet, path+"/element/"+eid+"/rect", nil).decode(t, &r)
	assert.Equal(t, automation.Rect{X: 108, Y: 150, Width: 784, Height: 520}, r)

	resp := h.do(http.MethodPost, path+"/element/"+eid+"/value", map[string]any{"value": []string{"hel", "lo"}})
	require.Equal(t, http.StatusOK, resp.Code)

	var text string
	h.do(http.MethodGet, path+"/element/"+eid+"/text", nil).decode(t, &text)
	assert.Equal(t, "hello", text)

	resp = h.do(http.MethodPost, path+"/element/"+eid+"/clear", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)
	h.do(http.MethodGet, path+"/element/"+eid+"/text", nil).decode(t, &text)
	assert.Empty(t, text)
}

func TestWindows(t *testing.T) {
	h := newHarness(t)
	sid := h.newSession(map[string]any{"appium:app": "calc.exe"})
	path := base + "/session/" + sid

	var handle string
	h.do(http.MethodGet, path+"/window_handle", nil).decode(t, &handle)
	require.NotEmpty(t, handle)

	var handles []string
	h.do(http.MethodGet, path+"/window_handles", nil).decode(t, &handles)
	assert.Equal(t, []string{handle}, handles)

	var rect automation.Rect
	h.do(http.MethodGet, path+"/window/rect", nil).decode(t, &rect)
	assert.Equal(t, 320, rect.Width)

	resp := h.do(http.MethodPost, path+"/window", api.SwitchWindowRequest{Handle: handle})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = h.do(http.MethodPost, path+"/window", api.SwitchWindowRequest{Handle: "bogus"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "no such window", resp.errorBody(t).Error)

	resp = h.do(http.MethodPost, path+"/window", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = h.do(http.MethodDelete, path+"/window", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp.decode(t, &handles)
	assert.Empty(t, handles)
}

func TestSourceAndScreenshot(t *testing.T) {
	h := newHarness(t)
	sid := h.newSession(map[string]any{"appium:app": "notepad.exe"})
	path := base + "/session/" + sid

	var src string
	h.do(http.MethodGet, path+"/source", nil).decode(t, &src)
	assert.Contains(t, src, `<Window`)
	assert.Contains(t, src, `AutomationId="15"`)

	var shot string
	resp := h.do(http.MethodGet, path+"/screenshot", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp.decode(t, &shot)
	assert.NotEmpty(t, shot)
}

func TestExecute(t *testing.T) {
	h := newHarness(t)
	sid := h.newSession(map[string]any{"appium:app": "Root"})
	path := base + "/session/" + sid

	resp := h.do(http.MethodPost, path+"/execute/sync", api.ExecuteRequest{
		Script: "windows: setClipboard",
		Args:   []json.RawMessage{json.RawMessage(`{"contentType":"plaintext","b64Content":"copied"}`)},
	})
	require.Equal(t, http.StatusOK, resp.Code, string(resp.Value))

	resp = h.do(http.MethodPost, path+"/execute", api.ExecuteRequest{
		Script: "getClipboard",
		Args:   []json.RawMessage{json.RawMessage(`{"contentType":"plaintext"}`)},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var text string
	resp.decode(t, &text)
	assert.Equal(t, "copied", text)

	resp = h.do(http.MethodPost, path+"/execute", api.ExecuteRequest{Script: "mobile: shake", Args: []json.RawMessage{json.RawMessage(`{}`)}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "unsupported operation", resp.errorBody(t).Error)

	resp = h.do(http.MethodPost, path+"/execute", api.ExecuteRequest{Script: "click"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid argument", resp.errorBody(t).Error)

	resp = h.do(http.MethodPost, path+"/execute", api.ExecuteRequest{
		Script: "powerShell",
		Args:   []json.RawMessage{json.RawMessage(`{"command":"Get-Date"}`)},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestKeysModifierState(t *testing.T) {
	h := newHarness(t)
	sid := h.newSession(map[string]any{"appium:app": "notepad.exe"})
	path := base + "/session/" + sid

	s, err := h.registry.Get(id.SessionID(sid))
	require.NoError(t, err)

	resp := h.do(http.MethodPost, path+"/keys", map[string]any{"value": []string{"\uE008"}})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []automation.Key{automation.KeyShift}, s.HeldKeys())

	resp = h.do(http.MethodPost, path+"/actions/keys", map[string]any{"text": string(automation.ReleaseAllRune)})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, s.HeldKeys())
}

func TestListSessions(t *testing.T) {
	h := newHarness(t)
	h.newSession(map[string]any{"appium:app": "Root"})
	h.newSession(map[string]any{"appium:app": "notepad.exe"})

	resp := h.do(http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list []automation.Summary
	resp.decode(t, &list)
	require.Len(t, list, 2)
	roots := 0
	for _, s := range list {
		if s.Root {
			roots++
		}
	}
	assert.Equal(t, 1, roots)
}

func TestUnknownRoutes(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, base+"/nothing", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "unknown command", resp.errorBody(t).Error)

	resp = h.do(http.MethodPut, base+"/status", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	assert.Equal(t, "unknown method", resp.errorBody(t).Error)
}

func TestCommandSpans(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fixture, err := virtual.DefaultFixture()
	require.NoError(t, err)
	provider, err := virtual.New(fixture)
	require.NoError(t, err)
	defer provider.Close()

	core, logs := observer.New(zap.DebugLevel)
	tracer := tracing.New("test", zap.New(core))
	logger := zap.NewNop()
	scripts := automation.NewDispatcher(provider, nil, automation.DispatcherConfig{}, logger)
	registry := automation.NewRegistry(provider, scripts, automation.RegistryConfig{}, logger)

	router := gin.New()
	api.Register(router, api.NewHandlers(registry, automation.NewExecutor(1), nil, logger).WithTracer(tracer), base)
	h := &harness{t: t, router: router, provider: provider, registry: registry}

	sid := h.newSession(map[string]any{"app": "notepad.exe"})
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, base+"/session/"+sid+"/title", nil).Code)
	require.Equal(t, http.StatusNotFound, h.do(http.MethodPost, base+"/session/"+sid+"/element",
		api.LocatorRequest{Using: "name", Value: "Nope"}).Code)
	tracer.Close()

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "span completed", entries[0].Message)
	assert.Equal(t, "automation.getTitle", entries[0].ContextMap()["operation"])
	assert.Equal(t, sid, entries[0].ContextMap()["session_id"])
	assert.Equal(t, "span completed with error", entries[1].Message)
	assert.Equal(t, "automation.findElement", entries[1].ContextMap()["operation"])
}
