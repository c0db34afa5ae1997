package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--env-file", "", "--log-level", "none"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestGetCommand(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotPath = r.Header.Get("Authorization"), r.URL.Path
		fmt.Fprint(w, `{"login":"octo"}`)
	}))
	defer server.Close()

	out, err := runCLI(t, "--base-url", server.URL+"/api", "--token", "cli-token", "--pretty", "get", "/user")
	require.NoError(t, err)

	assert.Equal(t, "Bearer cli-token", gotAuth)
	assert.Equal(t, "/api/user", gotPath)
	assert.Equal(t, "{\n  \"login\": \"octo\"\n}\n", out)
}

func TestRequestCommand(t *testing.T) {
	var gotMethod, gotBody, gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotMethod, gotBody, gotHeader = r.Method, string(body), r.Header.Get("X-Request-Source")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"invalid"}`)
	}))
	defer server.Close()

	out, err := runCLI(t, "--base-url", server.URL, "--token", "t",
		"request", "post", "repos", "-d", `{"name":"x"}`, "-H", "X-Request-Source: cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 422")

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"name":"x"}`, gotBody)
	assert.Equal(t, "cli", gotHeader)
	assert.Equal(t, "{\"message\":\"invalid\"}\n", out)

	_, err = runCLI(t, "--base-url", server.URL, "--token", "t", "request", "get", "x", "-H", "broken")
	assert.ErrorContains(t, err, "KEY:VALUE")
}

func TestGraphQLCommand(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		fmt.Fprint(w, `{"data":{"repository":{"name":"gogit"}}}`)
	}))
	defer server.Close()

	dir := t.TempDir()
	queryFile := filepath.Join(dir, "repo.graphql")
	require.NoError(t, os.WriteFile(queryFile, []byte(`query($owner: String!, $first: Int) { repository(owner: $owner) { name } }`), 0o600))

	out, err := runCLI(t, "--graphql-endpoint", server.URL+"/graphql", "--token", "t",
		"graphql", "@"+queryFile, "--var", "owner=jk", "--var", "first=5")
	require.NoError(t, err)

	assert.Contains(t, gotBody, `"owner":"jk"`)
	assert.Contains(t, gotBody, `"first":5`)
	assert.Equal(t, "{\"repository\":{\"name\":\"gogit\"}}\n", out)
}

func TestConfigFromFileAndEnv(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "netprobe.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
base_url: %s
auth:
  type: env
  token_env: NETPROBE_TEST_TOKEN
`, server.URL)), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("NETPROBE_TEST_TOKEN=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("NETPROBE_TEST_TOKEN") })

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--env-file", envPath, "--config", cfgPath, "--log-level", "none", "get", "user"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "Bearer from-dotenv", gotAuth)
}

func TestMissingAuth(t *testing.T) {
	_, err := runCLI(t, "--base-url", "https://api.example.org/", "get", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}

func TestGetAllPages(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos?page=2>; rel="next"`, server.URL))
			fmt.Fprint(w, `[{"id":1}]`)
			return
		}
		fmt.Fprint(w, `[{"id":2}]`)
	}))
	defer server.Close()

	out, err := runCLI(t, "--base-url", server.URL, "--token", "t", "get", "repos", "--all")
	require.NoError(t, err)
	assert.Equal(t, "[{\"id\":1}]\n[{\"id\":2}]\n", out)

	_, err = runCLI(t, "--base-url", server.URL, "--token", "t", "get", "repos", "--all", "--max-pages", "1")
	assert.ErrorContains(t, err, "more than 1 pages")
}

func TestGetAllPages_CursorPager(t *testing.T) {
	var afters []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		afters = append(afters, after)
		if after == "" {
			fmt.Fprint(w, `{"items":[1],"meta":{"next":"c2"}}`)
			return
		}
		fmt.Fprint(w, `{"items":[2],"meta":{"next":""}}`)
	}))
	defer server.Close()

	out, err := runCLI(t, "--base-url", server.URL, "--token", "t", "get", "events", "--all",
		"--pager", "cursor", "--pager-opt", "cursorParam=after", "--pager-opt", "nextPath=meta.next")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "c2"}, afters)
	assert.Equal(t, "{\"items\":[1],\"meta\":{\"next\":\"c2\"}}\n{\"items\":[2],\"meta\":{\"next\":\"\"}}\n", out)

	_, err = runCLI(t, "--base-url", server.URL, "--token", "t", "get", "events", "--all", "--pager", "cursor")
	assert.ErrorContains(t, err, "cursorParam")

	_, err = runCLI(t, "--base-url", server.URL, "--token", "t", "get", "events", "--all", "--pager", "offset")
	assert.ErrorContains(t, err, "unsupported pager type")
}

func TestGetAllPages_RefusesForeignLink(t *testing.T) {
	var foreignHits int
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignHits++
	}))
	defer foreign.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s/steal>; rel="next"`, foreign.URL))
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	_, err := runCLI(t, "--base-url", server.URL, "--token", "t", "get", "repos", "--all")
	assert.ErrorContains(t, err, "pagination error")
	assert.Equal(t, 0, foreignHits)
}
