package gitpress

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
)

const (
	testOwner  = "acme"
	testRepo   = "site"
	testBranch = "main"
	testToken  = "test-token"
)

type fakeFile struct {
	content   []byte
	sha       string
	rawBase64 string // when set, served verbatim instead of encoding content
}

// fakeGitHub is an in-memory stand-in for the contents API of one repository
// branch, close enough to exercise the sha-conditional write semantics.
type fakeGitHub struct {
	t *testing.T

	mu      sync.Mutex
	files   map[string]fakeFile
	commits []string

	// beforePut, when set, runs under the lock just before a PUT is applied.
	// Tests use it to interleave a competing write inside a save sequence.
	beforePut func(path string)

	srv *httptest.Server
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		t:     t,
		files: make(map[string]fakeFile),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) repoConfig() RepoConfig {
	return RepoConfig{
		APIBaseURL: f.srv.URL,
		Owner:      testOwner,
		Repo:       testRepo,
		Branch:     testBranch,
	}
}

func (f *fakeGitHub) client() *Client {
	return NewClient(f.repoConfig(), testToken)
}

func (f *fakeGitHub) clientWithToken(token string) *Client {
	return NewClient(f.repoConfig(), token)
}

// blobSHA mirrors the git blob object hash.
func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// seed places a file directly into the store.
func (f *fakeGitHub) seed(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = fakeFile{content: []byte(content), sha: blobSHA([]byte(content))}
}

// seedCorrupt places a file whose content cannot be base64-decoded, so any
// GetFile on it fails.
func (f *fakeGitHub) seedCorrupt(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = fakeFile{rawBase64: "%%%not-base64%%%", sha: blobSHA([]byte(path))}
}

func (f *fakeGitHub) sha(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[path].sha
}

func (f *fakeGitHub) exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

func (f *fakeGitHub) fileContent(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.files[path].content)
}

func (f *fakeGitHub) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commits)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

func (f *fakeGitHub) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "token "+testToken {
		jsonError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}

	if r.URL.Path == "/user" {
		json.NewEncoder(w).Encode(map[string]string{"login": "octocat"})
		return
	}
	if r.URL.Path == fmt.Sprintf("/repos/%s/%s", testOwner, testRepo) {
		json.NewEncoder(w).Encode(map[string]string{"full_name": testOwner + "/" + testRepo})
		return
	}

	prefix := fmt.Sprintf("/repos/%s/%s/contents/", testOwner, testRepo)
	if !strings.HasPrefix(r.URL.Path, prefix) {
		jsonError(w, http.StatusNotFound, "Not Found")
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)

	switch r.Method {
	case http.MethodGet:
		f.handleGet(w, path)
	case http.MethodPut:
		f.handlePut(w, r, path)
	case http.MethodDelete:
		f.handleDelete(w, r, path)
	default:
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (f *fakeGitHub) handleGet(w http.ResponseWriter, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if file, ok := f.files[path]; ok {
		content := file.rawBase64
		if content == "" {
			content = base64.StdEncoding.EncodeToString(file.content)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"name":     path[strings.LastIndex(path, "/")+1:],
			"path":     path,
			"sha":      file.sha,
			"type":     "file",
			"content":  content,
			"encoding": "base64",
		})
		return
	}

	// Directory listing.
	var entries []map[string]string
	for p, file := range f.files {
		if strings.HasPrefix(p, path+"/") && !strings.Contains(strings.TrimPrefix(p, path+"/"), "/") {
			entries = append(entries, map[string]string{
				"name": strings.TrimPrefix(p, path+"/"),
				"path": p,
				"type": "file",
				"sha":  file.sha,
			})
		}
	}
	if entries == nil {
		jsonError(w, http.StatusNotFound, "Not Found")
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i]["name"] < entries[j]["name"] })
	json.NewEncoder(w).Encode(entries)
}

func (f *fakeGitHub) handlePut(w http.ResponseWriter, r *http.Request, path string) {
	var body struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch"`
		SHA     string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	content, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "content is not valid base64")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.beforePut != nil {
		hook := f.beforePut
		f.beforePut = nil
		hook(path)
	}

	existing, exists := f.files[path]
	switch {
	case body.SHA == "" && exists:
		jsonError(w, http.StatusUnprocessableEntity, `Invalid request. "sha" wasn't supplied.`)
		return
	case body.SHA != "" && !exists:
		jsonError(w, http.StatusNotFound, "Not Found")
		return
	case body.SHA != "" && body.SHA != existing.sha:
		jsonError(w, http.StatusConflict, path+" does not match "+body.SHA)
		return
	}

	f.files[path] = fakeFile{content: content, sha: blobSHA(content)}
	f.commits = append(f.commits, body.Message)

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"content": map[string]string{"path": path, "sha": f.files[path].sha}})
}

func (f *fakeGitHub) handleDelete(w http.ResponseWriter, r *http.Request, path string) {
	var body struct {
		Message string `json:"message"`
		SHA     string `json:"sha"`
		Branch  string `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	existing, exists := f.files[path]
	if !exists {
		jsonError(w, http.StatusNotFound, "Not Found")
		return
	}
	if body.SHA != existing.sha {
		jsonError(w, http.StatusConflict, path+" does not match "+body.SHA)
		return
	}

	delete(f.files, path)
	f.commits = append(f.commits, body.Message)
	json.NewEncoder(w).Encode(map[string]any{"commit": map[string]string{"message": body.Message}})
}
