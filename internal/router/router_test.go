package router

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevaergdm/tcpfileserver/internal/filestore"
	"github.com/sevaergdm/tcpfileserver/internal/request"
	"github.com/sevaergdm/tcpfileserver/internal/response"
)

type rawResponse struct {
	statusLine string
	headers    []string
	body       []byte
}

func (r rawResponse) header(name string) (string, bool) {
	for _, h := range r.headers {
		if v, ok := strings.CutPrefix(h, name+": "); ok {
			return v, true
		}
	}
	return "", false
}

func parseRaw(t *testing.T, raw []byte) rawResponse {
	t.Helper()
	head, body, found := bytes.Cut(raw, []byte("\r\n\r\n"))
	require.True(t, found, "no header terminator in %q", raw)
	lines := strings.Split(string(head), "\r\n")
	return rawResponse{statusLine: lines[0], headers: lines[1:], body: body}
}

func serve(t *testing.T, rt *Router, raw string) rawResponse {
	t.Helper()
	req, err := request.RequestFromReader(strings.NewReader(raw))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rt.Serve(response.NewWriter(&buf), req))
	return parseRaw(t, buf.Bytes())
}

func newRouter(t *testing.T) (*Router, filestore.Dir, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	dir := filestore.Dir(t.TempDir())
	return New(dir, logger), dir, hook
}

func TestRoot(t *testing.T) {
	rt, _, hook := newRouter(t)

	for _, raw := range []string{
		"GET / HTTP/1.1\r\n\r\n",
		"GET / HTTP/1.1\r\nAccept-Encoding: gzip\r\nUser-Agent: x\r\n\r\n",
	} {
		res := serve(t, rt, raw)
		assert.Equal(t, "HTTP/1.1 200 OK", res.statusLine)
		assert.Equal(t, []string{"Content-Type: text/plain", "Content-Length: 0"}, res.headers)
		assert.Empty(t, res.body)
	}

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, 200, entry.Data["status"])
	assert.Equal(t, "/", entry.Data["target"])
}

func TestEcho(t *testing.T) {
	rt, _, _ := newRouter(t)

	for _, text := range []string{"abc", "", "hello world", "ünïcode"} {
		res := serve(t, rt, "GET /echo/"+text+" HTTP/1.1\r\n\r\n")
		assert.Equal(t, "HTTP/1.1 200 OK", res.statusLine)
		assert.Equal(t, text, string(res.body))
		cl, ok := res.header("Content-Length")
		require.True(t, ok)
		assert.Equal(t, len(text), mustAtoi(t, cl))
		_, ok = res.header("Content-Encoding")
		assert.False(t, ok)
	}
}

func TestEchoGzip(t *testing.T) {
	rt, _, _ := newRouter(t)

	for _, enc := range []string{"gzip", "deflate, gzip", "gzipper"} {
		res := serve(t, rt, "GET /echo/blueberry HTTP/1.1\r\nAccept-Encoding: "+enc+"\r\n\r\n")
		assert.Equal(t, "HTTP/1.1 200 OK", res.statusLine)
		require.Len(t, res.headers, 3)
		assert.Equal(t, "Content-Encoding: gzip", res.headers[0])
		assert.Equal(t, "Content-Type: text/plain", res.headers[1])
		assert.Equal(t, len(res.body), mustAtoi(t, strings.TrimPrefix(res.headers[2], "Content-Length: ")))

		gr, err := gzip.NewReader(bytes.NewReader(res.body))
		require.NoError(t, err)
		plain, err := io.ReadAll(gr)
		require.NoError(t, err)
		assert.Equal(t, "blueberry", string(plain))
	}

	res := serve(t, rt, "GET /echo/blueberry HTTP/1.1\r\nAccept-Encoding: br\r\n\r\n")
	assert.Equal(t, "blueberry", string(res.body))
}

func TestUserAgent(t *testing.T) {
	rt, _, _ := newRouter(t)

	res := serve(t, rt, "GET /user-agent HTTP/1.1\r\nUser-Agent: foo/1.0\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 200 OK", res.statusLine)
	assert.Equal(t, "foo/1.0", string(res.body))
	cl, _ := res.header("Content-Length")
	assert.Equal(t, "7", cl)

	res = serve(t, rt, "GET /user-agent HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 400 Bad Request", res.statusLine)
	assert.Empty(t, res.body)

	// Header names are matched exactly.
	res = serve(t, rt, "GET /user-agent HTTP/1.1\r\nuser-agent: foo/1.0\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 400 Bad Request", res.statusLine)
}

func TestFiles(t *testing.T) {
	rt, dir, _ := newRouter(t)

	res := serve(t, rt, "POST /files/report.txt HTTP/1.1\r\nContent-Length: 11\r\n\r\nhello\x00world")
	assert.Equal(t, "HTTP/1.1 201 Created", res.statusLine)
	assert.Empty(t, res.body)

	res = serve(t, rt, "GET /files/report.txt HTTP/1.1\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 200 OK", res.statusLine)
	assert.Equal(t, []string{"Content-Type: application/octet-stream", "Content-Length: 11"}, res.headers)
	assert.Equal(t, "hello\x00world", string(res.body))

	// Test: Second POST overwrites
	res = serve(t, rt, "POST /files/report.txt HTTP/1.1\r\nContent-Length: 2\r\n\r\nv2")
	assert.Equal(t, "HTTP/1.1 201 Created", res.statusLine)
	data, err := dir.ReadFile("report.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	// Test: POST without a body creates an empty file
	res = serve(t, rt, "POST /files/empty HTTP/1.1\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 201 Created", res.statusLine)
	data, err = dir.ReadFile("empty")
	require.NoError(t, err)
	assert.Empty(t, data)

	res = serve(t, rt, "GET /files/missing.txt HTTP/1.1\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 404 Not Found", res.statusLine)
	assert.Empty(t, res.body)
}

type failingStore struct{}

func (failingStore) ReadFile(string) ([]byte, error) { return nil, errors.New("permission denied") }
func (failingStore) WriteFile(string, []byte) error  { return errors.New("read-only filesystem") }

func TestFilesStoreErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rt := New(failingStore{}, logger)

	res := serve(t, rt, "POST /files/x HTTP/1.1\r\nContent-Length: 1\r\n\r\nx")
	assert.Equal(t, "HTTP/1.1 500 Internal Server Error", res.statusLine)
	assert.Empty(t, res.body)

	res = serve(t, rt, "GET /files/x HTTP/1.1\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 404 Not Found", res.statusLine)
}

func TestNotFound(t *testing.T) {
	rt, _, _ := newRouter(t)

	for _, raw := range []string{
		"GET /nope HTTP/1.1\r\n\r\n",
		"POST / HTTP/1.1\r\n\r\n",
		"GET / HTTP/1.0\r\n\r\n",
		"PUT /files/x HTTP/1.1\r\n\r\n",
		"GET /echo HTTP/1.1\r\n\r\n",
		"nonsense\r\n\r\n",
	} {
		res := serve(t, rt, raw)
		assert.Equal(t, "HTTP/1.1 404 Not Found", res.statusLine, raw)
		assert.Equal(t, []string{"Content-Type: text/plain", "Content-Length: 0"}, res.headers, raw)
		assert.Empty(t, res.body, raw)
	}
}

func TestRouteOrder(t *testing.T) {
	rt, _, _ := newRouter(t)

	// /user-agent is a prefix route.
	res := serve(t, rt, "GET /user-agentish HTTP/1.1\r\nUser-Agent: ua\r\n\r\n")
	assert.Equal(t, "ua", string(res.body))

	called := false
	rt.Handle("GET", "/echo/late", Exact, func(w *response.Writer, req *request.Request) error {
		called = true
		return w.Respond(response.OK, nil, nil)
	})
	res = serve(t, rt, "GET /echo/late HTTP/1.1\r\n\r\n")
	assert.False(t, called)
	assert.Equal(t, "late", string(res.body))
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
