package response

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/sevaergdm/tcpfileserver/internal/headers"
)

type StatusCode int

const (
	OK                  StatusCode = 200
	Created             StatusCode = 201
	BadRequest          StatusCode = 400
	NotFound            StatusCode = 404
	InternalServerError StatusCode = 500
)

const crlf = "\r\n"

// headerOrder is the wire order for the headers this server emits. Anything
// else follows, sorted by name.
var headerOrder = []string{"Content-Encoding", "Content-Type", "Content-Length"}

var ErrWriterState = errors.New("response written out of order")

type writerState int

const (
	writerStateStatusLine writerState = iota
	writerStateHeaders
	writerStateBody
	writerStateDone
)

// Writer serializes a single response: status line, then headers, then body.
type Writer struct {
	w          *bufio.Writer
	state      writerState
	statusCode StatusCode
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:     bufio.NewWriter(w),
		state: writerStateStatusLine,
	}
}

func StatusLine(statusCode StatusCode) string {
	switch statusCode {
	case OK:
		return "HTTP/1.1 200 OK\r\n"
	case Created:
		return "HTTP/1.1 201 Created\r\n"
	case BadRequest:
		return "HTTP/1.1 400 Bad Request\r\n"
	case NotFound:
		return "HTTP/1.1 404 Not Found\r\n"
	case InternalServerError:
		return "HTTP/1.1 500 Internal Server Error\r\n"
	default:
		return fmt.Sprintf("HTTP/1.1 %d \r\n", statusCode)
	}
}

func (w *Writer) WriteStatusLine(statusCode StatusCode) error {
	if w.state != writerStateStatusLine {
		return fmt.Errorf("%w: status line after state %d", ErrWriterState, w.state)
	}
	_, err := w.w.WriteString(StatusLine(statusCode))
	w.state = writerStateHeaders
	w.statusCode = statusCode
	return err
}

// StatusCode returns the status written so far, or 0.
func (w *Writer) StatusCode() StatusCode {
	return w.statusCode
}

func GetDefaultHeaders(contentLen int) headers.Headers {
	header := headers.NewHeaders()
	header.Set("Content-Type", "text/plain")
	header.Set("Content-Length", strconv.Itoa(contentLen))
	return header
}

func (w *Writer) WriteHeaders(h headers.Headers) error {
	if w.state != writerStateHeaders {
		return fmt.Errorf("%w: headers in state %d", ErrWriterState, w.state)
	}
	for _, k := range orderedKeys(h) {
		if _, err := w.w.WriteString(k + ": " + h[k] + crlf); err != nil {
			return err
		}
	}
	_, err := w.w.WriteString(crlf)
	w.state = writerStateBody
	return err
}

func (w *Writer) WriteBody(p []byte) (int, error) {
	if w.state != writerStateBody {
		return 0, fmt.Errorf("%w: body in state %d", ErrWriterState, w.state)
	}
	n, err := w.w.Write(p)
	w.state = writerStateDone
	return n, err
}

// Flush pushes everything buffered so far to the connection.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Respond writes a complete response with a Content-Length matching body and
// flushes it. h may be nil.
func (w *Writer) Respond(statusCode StatusCode, h headers.Headers, body []byte) error {
	if h == nil {
		h = headers.NewHeaders()
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))

	if err := w.WriteStatusLine(statusCode); err != nil {
		return err
	}
	if err := w.WriteHeaders(h); err != nil {
		return err
	}
	if _, err := w.WriteBody(body); err != nil {
		return err
	}
	return w.Flush()
}

func orderedKeys(h headers.Headers) []string {
	keys := make([]string, 0, len(h))
	for _, k := range headerOrder {
		if _, ok := h[k]; ok {
			keys = append(keys, k)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(h)) {
		if !slices.Contains(headerOrder, k) {
			keys = append(keys, k)
		}
	}
	return keys
}
