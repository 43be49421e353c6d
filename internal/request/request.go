package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sevaergdm/tcpfileserver/internal/headers"
)

type Request struct {
	RequestLine RequestLine
	State       requestState
	Headers     headers.Headers
	Body        []byte

	contentLength int
}

type RequestLine struct {
	HttpVersion   string
	RequestTarget string
	Method        string
}

type requestState int

const (
	requestStateInitialized requestState = iota
	requestStateDone
	requestStateParsingHeaders
	requestStateParseBody
)

const crlf = "\r\n"
const bufferSize = 8

// DefaultMaxHeaderBytes bounds the request line plus header section.
const DefaultMaxHeaderBytes = 1 << 20

var (
	ErrIncompleteRequest    = errors.New("incomplete request")
	ErrHeaderTooLarge       = errors.New("request header section too large")
	ErrInvalidContentLength = errors.New("invalid Content-Length")
)

// RequestFromReader parses exactly one request from reader, reading the body
// when a Content-Length header is present. Bytes past the declared body are
// left unread or ignored.
func RequestFromReader(reader io.Reader) (*Request, error) {
	return RequestFromReaderLimit(reader, DefaultMaxHeaderBytes)
}

// RequestFromReaderLimit is RequestFromReader with a custom cap on the header
// section. A limit <= 0 disables the check.
func RequestFromReaderLimit(reader io.Reader, maxHeaderBytes int) (*Request, error) {
	buf := make([]byte, bufferSize)
	readToIndex := 0
	headerBytes := 0

	request := &Request{
		State:   requestStateInitialized,
		Headers: headers.NewHeaders(),
		Body:    make([]byte, 0),
	}

	for request.State != requestStateDone {
		if readToIndex >= len(buf) {
			newBuf := make([]byte, 2*len(buf))
			copy(newBuf, buf)
			buf = newBuf
		}

		numBytesRead, readErr := reader.Read(buf[readToIndex:])
		readToIndex += numBytesRead

		numBytesParsed, err := request.parse(buf[:readToIndex])
		if err != nil {
			return nil, err
		}
		if request.inHeaderSection() {
			headerBytes += numBytesParsed
			if maxHeaderBytes > 0 && headerBytes+readToIndex-numBytesParsed > maxHeaderBytes {
				return nil, ErrHeaderTooLarge
			}
		}

		copy(buf, buf[numBytesParsed:])
		readToIndex -= numBytesParsed

		if readErr != nil {
			if request.State == requestStateDone {
				break
			}
			if errors.Is(readErr, io.EOF) {
				return nil, fmt.Errorf("%w: in state %d, %d bytes of body read", ErrIncompleteRequest, request.State, len(request.Body))
			}
			return nil, readErr
		}
	}

	return request, nil
}

// AcceptsGzip reports whether the Accept-Encoding header mentions gzip. The
// check is a plain substring match on the lower-cased value.
func (r *Request) AcceptsGzip() bool {
	v, ok := r.Headers.Get("Accept-Encoding")
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(v), "gzip")
}

func parseRequestLine(data []byte) (*RequestLine, int) {
	idx := bytes.Index(data, []byte(crlf))
	if idx == -1 {
		return nil, 0
	}

	requestLine := requestLineFromString(string(data[:idx]))
	return &requestLine, idx + 2
}

// requestLineFromString splits on the first and last space. Everything in
// between is the target, so a target holding spaces is kept whole. Missing
// pieces are left empty and never match a route.
func requestLineFromString(str string) RequestLine {
	first := strings.IndexByte(str, ' ')
	if first == -1 {
		return RequestLine{Method: str}
	}
	last := strings.LastIndexByte(str, ' ')
	if first == last {
		return RequestLine{
			Method:        str[:first],
			RequestTarget: str[first+1:],
		}
	}

	return RequestLine{
		Method:        str[:first],
		RequestTarget: str[first+1 : last],
		HttpVersion:   str[last+1:],
	}
}

func (r *Request) inHeaderSection() bool {
	return r.State == requestStateInitialized || r.State == requestStateParsingHeaders
}

func (r *Request) parse(data []byte) (int, error) {
	totalBytesParsed := 0
	for r.State != requestStateDone {
		n, err := r.parseSingle(data[totalBytesParsed:])
		if err != nil {
			return 0, err
		}
		totalBytesParsed += n
		if n == 0 && r.State != requestStateDone {
			break
		}
	}
	return totalBytesParsed, nil
}

func (r *Request) parseSingle(data []byte) (int, error) {
	switch r.State {
	case requestStateInitialized:
		requestLine, numBytes := parseRequestLine(data)
		if numBytes == 0 {
			return 0, nil
		}

		r.RequestLine = *requestLine
		r.State = requestStateParsingHeaders
		return numBytes, nil
	case requestStateParsingHeaders:
		n, done, err := r.Headers.Parse(data)
		if err != nil {
			return 0, err
		}

		if done {
			contentLen, err := r.declaredContentLength()
			if err != nil {
				return 0, err
			}
			r.contentLength = contentLen
			r.State = requestStateParseBody
		}
		return n, nil
	case requestStateParseBody:
		remaining := r.contentLength - len(r.Body)
		if remaining <= 0 {
			r.State = requestStateDone
			return 0, nil
		}
		if len(data) > remaining {
			data = data[:remaining]
		}

		r.Body = append(r.Body, data...)
		if len(r.Body) == r.contentLength {
			r.State = requestStateDone
		}
		return len(data), nil
	case requestStateDone:
		return 0, fmt.Errorf("error: trying to read data in a done state")
	default:
		return 0, fmt.Errorf("error: unknown state")
	}
}

func (r *Request) declaredContentLength() (int, error) {
	contentLenStr, ok := r.Headers.Get("Content-Length")
	if !ok {
		return 0, nil
	}
	contentLen, err := strconv.Atoi(contentLenStr)
	if err != nil || contentLen < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidContentLength, contentLenStr)
	}
	return contentLen, nil
}
