package router

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sevaergdm/tcpfileserver/internal/filestore"
	"github.com/sevaergdm/tcpfileserver/internal/headers"
	"github.com/sevaergdm/tcpfileserver/internal/request"
	"github.com/sevaergdm/tcpfileserver/internal/response"
)

const (
	echoPrefix  = "/echo/"
	filesPrefix = "/files/"
)

type handlers struct {
	store filestore.Store
	log   logrus.FieldLogger
}

func textPlain() headers.Headers {
	h := headers.NewHeaders()
	h.Set("Content-Type", "text/plain")
	return h
}

func (h *handlers) root(w *response.Writer, req *request.Request) error {
	return w.Respond(response.OK, textPlain(), nil)
}

func (h *handlers) echo(w *response.Writer, req *request.Request) error {
	text := []byte(strings.TrimPrefix(req.RequestLine.RequestTarget, echoPrefix))
	if !req.AcceptsGzip() {
		return w.Respond(response.OK, textPlain(), text)
	}

	compressed, err := response.Gzip(text)
	if err != nil {
		h.log.WithError(err).Error("gzip failed")
		return w.Respond(response.InternalServerError, textPlain(), nil)
	}
	// Content-Type stays even though the body is binary.
	hdr := textPlain()
	hdr.Set("Content-Encoding", "gzip")
	return w.Respond(response.OK, hdr, compressed)
}

func (h *handlers) userAgent(w *response.Writer, req *request.Request) error {
	ua, ok := req.Headers.Get("User-Agent")
	if !ok {
		return w.Respond(response.BadRequest, textPlain(), nil)
	}
	return w.Respond(response.OK, textPlain(), []byte(ua))
}

func (h *handlers) getFile(w *response.Writer, req *request.Request) error {
	name := strings.TrimPrefix(req.RequestLine.RequestTarget, filesPrefix)
	data, err := h.store.ReadFile(name)
	if err != nil {
		h.log.WithError(err).WithField("file", name).Debug("read failed")
		return w.Respond(response.NotFound, textPlain(), nil)
	}

	hdr := headers.NewHeaders()
	hdr.Set("Content-Type", "application/octet-stream")
	return w.Respond(response.OK, hdr, data)
}

func (h *handlers) postFile(w *response.Writer, req *request.Request) error {
	name := strings.TrimPrefix(req.RequestLine.RequestTarget, filesPrefix)
	if err := h.store.WriteFile(name, req.Body); err != nil {
		h.log.WithError(err).WithField("file", name).Debug("write failed")
		return w.Respond(response.InternalServerError, textPlain(), nil)
	}
	return w.Respond(response.Created, textPlain(), nil)
}

func (h *handlers) notFound(w *response.Writer, req *request.Request) error {
	return w.Respond(response.NotFound, textPlain(), nil)
}
