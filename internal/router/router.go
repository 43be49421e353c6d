package router

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sevaergdm/tcpfileserver/internal/filestore"
	"github.com/sevaergdm/tcpfileserver/internal/request"
	"github.com/sevaergdm/tcpfileserver/internal/response"
)

const httpVersion = "HTTP/1.1"

// Handler writes exactly one response. A returned error means the response
// could not be written to the connection.
type Handler func(w *response.Writer, req *request.Request) error

type MatchKind int

const (
	Exact MatchKind = iota
	Prefix
)

type Route struct {
	Method  string
	Pattern string
	Match   MatchKind
	Handler Handler
}

func (rt Route) matches(req *request.Request) bool {
	line := req.RequestLine
	if line.Method != rt.Method || line.HttpVersion != httpVersion {
		return false
	}
	if rt.Match == Exact {
		return line.RequestTarget == rt.Pattern
	}
	return strings.HasPrefix(line.RequestTarget, rt.Pattern)
}

// Router tries its routes in registration order; the first match wins.
type Router struct {
	routes   []Route
	notFound Handler
	log      logrus.FieldLogger
}

// New returns a Router with the server's fixed route table.
func New(store filestore.Store, log logrus.FieldLogger) *Router {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &handlers{store: store, log: log}

	rt := &Router{
		notFound: h.notFound,
		log:      log,
	}
	rt.Handle("GET", "/", Exact, h.root)
	rt.Handle("GET", echoPrefix, Prefix, h.echo)
	rt.Handle("GET", "/user-agent", Prefix, h.userAgent)
	rt.Handle("GET", filesPrefix, Prefix, h.getFile)
	rt.Handle("POST", filesPrefix, Prefix, h.postFile)
	return rt
}

func (rt *Router) Handle(method, pattern string, match MatchKind, handler Handler) {
	rt.routes = append(rt.routes, Route{
		Method:  method,
		Pattern: pattern,
		Match:   match,
		Handler: handler,
	})
}

// Lookup returns the handler the request dispatches to.
func (rt *Router) Lookup(req *request.Request) Handler {
	for _, route := range rt.routes {
		if route.matches(req) {
			return route.Handler
		}
	}
	return rt.notFound
}

func (rt *Router) Serve(w *response.Writer, req *request.Request) error {
	err := rt.Lookup(req)(w, req)

	entry := rt.log.WithFields(logrus.Fields{
		"method": req.RequestLine.Method,
		"target": req.RequestLine.RequestTarget,
		"status": int(w.StatusCode()),
	})
	if err != nil {
		entry.WithError(err).Warn("failed to write response")
		return err
	}
	entry.Info("served request")
	return nil
}
