// Package proxy forwards gateway requests to the backing services by path
// prefix.
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Route maps requests under Prefix to Target, replacing Prefix with Rewrite.
// "/api/blog/x" with Prefix "/api/blog" and Rewrite "/blog" goes to Target+"/blog/x".
type Route struct {
	Prefix  string
	Target  string
	Rewrite string
}

type upstream struct {
	Route
	proxy *httputil.ReverseProxy
}

// Table is the gateway routing table. Longer prefixes win.
type Table struct {
	routes []*upstream
	log    *zap.SugaredLogger
}

func NewTable(routes []Route, log *zap.SugaredLogger) (*Table, error) {
	t := &Table{log: log}
	for _, r := range routes {
		target, err := url.Parse(r.Target)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("invalid upstream %q for %s", r.Target, r.Prefix)
		}
		r.Prefix = strings.TrimRight(r.Prefix, "/")
		r.Rewrite = strings.TrimRight(r.Rewrite, "/")
		u := &upstream{Route: r}
		u.proxy = &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				pr.Out.URL.Path = singleJoin(target.Path, u.rewrite(pr.In.URL.Path))
				pr.Out.URL.RawPath = ""
				pr.SetXForwarded()
			},
			ErrorHandler: func(w http.ResponseWriter, req *http.Request, err error) {
				log.Warnw("upstream unavailable", "prefix", u.Prefix, "target", u.Target, "error", err)
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"success":false,"message":"service unavailable"}`))
			},
		}
		t.routes = append(t.routes, u)
	}
	sort.SliceStable(t.routes, func(i, j int) bool {
		return len(t.routes[i].Prefix) > len(t.routes[j].Prefix)
	})
	return t, nil
}

func (u *upstream) matches(path string) bool {
	return path == u.Prefix || strings.HasPrefix(path, u.Prefix+"/")
}

func (u *upstream) rewrite(path string) string {
	rest := strings.TrimPrefix(path, u.Prefix)
	if out := u.Rewrite + rest; out != "" {
		return out
	}
	return "/"
}

func (t *Table) match(path string) *upstream {
	for _, u := range t.routes {
		if u.matches(path) {
			return u
		}
	}
	return nil
}

// Handler proxies the request to the matching upstream, or answers 404.
func (t *Table) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := t.match(c.Request.URL.Path)
		if u == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
			return
		}
		u.proxy.ServeHTTP(c.Writer, c.Request)
	}
}

func singleJoin(a, b string) string {
	a = strings.TrimRight(a, "/")
	if a == "" {
		return b
	}
	return a + b
}
