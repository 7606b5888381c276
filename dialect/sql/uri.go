package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/sqlkit"
)

// URI is a parsed connection URI of the form
//
//	scheme://[user[:password]@]host[:port]/path[?query]
type URI struct {
	Protocol string
	User     string
	Password string
	Host     string
	Port     int
	Path     string
	Query    string
}

// ParseURI splits a connection URI into its parts. Unlike net/url it keeps
// SQLite style authorities such as "file://:memory:" and
// "sqlite://./data/app.db" intact: a port is split off only when it is
// numeric.
func ParseURI(s string) (*URI, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok || scheme == "" {
		return nil, sqlkit.DatabaseErrorf("open", "invalid database uri %q", s)
	}
	u := &URI{Protocol: strings.ToLower(scheme)}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, u.Query = rest[:i], rest[i+1:]
	}
	authority, path := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority, path = rest[:i], rest[i:]
	}
	if i := strings.LastIndexByte(authority, '@'); i >= 0 {
		userinfo := authority[:i]
		authority = authority[i+1:]
		u.User, u.Password, _ = strings.Cut(userinfo, ":")
	}
	host := authority
	if i := strings.LastIndexByte(authority, ':'); i >= 0 {
		if port, err := strconv.Atoi(authority[i+1:]); err == nil && i > 0 {
			host, u.Port = authority[:i], port
		}
	}
	u.Host, u.Path = host, path
	return u, nil
}

// Database returns the path without its leading slash, which is the
// database name for server backends.
func (u *URI) Database() string {
	return strings.TrimPrefix(u.Path, "/")
}

// Address returns host:port, using def when no port was given.
func (u *URI) Address(def int) string {
	port := u.Port
	if port == 0 {
		port = def
	}
	return u.Host + ":" + strconv.Itoa(port)
}

// String reassembles the URI with the password redacted.
func (u *URI) String() string {
	var sb strings.Builder
	sb.WriteString(u.Protocol)
	sb.WriteString("://")
	if u.User != "" {
		sb.WriteString(u.User)
		if u.Password != "" {
			sb.WriteString(":xxxxx")
		}
		sb.WriteString("@")
	}
	sb.WriteString(u.Host)
	if u.Port != 0 {
		sb.WriteString(":" + strconv.Itoa(u.Port))
	}
	sb.WriteString(u.Path)
	if u.Query != "" {
		sb.WriteString("?" + u.Query)
	}
	return sb.String()
}
