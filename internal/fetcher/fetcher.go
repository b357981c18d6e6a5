// Package fetcher downloads spreadsheets published at a URL so they can be imported
// without saving them first.
package fetcher

import (
	"context"
	"mime"
	"net/url"
	"path"
	"strings"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body and its content type.
	Download(ctx context.Context, rawURL string) (*Download, error)
}

// Download is a fully read response body.
type Download struct {
	URL         string
	ContentType string
	Body        []byte
}

// FormatHint guesses the spreadsheet format of d: "csv", "xlsx" or "" when unknown.
// The URL path wins, then format/output query parameters as used by published sheets,
// then the content type.
func (d *Download) FormatHint() string {
	if u, err := url.Parse(d.URL); err == nil {
		switch strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")) {
		case "csv":
			return "csv"
		case "xlsx", "xlsm":
			return "xlsx"
		}
		q := u.Query()
		for _, key := range []string{"format", "output"} {
			switch strings.ToLower(q.Get(key)) {
			case "csv":
				return "csv"
			case "xlsx":
				return "xlsx"
			}
		}
	}

	mt, _, _ := mime.ParseMediaType(d.ContentType)
	switch mt {
	case "text/csv", "application/csv":
		return "csv"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	}
	return ""
}

// IsURL reports whether s looks like an http(s) URL rather than a local path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
