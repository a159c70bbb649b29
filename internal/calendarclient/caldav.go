// Package calendarclient is the Calendar Client (C4): a CalDAV-backed view
// of free/busy time and event lifecycle, adapted from the same PROPFIND /
// PUT / DELETE dance the teacher uses against Nextcloud.
package calendarclient

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds the CalDAV endpoint and credentials.
type Config struct {
	Host           string
	Username       string
	Password       string
	CalendarID     string
	SummaryPrefix  string // e.g. "[Genie]"
	TimeoutSeconds int
}

// buildCalendarURL constructs the CalDAV collection URL for the configured
// calendar, e.g. https://host/remote.php/dav/calendars/user/<id>/
func buildCalendarURL(cfg Config) string {
	base := strings.TrimRight(cfg.Host, "/")
	return fmt.Sprintf("%s/remote.php/dav/calendars/%s/%s/", base, url.PathEscape(cfg.Username), url.PathEscape(cfg.CalendarID))
}

// fullURL reconstructs an absolute URL from a collection base and a
// PROPFIND-returned relative href.
func fullURL(calURL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	idx := strings.Index(calURL, "/remote.php")
	if idx > 0 {
		return calURL[:idx] + href
	}
	return href
}

