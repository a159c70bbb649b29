package calendarclient

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// icsTime formats t in RFC 5545 UTC form: 20260224T140000Z.
func icsTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// newUID returns a random UID suitable for a VEVENT's UID property.
func newUID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// buildVEvent renders a single-event VCALENDAR body for summary spanning
// [start, end). summary should already carry the configured marker prefix.
func buildVEvent(uid, summary, description string, start, end time.Time) string {
	var pb strings.Builder
	pb.WriteString("BEGIN:VCALENDAR\r\n")
	pb.WriteString("VERSION:2.0\r\n")
	pb.WriteString("PRODID:-//genie//calendarclient//EN\r\n")
	pb.WriteString("BEGIN:VEVENT\r\n")
	pb.WriteString(fmt.Sprintf("UID:%s\r\n", uid))
	pb.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", icsTime(time.Now().UTC())))
	pb.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeText(summary)))
	if description != "" {
		pb.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeText(description)))
	}
	pb.WriteString(fmt.Sprintf("DTSTART:%s\r\n", icsTime(start)))
	pb.WriteString(fmt.Sprintf("DTEND:%s\r\n", icsTime(end)))
	pb.WriteString("TRANSP:OPAQUE\r\n")
	pb.WriteString("END:VEVENT\r\n")
	pb.WriteString("END:VCALENDAR\r\n")
	return pb.String()
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// Event is a parsed subset of a fetched VEVENT, enough to compute
// free/busy windows and to recognize genie-owned events.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

// parseVEvent extracts SUMMARY/DTSTART/DTEND/UID from a raw .ics body.
// Malformed or partial bodies return ok=false rather than an error: one
// bad event on the remote calendar must never abort the whole scan.
func parseVEvent(body string) (Event, bool) {
	raw := strings.ReplaceAll(body, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\n ", "")
	raw = strings.ReplaceAll(raw, "\n\t", "")

	fields := map[string]string{}
	for _, line := range strings.Split(raw, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(strings.SplitN(parts[0], ";", 2)[0]))
		fields[key] = strings.TrimSpace(parts[1])
	}

	start, ok1 := parseICSTime(fields["DTSTART"])
	end, ok2 := parseICSTime(fields["DTEND"])
	if !ok1 || !ok2 {
		return Event{}, false
	}
	return Event{
		UID:     fields["UID"],
		Summary: fields["SUMMARY"],
		Start:   start,
		End:     end,
	}, true
}

func parseICSTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("20060102T150405Z", s); err == nil {
		return t, true
	}
	if t, err := time.Parse("20060102", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
