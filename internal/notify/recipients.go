package notify

import (
	"net/mail"
	"strings"
)

// ParseCC splits a comma-separated address list, trimming each entry and
// dropping empty ones. Order is preserved. Entries with a display name
// ("Ops <ops@x.com>") are reduced to the bare address; entries that do not
// parse are kept as written and left for the server to refuse.
func ParseCC(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		entry := strings.TrimSpace(part)
		if entry == "" {
			continue
		}
		if addr, err := mail.ParseAddress(entry); err == nil {
			entry = addr.Address
		}
		out = append(out, entry)
	}
	return out
}
