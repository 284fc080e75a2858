package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shoplist/api/internal/cli/api"
)

// Stdout is where every printer writes. Tests swap it for a buffer.
var Stdout io.Writer = os.Stdout

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
}

// JSON prints v as indented JSON.
func JSON(v interface{}) {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func UserInfo(u api.User) {
	w := newTable()
	fmt.Fprintf(w, "Username:\t%s\n", u.Username)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	w.Flush()
}

// HouseholdTable marks the row whose id equals current with "*".
func HouseholdTable(households []api.Household, current string) {
	if len(households) == 0 {
		fmt.Fprintln(Stdout, "No households found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "\tID\tNAME\tCREATED")
	for _, h := range households {
		marker := ""
		if current != "" && h.ID == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, h.ID, h.Name, RelativeTime(h.CreatedAt))
	}
	w.Flush()
}

// HouseholdDetail prints a household and its members in join order.
func HouseholdDetail(h api.Household) {
	w := newTable()
	fmt.Fprintf(w, "Name:\t%s\n", h.Name)
	fmt.Fprintf(w, "ID:\t%s\n", h.ID)
	fmt.Fprintf(w, "Created:\t%s\n", h.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Members:\t%d\n", len(h.Members))
	for _, m := range h.Members {
		name := m.UserID
		if m.User != nil {
			name = fmt.Sprintf("%s <%s>", m.User.Username, m.User.Email)
		}
		fmt.Fprintf(w, "\t%s (joined %s)\n", name, RelativeTime(m.JoinedAt))
	}
	w.Flush()
}

func ListTable(lists []api.ShoppingList) {
	if len(lists) == 0 {
		fmt.Fprintln(Stdout, "No shopping lists found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tDATE\tNAME")
	for _, l := range lists {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.ID, l.Date, l.Name)
	}
	w.Flush()
}

func ItemTable(items []api.Item) {
	if len(items) == 0 {
		fmt.Fprintln(Stdout, "No items found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "ID\t\tNAME\tAMOUNT\tCATEGORY\tNOTES")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, Checkbox(it.Bought), it.Name, orDash(it.Amount), orDash(it.Category), orDash(it.Notes))
	}
	w.Flush()
}

func ActivityTable(entries []api.ActivityEntry, p *api.Pagination) {
	if len(entries) == 0 {
		fmt.Fprintln(Stdout, "No activity recorded.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "WHEN\tACTION\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", RelativeTime(e.CreatedAt), e.Action, FormatDetails(e.Details))
	}
	w.Flush()
	if p != nil && p.TotalPages > 1 {
		fmt.Fprintf(Stdout, "Page %d of %d (%d entries)\n", p.Page, p.TotalPages, p.Total)
	}
}

// Status is what "shoplist status" knows about the local session and the
// server it points at. Server and User stay nil when they could not be fetched.
type Status struct {
	ServerURL  string           `json:"serverUrl"`
	CLIVersion string           `json:"cliVersion"`
	Server     *api.VersionInfo `json:"server,omitempty"`
	User       *api.User        `json:"user,omitempty"`
	Household  string           `json:"household,omitempty"`
}

func StatusInfo(s Status) {
	w := newTable()
	fmt.Fprintf(w, "Server URL:\t%s\n", s.ServerURL)
	fmt.Fprintf(w, "CLI:\t%s\n", s.CLIVersion)
	if s.Server != nil {
		fmt.Fprintf(w, "Server:\t%s (API %s)\n", s.Server.Version, s.Server.APIVersion)
		fmt.Fprintf(w, "Revocations:\t%s\n", s.Server.Revocations)
	} else {
		fmt.Fprintf(w, "Server:\tunreachable\n")
	}
	if s.User != nil {
		fmt.Fprintf(w, "Logged in:\t%s <%s>\n", s.User.Username, s.User.Email)
	} else {
		fmt.Fprintf(w, "Logged in:\tno\n")
	}
	household := s.Household
	if household == "" {
		household = "none"
	}
	fmt.Fprintf(w, "Household:\t%s\n", household)
	w.Flush()
}

func Checkbox(bought bool) string {
	if bought {
		return "[x]"
	}
	return "[ ]"
}

// FormatDetails renders audit details as sorted key=value pairs.
func FormatDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago", "3d ago").
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
