package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/learntrack/backend/internal/cli/api"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/session"
)

// Stdout is where every printer writes.
var Stdout io.Writer = os.Stdout

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(Stdout, 0, 0, 2, ' ', 0)
}

func Printf(format string, a ...interface{}) {
	fmt.Fprintf(Stdout, format, a...)
}

func Println(a ...interface{}) {
	fmt.Fprintln(Stdout, a...)
}

// JSON prints v as indented JSON.
func JSON(v interface{}) {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func NoteTable(notes []api.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(Stdout, "No notes found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tSECTION\tKIND\tADDED")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.ID, n.Title, n.Section, n.Kind, RelativeTime(n.CreatedAt))
	}
	w.Flush()
}

func NoteDetail(n api.Note) {
	w := newTable()
	fmt.Fprintf(w, "Title:\t%s\n", n.Title)
	fmt.Fprintf(w, "ID:\t%s\n", n.ID)
	fmt.Fprintf(w, "Section:\t%s\n", n.Section.DisplayName())
	fmt.Fprintf(w, "Kind:\t%s\n", n.Kind)
	if n.Description != "" {
		fmt.Fprintf(w, "Description:\t%s\n", n.Description)
	}
	if n.FileName != nil {
		fmt.Fprintf(w, "File:\t%s\n", *n.FileName)
	}
	fmt.Fprintf(w, "URL:\t%s\n", n.URL)
	fmt.Fprintf(w, "Uploaded By:\t%s\n", n.UploaderName)
	fmt.Fprintf(w, "Created:\t%s\n", n.CreatedAt.Format(time.RFC3339))
	w.Flush()
}

// StatusTable prints the caller's notes with their progress status.
func StatusTable(notes []api.NoteWithStatus) {
	if len(notes) == 0 {
		fmt.Fprintln(Stdout, "No notes found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tKIND\tSTATUS")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Title, n.Kind, statusLabel(n.Status))
	}
	w.Flush()
}

func StudentStats(s api.StudentSummary) {
	w := newTable()
	section := "-"
	if s.Section != nil {
		section = s.Section.DisplayName()
	}
	fmt.Fprintf(w, "Section:\t%s\n", section)
	fmt.Fprintf(w, "Notes:\t%d\n", s.TotalNotes)
	fmt.Fprintf(w, "Completed:\t%d\n", s.Completed)
	fmt.Fprintf(w, "In Progress:\t%d\n", s.InProgress)
	fmt.Fprintf(w, "Not Started:\t%d\n", s.NotStarted)
	fmt.Fprintf(w, "Completion:\t%d%%\n", s.CompletionRate)
	w.Flush()
}

func SectionTable(rows []api.SectionSummary) {
	if len(rows) == 0 {
		fmt.Fprintln(Stdout, "No sections found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "SECTION\tNOTES\tSTUDENTS\tCOMPLETED\tIN PROGRESS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", r.Name, r.TotalNotes, r.Students, r.Completed, r.InProgress)
	}
	w.Flush()
}

func StudentTable(rows []api.StudentSummary) {
	if len(rows) == 0 {
		fmt.Fprintln(Stdout, "No students found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "NAME\tEMAIL\tSECTION\tDONE\tRATE")
	for _, r := range rows {
		section := "-"
		if r.Section != nil {
			section = string(*r.Section)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d%%\n", r.DisplayName, r.Email, section, r.Completed, r.TotalNotes, r.CompletionRate)
	}
	w.Flush()
}

// RosterTable prints every progress record; rows whose student or note no
// longer resolves are marked with an asterisk.
func RosterTable(rows []api.ProgressRow) {
	if len(rows) == 0 {
		fmt.Fprintln(Stdout, "No progress recorded.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "STUDENT\tEMAIL\tNOTE\tSECTION\tSTATUS\tUPDATED")
	for _, r := range rows {
		student := r.StudentName
		if r.UserMissing {
			student += "*"
		}
		note := r.NoteTitle
		if r.NoteMissing {
			note += "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", student, r.Email, note, r.Section, statusLabel(r.Status), RelativeTime(r.UpdatedAt))
	}
	w.Flush()
}

func UserTable(users []api.Profile) {
	if len(users) == 0 {
		fmt.Fprintln(Stdout, "No users found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tSECTION")
	for _, u := range users {
		section := "-"
		if u.Section != nil {
			section = string(*u.Section)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.DisplayName, u.Email, u.Role, section)
	}
	w.Flush()
}

func UserInfo(u api.Profile, s *session.Session) {
	w := newTable()
	fmt.Fprintf(w, "Name:\t%s\n", u.DisplayName)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "Role:\t%s\n", u.Role)
	if u.Section != nil {
		fmt.Fprintf(w, "Section:\t%s\n", u.Section.DisplayName())
	}
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	if s != nil && !s.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Session Expires:\t%s\n", s.ExpiresAt.Format(time.RFC3339))
	}
	w.Flush()
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago").
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

func statusLabel(s models.ProgressStatus) string {
	switch s {
	case models.ProgressCompleted:
		return "done"
	case models.ProgressInProgress:
		return "in progress"
	default:
		return "not started"
	}
}
