package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/internal/store"
)

const (
	UnknownUserName  = "Unknown User"
	UnknownEmail     = "N/A"
	UnknownNoteTitle = "Unknown Note"
)

type SectionSummary struct {
	Section    models.Section `json:"section"`
	Name       string         `json:"name"`
	TotalNotes int            `json:"totalNotes"`
	Completed  int            `json:"completed"`
	InProgress int            `json:"inProgress"`
	Students   int            `json:"students"`
}

type StudentSummary struct {
	UserID         string          `json:"userID"`
	DisplayName    string          `json:"displayName"`
	Email          string          `json:"email"`
	Section        *models.Section `json:"section"`
	TotalNotes     int             `json:"totalNotes"`
	Completed      int             `json:"completed"`
	InProgress     int             `json:"inProgress"`
	NotStarted     int             `json:"notStarted"`
	CompletionRate int             `json:"completionRate"`
}

type NoteWithStatus struct {
	models.Note
	Status models.ProgressStatus `json:"status"`
}

// ProgressRow is one line of the admin roster view. Rows whose user or note
// can no longer be resolved carry placeholders and the matching flag.
type ProgressRow struct {
	UserID      string                `json:"userID"`
	NoteID      uuid.UUID             `json:"noteID"`
	Status      models.ProgressStatus `json:"status"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	StudentName string                `json:"studentName"`
	Email       string                `json:"email"`
	NoteTitle   string                `json:"noteTitle"`
	Section     string                `json:"section"`
	UserMissing bool                  `json:"userMissing"`
	NoteMissing bool                  `json:"noteMissing"`
}

// AggregationService folds the three stores into dashboard views. Nothing
// is cached: every call re-reads the stores.
type AggregationService struct {
	Catalog        *store.CatalogStore
	Roster         *store.RosterStore
	Progress       *store.ProgressStore
	DefaultSection models.Section
}

func NewAggregationService(catalog *store.CatalogStore, roster *store.RosterStore, progress *store.ProgressStore, defaultSection models.Section) *AggregationService {
	return &AggregationService{
		Catalog:        catalog,
		Roster:         roster,
		Progress:       progress,
		DefaultSection: defaultSection,
	}
}

// CompletionRate is round(100*completed/total), clamped to [0,100], and 0
// when there is nothing to complete.
func CompletionRate(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

func (a *AggregationService) SectionStats(ctx context.Context) ([]SectionSummary, error) {
	notes, err := a.Catalog.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	records, err := a.Progress.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := a.Roster.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	var order []models.Section
	buckets := map[models.Section]*SectionSummary{}
	bucket := func(section models.Section) *SectionSummary {
		if b, ok := buckets[section]; ok {
			return b
		}
		b := &SectionSummary{Section: section, Name: section.DisplayName()}
		buckets[section] = b
		order = append(order, section)
		return b
	}
	for _, info := range models.Sections() {
		bucket(info.ID)
	}

	noteSection := make(map[uuid.UUID]models.Section, len(notes))
	for _, n := range notes {
		noteSection[n.ID] = n.Section
		bucket(n.Section).TotalNotes++
	}

	for _, r := range records {
		section, ok := noteSection[r.NoteID]
		if !ok {
			continue
		}
		switch r.Status {
		case models.ProgressCompleted:
			buckets[section].Completed++
		case models.ProgressInProgress:
			buckets[section].InProgress++
		}
	}

	for _, p := range profiles {
		if p.Role != models.UserRoleStudent || p.Section == nil {
			continue
		}
		if b, ok := buckets[*p.Section]; ok {
			b.Students++
		}
	}

	out := make([]SectionSummary, 0, len(order))
	for _, section := range order {
		out = append(out, *buckets[section])
	}
	return out, nil
}

// resolveSection picks the section a student view is computed for: the
// explicit override, then the profile's, then the configured default.
func (a *AggregationService) resolveSection(profile *models.UserProfile, override *models.Section) *models.Section {
	if override != nil {
		return override
	}
	if profile != nil && profile.Section != nil {
		return profile.Section
	}
	if a.DefaultSection != "" {
		section := a.DefaultSection
		return &section
	}
	return nil
}

func (a *AggregationService) StudentStats(ctx context.Context, userID string, override *models.Section) (*StudentSummary, error) {
	profile, err := a.Roster.Get(ctx, userID)
	if err != nil && !store.IsNotFound(err) {
		return nil, err
	}
	if store.IsNotFound(err) {
		profile = nil
	}

	records, err := a.Progress.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	section := a.resolveSection(profile, override)
	var notes []models.Note
	if section != nil {
		notes, err = a.Catalog.List(ctx, section)
		if err != nil {
			return nil, err
		}
	}

	summary := summarize(notes, StatusIndex(records))
	summary.UserID = userID
	summary.Section = section
	if profile != nil {
		summary.DisplayName = profile.DisplayName
		summary.Email = profile.Email
	}
	return &summary, nil
}

// summarize counts only records whose note is among notes, so progress on
// notes of another section never leaks into the view.
func summarize(notes []models.Note, index map[uuid.UUID]models.ProgressStatus) StudentSummary {
	summary := StudentSummary{TotalNotes: len(notes)}
	for _, n := range notes {
		switch StatusFor(index, n.ID) {
		case models.ProgressCompleted:
			summary.Completed++
		case models.ProgressInProgress:
			summary.InProgress++
		}
	}
	summary.NotStarted = summary.TotalNotes - summary.Completed - summary.InProgress
	summary.CompletionRate = CompletionRate(summary.Completed, summary.TotalNotes)
	return summary
}

func (a *AggregationService) StudentNotes(ctx context.Context, userID string, override *models.Section) ([]NoteWithStatus, error) {
	profile, err := a.Roster.Get(ctx, userID)
	if err != nil && !store.IsNotFound(err) {
		return nil, err
	}
	if store.IsNotFound(err) {
		profile = nil
	}

	section := a.resolveSection(profile, override)
	if section == nil {
		return []NoteWithStatus{}, nil
	}

	notes, err := a.Catalog.List(ctx, section)
	if err != nil {
		return nil, err
	}
	records, err := a.Progress.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	index := StatusIndex(records)
	out := make([]NoteWithStatus, 0, len(notes))
	for _, n := range notes {
		out = append(out, NoteWithStatus{Note: n, Status: StatusFor(index, n.ID)})
	}
	return out, nil
}

// RosterView returns exactly one row per progress record.
func (a *AggregationService) RosterView(ctx context.Context) ([]ProgressRow, error) {
	records, err := a.Progress.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := a.Catalog.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	profiles, err := a.Roster.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	noteByID := make(map[uuid.UUID]models.Note, len(notes))
	for _, n := range notes {
		noteByID[n.ID] = n
	}
	profileByID := make(map[string]models.UserProfile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}

	rows := make([]ProgressRow, 0, len(records))
	for _, r := range records {
		row := ProgressRow{
			UserID:    r.UserID,
			NoteID:    r.NoteID,
			Status:    r.Status,
			UpdatedAt: r.UpdatedAt,
		}

		if p, ok := profileByID[r.UserID]; ok {
			row.StudentName = p.DisplayName
			row.Email = p.Email
			if row.StudentName == "" {
				row.StudentName = r.StudentName
			}
		} else {
			row.UserMissing = true
			row.StudentName = UnknownUserName
			row.Email = UnknownEmail
		}

		if n, ok := noteByID[r.NoteID]; ok {
			row.NoteTitle = n.Title
			row.Section = string(n.Section)
		} else {
			row.NoteMissing = true
			row.NoteTitle = UnknownNoteTitle
			row.Section = UnknownEmail
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// StudentSummaries computes StudentStats for every student profile using a
// single read of each store.
func (a *AggregationService) StudentSummaries(ctx context.Context) ([]StudentSummary, error) {
	profiles, err := a.Roster.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	notes, err := a.Catalog.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	records, err := a.Progress.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	notesBySection := map[models.Section][]models.Note{}
	for _, n := range notes {
		notesBySection[n.Section] = append(notesBySection[n.Section], n)
	}
	recordsByUser := map[string][]models.ProgressRecord{}
	for _, r := range records {
		recordsByUser[r.UserID] = append(recordsByUser[r.UserID], r)
	}

	out := make([]StudentSummary, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		if p.Role != models.UserRoleStudent {
			continue
		}
		section := a.resolveSection(p, nil)
		var sectionNotes []models.Note
		if section != nil {
			sectionNotes = notesBySection[*section]
		}

		summary := summarize(sectionNotes, StatusIndex(recordsByUser[p.ID]))
		summary.UserID = p.ID
		summary.DisplayName = p.DisplayName
		summary.Email = p.Email
		summary.Section = section
		out = append(out, summary)
	}
	return out, nil
}
