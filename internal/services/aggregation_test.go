package services

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/learntrack/backend/internal/models"
	"github.com/learntrack/backend/pkg/logger"
	"pgregory.net/rapid"
)

func TestCompletionRate(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{3, 3, 100},
		{4, 3, 100},
	}
	for _, tc := range cases {
		if got := CompletionRate(tc.completed, tc.total); got != tc.want {
			t.Errorf("CompletionRate(%d, %d) = %d, want %d", tc.completed, tc.total, got, tc.want)
		}
	}
}

func TestProperty_CompletionRateBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		total := rapid.IntRange(0, 500).Draw(rt, "total")
		completed := rapid.IntRange(0, total).Draw(rt, "completed")

		rate := CompletionRate(completed, total)
		if rate < 0 || rate > 100 {
			rt.Fatalf("rate %d out of range for %d/%d", rate, completed, total)
		}
		if total == 0 && rate != 0 {
			rt.Fatalf("expected 0 for empty catalog, got %d", rate)
		}
		if total > 0 && completed == total && rate != 100 {
			rt.Fatalf("expected 100 when everything is completed, got %d", rate)
		}
	})
}

func TestProperty_CascadeLeavesNoRecords(t *testing.T) {
	logger.SetOutput(io.Discard)

	rapid.Check(t, func(rt *rapid.T) {
		db, cleanup, err := openTestDB()
		if err != nil {
			rt.Fatalf("failed setting up test database: %v", err)
		}
		defer cleanup()
		env := newTestEnv(db)
		ctx := context.Background()
		admin := &models.UserProfile{ID: "admin-1", DisplayName: "Admin", Role: models.UserRoleAdmin}

		numNotes := rapid.IntRange(1, 4).Draw(rt, "numNotes")
		notes := make([]*models.Note, 0, numNotes)
		for i := 0; i < numNotes; i++ {
			note, err := env.Notes.PublishLink(ctx, admin, NoteInput{
				Title:   fmt.Sprintf("note-%d", i),
				Section: models.SectionElectrical,
				URL:     fmt.Sprintf("https://example.test/%d", i),
			})
			if err != nil {
				rt.Fatalf("publish: %v", err)
			}
			notes = append(notes, note)
		}

		statuses := []models.ProgressStatus{models.ProgressNotStarted, models.ProgressInProgress, models.ProgressCompleted}
		numWrites := rapid.IntRange(0, 20).Draw(rt, "numWrites")
		for i := 0; i < numWrites; i++ {
			student := fmt.Sprintf("student-%d", rapid.IntRange(0, 5).Draw(rt, "student"))
			note := notes[rapid.IntRange(0, numNotes-1).Draw(rt, "note")]
			status := statuses[rapid.IntRange(0, 2).Draw(rt, "status")]
			if _, err := env.Engine.SetStatus(ctx, student, note.ID, status); err != nil {
				rt.Fatalf("set status: %v", err)
			}
		}

		victim := notes[rapid.IntRange(0, numNotes-1).Draw(rt, "victim")]
		before, err := env.Progress.CountForNote(ctx, victim.ID)
		if err != nil {
			rt.Fatalf("count: %v", err)
		}
		result, err := env.Notes.Delete(ctx, victim.ID)
		if err != nil {
			rt.Fatalf("delete: %v", err)
		}
		if result.ProgressRemoved != before {
			rt.Fatalf("expected %d removed, got %d", before, result.ProgressRemoved)
		}

		records, err := env.Progress.ListAll(ctx)
		if err != nil {
			rt.Fatalf("list: %v", err)
		}
		for _, r := range records {
			if r.NoteID == victim.ID {
				rt.Fatalf("record for deleted note survived: %+v", r)
			}
		}
	})
}

func TestAggregation_StudentStats(t *testing.T) {
	ctx := context.Background()

	t.Run("one of three completed rounds to 33", func(t *testing.T) {
		env := setupServiceTest(t)
		admin := createProfile(t, env, "admin-1", "Admin", models.UserRoleAdmin, nil)
		createProfile(t, env, "student-1", "Ada", models.UserRoleStudent, sectionPtr(models.SectionElectrical))

		n1 := publishLink(t, env, admin, "one", models.SectionElectrical)
		n2 := publishLink(t, env, admin, "two", models.SectionElectrical)
		publishLink(t, env, admin, "three", models.SectionElectrical)
		publishLink(t, env, admin, "elsewhere", models.SectionMechanical)

		if _, err := env.Engine.SetStatus(ctx, "student-1", n1.ID, models.ProgressCompleted); err != nil {
			t.Fatalf("set status: %v", err)
		}
		if _, err := env.Engine.SetStatus(ctx, "student-1", n2.ID, models.ProgressInProgress); err != nil {
			t.Fatalf("set status: %v", err)
		}

		stats, err := env.Aggregation.StudentStats(ctx, "student-1", nil)
		if err != nil {
			t.Fatalf("student stats: %v", err)
		}
		if stats.TotalNotes != 3 || stats.Completed != 1 || stats.InProgress != 1 || stats.NotStarted != 1 {
			t.Errorf("unexpected counts: %+v", stats)
		}
		if stats.CompletionRate != 33 {
			t.Errorf("expected completion rate 33, got %d", stats.CompletionRate)
		}
	})

	t.Run("empty section", func(t *testing.T) {
		env := setupServiceTest(t)
		admin := createProfile(t, env, "admin-1", "Admin", models.UserRoleAdmin, nil)
		createProfile(t, env, "student-1", "Ada", models.UserRoleStudent, sectionPtr(models.SectionOperator))
		publishLink(t, env, admin, "wiring", models.SectionElectrical)

		stats, err := env.Aggregation.StudentStats(ctx, "student-1", nil)
		if err != nil {
			t.Fatalf("student stats: %v", err)
		}
		if stats.TotalNotes != 0 || stats.CompletionRate != 0 || stats.NotStarted != 0 {
			t.Errorf("expected an all-zero view, got %+v", stats)
		}
	})

	t.Run("records outside the section are ignored", func(t *testing.T) {
		env := setupServiceTest(t)
		admin := createProfile(t, env, "admin-1", "Admin", models.UserRoleAdmin, nil)
		createProfile(t, env, "student-1", "Ada", models.UserRoleStudent, sectionPtr(models.SectionElectrical))
		publishLink(t, env, admin, "inside", models.SectionElectrical)
		outside := publishLink(t, env, admin, "outside", models.SectionMechanical)

		if _, err := env.Engine.SetStatus(ctx, "student-1", outside.ID, models.ProgressCompleted); err != nil {
			t.Fatalf("set status: %v", err)
		}

		stats, err := env.Aggregation.StudentStats(ctx, "student-1", nil)
		if err != nil {
			t.Fatalf("student stats: %v", err)
		}
		if stats.Completed != 0 || stats.NotStarted != 1 {
			t.Errorf("expected cross-section record to be ignored, got %+v", stats)
		}
	})

	t.Run("unassigned student falls back to default section", func(t *testing.T) {
		env := setupServiceTest(t)
		admin := createProfile(t, env, "admin-1", "Admin", models.UserRoleAdmin, nil)
		createProfile(t, env, "student-1", "Ada", models.UserRoleStudent, nil)
		publishLink(t, env, admin, "wiring", models.SectionElectrical)

		stats, err := env.Aggregation.StudentStats(ctx, "student-1", nil)
		if err != nil {
			t.Fatalf("student stats: %v", err)
		}
		if stats.Section == nil || *stats.Section != models.SectionElectrical || stats.TotalNotes != 1 {
			t.Errorf("expected default electrical view, got %+v", stats)
		}

		env.Aggregation.DefaultSection = ""
		stats, err = env.Aggregation.StudentStats(ctx, "student-1", nil)
		if err != nil {
			t.Fatalf("student stats: %v", err)
		}
		if stats.Section != nil || stats.TotalNotes != 0 {
			t.Errorf("expected empty view without a default, got %+v", stats)
		}
	})

	t.Run("override section", func(t *testing.T) {
		env := setupServiceTest(t)
		admin := createProfile(t, env, "admin-1", "Admin", models.UserRoleAdmin, nil)
		createProfile(t, env, "student-1", "Ada", models.UserRoleStudent, sectionPtr(models.SectionElectrical))
		publishLink(t, env, admin, "gears", models.SectionMechanical)
		publishLink(t, env, admin, "belts", models.SectionMechanical)

		stats, err := env.Aggregation.StudentStats(ctx, "student-1", sectionPtr(models.SectionMechanical))
		if err != nil {
			t.Fatalf("student stats: %v", err)
		}
		if stats.TotalNotes != 2 {
			t.Errorf("expected 2 mechanical notes, got %d", stats.TotalNotes)
		}
	})
}

func TestAggregation_StudentNotes(t *testing.T) {
	ctx := context.Background()
	env := setupServiceTest(t)
	admin := createProfile(t, env, "admin-1", "Admin", models.UserRoleAdmin, nil)
	createProfile(t, env, "student-1", "Ada", models.UserRoleStudent, sectionPtr(models.SectionElectrical))

	older := publishLink(t, env, admin, "older", models.SectionElectrical)
	newer := publishLink(t, env, admin, "newer", models.SectionElectrical)
	if _, err := env.Engine.SetStatus(ctx, "student-1", older.ID, models.ProgressCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}

	notes, err := env.Aggregation.StudentNotes(ctx, "student-1", nil)
	if err != nil {
		t.Fatalf("student notes: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].ID != newer.ID || notes[1].ID != older.ID {
		t.Errorf("expected newest first")
	}
	if notes[0].Status != models.ProgressNotStarted || notes[1].Status != models.ProgressCompleted {
		t.Errorf("unexpected statuses: %s %s", notes[0].Status, notes[1].Status)
	}
}

func TestAggregation_SectionStats(t *testing.T) {
	ctx := context.Background()
	env := setupServiceTest(t)
	admin := createProfile(t, env, "admin-1", "Admin", models.UserRoleAdmin, nil)
	createProfile(t, env, "s1", "Ada", models.UserRoleStudent, sectionPtr(models.SectionElectrical))
	createProfile(t, env, "s2", "Bo", models.UserRoleStudent, sectionPtr(models.SectionElectrical))
	createProfile(t, env, "s3", "Cy", models.UserRoleStudent, sectionPtr(models.SectionMechanical))

	e1 := publishLink(t, env, admin, "e1", models.SectionElectrical)
	e2 := publishLink(t, env, admin, "e2", models.SectionElectrical)
	m1 := publishLink(t, env, admin, "m1", models.SectionMechanical)

	writes := []struct {
		user   string
		note   uuid.UUID
		status models.ProgressStatus
	}{
		{"s1", e1.ID, models.ProgressCompleted},
		{"s2", e1.ID, models.ProgressCompleted},
		{"s2", e2.ID, models.ProgressInProgress},
		{"s3", m1.ID, models.ProgressInProgress},
		{"s3", e2.ID, models.ProgressNotStarted},
	}
	for _, w := range writes {
		if _, err := env.Engine.SetStatus(ctx, w.user, w.note, w.status); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}

	// A record whose note vanished out of band.
	if _, err := env.Progress.Upsert(ctx, &models.ProgressRecord{UserID: "s1", NoteID: uuid.New(), Status: models.ProgressCompleted}); err != nil {
		t.Fatalf("insert orphan: %v", err)
	}

	stats, err := env.Aggregation.SectionStats(ctx)
	if err != nil {
		t.Fatalf("section stats: %v", err)
	}
	if len(stats) != len(models.Sections()) {
		t.Fatalf("expected one bucket per section, got %d", len(stats))
	}

	bySection := map[models.Section]SectionSummary{}
	for _, s := range stats {
		bySection[s.Section] = s
	}

	electrical := bySection[models.SectionElectrical]
	if electrical.TotalNotes != 2 || electrical.Completed != 2 || electrical.InProgress != 1 || electrical.Students != 2 {
		t.Errorf("unexpected electrical bucket: %+v", electrical)
	}
	if electrical.Name != "Electrical" {
		t.Errorf("expected display name Electrical, got %q", electrical.Name)
	}
	mechanical := bySection[models.SectionMechanical]
	if mechanical.TotalNotes != 1 || mechanical.Completed != 0 || mechanical.InProgress != 1 || mechanical.Students != 1 {
		t.Errorf("unexpected mechanical bucket: %+v", mechanical)
	}
	operator := bySection[models.SectionOperator]
	if operator.TotalNotes != 0 || operator.Completed != 0 || operator.InProgress != 0 {
		t.Errorf("unexpected operator bucket: %+v", operator)
	}
}

func TestAggregation_RosterView(t *testing.T) {
	ctx := context.Background()
	env := setupServiceTest(t)
	admin := createProfile(t, env, "admin-1", "Admin", models.UserRoleAdmin, nil)
	createProfile(t, env, "s1", "Ada", models.UserRoleStudent, sectionPtr(models.SectionElectrical))
	note := publishLink(t, env, admin, "wiring", models.SectionElectrical)

	if _, err := env.Engine.SetStatus(ctx, "s1", note.ID, models.ProgressCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if _, err := env.Engine.SetStatus(ctx, "ghost", note.ID, models.ProgressInProgress); err != nil {
		t.Fatalf("set status: %v", err)
	}
	orphanNote := uuid.New()
	if _, err := env.Progress.Upsert(ctx, &models.ProgressRecord{UserID: "s1", NoteID: orphanNote, Status: models.ProgressCompleted}); err != nil {
		t.Fatalf("insert orphan: %v", err)
	}

	rows, err := env.Aggregation.RosterView(ctx)
	if err != nil {
		t.Fatalf("roster view: %v", err)
	}

	records, _ := env.Progress.ListAll(ctx)
	if len(rows) != len(records) || len(rows) != 3 {
		t.Fatalf("expected one row per record (%d), got %d", len(records), len(rows))
	}

	for _, row := range rows {
		switch {
		case row.UserID == "ghost":
			if !row.UserMissing || row.StudentName != UnknownUserName || row.Email != UnknownEmail {
				t.Errorf("expected unknown user placeholders, got %+v", row)
			}
			if row.NoteTitle != "wiring" {
				t.Errorf("expected resolved note title, got %q", row.NoteTitle)
			}
		case row.NoteID == orphanNote:
			if !row.NoteMissing || row.NoteTitle != UnknownNoteTitle {
				t.Errorf("expected unknown note placeholder, got %+v", row)
			}
			if row.StudentName != "Ada" {
				t.Errorf("expected resolved student name, got %q", row.StudentName)
			}
		default:
			if row.UserMissing || row.NoteMissing || row.StudentName != "Ada" || row.Section != string(models.SectionElectrical) {
				t.Errorf("unexpected resolved row: %+v", row)
			}
		}
	}
}

func TestAggregation_StudentSummaries(t *testing.T) {
	ctx := context.Background()
	env := setupServiceTest(t)
	admin := createProfile(t, env, "admin-1", "Admin", models.UserRoleAdmin, nil)
	createProfile(t, env, "s1", "Ada", models.UserRoleStudent, sectionPtr(models.SectionElectrical))
	createProfile(t, env, "s2", "Bo", models.UserRoleStudent, sectionPtr(models.SectionMechanical))

	e1 := publishLink(t, env, admin, "e1", models.SectionElectrical)
	publishLink(t, env, admin, "e2", models.SectionElectrical)
	if _, err := env.Engine.SetStatus(ctx, "s1", e1.ID, models.ProgressCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}

	summaries, err := env.Aggregation.StudentSummaries(ctx)
	if err != nil {
		t.Fatalf("student summaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected only student profiles, got %d", len(summaries))
	}

	byUser := map[string]StudentSummary{}
	for _, s := range summaries {
		byUser[s.UserID] = s
	}
	if got := byUser["s1"]; got.TotalNotes != 2 || got.Completed != 1 || got.CompletionRate != 50 {
		t.Errorf("unexpected summary for s1: %+v", got)
	}
	if got := byUser["s2"]; got.TotalNotes != 0 || got.CompletionRate != 0 {
		t.Errorf("unexpected summary for s2: %+v", got)
	}
}
