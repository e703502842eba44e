package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/capsched/capsched/internal/config"
	"github.com/capsched/capsched/internal/domain"
	"github.com/capsched/capsched/internal/planner"
	"github.com/capsched/capsched/internal/stats"
	"github.com/capsched/capsched/internal/storage"
	"github.com/capsched/capsched/internal/sync"
)

func main() {
	def := config.Default()

	flags := pflag.NewFlagSet("capsched", pflag.ExitOnError)
	configFile := flags.String("config", "", "Path to a YAML config file")
	flags.String("db-path", def.DBPath, "Path to the SQLite database file")
	flags.String("repos-dir", def.ReposDir, "Directory for git deck mirrors")
	flags.Int("daily-minutes", def.DailyMinutes, "Daily study-time budget in minutes")

	addSource := flags.String("add-source", "", "Register a deck source (directory or git URL)")
	listSources := flags.Bool("sources", false, "List registered deck sources")
	removeSource := flags.Int64("remove-source", 0, "Remove the deck source with this ID")
	doSync := flags.Bool("sync", false, "Reconcile all deck sources into the database")
	showStats := flags.Bool("stats", false, "Show global retention statistics")
	showDue := flags.Bool("due", false, "List capsules currently due for review")
	review := flags.String("review", "", "Record a review for this capsule ID")
	score := flags.Float64("score", 0, "Review score 0-100 (with --review)")
	kind := flags.String("kind", "manual", "Review kind: quiz, flashcard, manual, active (with --review)")
	planName := flags.String("plan", "", "Generate a study plan with this name")
	examDate := flags.String("exam", "", "Exam date YYYY-MM-DD (with --plan)")
	listPlans := flags.Bool("plans", false, "List stored study plans")
	exportPlan := flags.String("export-plan", "", "Print the stored plan with this ID as JSON")
	complete := flags.String("complete", "", "Mark a task complete: <planID>:<date>:<capsuleID>")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fatal("parsing flags", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		fatal("loading configuration", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		fatal("opening database", err)
	}
	defer db.Close()

	srsPolicy := cfg.SRSPolicy()
	plan := planner.New(srsPolicy, cfg.PlannerPolicy())
	now := time.Now()

	switch {
	case *addSource != "":
		sourceType := sync.SourceTypeFor(*addSource)
		id, err := db.InsertSource(*addSource, sourceType)
		if err != nil {
			fatal("adding source", err)
		}
		fmt.Printf("Added %s source %d: %s\n", sourceType, id, *addSource)

	case *removeSource != 0:
		if err := db.DeleteSource(*removeSource); err != nil {
			fatal("removing source", err)
		}
		fmt.Printf("Removed source %d\n", *removeSource)

	case *listSources:
		sources, err := db.GetAllSources()
		if err != nil {
			fatal("listing sources", err)
		}
		for _, s := range sources {
			scanned := "never"
			if s.LastScanned.Valid {
				scanned = s.LastScanned.Time.Format(time.RFC3339)
			}
			fmt.Printf("%d\t%s\t%s\t(scanned %s)\n", s.ID, s.Type, s.Path, scanned)
		}

	case *doSync:
		if err := sync.RunSync(db, cfg.ReposDir); err != nil {
			fatal("syncing sources", err)
		}

	case *showStats:
		capsules, err := db.ListCapsules()
		if err != nil {
			fatal("loading capsules", err)
		}
		st := stats.Analyze(srsPolicy, capsules, now)
		fmt.Printf("Capsules:      %d\n", len(capsules))
		fmt.Printf("Mastery:       %.1f\n", st.GlobalMastery)
		fmt.Printf("Retention:     %.0f%%\n", st.RetentionAverage*100)
		fmt.Printf("Due:           %d\n", st.DueCount)
		fmt.Printf("Overdue:       %d\n", st.OverdueCount)

	case *showDue:
		capsules, err := db.ListCapsules()
		if err != nil {
			fatal("loading capsules", err)
		}
		for _, c := range capsules {
			if !srsPolicy.IsDue(c, now) {
				continue
			}
			marker := ""
			if srsPolicy.IsOverdue(c, now) {
				marker = "\t[overdue]"
			}
			fmt.Printf("%s\t%s\tmastery %.0f%s\n", c.ID, c.Title, srsPolicy.Mastery(c, now), marker)
		}

	case *review != "":
		ev := domain.ReviewEvent{
			Timestamp: now,
			Kind:      domain.ReviewKind(*kind),
			Score:     *score,
		}
		if err := db.RecordReview(*review, ev); err != nil {
			fatal("recording review", err)
		}
		fmt.Printf("Recorded %s review (score %.0f) for capsule %s\n", *kind, *score, *review)

	case *planName != "":
		exam, err := time.ParseInLocation("2006-01-02", *examDate, time.Local)
		if err != nil {
			fatal("parsing --exam date", err)
		}
		capsules, err := db.ListCapsules()
		if err != nil {
			fatal("loading capsules", err)
		}
		generated, err := plan.GeneratePlan(*planName, capsules, exam, cfg.DailyMinutes, now)
		if err != nil {
			var verr *planner.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintln(os.Stderr, "capsched:", verr.Reason)
				os.Exit(2)
			}
			fatal("generating plan", err)
		}
		if err := db.SavePlan(generated); err != nil {
			fatal("saving plan", err)
		}
		printPlanSummary(generated)

	case *listPlans:
		plans, err := db.ListPlans()
		if err != nil {
			fatal("listing plans", err)
		}
		for _, p := range plans {
			fmt.Printf("%s\t%s\texam %s\t%d sessions\n",
				p.ID, p.Name, p.ExamDate.Format("2006-01-02"), len(p.Sessions))
		}

	case *exportPlan != "":
		stored, err := db.GetPlan(*exportPlan)
		if err != nil {
			fatal("loading plan", err)
		}
		if stored == nil {
			fatal("loading plan", fmt.Errorf("no plan with ID %s", *exportPlan))
		}
		payload, err := json.MarshalIndent(stored, "", "  ")
		if err != nil {
			fatal("encoding plan", err)
		}
		fmt.Println(string(payload))

	case *complete != "":
		parts := strings.SplitN(*complete, ":", 3)
		if len(parts) != 3 {
			fatal("parsing --complete", fmt.Errorf("expected <planID>:<date>:<capsuleID>, got %q", *complete))
		}
		stored, err := db.GetPlan(parts[0])
		if err != nil {
			fatal("loading plan", err)
		}
		if stored == nil {
			fatal("loading plan", fmt.Errorf("no plan with ID %s", parts[0]))
		}
		updated := planner.UpdateTaskStatus(*stored, parts[1], parts[2], domain.TaskCompleted)
		if err := db.SavePlan(updated); err != nil {
			fatal("saving plan", err)
		}
		fmt.Printf("Marked capsule %s on %s complete in plan %s\n", parts[2], parts[1], parts[0])

	default:
		flags.Usage()
	}
}

func printPlanSummary(p domain.StudyPlan) {
	fmt.Printf("Plan %q (%s): %d sessions until %s\n",
		p.Name, p.ID, len(p.Sessions), p.ExamDate.Format("2006-01-02"))
	for _, s := range p.Sessions {
		if s.IsRestDay {
			fmt.Printf("  %s\trest day\n", s.Date)
			continue
		}
		fmt.Printf("  %s\t%d task(s), %d min\n", s.Date, len(s.Tasks), s.TotalMinutes)
	}
}

func fatal(context string, err error) {
	slog.Error(context, "error", err)
	os.Exit(1)
}
