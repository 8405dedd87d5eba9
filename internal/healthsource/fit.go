package healthsource

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"github.com/Rob190501/iWalk/internal/domain"
)

// FITSource derives daily records from a directory of FIT activity exports.
type FITSource struct {
	dir    string
	now    func() time.Time
	logger *log.Logger
}

// NewFITSource constructs a FITSource over dir. A nil clock defaults to time.Now.
func NewFITSource(dir string, now func() time.Time) *FITSource {
	if now == nil {
		now = time.Now
	}
	return &FITSource{
		dir:    dir,
		now:    now,
		logger: log.New(log.Writer(), "[fit-source] ", log.LstdFlags|log.Lshortfile),
	}
}

// Daily decodes every activity in the directory and aggregates sessions per calendar day.
func (s *FITSource) Daily(ctx context.Context, from, to time.Time) ([]domain.DailyRecord, error) {
	sessions, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}

	from, to = domain.Day(from), domain.Day(to)
	out := make([]domain.DailyRecord, 0)
	for _, record := range aggregateSessions(sessions) {
		if !record.Date.Before(from) && record.Date.Before(to) {
			out = append(out, record)
		}
	}
	return out, nil
}

// Today sums the steps and exercise minutes of sessions started on the current day.
func (s *FITSource) Today(ctx context.Context) (domain.Today, error) {
	sessions, err := s.sessions(ctx)
	if err != nil {
		return domain.Today{}, err
	}

	today := domain.Day(s.now())
	var totals dayTotals
	for _, session := range sessions {
		if domain.Day(sessionStart(session)).Equal(today) {
			totals.add(session)
		}
	}
	return domain.Today{Steps: totals.steps, ExerciseMinutes: totals.minutes()}, nil
}

func (s *FITSource) sessions(ctx context.Context) ([]*fit.SessionMsg, error) {
	paths := make([]string, 0)
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".fit") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", domain.ErrDataUnavailable, s.dir, err)
	}

	sessions := make([]*fit.SessionMsg, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		activity, err := decodeActivity(path)
		if err != nil {
			s.logger.Printf("skip %s: %v", path, err)
			continue
		}
		sessions = append(sessions, activity.Sessions...)
	}
	return sessions, nil
}

func decodeActivity(path string) (*fit.ActivityFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, err := fit.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	return decoded.Activity()
}

// dayTotals accumulates one calendar day. Each quantity tracks whether any session reported it.
type dayTotals struct {
	steps        int
	timerSeconds float64
	calories     int

	hasSteps, hasTimer, hasCalories bool
}

func (d *dayTotals) add(session *fit.SessionMsg) {
	if stepsSport(session.Sport) && session.TotalCycles != math.MaxUint32 {
		d.steps += 2 * int(session.TotalCycles)
		d.hasSteps = true
	}
	if seconds := session.GetTotalTimerTimeScaled(); !math.IsNaN(seconds) && seconds > 0 {
		d.timerSeconds += seconds
		d.hasTimer = true
	}
	if session.TotalCalories != math.MaxUint16 {
		d.calories += int(session.TotalCalories)
		d.hasCalories = true
	}
}

func (d *dayTotals) minutes() int {
	return int(d.timerSeconds / 60)
}

func (d *dayTotals) complete() bool {
	return d.hasSteps && d.hasTimer && d.hasCalories
}

// aggregateSessions folds sessions into daily records ordered by date. Days lacking any of the
// three quantities are omitted.
func aggregateSessions(sessions []*fit.SessionMsg) []domain.DailyRecord {
	byDay := make(map[time.Time]*dayTotals)
	for _, session := range sessions {
		start := sessionStart(session)
		if start.IsZero() {
			continue
		}
		day := domain.Day(start)
		totals, ok := byDay[day]
		if !ok {
			totals = &dayTotals{}
			byDay[day] = totals
		}
		totals.add(session)
	}

	out := make([]domain.DailyRecord, 0, len(byDay))
	for day, totals := range byDay {
		if !totals.complete() {
			continue
		}
		out = append(out, domain.DailyRecord{
			Date:            day,
			Steps:           totals.steps,
			ExerciseMinutes: totals.minutes(),
			Calories:        totals.calories,
		})
	}
	domain.SortByDate(out)
	return out
}

func sessionStart(session *fit.SessionMsg) time.Time {
	for _, t := range []time.Time{session.StartTime, session.Timestamp} {
		if !t.IsZero() && !fit.IsBaseTime(t) {
			return t
		}
	}
	return time.Time{}
}

func stepsSport(sport fit.Sport) bool {
	return sport == fit.SportRunning || sport == fit.SportWalking
}
