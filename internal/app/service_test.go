package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/swimrate/internal/adapters/repository"
	"github.com/okian/swimrate/internal/adapters/roster"
	"github.com/okian/swimrate/internal/adapters/snapshot"
	service "github.com/okian/swimrate/internal/app"
	"github.com/okian/swimrate/internal/config"
	"github.com/okian/swimrate/internal/domain/grading"
	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/internal/domain/rating"
	"github.com/okian/swimrate/pkg/logger"
)

const freestyle = "50 FR SCY"

var logs bytes.Buffer

func init() {
	// Initialize logging for tests
	if err := logger.Init(logger.WithWriter(&logs)); err != nil {
		panic(err)
	}
}

var (
	dominant = map[int]float64{13: 40, 14: 36, 15: 33, 16: 31, 17: 30}
	modest   = map[int]float64{13: 40, 14: 39, 15: 38, 16: 37, 17: 36.5}
)

func buildDataset(ctx context.Context, swimmers map[string]map[int]float64) *repository.Dataset {
	d := repository.NewDataset(repository.WithReferenceYear(2021))
	for _, name := range []string{"A", "B", "Hist"} {
		for age := 13; age <= 18; age++ {
			if t, ok := swimmers[name][age]; ok {
				_ = d.Observe(ctx, model.Result{Name: name, Age: age, Event: freestyle, Year: 2004 + age, Time: t})
			}
		}
	}
	return d
}

func newRoster(names ...string) *roster.Roster {
	r := &roster.Roster{ReferenceScores: map[string]string{"A": "4.5"}}
	for _, n := range names {
		r.Recruits = append(r.Recruits, roster.Recruit{Name: n, Events: []string{freestyle}, Category: "sprint", Historical: n == "Hist"})
	}
	return r
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc, err := service.New(context.Background())

		Convey("Then it should use the z-score strategy", func() {
			So(err, ShouldBeNil)
			So(svc.Strategy(), ShouldEqual, rating.NameZScore)
		})
	})

	Convey("Given a config naming an unknown strategy", t, func() {
		cfg := config.New(context.Background())
		cfg.Strategy = "elo"
		_, err := service.New(context.Background(), service.WithConfig(cfg))

		Convey("Then construction fails", func() {
			So(errors.Is(err, rating.ErrUnknownStrategy), ShouldBeTrue)
		})
	})
}

func TestService_Rate(t *testing.T) {
	for _, workers := range []int{1, 4} {
		Convey(fmt.Sprintf("Given A improving more than B with %d workers", workers), t, func() {
			ctx := context.Background()
			cfg := config.New(ctx)
			cfg.WorkerCount = workers
			svc, err := service.New(ctx, service.WithConfig(cfg))
			So(err, ShouldBeNil)

			ds := buildDataset(ctx, map[string]map[int]float64{"A": dominant, "B": modest})
			logs.Reset()

			Convey("When rating A, B and an unknown recruit", func() {
				report, err := svc.Rate(ctx, ds, newRoster("A", "Ghost", "B"))

				Convey("Then A ranks above B and the unknown recruit is reported", func() {
					So(err, ShouldBeNil)
					So(report.Entries, ShouldHaveLength, 2)
					So(report.Entries[0].Name, ShouldEqual, "A")
					So(report.Entries[1].Name, ShouldEqual, "B")
					So(report.Entries[0].Standardized, ShouldBeGreaterThan, report.Entries[1].Standardized)
					So(report.NotFound, ShouldResemble, []string{"Ghost"})
					So(report.Strategy, ShouldEqual, rating.NameZScore)
					_, err := uuid.Parse(report.RunID)
					So(err, ShouldBeNil)
					So(report.Ratings["A"].Events, ShouldHaveLength, 1)
					So(logs.String(), ShouldContainSubstring, "recruit not found")
				})

				Convey("Then the rendered report lists A first", func() {
					var buf bytes.Buffer
					So(report.Render(&buf), ShouldBeNil)
					So(buf.String(), ShouldEqual, "A: A- (4.5) sprint\nB: C (-) sprint\n")
				})
			})

			Convey("When only one recruit can be scored", func() {
				_, err := svc.Rate(ctx, ds, newRoster("A", "Ghost"))

				Convey("Then standardization fails loudly", func() {
					So(errors.Is(err, grading.ErrTooFewScores), ShouldBeTrue)
				})
			})
		})
	}

	Convey("Given a historical recruit with a swim at 18", t, func() {
		ctx := context.Background()
		svc, err := service.New(ctx)
		So(err, ShouldBeNil)
		hist := map[int]float64{15: 33, 16: 31, 17: 30, 18: 25}
		ds := buildDataset(ctx, map[string]map[int]float64{"A": dominant, "B": modest, "Hist": hist})

		Convey("When rated", func() {
			report, err := svc.Rate(ctx, ds, newRoster("A", "B", "Hist"))

			Convey("Then the age-18 swim is gone before scoring", func() {
				So(err, ShouldBeNil)
				sw, _ := ds.Lookup("Hist")
				_, ok := sw.Time(freestyle, 18)
				So(ok, ShouldBeFalse)
				So(report.Entries, ShouldHaveLength, 3)
			})
		})
	})

	Convey("Given no roster", t, func() {
		ctx := context.Background()
		svc, _ := service.New(ctx)
		_, err := svc.Rate(ctx, repository.NewDataset(), nil)
		So(err, ShouldNotBeNil)
	})
}

func writeResults(t *testing.T, dir string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("full_name,swimmer_age,event_desc,alt_adj_swim_time_formatted\n")
	for age := 13; age <= 17; age++ {
		fmt.Fprintf(&b, "A,%d,%s,%.2f\n", age, freestyle, dominant[age])
		fmt.Fprintf(&b, "B,%d,%s,%.2f\n", age, freestyle, modest[age])
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "2021_meet.csv"), []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestService_DatasetAndSnapshot(t *testing.T) {
	Convey("Given result files and an empty snapshot store", t, func() {
		ctx := context.Background()
		dir := filepath.Join(t.TempDir(), "50FR")
		writeResults(t, dir)

		store, err := snapshot.Open(ctx, snapshot.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		cfg := config.New(ctx)
		cfg.ResultsDirs = []string{dir}
		svc, err := service.New(ctx, service.WithConfig(cfg), service.WithSnapshotStore(store))
		So(err, ShouldBeNil)

		ros := newRoster("A", "B")
		ros.Adjustments = []roster.Adjustment{
			{Name: "A", Event: freestyle, Age: 17, Time: "29.00"},
			{Name: "Nobody", Event: freestyle, Age: 17, Time: "29.00"},
		}

		Convey("When the dataset is requested", func() {
			ds, err := svc.Dataset(ctx, ros, false)

			Convey("Then results are ingested, adjusted and saved", func() {
				So(err, ShouldBeNil)
				So(ds.Len(), ShouldEqual, 2)
				a, _ := ds.Lookup("A")
				got, _ := a.Time(freestyle, 17)
				So(got, ShouldAlmostEqual, 29.0, 1e-9)

				info, err := store.Info(ctx)
				So(err, ShouldBeNil)
				So(info.Swimmers, ShouldEqual, 2)
			})

			Convey("Then a second request reads the snapshot", func() {
				So(err, ShouldBeNil)
				So(os.RemoveAll(dir), ShouldBeNil)
				again, err := svc.Dataset(ctx, ros, false)
				So(err, ShouldBeNil)
				So(again.Len(), ShouldEqual, 2)

				report, err := svc.Rate(ctx, again, ros)
				So(err, ShouldBeNil)
				So(report.Entries[0].Name, ShouldEqual, "A")
			})

			Convey("Then a fresh request needs the result files", func() {
				So(err, ShouldBeNil)
				So(os.RemoveAll(dir), ShouldBeNil)
				_, err := svc.Dataset(ctx, ros, true)
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestInspect(t *testing.T) {
	Convey("Given a dataset", t, func() {
		ctx := context.Background()
		ds := buildDataset(ctx, map[string]map[int]float64{"A": dominant})

		Convey("When inspecting a known swimmer", func() {
			var buf bytes.Buffer
			err := service.Inspect(&buf, ds, "A")

			Convey("Then times and improvements are listed", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, "A (age 17 in 2021)")
				So(buf.String(), ShouldContainSubstring, "17  30.00")
				So(buf.String(), ShouldContainSubstring, "16-17  +1.00")
			})
		})

		Convey("When inspecting an unknown swimmer", func() {
			err := service.Inspect(&bytes.Buffer{}, ds, "Ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_RosterBuiltInCode(t *testing.T) {
	Convey("Given a roster built without validation", t, func() {
		ctx := context.Background()
		dir := filepath.Join(t.TempDir(), "50FR")
		writeResults(t, dir)

		cfg := config.New(ctx)
		cfg.ResultsDirs = []string{dir}
		svc, err := service.New(ctx, service.WithConfig(cfg))
		So(err, ShouldBeNil)

		ros := newRoster("A", "B")
		ros.ReferenceScores = map[string]string{" A ": "4.5"}
		ros.Adjustments = []roster.Adjustment{{Name: "A", Event: freestyle, Age: 17, Time: "fast"}}
		logs.Reset()

		Convey("When the dataset is ingested and rated", func() {
			ds, _, err := svc.Ingest(ctx, ros)
			So(err, ShouldBeNil)
			report, err := svc.Rate(ctx, ds, ros)
			So(err, ShouldBeNil)

			Convey("Then the malformed adjustment is rejected instead of zeroing the time", func() {
				a, _ := ds.Lookup("A")
				got, ok := a.Time(freestyle, 17)
				So(ok, ShouldBeTrue)
				So(got, ShouldAlmostEqual, 30.0, 1e-9)
				So(logs.String(), ShouldContainSubstring, "adjustment rejected")
			})

			Convey("Then the padded reference key still labels the recruit", func() {
				var buf bytes.Buffer
				So(report.Render(&buf), ShouldBeNil)
				So(buf.String(), ShouldStartWith, "A: ")
				So(buf.String(), ShouldContainSubstring, "(4.5) sprint")
			})
		})
	})
}
