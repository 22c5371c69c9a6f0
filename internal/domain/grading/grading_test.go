package grading_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/swimrate/internal/domain/grading"
	"github.com/okian/swimrate/internal/domain/model"
)

func TestLetter(t *testing.T) {
	cases := []struct {
		z    float64
		want string
	}{
		{2.0, "A+"},
		{1.5, "A"},
		{1.01, "A"},
		{1.0, "A-"},
		{0.5, "B+"},
		{0.26, "B+"},
		{0.25, "B"},
		{0.0001, "B"},
		{0, "B-"},
		{-0.25, "C+"},
		{-0.5, "C"},
		{-1, "C-"},
		{-1.5, "D"},
		{-3, "D"},
	}
	for _, tc := range cases {
		if got := grading.Letter(tc.z); got != tc.want {
			t.Errorf("Letter(%v) = %q, want %q", tc.z, got, tc.want)
		}
	}
}

func TestStandardize(t *testing.T) {
	Convey("Given fewer than two scores", t, func() {
		_, _, _, err := grading.Standardize([]float64{1.2})
		So(errors.Is(err, grading.ErrTooFewScores), ShouldBeTrue)

		_, _, _, err = grading.Standardize(nil)
		So(errors.Is(err, grading.ErrTooFewScores), ShouldBeTrue)
	})

	Convey("Given identical scores", t, func() {
		_, _, _, err := grading.Standardize([]float64{0.4, 0.4, 0.4})
		So(errors.Is(err, grading.ErrNoSpread), ShouldBeTrue)
	})

	Convey("Given two scores", t, func() {
		z, mean, stddev, err := grading.Standardize([]float64{3, 1})
		So(err, ShouldBeNil)
		So(mean, ShouldEqual, 2.0)
		So(stddev, ShouldAlmostEqual, 1.4142135623730951, 1e-12)
		So(z[0], ShouldAlmostEqual, 0.7071067811865476, 1e-12)
		So(z[1], ShouldAlmostEqual, -0.7071067811865476, 1e-12)
	})

	Convey("Given a random population shifted by a constant", t, func() {
		faker := gofakeit.New(42)
		raw := make([]float64, 25)
		shifted := make([]float64, len(raw))
		for i := range raw {
			raw[i] = faker.Float64Range(-3, 3)
			shifted[i] = raw[i] + 17.5
		}

		z1, _, _, err1 := grading.Standardize(raw)
		z2, _, _, err2 := grading.Standardize(shifted)

		Convey("Then standardized scores do not change", func() {
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			for i := range z1 {
				So(z2[i], ShouldAlmostEqual, z1[i], 1e-9)
			}
		})
	})
}

func TestGrade(t *testing.T) {
	Convey("Given rated recruits", t, func() {
		ratings := []model.Rating{
			{Name: "B", Category: "mid", Raw: -1},
			{Name: "A", Category: "sprint", Raw: 2},
			{Name: "C", Category: "distance", Raw: 0.5},
		}
		refs := map[string]string{"A": "4.5"}

		entries, summary, err := grading.Grade(ratings, refs)

		Convey("Then entries are ordered best first with ranks", func() {
			So(err, ShouldBeNil)
			So(summary.Mean, ShouldAlmostEqual, 0.5, 1e-12)
			got := make([]string, 0, len(entries))
			for _, e := range entries {
				got = append(got, e.Name)
			}
			if diff := cmp.Diff([]string{"A", "C", "B"}, got); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[2].Rank, ShouldEqual, 3)
			So(entries[0].Standardized, ShouldEqual, 1.0)
			So(entries[0].Grade, ShouldEqual, "A-")
			So(entries[1].Grade, ShouldEqual, "B-")
			So(entries[2].Grade, ShouldEqual, "C-")
		})

		Convey("Then render prints references or the placeholder", func() {
			var buf bytes.Buffer
			So(grading.Render(&buf, entries), ShouldBeNil)
			So(buf.String(), ShouldEqual, "A: A- (4.5) sprint\nC: B- (-) distance\nB: C- (-) mid\n")
		})
	})

	Convey("Given a single rating", t, func() {
		_, _, err := grading.Grade([]model.Rating{{Name: "solo", Raw: 1}}, nil)
		So(errors.Is(err, grading.ErrTooFewScores), ShouldBeTrue)
	})
}
