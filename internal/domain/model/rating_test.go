package model_test

import (
	"testing"

	model "github.com/okian/swimrate/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRating_HasData(t *testing.T) {
	Convey("Given ratings", t, func() {
		Convey("When no event carries pairs", func() {
			r := model.Rating{Name: "x", Events: []model.EventContribution{{Event: freestyle50}}}
			So(r.HasData(), ShouldBeFalse)
		})

		Convey("When one event carries a pair", func() {
			r := model.Rating{Name: "x", Events: []model.EventContribution{
				{Event: freestyle50},
				{Event: "100 FR SCY", Pairs: []model.PairContribution{{Pair: model.Ladder[0], Value: 1}}},
			}}
			So(r.HasData(), ShouldBeTrue)
		})
	})
}

func TestLadder(t *testing.T) {
	Convey("The canonical ladder runs oldest pair first", t, func() {
		So(model.Ladder, ShouldHaveLength, 4)
		So(model.Ladder[0], ShouldResemble, model.AgePair{Younger: 16, Older: 17})
		So(model.Ladder[3], ShouldResemble, model.AgePair{Younger: 13, Older: 14})
		So(model.Ladder[1].String(), ShouldEqual, "15-16")
	})
}
