package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/scoutlens/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSummary(t *testing.T) {
	Convey("Given a Summary struct", t, func() {
		Convey("When a rated player is encoded", func() {
			s := types.Summary{
				PlayerID: "son",
				Name:     "Son Heung-min",
				Team:     "Tottenham",
				Band:     "warning",
				Rating:   ptr(6.83),
				RenderID: "r-1",
			}
			data, err := json.Marshal(s)

			Convey("Then it should use snake_case keys", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual,
					`{"player_id":"son","name":"Son Heung-min","team":"Tottenham","band":"warning","rating":6.83,"render_id":"r-1"}`)
			})
		})

		Convey("When the headline rating is exactly zero", func() {
			data, err := json.Marshal(types.Summary{PlayerID: "lee", Name: "Lee", Band: "good", Rating: ptr(0), RenderID: "r-3"})

			Convey("Then the zero is kept", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"player_id":"lee","name":"Lee","band":"good","rating":0,"render_id":"r-3"}`)
			})
		})

		Convey("When the headline rating is unavailable", func() {
			data, err := json.Marshal(types.Summary{PlayerID: "kim", Name: "Kim Min-jae", RenderID: "r-2"})

			Convey("Then band and rating are omitted", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"player_id":"kim","name":"Kim Min-jae","render_id":"r-2"}`)
			})
		})
	})
}

func ptr(f float64) *float64 { return &f }
