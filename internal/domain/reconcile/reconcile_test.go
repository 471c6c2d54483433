package reconcile_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/scoutlens/internal/domain/reconcile"
	"github.com/okian/scoutlens/internal/domain/source"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReconcile(t *testing.T) {
	Convey("Given a match rating reported by three providers", t, func() {
		var rec source.Record[float64]
		rec.Set("FotMob", 6.99)
		rec.Set("SofaScore", 6.70)
		rec.Set("FBref", 6.80)

		Convey("When it is reconciled", func() {
			res, err := reconcile.Reconcile(rec)

			Convey("Then entries keep provider order", func() {
				So(err, ShouldBeNil)
				So(res.Entries, ShouldResemble, []source.Entry[float64]{
					{Source: "FotMob", Value: 6.99},
					{Source: "SofaScore", Value: 6.70},
					{Source: "FBref", Value: 6.80},
				})
			})

			Convey("And the average is the mean of the readings", func() {
				So(res.Average, ShouldAlmostEqual, 6.83, 0.0001)
			})

			Convey("And reconciling again gives the same result", func() {
				again, err := reconcile.Reconcile(rec)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, res)
			})
		})
	})

	Convey("Given a record where some providers are missing", t, func() {
		var rec source.Record[float64]
		rec.Declare("Understat")
		rec.Set("FotMob", 0.4)
		rec.Declare("WhoScored")
		rec.Set("FBref", 0.2)

		Convey("Then missing providers do not count as zero", func() {
			res, err := reconcile.Reconcile(rec)
			So(err, ShouldBeNil)
			So(len(res.Entries), ShouldEqual, 2)
			So(res.Average, ShouldAlmostEqual, 0.3, 1e-12)
		})
	})

	Convey("Given a single reading", t, func() {
		rec := source.NewRecord(source.Entry[float64]{Source: "Opta", Value: 7.25})

		Convey("Then the average equals that reading", func() {
			res, err := reconcile.Reconcile(rec)
			So(err, ShouldBeNil)
			So(res.Average, ShouldEqual, 7.25)
		})
	})

	Convey("Given a metric nobody reported", t, func() {
		var rec source.Record[float64]
		rec.Declare("FotMob")

		Convey("Then reconciliation fails with ErrEmptyMetric", func() {
			_, err := reconcile.Reconcile(rec)
			So(errors.Is(err, reconcile.ErrEmptyMetric), ShouldBeTrue)
		})

		Convey("And the zero record fails the same way", func() {
			_, err := reconcile.Reconcile(source.Record[float64]{})
			So(errors.Is(err, reconcile.ErrEmptyMetric), ShouldBeTrue)
		})
	})

	Convey("Given a non-finite reading", t, func() {
		var rec source.Record[float64]
		rec.Set("FotMob", 7)
		rec.Set("SofaScore", math.NaN())

		Convey("Then the offending provider is reported", func() {
			_, err := reconcile.Reconcile(rec)
			So(errors.Is(err, reconcile.ErrInvalidValue), ShouldBeTrue)
			var ve *reconcile.ValueError
			So(errors.As(err, &ve), ShouldBeTrue)
			So(ve.Source, ShouldEqual, source.Name("SofaScore"))
		})
	})
}

func TestResultDrift(t *testing.T) {
	Convey("Given a reconciled metric and a drifted supplied average", t, func() {
		res, err := reconcile.Reconcile(source.NewRecord(
			source.Entry[float64]{Source: "FotMob", Value: 7.0},
			source.Entry[float64]{Source: "FBref", Value: 8.0},
		))
		So(err, ShouldBeNil)

		Convey("Then drift is the absolute difference", func() {
			So(res.Drift(7.6), ShouldAlmostEqual, 0.1, 1e-9)
			So(res.Drift(7.4), ShouldAlmostEqual, 0.1, 1e-9)
			So(res.Average, ShouldEqual, 7.5)
		})
	})
}
