package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/scoutlens/internal/adapters/repository"
	service "github.com/okian/scoutlens/internal/app"
	"github.com/okian/scoutlens/internal/domain/dashboard"
	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/internal/domain/reconcile"
	"github.com/okian/scoutlens/internal/domain/source"
	"github.com/okian/scoutlens/internal/domain/status"
	. "github.com/smartystreets/goconvey/convey"
)

const snapshotJSON = `{
  "playerInfo": {"name": "Son Heung-min", "team": "Tottenham"},
  "commonStats": {"Goals": {"value": 12, "sites": ["FotMob", "SofaScore"]}},
  "uniqueStats": [{"stat": "xA", "value": 0.2, "source": "FotMob"}],
  "subjectiveData": [{"metric": "Match Rating", "FotMob": 6.99, "SofaScore": 6.70, "FBref": 6.80}]
}`

func snapshot(t *testing.T, raw string) *model.Snapshot {
	t.Helper()
	var s model.Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return &s
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(8))

		Convey("Then it is not started", func() {
			So(svc.GetStats()["started"], ShouldEqual, false)
			_, err := svc.Submit(ctx, "son", snapshot(t, snapshotJSON))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When it is started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			started := svc.GetStats()

			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the stats follow", func() {
				So(started["started"], ShouldEqual, true)
				So(started["workerCount"], ShouldEqual, 2)
				So(started["queueLength"], ShouldEqual, 0)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("Then it can be started again", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a snapshot is submitted", func() {
			sub, err := svc.Submit(ctx, "son", snapshot(t, snapshotJSON))
			So(err, ShouldBeNil)
			So(sub.JobID, ShouldNotBeEmpty)
			So(sub.Duplicate, ShouldBeFalse)

			Convey("Then a worker builds and stores the dashboard", func() {
				So(eventually(func() bool {
					_, err := svc.Dashboard(ctx, "son")
					return err == nil
				}), ShouldBeTrue)

				d, _ := svc.Dashboard(ctx, "son")
				So(d.Badge.Status.Band, ShouldEqual, status.Warning)
				So(svc.List(ctx)[0].PlayerID, ShouldEqual, "son")
			})

			Convey("And the same snapshot is submitted again", func() {
				again, err := svc.Submit(ctx, "son", snapshot(t, snapshotJSON))

				Convey("Then no rebuild is queued", func() {
					So(err, ShouldBeNil)
					So(again.Duplicate, ShouldBeTrue)
					So(again.JobID, ShouldBeEmpty)
				})
			})
		})

		Convey("When an invalid snapshot is submitted", func() {
			_, err := svc.Submit(ctx, "son", snapshot(t, `{"subjectiveData":[{"FotMob":1}]}`))

			Convey("Then it is rejected before queueing", func() {
				So(errors.Is(err, model.ErrInvalidSnapshot), ShouldBeTrue)
			})
		})

		Convey("When the player id is missing", func() {
			_, err := svc.Submit(ctx, "", snapshot(t, snapshotJSON))
			So(errors.Is(err, dashboard.ErrEmptyPlayerID), ShouldBeTrue)
		})

		Convey("When an unknown dashboard is requested", func() {
			_, err := svc.Dashboard(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

type blockingStore struct {
	repository.Store
	release chan struct{}
}

func (b *blockingStore) Put(ctx context.Context, id string, seq uint64, snap *model.Snapshot, d *dashboard.Dashboard) error {
	<-b.release
	return b.Store.Put(ctx, id, seq, snap, d)
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service whose single worker is stuck", t, func() {
		ctx := context.Background()
		store := &blockingStore{Store: repository.NewMemoryStore(), release: make(chan struct{})}
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(1), service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)

		var (
			rejected   error
			rejectedID string
		)
		for _, id := range []string{"a", "b", "c", "d"} {
			if _, err := svc.Submit(ctx, id, snapshot(t, snapshotJSON)); err != nil {
				rejected, rejectedID = err, id
			}
		}

		Convey("Then further submissions are refused with backpressure", func() {
			So(errors.Is(rejected, service.ErrBackpressure), ShouldBeTrue)
		})

		Convey("Then a refused snapshot is not remembered as seen", func() {
			close(store.release)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			sub, err := svc.Submit(ctx, rejectedID, snapshot(t, snapshotJSON))
			So(err, ShouldBeNil)
			So(sub.Duplicate, ShouldBeFalse)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Reset(func() {
			select {
			case <-store.release:
			default:
				close(store.release)
			}
			_ = svc.Stop(ctx)
		})
	})
}

// gatedStore holds back writes of the snapshot named "old".
type gatedStore struct {
	repository.Store
	release chan struct{}
	stale   chan error
}

func (g *gatedStore) Put(ctx context.Context, id string, seq uint64, snap *model.Snapshot, d *dashboard.Dashboard) error {
	if snap.PlayerInfo.Name != "old" {
		return g.Store.Put(ctx, id, seq, snap, d)
	}
	<-g.release
	err := g.Store.Put(ctx, id, seq, snap, d)
	g.stale <- err
	return err
}

func TestService_LatestSubmissionWins(t *testing.T) {
	Convey("Given an older submission whose build is stored last", t, func() {
		ctx := context.Background()
		store := &gatedStore{Store: repository.NewMemoryStore(), release: make(chan struct{}), stale: make(chan error, 1)}
		svc := service.New(service.WithWorkerCount(2), service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		_, err := svc.Submit(ctx, "son", snapshot(t, `{"playerInfo":{"name":"old"},"subjectiveData":[{"metric":"Match Rating","FotMob":5.1}]}`))
		So(err, ShouldBeNil)
		_, err = svc.Build(ctx, "son", snapshot(t, `{"playerInfo":{"name":"new"},"subjectiveData":[{"metric":"Match Rating","FotMob":7.2}]}`))
		So(err, ShouldBeNil)

		close(store.release)
		So(errors.Is(<-store.stale, repository.ErrStaleWrite), ShouldBeTrue)

		Convey("Then the newer dashboard stays", func() {
			d, err := svc.Dashboard(ctx, "son")
			So(err, ShouldBeNil)
			So(d.Player.Name, ShouldEqual, "new")
		})

		Convey("Then resubmitting the newer snapshot is a no-op that matches what is stored", func() {
			sub, err := svc.Submit(ctx, "son", snapshot(t, `{"playerInfo":{"name":"new"},"subjectiveData":[{"metric":"Match Rating","FotMob":7.2}]}`))
			So(err, ShouldBeNil)
			So(sub.Duplicate, ShouldBeTrue)
			d, _ := svc.Dashboard(ctx, "son")
			So(d.Player.Name, ShouldEqual, "new")
		})
	})
}

func TestService_BuildAndQueries(t *testing.T) {
	Convey("Given a service that is not started", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithBuilderOptions(
			dashboard.WithHeadlineMetric("Expected Goals"),
			dashboard.WithKnownSources(source.NewNames("FotMob")),
		))

		Convey("When a dashboard is built synchronously", func() {
			d, err := svc.Build(ctx, "son", snapshot(t, `{
				"commonStats": {"Goals": {"value": 12, "sites": ["FotMob", "SofaScore"]}},
				"subjectiveData": [{"metric": "Expected Goals", "FBref": 0.38, "FotMob": 0.44}]}`))

			Convey("Then builder options are honoured and the result is stored", func() {
				So(err, ShouldBeNil)
				So(d.Badge.Metric, ShouldEqual, "Expected Goals")
				So(d.Badge.Status.Band, ShouldEqual, status.Good)
				So(d.Objective.Sources, ShouldResemble, []source.Name{"FotMob"})
				stored, err := svc.Dashboard(ctx, "son")
				So(err, ShouldBeNil)
				So(stored.RenderID, ShouldEqual, d.RenderID)
			})
		})

		Convey("When ratings are classified", func() {
			good, err := svc.Classify(ctx, 4.0)
			So(err, ShouldBeNil)
			So(good.Band, ShouldEqual, status.Good)

			_, err = svc.Classify(ctx, 0)
			So(err, ShouldBeNil)

			Convey("Then non-finite ratings are refused", func() {
				_, err := svc.Classify(ctx, math.NaN())
				So(errors.Is(err, status.ErrInvalidRating), ShouldBeTrue)
			})
		})

		Convey("When readings are reconciled", func() {
			res, err := svc.Reconcile(ctx, source.NewRecord(
				source.Entry[float64]{Source: "A", Value: 2},
				source.Entry[float64]{Source: "B", Value: 4}))
			So(err, ShouldBeNil)
			So(res.Average, ShouldEqual, 3)

			_, err = svc.Reconcile(ctx, source.Record[float64]{})
			So(errors.Is(err, reconcile.ErrEmptyMetric), ShouldBeTrue)
		})
	})
}

func TestService_LoadDir(t *testing.T) {
	Convey("Given a directory of snapshots", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		write := func(name, body string) {
			So(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600), ShouldBeNil)
		}
		write("son.json", snapshotJSON)
		write("kim.json", `{"playerInfo":{"name":"Kim"},"subjectiveData":[{"metric":"Match Rating","FotMob":5.1}]}`)
		write("broken.json", `{"subjectiveData": [`)
		write("notes.txt", "ignored")

		svc := service.New()
		loaded, err := svc.LoadDir(ctx, dir)

		Convey("Then valid files are built under their file stem", func() {
			So(loaded, ShouldEqual, 2)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "broken.json")

			list := svc.List(ctx)
			So(len(list), ShouldEqual, 2)
			So(list[0].PlayerID, ShouldEqual, "kim")
			So(list[1].PlayerID, ShouldEqual, "son")
			So(list[0].Band, ShouldEqual, "caution")
		})
	})

	Convey("Given a missing directory", t, func() {
		_, err := service.New().LoadDir(context.Background(), filepath.Join(os.TempDir(), "scoutlens-missing-dir"))
		So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
	})
}
