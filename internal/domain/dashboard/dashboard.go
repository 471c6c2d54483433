// Package dashboard assembles the per-player view-model: reconciled subjective
// panels, one status badge, and the common/unique objective split.
//
// A failing section degrades to an unavailable state with a reason; only a
// structurally invalid snapshot fails the whole build.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/internal/domain/partition"
	"github.com/okian/scoutlens/internal/domain/reconcile"
	"github.com/okian/scoutlens/internal/domain/source"
	"github.com/okian/scoutlens/internal/domain/status"
	"github.com/okian/scoutlens/internal/domain/types"
	"github.com/okian/scoutlens/pkg/logger"
	"github.com/okian/scoutlens/pkg/metrics"
)

// Dashboard is the render-ready view of one player.
type Dashboard struct {
	RenderID      string               `json:"render_id"`
	RenderedAt    time.Time            `json:"rendered_at"`
	PlayerID      string               `json:"player_id"`
	Player        model.PlayerInfo     `json:"player"`
	Badge         Badge                `json:"badge"`
	Panels        []Panel              `json:"panels"`
	Objective     Objective            `json:"objective"`
	RecentMatches []Match              `json:"recent_matches"`
	SiteFeatures  []model.SiteFeatures `json:"site_features"`
}

// Badge is the header status for the headline metric.
type Badge struct {
	Metric      string         `json:"metric"`
	Rating      float64        `json:"rating"`
	Display     string         `json:"display,omitempty"`
	Status      *status.Status `json:"status,omitempty"`
	Unavailable string         `json:"unavailable,omitempty"`
}

// Available reports whether the badge carries a status.
func (b Badge) Available() bool { return b.Status != nil }

// Panel is one subjective metric chart.
type Panel struct {
	Metric      string                  `json:"metric"`
	Entries     []source.Entry[float64] `json:"entries,omitempty"`
	Average     float64                 `json:"average"`
	Display     string                  `json:"display,omitempty"`
	Unavailable string                  `json:"unavailable,omitempty"`
}

// CommonRow is a stat every known source reports.
type CommonRow struct {
	Stat  string        `json:"stat"`
	Value model.Value   `json:"value"`
	Sites []source.Name `json:"sites"`
}

// Objective is the split of objective stats.
type Objective struct {
	Sources     []source.Name                       `json:"sources"`
	Common      []CommonRow                         `json:"common"`
	Unique      []partition.UniqueStat[model.Value] `json:"unique"`
	Unavailable string                              `json:"unavailable,omitempty"`
}

// Match is a recent match row with its rating formatted for display.
type Match struct {
	model.RecentMatch
	RatingDisplay string `json:"ratingDisplay"`
}

// Summary returns the listing row for d.
func (d *Dashboard) Summary() types.Summary {
	s := types.Summary{
		PlayerID: d.PlayerID,
		Name:     d.Player.Name,
		Team:     d.Player.Team,
		RenderID: d.RenderID,
	}
	if d.Badge.Available() {
		s.Band = d.Badge.Status.Band.String()
		rating := d.Badge.Rating
		s.Rating = &rating
	}
	return s
}

// Builder turns snapshots into dashboards. It is safe for concurrent use.
type Builder struct {
	classifier     *status.Classifier
	headline       string
	known          source.Names
	driftTolerance float64
	log            logger.Logger
	metrics        *metrics.Manager
	now            func() time.Time
}

// NewBuilder creates a builder with the default thresholds and headline.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		classifier:     status.NewClassifier(),
		headline:       DefaultHeadlineMetric,
		driftTolerance: 0.01,
		log:            logger.Discard(),
		metrics:        metrics.Global(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HeadlineMetric returns the metric the badge reflects.
func (b *Builder) HeadlineMetric() string { return b.headline }

// Build renders the dashboard for playerID.
func (b *Builder) Build(ctx context.Context, playerID string, snap *model.Snapshot) (*Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if playerID == "" {
		return nil, ErrEmptyPlayerID
	}
	if snap == nil {
		b.metrics.RecordBuildError()
		return nil, ErrNilSnapshot
	}
	if err := snap.Validate(); err != nil {
		b.metrics.RecordBuildError()
		return nil, fmt.Errorf("build %s: %w", playerID, err)
	}

	start := time.Now()
	d := &Dashboard{
		RenderID:      uuid.NewString(),
		RenderedAt:    b.now().UTC(),
		PlayerID:      playerID,
		Player:        snap.PlayerInfo,
		Panels:        b.panels(ctx, playerID, snap),
		RecentMatches: matches(snap.RecentMatches),
		SiteFeatures:  append([]model.SiteFeatures{}, snap.SiteFeatures...),
	}
	d.Badge = b.badge(ctx, playerID, d.Panels)
	d.Objective = b.objective(ctx, playerID, snap)

	b.metrics.RecordBuild(float64(time.Since(start).Microseconds()) / 1000)
	return d, nil
}

func (b *Builder) panels(ctx context.Context, playerID string, snap *model.Snapshot) []Panel {
	out := make([]Panel, 0, len(snap.SubjectiveData))
	for _, m := range snap.SubjectiveData {
		p := Panel{Metric: m.Metric}
		res, err := reconcile.Reconcile(m.Sources)
		if err != nil {
			p.Unavailable = unavailableReason(err)
			b.metrics.RecordReconcileError(reconcileReason(err))
			b.log.Warn(ctx, "metric unavailable",
				logger.String("player", playerID),
				logger.String("metric", m.Metric),
				logger.Error(err))
			out = append(out, p)
			continue
		}
		b.metrics.RecordReconcile()

		p.Entries = res.Entries
		p.Average = res.Average
		p.Display = strconv.FormatFloat(res.Average, 'f', 2, 64)

		if m.Supplied != nil {
			drift := res.Drift(*m.Supplied)
			b.metrics.RecordAverageDrift(drift)
			if drift > b.driftTolerance {
				b.log.Warn(ctx, "supplied average drifts from recomputed",
					logger.String("player", playerID),
					logger.String("metric", m.Metric),
					logger.Float64("supplied", *m.Supplied),
					logger.Float64("recomputed", res.Average),
					logger.Float64("drift", drift))
			}
		}
		out = append(out, p)
	}
	return out
}

func (b *Builder) badge(ctx context.Context, playerID string, panels []Panel) Badge {
	badge := Badge{Metric: b.headline}

	var head *Panel
	for i := range panels {
		if panels[i].Metric == b.headline {
			head = &panels[i]
			break
		}
	}
	switch {
	case head == nil:
		badge.Unavailable = ReasonHeadlineMissing
		return badge
	case head.Unavailable != "":
		badge.Unavailable = head.Unavailable
		return badge
	}

	st, err := b.classifier.Classify(head.Average)
	if err != nil {
		b.metrics.RecordClassifyError()
		b.log.Error(ctx, "headline rating not classifiable",
			logger.String("player", playerID), logger.Error(err))
		badge.Unavailable = err.Error()
		return badge
	}
	b.metrics.RecordClassification(st.Band.String())

	badge.Rating = head.Average
	badge.Display = head.Display
	badge.Status = &st
	return badge
}

func (b *Builder) objective(ctx context.Context, playerID string, snap *model.Snapshot) Objective {
	known := b.known
	var popts []partition.Option
	if known.Len() == 0 {
		known = snap.KnownSources()
		if !snap.DeclaresSources() {
			popts = append(popts, partition.WithInferredSources(snap.CommonStats.Names...))
		}
	}
	obj := Objective{
		Sources: known.Slice(),
		Common:  []CommonRow{},
		Unique:  []partition.UniqueStat[model.Value]{},
	}

	res, err := partition.Partition(snap.StatRecords(), known, popts...)
	if err != nil {
		reason := "ambiguous"
		if errors.Is(err, partition.ErrNoKnownSources) {
			reason = "no_sources"
		}
		b.metrics.RecordPartitionFailure(reason)
		b.log.Warn(ctx, "objective stats unavailable",
			logger.String("player", playerID), logger.Error(err))
		obj.Unavailable = unavailableReason(err)
		return obj
	}
	b.metrics.RecordPartition(len(res.Order), len(res.Unique))

	for _, name := range res.Order {
		c := res.Common[name]
		obj.Common = append(obj.Common, CommonRow{Stat: name, Value: c.Value, Sites: c.Sites})
	}
	obj.Unique = res.Unique
	return obj
}

func matches(in []model.RecentMatch) []Match {
	out := make([]Match, len(in))
	for i, m := range in {
		out[i] = Match{RecentMatch: m, RatingDisplay: strconv.FormatFloat(m.Rating, 'f', 1, 64)}
	}
	return out
}

func unavailableReason(err error) string {
	if errors.Is(err, reconcile.ErrEmptyMetric) || errors.Is(err, partition.ErrNoKnownSources) {
		return ReasonNoData
	}
	return err.Error()
}

func reconcileReason(err error) string {
	if errors.Is(err, reconcile.ErrInvalidValue) {
		return "invalid_value"
	}
	return "empty"
}
