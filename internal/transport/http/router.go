// Package http exposes the reservation engine over HTTP and server-sent events.
package http

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/broadcast"
	"github.com/cimillas/seatlease/internal/catalog"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/cimillas/seatlease/internal/session"
	"github.com/gin-gonic/gin"
)

type HoldAPI interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (domain.Hold, error)
	ExtendHold(ctx context.Context, holdID, sessionID string) (domain.Hold, error)
	ReleaseHold(ctx context.Context, holdID, sessionID string) error
	UpgradeHoldToCheckout(ctx context.Context, holdID, sessionID string) (domain.Hold, error)
	GetActiveHolds(ctx context.Context, eventID, sessionID string) ([]domain.Hold, error)
	BlockInventory(ctx context.Context, in app.BlockInput) error
	UnblockInventory(ctx context.Context, in app.BlockInput) error
}

type OrderAPI interface {
	ConvertHold(ctx context.Context, in app.ConvertHoldInput) (app.ConvertHoldResult, error)
}

type AvailabilityAPI interface {
	GetEventSeatStatuses(ctx context.Context, eventID string) ([]domain.SeatStatus, error)
	GetZoneMetrics(ctx context.Context, eventID string) ([]domain.ZoneMetrics, error)
	Snapshot(ctx context.Context, eventID string) (app.Snapshot, error)
}

type RecommendationAPI interface {
	Recommend(ctx context.Context, in app.RecommendInput) ([]domain.ZoneSuggestion, error)
}

type CatalogAPI interface {
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	SetEventStatus(ctx context.Context, eventID string, status domain.EventStatus) (domain.Event, error)
	CreateZone(ctx context.Context, in app.CreateZoneInput) (domain.Zone, []domain.Seat, error)
	ListZones(ctx context.Context, eventID string) ([]domain.Zone, error)
	ImportFloorPlan(ctx context.Context, plan catalog.FloorPlan) (app.ImportResult, error)
}

type SessionAPI interface {
	SessionParser
	Issue(id session.Identity) (string, session.Identity, time.Time, error)
}

// SweepTrigger runs one expiry pass on demand.
type SweepTrigger interface {
	Trigger(ctx context.Context) (app.CleanupResult, error)
}

// ChangeFeed hands out live availability subscriptions.
type ChangeFeed interface {
	Subscribe(eventID string) *broadcast.Subscription
}

// Deps are the services the router dispatches to. Nil services leave their
// routes unregistered.
type Deps struct {
	Holds           HoldAPI
	Orders          OrderAPI
	Availability    AvailabilityAPI
	Recommendations RecommendationAPI
	Catalog         CatalogAPI
	Sessions        SessionAPI
	Sweeper         SweepTrigger
	Feed            ChangeFeed
	DB              Pinger

	OpsToken    string
	CORSOrigins []string
	Logger      *slog.Logger
	// StreamKeepAlive is the interval between SSE comment pings.
	StreamKeepAlive time.Duration
}

func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.StreamKeepAlive <= 0 {
		d.StreamKeepAlive = 15 * time.Second
	}

	r := gin.New()
	r.Use(requestID(), accessLog(d.Logger), recovery(d.Logger), corsMiddleware(d.CORSOrigins))
	r.HandleMethodNotAllowed = false
	r.NoRoute(notFound)

	r.GET("/health", handleHealth)
	r.GET("/ready", handleReady(d.DB))

	if d.Sessions != nil {
		r.POST("/sessions", handleCreateSession(d.Sessions, d.OpsToken))
	}

	events := r.Group("/events/:eventID")
	if d.Availability != nil {
		events.GET("/seats", handleSeatStatuses(d.Availability))
		events.GET("/zones", handleZoneMetrics(d.Availability))
		events.GET("/snapshot", handleSnapshot(d.Availability))
		if d.Feed != nil {
			events.GET("/stream", handleStream(d.Feed, d.Availability, d.StreamKeepAlive, d.Logger))
		}
	}

	if d.Sessions != nil {
		authed := r.Group("", requireSession(d.Sessions))
		if d.Holds != nil {
			authed.POST("/holds", handleCreateHold(d.Holds))
			authed.GET("/events/:eventID/holds", handleListHolds(d.Holds))
			authed.POST("/holds/:holdID/extend", handleExtendHold(d.Holds))
			authed.POST("/holds/:holdID/release", handleReleaseHold(d.Holds))
			authed.POST("/holds/:holdID/checkout", handleCheckoutHold(d.Holds))
		}
		if d.Orders != nil {
			authed.POST("/holds/:holdID/convert", handleConvertHold(d.Orders))
		}
		if d.Recommendations != nil {
			authed.POST("/events/:eventID/recommendations", handleRecommend(d.Recommendations))
		}
	}

	admin := r.Group("/admin", requireOps(d.OpsToken))
	if d.Catalog != nil {
		admin.GET("/events", handleListEvents(d.Catalog))
		admin.POST("/events", handleCreateEvent(d.Catalog))
		admin.POST("/events/:eventID/status", handleSetEventStatus(d.Catalog))
		admin.GET("/events/:eventID/zones", handleListZones(d.Catalog))
		admin.POST("/events/:eventID/zones", handleCreateZone(d.Catalog))
		admin.POST("/floorplans", handleImportFloorPlan(d.Catalog))
	}
	if d.Holds != nil {
		admin.POST("/events/:eventID/blocks", handleBlock(d.Holds, true))
		admin.POST("/events/:eventID/unblock", handleBlock(d.Holds, false))
	}

	if d.Sweeper != nil {
		r.POST("/ops/sweep", requireOps(d.OpsToken), handleSweep(d.Sweeper))
	}
	return r
}
