package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/relay/internal/domain"
	"github.com/MrSnakeDoc/relay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/relay/internal/httpserver/respond"
	"github.com/MrSnakeDoc/relay/internal/logger"
	"github.com/MrSnakeDoc/relay/internal/metrics"
	"github.com/MrSnakeDoc/relay/internal/utils"
)

var (
	errBadID         = domain.BadRequest("bad id")
	errRequestFailed = domain.BadRequest("request failed")
)

// Forward fetches the target registered under {id} and streams the upstream
// response back. Malformed, unknown and expired ids all answer "bad id".
func Forward(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := domain.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			d.Metrics.Forward(metrics.OutcomeBadID)
			respond.Error(w, errBadID)
			return
		}

		entry, ok := d.Store.Get(id)
		if !ok {
			d.Metrics.Forward(metrics.OutcomeBadID)
			respond.Error(w, errBadID)
			return
		}

		resp, err := d.Forwarder.Fetch(r.Context(), entry.Target)
		if err != nil {
			d.Logger.Warn("upstream request failed",
				logger.String("id", id.String()),
				logger.String("target", entry.Target),
				logger.Error(err))
			d.Metrics.Forward(metrics.OutcomeUpstream)
			respond.Error(w, errRequestFailed)
			return
		}
		defer utils.CloseLogged(resp.Body, d.Logger, "upstream body")

		d.Metrics.Forward(metrics.OutcomeForwarded)
		ttl := entry.Remaining(d.Now())
		recordUsage(d, "hit", func(ctx context.Context) error {
			return d.Hits.RecordHit(ctx, id.String(), ttl)
		})

		n, err := d.Forwarder.Relay(w, resp)
		if err != nil {
			// Headers are already sent; all we can do is stop and log.
			if r.Context().Err() != nil {
				d.Logger.Debug("client went away during relay",
					logger.String("id", id.String()),
					logger.Int64("bytes", n))
				return
			}
			d.Logger.Warn("relay interrupted",
				logger.String("id", id.String()),
				logger.Int64("bytes", n),
				logger.Error(err))
		}
	}
}
