package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/relay/internal/domain"
	"github.com/MrSnakeDoc/relay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/relay/internal/httpserver/respond"
	"github.com/MrSnakeDoc/relay/internal/logger"
	"github.com/MrSnakeDoc/relay/internal/metrics"
)

type registerRequest struct {
	URL *string `json:"url"`
	TTL *uint64 `json:"ttl"`
}

type registerResponse struct {
	ID string `json:"id"`
}

// Register stores a new target under a fresh id. The bearer check runs
// before this handler as middleware.
func Register(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRegister(w, r, d.MaxBodyBytes)
		if err != nil {
			d.Metrics.Registration(metrics.ResultRejected)
			respond.Error(w, err)
			return
		}

		ttl, err := d.TTL.Validate(*req.TTL)
		if err != nil {
			d.Metrics.Registration(metrics.ResultRejected)
			respond.Error(w, err)
			return
		}

		id := domain.NewID()
		if err := d.Store.Insert(id, *req.URL, ttl); err != nil {
			d.Logger.Error("failed to insert proxy entry",
				logger.String("id", id.String()),
				logger.Error(err))
			d.Metrics.Registration(metrics.ResultFailed)
			respond.Error(w, domain.Internal())
			return
		}

		d.Metrics.Registration(metrics.ResultCreated)
		d.Logger.Debug("proxy registered",
			logger.String("id", id.String()),
			logger.Duration("ttl", ttl))

		recordUsage(d, "registration", func(ctx context.Context) error {
			return d.Hits.RecordRegistration(ctx)
		})

		respond.JSON(w, http.StatusOK, registerResponse{ID: id.String()})
	}
}

func decodeRegister(w http.ResponseWriter, r *http.Request, limit int64) (registerRequest, error) {
	var req registerRequest

	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}

	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, domain.BadRequest("request body too large")
		}
		return req, domain.BadRequest(err.Error())
	}

	switch {
	case req.URL == nil:
		return req, domain.BadRequest("missing field `url`")
	case req.TTL == nil:
		return req, domain.BadRequest("missing field `ttl`")
	case *req.URL == "":
		return req, domain.BadRequest("url must not be empty")
	}
	return req, nil
}
