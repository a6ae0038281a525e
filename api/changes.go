/*
changes.go - Generation tokens and change polling

PURPOSE:
  Several dashboard views show overlapping data. Each list response carries
  X-Data-Version, the sum of the versions of every topic the response
  depends on. Topic versions only grow, so the sum does too: a client that
  fires several requests while a filter is toggled keeps only the response
  with the highest token and drops stale ones that arrive late.

  GET /api/changes returns every topic version. With ?since=<total>&wait=25s
  it long-polls: it answers as soon as the total exceeds since, or when the
  wait elapses, so open tabs refresh without a browser storage-event hack.
  Versions are read after subscribing so a change between the two is never
  missed.
*/
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"go.uber.org/zap"
)

// VersionHeader carries the generation token on list responses.
const VersionHeader = "X-Data-Version"

// maxWait stays under the default server write timeout.
const maxWait = 25 * time.Second

// stamp sets the generation token. It is read before the data so a
// concurrent write can only make the token older than the data, never newer.
func (h *Handler) stamp(w http.ResponseWriter, r *http.Request, topics ...notify.Topic) {
	if h.Bus == nil {
		return
	}
	var total int64
	for _, t := range topics {
		v, err := h.Bus.Version(r.Context(), t)
		if err != nil {
			h.logger.Warn("version lookup failed", zap.String("topic", string(t)), zap.Error(err))
			return
		}
		total += v
	}
	w.Header().Set(VersionHeader, strconv.FormatInt(total, 10))
}

// Changes handles GET /api/changes?since=&wait=
func (h *Handler) Changes(w http.ResponseWriter, r *http.Request) {
	since, err := queryInt(r, "since", -1)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	wait := time.Duration(0)
	if raw := r.URL.Query().Get("wait"); raw != "" {
		wait, err = time.ParseDuration(raw)
		if err != nil || wait < 0 {
			h.writeServiceError(w, r, generic.NewValidationError("wait", "must be a duration such as 25s"))
			return
		}
		if wait > maxWait {
			wait = maxWait
		}
	}

	ctx := r.Context()
	var changes <-chan notify.Change
	if wait > 0 && since >= 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
		if changes, err = h.Bus.Subscribe(ctx); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}

	resp, err := h.versions(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if changes != nil && resp.Total <= int64(since) {
		select {
		case <-changes:
			if resp, err = h.versions(r.Context()); err != nil {
				h.writeServiceError(w, r, err)
				return
			}
		case <-ctx.Done():
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) versions(ctx context.Context) (ChangesResponse, error) {
	all, err := h.Bus.Versions(ctx)
	if err != nil {
		return ChangesResponse{}, err
	}
	resp := ChangesResponse{Versions: make(map[string]int64, len(notify.Topics))}
	for _, t := range notify.Topics {
		resp.Versions[string(t)] = all[t]
		resp.Total += all[t]
	}
	return resp, nil
}
