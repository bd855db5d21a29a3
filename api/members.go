package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/maxpoletaev/rollcall/membership"
)

type memberInfo struct {
	SiloID       string
	Address      string
	Status       string
	StartTime    time.Time
	IAmAliveTime time.Time
	Version      uint64
}

type membersResponse struct {
	Digest  string
	Members []memberInfo
}

const pingTimeout = 2 * time.Second

type membersAPI struct {
	cluster Cluster
	store   Store
}

func newMembersAPI(cluster Cluster, store Store) *membersAPI {
	return &membersAPI{
		cluster: cluster,
		store:   store,
	}
}

func (api *membersAPI) Bind(r chi.Router) {
	r.Get("/cluster/members", api.handleGet)
	r.Get("/healthz", api.handleHealth)
}

// handleGet returns the live members. With ?all=true it returns every row of
// the last observed view, including dead and departed silos.
func (api *membersAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	var rows []membership.Row

	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		rows = api.cluster.View()
	} else {
		rows = api.cluster.Members()
	}

	resp := membersResponse{
		Digest:  strconv.FormatUint(api.cluster.Digest(), 16),
		Members: make([]memberInfo, len(rows)),
	}

	for i, row := range rows {
		resp.Members[i] = memberInfo{
			SiloID:       row.SiloID,
			Address:      row.Address,
			Status:       row.Status.String(),
			StartTime:    row.StartTime,
			IAmAliveTime: row.IAmAliveTime,
			Version:      row.Version,
		}
	}

	render.JSON(w, r, resp)
}

type healthResponse struct {
	SiloID string
	Status string
	Store  string
}

// handleHealth reports the silo as healthy when it is an active member and
// the membership table is reachable.
func (api *membersAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	self := api.cluster.Self()

	resp := healthResponse{
		SiloID: self.SiloID,
		Status: self.Status.String(),
		Store:  "ok",
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	storeErr := api.store.Ping(ctx)
	if storeErr != nil {
		resp.Store = storeErr.Error()
	}

	if self.Status != membership.StatusActive || storeErr != nil {
		render.Status(r, http.StatusServiceUnavailable)
	}

	render.JSON(w, r, resp)
}
