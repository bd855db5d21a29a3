package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/rollcall/membership"
)

func TestMembersAPI_handleGet(t *testing.T) {
	start := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	active := membership.Row{SiloID: "silo-a", Address: "10.0.0.1:3000", Status: membership.StatusActive, StartTime: start, IAmAliveTime: start, Version: 3}
	dead := membership.Row{SiloID: "silo-b", Address: "10.0.0.2:3000", Status: membership.StatusDead, StartTime: start, IAmAliveTime: start, Version: 5}

	tests := map[string]struct {
		url          string
		setupCluster func(c *MockCluster)
		wantMembers  []memberInfo
	}{
		"Empty": {
			url: "/cluster/members",
			setupCluster: func(c *MockCluster) {
				c.EXPECT().Members().Return([]membership.Row{})
			},
			wantMembers: []memberInfo{},
		},
		"Live": {
			url: "/cluster/members",
			setupCluster: func(c *MockCluster) {
				c.EXPECT().Members().Return([]membership.Row{active})
			},
			wantMembers: []memberInfo{
				{SiloID: "silo-a", Address: "10.0.0.1:3000", Status: "active", StartTime: start, IAmAliveTime: start, Version: 3},
			},
		},
		"All": {
			url: "/cluster/members?all=true",
			setupCluster: func(c *MockCluster) {
				c.EXPECT().View().Return([]membership.Row{active, dead})
			},
			wantMembers: []memberInfo{
				{SiloID: "silo-a", Address: "10.0.0.1:3000", Status: "active", StartTime: start, IAmAliveTime: start, Version: 3},
				{SiloID: "silo-b", Address: "10.0.0.2:3000", Status: "dead", StartTime: start, IAmAliveTime: start, Version: 5},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			c := NewMockCluster(ctrl)
			c.EXPECT().Digest().Return(uint64(255))
			tt.setupCluster(c)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest("GET", tt.url, nil)

			CreateRouter(c, NewMockStore(ctrl)).ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)

			var resp membersResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Equal(t, "ff", resp.Digest)
			require.Equal(t, tt.wantMembers, resp.Members)
		})
	}
}

func TestMembersAPI_handleHealth(t *testing.T) {
	unreachable := fmt.Errorf("%w: connection refused", membership.ErrStoreUnavailable)

	tests := map[string]struct {
		status    membership.Status
		pingErr   error
		wantCode  int
		wantStore string
	}{
		"Active":       {status: membership.StatusActive, wantCode: http.StatusOK, wantStore: "ok"},
		"Joining":      {status: membership.StatusJoining, wantCode: http.StatusServiceUnavailable, wantStore: "ok"},
		"Dead":         {status: membership.StatusDead, wantCode: http.StatusServiceUnavailable, wantStore: "ok"},
		"ShuttingDown": {status: membership.StatusShuttingDown, wantCode: http.StatusServiceUnavailable, wantStore: "ok"},
		"StoreDown":    {status: membership.StatusActive, pingErr: unreachable, wantCode: http.StatusServiceUnavailable, wantStore: unreachable.Error()},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			c := NewMockCluster(ctrl)
			c.EXPECT().Self().Return(membership.Row{SiloID: "silo-a", Status: tt.status})

			store := NewMockStore(ctrl)
			store.EXPECT().Ping(gomock.Any()).Return(tt.pingErr)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/healthz", nil)

			CreateRouter(c, store).ServeHTTP(rr, req)

			require.Equal(t, tt.wantCode, rr.Code)

			var resp healthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Equal(t, tt.status.String(), resp.Status)
			require.Equal(t, tt.wantStore, resp.Store)
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	ctrl := gomock.NewController(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)

	CreateRouter(NewMockCluster(ctrl), NewMockStore(ctrl)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}
