package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/safetaichung/saferoute/internal/adapters/http/api"
	"github.com/safetaichung/saferoute/internal/adapters/repository"
	"github.com/safetaichung/saferoute/internal/domain/model"
	"github.com/safetaichung/saferoute/internal/domain/route"
	"github.com/safetaichung/saferoute/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// stubDeps implements api.Dependencies with canned data.
type stubDeps struct {
	routeErr     error
	resolveErr   error
	refreshCalls int
}

func (s *stubDeps) RouteRisk(_ context.Context, districts []string, departureHour int) (model.RouteRiskResult, error) {
	if s.routeErr != nil {
		return model.RouteRiskResult{}, s.routeErr
	}
	if departureHour < 0 || departureHour > 23 {
		return model.RouteRiskResult{}, route.ErrInvalidHour
	}
	if len(districts) == 0 {
		return model.RouteRiskResult{}, route.ErrEmptyRoute
	}
	segments := make([]model.RouteSegment, 0, len(districts))
	for _, d := range districts {
		segments = append(segments, model.RouteSegment{
			District: d, CasesPer10k: 10, RiskLevel: model.RiskMedium,
			HourRiskScore: 1.0, SegmentRisk: 10,
		})
	}
	return model.RouteRiskResult{
		RouteRiskScore: 10,
		RouteRiskLabel: model.RiskLow,
		Segments:       segments,
		DepartureHour:  departureHour,
	}, nil
}

func (s *stubDeps) ResolveRoute(_ context.Context, origin, destination string) ([]string, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	return []string{"中區", "西屯區"}, nil
}

func (s *stubDeps) DistrictSummary(_ context.Context) ([]model.DistrictRiskEntry, error) {
	return []model.DistrictRiskEntry{
		{District: "中區", TotalCases: 300, Population: 150000, PopulationKnown: true,
			CasesPer10k: 20, RiskLevel: model.RiskHigh},
		{District: "西屯區", TotalCases: 120, Population: 200000, PopulationKnown: true,
			CasesPer10k: 6, RiskLevel: model.RiskLow},
	}, nil
}

func (s *stubDeps) District(_ context.Context, name string) (model.DistrictRiskEntry, error) {
	if name != "中區" {
		return model.DistrictRiskEntry{}, repository.ErrDistrictNotFound
	}
	return model.DistrictRiskEntry{District: "中區", TotalCases: 300, PopulationKnown: true,
		Population: 150000, CasesPer10k: 20, RiskLevel: model.RiskHigh}, nil
}

func (s *stubDeps) HourlyByDistrict(_ context.Context, district string) ([]model.HourlyRiskEntry, error) {
	if district != "中區" {
		return nil, nil
	}
	return []model.HourlyRiskEntry{
		{District: "中區", Hour: 2, HourCases: 10, HourRatio: 3.33, HourRiskScore: 0.8},
	}, nil
}

func (s *stubDeps) Refresh(_ context.Context) (*model.Snapshot, error) {
	s.refreshCalls++
	return &model.Snapshot{
		RunID: "run-1",
		Districts: []model.DistrictRiskEntry{{District: "中區"}},
		Hourly:    []model.HourlyRiskEntry{{District: "中區", Hour: 1}},
		Audit:     model.AuditCounts{Total: 10, Valid: 9, Invalid: 1},
	}, nil
}

type stubStats struct{}

func (stubStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"snapshot_loaded": true}
}

func newTestServer(deps *stubDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, stubStats{}, 16).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestRouteRiskEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &stubDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When posting an explicit district route", func() {
			body := `{"districts": ["中區", "西屯區"], "departure_hour": 14}`
			resp, err := http.Post(srv.URL+"/route-risk", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the scored route comes back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var result model.RouteRiskResult
				So(json.NewDecoder(resp.Body).Decode(&result), ShouldBeNil)
				So(result.RouteRiskScore, ShouldEqual, 10)
				So(len(result.Segments), ShouldEqual, 2)
				So(result.DepartureHour, ShouldEqual, 14)
			})
		})

		Convey("When posting origin and destination instead of districts", func() {
			body := `{"origin": "台中車站", "destination": "逢甲夜市", "departure_hour": 22}`
			resp, err := http.Post(srv.URL+"/route-risk", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the resolved districts are scored", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var result model.RouteRiskResult
				So(json.NewDecoder(resp.Body).Decode(&result), ShouldBeNil)
				So(len(result.Segments), ShouldEqual, 2)
			})
		})

		Convey("When posting neither districts nor addresses", func() {
			resp, err := http.Post(srv.URL+"/route-risk", "application/json", strings.NewReader(`{"departure_hour": 1}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When posting an out-of-range departure hour", func() {
			body := `{"districts": ["中區"], "departure_hour": 24}`
			resp, err := http.Post(srv.URL+"/route-risk", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When posting more districts than the route cap", func() {
			districts := make([]string, 17)
			for i := range districts {
				districts[i] = "中區"
			}
			payload, _ := json.Marshal(map[string]any{"districts": districts, "departure_hour": 1})
			resp, err := http.Post(srv.URL+"/route-risk", "application/json", strings.NewReader(string(payload)))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the snapshot is not available yet", func() {
			deps.routeErr = repository.ErrSummaryNotAvailable
			body := `{"districts": ["中區"], "departure_hour": 1}`
			resp, err := http.Post(srv.URL+"/route-risk", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When the body is not JSON", func() {
			resp, err := http.Post(srv.URL+"/route-risk", "application/json", strings.NewReader("not json"))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using GET on the route endpoint", func() {
			resp, err := http.Get(srv.URL + "/route-risk")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestDistrictEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		Convey("When listing districts", func() {
			resp, err := http.Get(srv.URL + "/districts")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the summary table comes back in rate order", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var entries []model.DistrictRiskEntry
				So(json.NewDecoder(resp.Body).Decode(&entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].District, ShouldEqual, "中區")
			})
		})

		Convey("When fetching one district", func() {
			resp, err := http.Get(srv.URL + "/districts/中區")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then its entry comes back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var entry model.DistrictRiskEntry
				So(json.NewDecoder(resp.Body).Decode(&entry), ShouldBeNil)
				So(entry.District, ShouldEqual, "中區")
			})
		})

		Convey("When fetching an unknown district", func() {
			resp, err := http.Get(srv.URL + "/districts/霧峰區")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHoursEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		Convey("When fetching hours for a district", func() {
			resp, err := http.Get(srv.URL + "/hours?district=中區")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the sparse hourly profile comes back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var entries []model.HourlyRiskEntry
				So(json.NewDecoder(resp.Body).Decode(&entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Hour, ShouldEqual, 2)
			})
		})

		Convey("When the district parameter is missing", func() {
			resp, err := http.Get(srv.URL + "/hours")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRefreshEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &stubDeps{}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When posting a refresh", func() {
			resp, err := http.Post(srv.URL+"/refresh", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the pipeline re-runs and its summary comes back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.refreshCalls, ShouldEqual, 1)
				var out map[string]any
				So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
				So(out["run_id"], ShouldEqual, "run-1")
			})
		})

		Convey("When using GET on the refresh endpoint", func() {
			resp, err := http.Get(srv.URL + "/refresh")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/stats")
		So(err, ShouldBeNil)
		defer resp.Body.Close()

		Convey("Then the stats map is served as JSON", func() {
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)
			So(stats["snapshot_loaded"], ShouldEqual, true)
		})
	})
}
