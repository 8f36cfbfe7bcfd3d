package echo

import (
	gocontext "context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	echov4 "github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/robfig/cron/v3"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/catalog"
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/job"
	"github.com/flanksource/reports/pipeline"
	"github.com/flanksource/reports/store"
)

func TestEcho(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Echo Suite")
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type response struct {
	*httptest.ResponseRecorder
}

func (r response) JSON(v any) {
	ExpectWithOffset(1, json.Unmarshal(r.Body.Bytes(), v)).To(Succeed())
}

var _ = Describe("Server", func() {
	var (
		e      *echov4.Echo
		server *Server
		config api.Config
	)

	setup := func() {
		ctx, closeDB, err := store.Open(context.New(gocontext.Background()), store.MemoryDSN)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(closeDB)

		p, err := pipeline.New(catalog.Default(), pipeline.WithCacheTTL(0))
		Expect(err).ToNot(HaveOccurred())
		e, server = New(ctx, p, config)
	}

	BeforeEach(func() {
		config = api.DefaultConfig
		config.Debounce = time.Hour
		setup()
	})

	do := func(method, path, body string, headers ...string) response {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.RemoteAddr = "127.0.0.1:4000"
		if body != "" {
			req.Header.Set(echov4.HeaderContentType, echov4.MIMEApplicationJSON)
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return response{rec}
	}

	create := func() string {
		res := do(http.MethodPost, "/reports", `{
			"type": "organisations",
			"title": "Vereine",
			"fields": [
				{"type": "organisation", "field": "name", "order": 0, "visible": true},
				{"type": "organisation", "field": "state", "order": 1, "visible": true}
			]
		}`)
		Expect(res.Code).To(Equal(http.StatusCreated), res.Body.String())
		var r store.Report
		res.JSON(&r)

		res = do(http.MethodPut, "/reports/"+r.ID+"/content",
			`[{"name":"A","state":"NRW"},{"name":"B","state":"BY"},{"name":"C","state":"NRW"}]`)
		Expect(res.Code).To(Equal(http.StatusNoContent), res.Body.String())
		return r.ID
	}

	It("creates and lists reports", func() {
		create()
		res := do(http.MethodGet, "/reports?type=organisations", "")
		Expect(res.Code).To(Equal(http.StatusOK))
		var reports []store.Report
		res.JSON(&reports)
		Expect(reports).To(HaveLen(1))
	})

	It("returns not found for unknown reports", func() {
		res := do(http.MethodGet, "/reports/missing/render", "")
		Expect(res.Code).To(Equal(http.StatusNotFound))
	})

	It("renders grouped tables", func() {
		id := create()
		res := do(http.MethodPatch, "/reports/"+id+"/fields", `{"op":"group_by_column","key":"organisation_state"}`)
		Expect(res.Code).To(Equal(http.StatusOK), res.Body.String())

		res = do(http.MethodGet, "/reports/"+id+"/render", "")
		Expect(res.Code).To(Equal(http.StatusOK))
		var result pipeline.Result
		res.JSON(&result)
		Expect(result.Filtered).To(HaveLen(3))
		Expect(result.Chart.Categories).To(ConsistOf("NRW", "BY"))

		stored, err := store.Get(server.ctx, id)
		Expect(err).ToNot(HaveOccurred())
		Expect(stored.Fields.Grouping().Keys()).To(Equal([]string{"organisation_state"}))
	})

	It("rejects unknown operations", func() {
		id := create()
		res := do(http.MethodPatch, "/reports/"+id+"/fields", `{"op":"explode"}`)
		Expect(res.Code).To(Equal(http.StatusBadRequest))
	})

	It("keeps filter edits local until flushed", func() {
		id := create()
		res := do(http.MethodPatch, "/reports/"+id+"/filters", `{"op":"add","key":"organisation_state"}`)
		Expect(res.Code).To(Equal(http.StatusOK), res.Body.String())
		res = do(http.MethodPatch, "/reports/"+id+"/filters", `{"op":"update_value","group":0,"index":0,"value":"NRW"}`)
		Expect(res.Code).To(Equal(http.StatusOK), res.Body.String())

		stored, _ := store.Get(server.ctx, id)
		Expect(stored.Filters).To(BeEmpty())

		var result pipeline.Result
		do(http.MethodGet, "/reports/"+id+"/render", "").JSON(&result)
		Expect(result.Filtered).To(HaveLen(2))

		res = do(http.MethodPatch, "/reports/"+id+"/filters", `{"op":"flush"}`)
		Expect(res.Code).To(Equal(http.StatusOK), res.Body.String())
		stored, _ = store.Get(server.ctx, id)
		Expect(stored.Filters.Filters()).To(HaveLen(1))
		Expect(stored.Filters.Filters()[0].Value).To(Equal("NRW"))
	})

	It("flushes and closes idle sessions", func() {
		id := create()
		res := do(http.MethodPatch, "/reports/"+id+"/filters", `{"op":"add","key":"organisation_name"}`)
		Expect(res.Code).To(Equal(http.StatusOK), res.Body.String())
		Expect(server.sessions.Has(id)).To(BeTrue())

		Expect(server.EvictIdle(server.ctx, time.Hour)).To(BeZero())
		Expect(server.EvictIdle(server.ctx, 0)).To(Equal(1))
		Expect(server.sessions.Has(id)).To(BeFalse())

		stored, _ := store.Get(server.ctx, id)
		Expect(stored.Filters.Filters()).To(HaveLen(1))
	})

	It("exports csv attachments", func() {
		id := create()
		res := do(http.MethodGet, "/reports/"+id+"/export", "")
		Expect(res.Code).To(Equal(http.StatusOK))
		Expect(res.Header().Get(echov4.HeaderContentDisposition)).To(ContainSubstring(`filename="Vereine.csv"`))
		Expect(strings.Split(res.Body.String(), "\n")).To(HaveLen(4))
	})

	It("renames and deletes reports", func() {
		id := create()
		res := do(http.MethodPatch, "/reports/"+id+"/title", `{"title":"Neu"}`)
		Expect(res.Code).To(Equal(http.StatusOK), res.Body.String())

		res = do(http.MethodDelete, "/reports/"+id, "")
		Expect(res.Code).To(Equal(http.StatusNoContent), res.Body.String())
		Expect(server.sessions.Has(id)).To(BeFalse())
		Expect(do(http.MethodGet, "/reports/"+id, "").Code).To(Equal(http.StatusNotFound))
	})

	It("serves the catalog and metrics", func() {
		Expect(do(http.MethodGet, "/catalog", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/metrics", "").Code).To(Equal(http.StatusOK))
	})

	It("restricts debug routes to localhost", func() {
		req := httptest.NewRequest(http.MethodGet, "/debug/loggers", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusForbidden))

		Expect(do(http.MethodGet, "/debug/loggers", "").Code).To(Equal(http.StatusOK))
	})

	It("lists and runs scheduled jobs", func() {
		var runs atomic.Int32
		scheduler := cron.New()
		j := job.NewJob(server.ctx, "CountRuns", "@every 1h", func(*job.JobRuntime) error {
			runs.Add(1)
			return nil
		})
		Expect(j.AddToScheduler(scheduler)).To(Succeed())
		RegisterCron(scheduler)

		var entries []map[string]any
		do(http.MethodGet, "/debug/cron", "").JSON(&entries)
		Expect(entries).To(ContainElement(HaveKeyWithValue("name", "CountRuns")))

		res := do(http.MethodPost, "/debug/cron/run", "name=CountRuns",
			echov4.HeaderContentType, echov4.MIMEApplicationForm)
		Expect(res.Code).To(Equal(http.StatusOK), res.Body.String())
		Expect(runs.Load()).To(Equal(int32(1)))

		res = do(http.MethodPost, "/debug/cron/run", "name=Missing",
			echov4.HeaderContentType, echov4.MIMEApplicationForm)
		Expect(res.Code).To(Equal(http.StatusNotFound))
	})

	Context("with a token", func() {
		BeforeEach(func() {
			config.Token = "secret"
			setup()
		})

		It("requires it on mutating requests", func() {
			Expect(do(http.MethodPost, "/reports", `{"type":"organisations"}`).Code).To(BeNumerically(">=", 400))
			Expect(do(http.MethodPost, "/reports", `{"type":"organisations"}`, "Authorization", "Bearer wrong").Code).
				To(Equal(http.StatusUnauthorized))
			Expect(do(http.MethodPost, "/reports", `{"type":"organisations"}`, "Authorization", "Bearer secret").Code).
				To(Equal(http.StatusCreated))
			Expect(do(http.MethodGet, "/reports", "").Code).To(Equal(http.StatusOK))
		})
	})
})
