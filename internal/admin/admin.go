// Package admin implements the daemon's local-only HTTP introspection and
// control surface: service description, configuration dump, common-tag
// mutation, and metric enumeration/deletion.
package admin

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Netflix-Skunkworks/spectatord/internal/config"
	"github.com/Netflix-Skunkworks/spectatord/pkg/log"
	"github.com/Netflix-Skunkworks/spectatord/pkg/spectator"
)

// allowedCommonTags are the only tags POST /config/common_tags may set or
// delete; every other key is rejected, matching the small, known set of
// per-job identity tags the upstream daemon lets a local supervisor adjust
// at runtime without a config file change.
var allowedCommonTags = []string{
	"nf.app",
	"nf.asg",
	"nf.cluster",
	"nf.node",
	"nf.stack",
	"nf.vmtype",
}

// Server is the admin HTTP surface. It holds a *config.Config so GET /config
// can report exactly what the daemon was started with.
type Server struct {
	registry *spectator.Registry
	cfg      *config.Config
	server   *http.Server
}

// New builds an admin Server bound to addr (e.g. "localhost:1234").
func New(addr string, registry *spectator.Registry, cfg *config.Config) *Server {
	s := &Server{registry: registry, cfg: cfg}

	r := mux.NewRouter()
	r.HandleFunc("/", s.getRoot).Methods(http.MethodGet)
	r.HandleFunc("/config", s.getConfig).Methods(http.MethodGet)
	r.HandleFunc("/config/common_tags", s.getCommonTagsUsage).Methods(http.MethodGet)
	r.HandleFunc("/config/common_tags", s.localOnly(s.postCommonTags)).Methods(http.MethodPost)
	r.HandleFunc("/metrics", s.getMetrics).Methods(http.MethodGet)
	r.HandleFunc("/metrics/{type:[A-Za-z]}", s.localOnly(s.deleteMetrics)).Methods(http.MethodDelete)
	r.HandleFunc("/metrics/{type:[A-Za-z]}/{id}", s.localOnly(s.deleteMetrics)).Methods(http.MethodDelete)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Errorf("admin server: unknown endpoint method=%s uri=%s", r.Method, r.URL.Path)
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	s.server = &http.Server{Addr: addr, Handler: r}
	return s
}

// Start listens and serves in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("admin server: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the admin server.
func (s *Server) Stop() error {
	return s.server.Close()
}

// localOnly rejects any request whose Host isn't localhost/127.0.0.1/[::1],
// matching the upstream daemon's restriction on mutating endpoints.
func (s *Server) localOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if !strings.Contains(host, "localhost") && !strings.Contains(host, "127.0.0.1") && !strings.Contains(host, "[::1]") {
			log.Errorf("admin server endpoint may only be accessed from localhost method=%s uri=%s", r.Method, r.URL.Path)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		h(w, r)
	}
}

func (s *Server) getRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"description": "SpectatorD Admin Server",
		"endpoints": []string{
			"http://" + r.Host + "/",
			"http://" + r.Host + "/config",
			"http://" + r.Host + "/config/common_tags",
			"http://" + r.Host + "/metrics",
		},
	})
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Describe())
}

func (s *Server) getCommonTagsUsage(w http.ResponseWriter, r *http.Request) {
	usage := "To configure SpectatorD common tags, POST a JSON object to this endpoint with " +
		"key-value pairs defining the desired common tags. To delete a tag, set the value " +
		"to an empty string. Attempting to configure any other tags besides the allowed " +
		"set will return an error. Only the following tags may be modified: " +
		strings.Join(allowedCommonTags, ", ") + "."
	writeJSON(w, http.StatusOK, map[string]string{"usage": usage})
}

func (s *Server) postCommonTags(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "json parse exception"})
		return
	}

	for key, value := range body {
		if !isAllowedTag(key) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "only allowed tags may be set"})
			return
		}
		if _, ok := value.(string); !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "tag values must be strings"})
			return
		}
	}

	for key, value := range body {
		v := value.(string)
		if v == "" {
			log.Infof("delete common tag %s", key)
			s.registry.EraseCommonTag(key)
		} else {
			log.Infof("update common tag %s=%s", key, v)
			s.registry.UpdateCommonTag(key, v)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "common tags updated"})
}

func isAllowedTag(key string) bool {
	for _, t := range allowedCommonTags {
		if t == key {
			return true
		}
	}
	return false
}

type meterJSON struct {
	Name  string            `json:"name"`
	Tags  map[string]string `json:"tags"`
	Value string            `json:"value"`
}

func meterObj(id spectator.Id, value any) meterJSON {
	tags := make(map[string]string, id.Tags().Len())
	id.Tags().ForEach(func(k, v string) { tags[k] = v })
	return meterJSON{Name: id.Name(), Tags: tags, Value: fmt.Sprintf("%v", value)}
}

func (s *Server) getMetrics(w http.ResponseWriter, r *http.Request) {
	ageGauges := s.registry.AgeGauges()
	counters := s.registry.Counters()
	distSummaries := s.registry.DistSummaries()
	gauges := s.registry.Gauges()
	maxGauges := s.registry.MaxGauges()
	monoCounters := s.registry.MonotonicCounters()
	monoCountersUint := s.registry.MonotonicCountersUint()
	timers := s.registry.Timers()

	resp := map[string]any{}

	ag := make([]meterJSON, len(ageGauges))
	for i, m := range ageGauges {
		ag[i] = meterObj(m.MeterId(), m.Value(0))
	}
	resp["age_gauges"] = ag

	c := make([]meterJSON, len(counters))
	for i, m := range counters {
		c[i] = meterObj(m.MeterId(), m.Count())
	}
	resp["counters"] = c

	ds := make([]meterJSON, len(distSummaries))
	for i, m := range distSummaries {
		ds[i] = meterObj(m.MeterId(), m.TotalAmount())
	}
	resp["dist_summaries"] = ds

	g := make([]meterJSON, len(gauges))
	for i, m := range gauges {
		g[i] = meterObj(m.MeterId(), m.Get())
	}
	resp["gauges"] = g

	mg := make([]meterJSON, len(maxGauges))
	for i, m := range maxGauges {
		mg[i] = meterObj(m.MeterId(), m.Get())
	}
	resp["max_gauges"] = mg

	mc := make([]meterJSON, len(monoCounters))
	for i, m := range monoCounters {
		mc[i] = meterObj(m.MeterId(), m.Delta())
	}
	resp["mono_counters"] = mc

	mcu := make([]meterJSON, len(monoCountersUint))
	for i, m := range monoCountersUint {
		mcu[i] = meterObj(m.MeterId(), m.Delta())
	}
	resp["mono_counters_uint"] = mcu

	t := make([]meterJSON, len(timers))
	for i, m := range timers {
		t[i] = meterObj(m.MeterId(), m.TotalTime())
	}
	resp["timers"] = t

	total := len(ageGauges) + len(counters) + len(distSummaries) + len(gauges) +
		len(maxGauges) + len(monoCounters) + len(monoCountersUint) + len(timers)
	resp["stats"] = map[string]int{
		"age_gauges.size":       len(ageGauges),
		"counters.size":         len(counters),
		"dist_summaries.size":   len(distSummaries),
		"gauges.size":           len(gauges),
		"max_gauges.size":       len(maxGauges),
		"mono_counters.size":    len(monoCounters),
		"mono_counters_uint.size": len(monoCountersUint),
		"timers.size":           len(timers),
		"total.size":            total,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteMetrics(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	meterType := vars["type"]
	idStr, hasID := vars["id"]

	if !hasID {
		log.Infof("DELETE /metrics/%s succeeded: all meters deleted", meterType)
		s.registry.DeleteAllMeters(meterType)
		w.WriteHeader(http.StatusOK)
		return
	}

	id := ParseID(idStr)
	if s.registry.DeleteMeter(meterType, id) {
		log.Infof("DELETE /metrics/%s succeeded: '%s'", meterType, id.Key())
		w.WriteHeader(http.StatusOK)
		return
	}
	log.Errorf("DELETE /metrics/%s failed: meter not found '%s'", meterType, id.Key())
	http.Error(w, "Not Found", http.StatusNotFound)
}

// ParseID parses the "name,k=v,k2=v2" id string format used by the admin
// server's DELETE /metrics/{type}/{id} path (the same format Id.Key()
// produces).
func ParseID(s string) spectator.Id {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return spectator.NewId(s, spectator.Tags{})
	}

	name := s[:comma]
	tags := spectator.Tags{}
	pos := comma
	for pos >= 0 && pos < len(s) {
		pos++
		eq := strings.IndexByte(s[pos:], '=')
		if eq < 0 {
			break
		}
		eq += pos
		key := s[pos:eq]
		vStart := eq + 1
		vEnd := strings.IndexByte(s[vStart:], ',')
		if vEnd < 0 {
			tags.Add(key, s[vStart:])
			break
		}
		vEnd += vStart
		tags.Add(key, s[vStart:vEnd])
		pos = vEnd
	}

	return spectator.NewId(name, tags)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
