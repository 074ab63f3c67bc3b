package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/logging"
	"github.com/atalyaalon/patents-topic-modeling/internal/storage"
	"github.com/atalyaalon/patents-topic-modeling/internal/vecindex"
)

// topTopicCount is the number of topics on the top topics chart.
const topTopicCount = 10

// ErrUnknownDataset is returned for a dataset parameter other than sample or full.
var ErrUnknownDataset = errors.New("unknown dataset")

// maxK bounds the number of neighbors a request may ask for.
const maxK = 100

// Server serves the dashboard, explorer and JSON API.
type Server struct {
	cache          *ArtifactCache
	datasetType    string
	trendingTopics [][]int
	metrics        *metrics
	router         chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithDatasetType sets the dataset shown when a request does not name one.
func WithDatasetType(datasetType string) Option {
	return func(s *Server) {
		s.datasetType = datasetType
	}
}

// WithTrendingTopics sets the topic groups charted by filing year.
func WithTrendingTopics(groups [][]int) Option {
	return func(s *Server) {
		s.trendingTopics = groups
	}
}

// NewServer creates a server reading artifacts through cache.
func NewServer(cache *ArtifactCache, opts ...Option) *Server {
	s := &Server{
		cache:          cache,
		datasetType:    "sample",
		trendingTopics: [][]int{{25}, {252, 101, 124, 187}},
		metrics:        newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.countRequests)
	r.Get("/", s.dashboardHandler)
	r.Get("/explorer", s.explorerHandler)
	r.Get("/topic-map", s.topicMapHandler)
	r.Get("/api/similar/{patent}", s.similarHandler)
	r.Post("/api/search", s.searchHandler)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// artifacts returns the artifact set named by the request's dataset parameter.
func (s *Server) artifacts(r *http.Request) (*Artifacts, error) {
	ds := strings.ToLower(r.URL.Query().Get("dataset"))
	if ds == "" {
		ds = s.datasetType
	}
	if ds != "sample" && ds != "full" {
		return nil, fmt.Errorf("%w %q", ErrUnknownDataset, ds)
	}
	return s.cache.Get(artifact.Prefix(ds))
}

// parseK reads the k parameter. Invalid values are passed through for the index to reject.
func parseK(s string) (int, error) {
	if s == "" {
		return DefaultK, nil
	}
	k, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", vecindex.ErrInvalidK, s)
	}
	if k > maxK {
		k = maxK
	}
	return k, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorf("Writing response: %v", err)
	}
}

// queryStatus maps an explorer or search error to an HTTP status and metric result.
func queryStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrPatentNotFound), errors.Is(err, vecindex.ErrNotIndexed):
		return http.StatusNotFound, resultNotFound
	case errors.Is(err, vecindex.ErrDimensionMismatch), errors.Is(err, vecindex.ErrInvalidK),
		errors.Is(err, ErrUnknownDataset):
		return http.StatusBadRequest, resultBadRequest
	case errors.Is(err, vecindex.ErrEmptyIndex):
		return http.StatusConflict, resultConflict
	case errors.Is(err, ErrArtifactsNotFound):
		return http.StatusServiceUnavailable, resultError
	default:
		return http.StatusInternalServerError, resultError
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Errorf("Rendering %s: %v", name, err)
		http.Error(w, "Failed to render page.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	status, _ := queryStatus(err)
	logging.Errorf("Serving page: %v", err)
	s.render(w, status, "error", pageData{Title: "Error", Error: err.Error()})
}

// marshalJS encodes v for embedding in a script block.
func marshalJS(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

type pageData struct {
	Title   string
	Dataset string
	RunID   string
	Error   string
	Data    template.JS
}

type series struct {
	TopicID int    `json:"topic_id"`
	Label   string `json:"label"`
	Years   []int  `json:"years"`
	Counts  []int  `json:"counts"`
}

type trendingChart struct {
	Title  string   `json:"title"`
	Series []series `json:"series"`
}

type dashboardData struct {
	Trending  []trendingChart       `json:"trending"`
	TopTopics []storage.TopicCount  `json:"top_topics"`
	Totals    []storage.YearCount   `json:"totals"`
	Status    []storage.StatusCount `json:"status"`
}

// trendingSeries groups topic-by-year rows into one series per topic, in ids order.
func trendingSeries(rows []storage.TopicYearCount, ids []int) []series {
	byTopic := make(map[int]*series)
	for _, row := range rows {
		s, ok := byTopic[row.TopicID]
		if !ok {
			s = &series{TopicID: row.TopicID, Label: row.TopicWords}
			byTopic[row.TopicID] = s
		}
		s.Years = append(s.Years, row.Year)
		s.Counts = append(s.Counts, row.Count)
	}
	out := []series{}
	for _, id := range ids {
		if s, ok := byTopic[id]; ok {
			out = append(out, *s)
		}
	}
	return out
}

func groupTitle(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	if len(ids) == 1 {
		return "Topic " + parts[0] + " by filing year"
	}
	return "Topics " + strings.Join(parts, ", ") + " by filing year"
}

func (s *Server) buildDashboard(a *Artifacts) (*dashboardData, error) {
	data := &dashboardData{}
	for _, group := range s.trendingTopics {
		rows, err := a.DB.TopicsByYear(group...)
		if err != nil {
			return nil, err
		}
		data.Trending = append(data.Trending, trendingChart{Title: groupTitle(group), Series: trendingSeries(rows, group)})
	}

	var err error
	if data.TopTopics, err = a.DB.TopTopics(topTopicCount); err != nil {
		return nil, err
	}
	if data.Totals, err = a.DB.TotalsByYear(); err != nil {
		return nil, err
	}
	if data.Status, err = a.DB.TopicStatus(); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Server) basePage(title string, a *Artifacts) pageData {
	p := pageData{Title: title, Dataset: a.Prefix}
	if a.Manifest != nil {
		p.RunID = a.Manifest.RunID
	}
	return p
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	a, err := s.artifacts(r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	data, err := s.buildDashboard(a)
	if err != nil {
		s.renderError(w, err)
		return
	}
	page := s.basePage("Patent Topics", a)
	if page.Data, err = marshalJS(data); err != nil {
		s.renderError(w, err)
		return
	}
	s.render(w, http.StatusOK, "dashboard", page)
}

type explorerPage struct {
	pageData
	Query       string
	K           int
	Result      *Exploration
	NoTopicText string
}

func (s *Server) explorerHandler(w http.ResponseWriter, r *http.Request) {
	a, err := s.artifacts(r)
	if err != nil {
		s.renderError(w, err)
		return
	}

	page := explorerPage{
		pageData:    s.basePage("Patent Explorer", a),
		Query:       strings.TrimSpace(r.URL.Query().Get("patent")),
		K:           DefaultK,
		NoTopicText: MsgNoTopic,
	}
	if page.Query == "" {
		s.render(w, http.StatusOK, "explorer", page)
		return
	}

	k, err := parseK(r.URL.Query().Get("k"))
	if err == nil {
		page.K = k
		page.Result, err = a.Explore(page.Query, k)
	}
	if err != nil {
		// Errors stay on the page; the status reflects the failure.
		status, result := queryStatus(err)
		s.metrics.query("explorer", result)
		if errors.Is(err, ErrPatentNotFound) {
			page.Error = MsgPatentNotFound
		} else {
			page.Error = err.Error()
		}
		s.render(w, status, "explorer", page)
		return
	}
	s.metrics.query("explorer", resultOK)
	s.render(w, http.StatusOK, "explorer", page)
}

func (s *Server) topicMapHandler(w http.ResponseWriter, r *http.Request) {
	a, err := s.artifacts(r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	page := s.basePage("Topic Map", a)
	if page.Data, err = marshalJS(a.TopicMap); err != nil {
		s.renderError(w, err)
		return
	}
	s.render(w, http.StatusOK, "topicmap", page)
}

type similarResponse struct {
	Patent  string    `json:"patent"`
	K       int       `json:"k"`
	Results []Similar `json:"results"`
}

func (s *Server) similarHandler(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "patent")
	a, err := s.artifacts(r)
	if err != nil {
		status, _ := queryStatus(err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	k, err := parseK(r.URL.Query().Get("k"))
	var ex *Exploration
	if err == nil {
		ex, err = a.Explore(number, k)
	}
	if err != nil {
		status, result := queryStatus(err)
		s.metrics.query("similar", result)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.query("similar", resultOK)
	writeJSON(w, http.StatusOK, similarResponse{Patent: number, K: k, Results: ex.Similar})
}

type searchRequest struct {
	Vector []float32 `json:"vector"`
	K      *int      `json:"k"` // nil means DefaultK
}

type searchResponse struct {
	K       int       `json:"k"`
	Results []Similar `json:"results"`
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.query("search", resultBadRequest)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decoding request: %v", err)})
		return
	}
	k := DefaultK
	if req.K != nil {
		k = min(*req.K, maxK)
	}

	a, err := s.artifacts(r)
	if err != nil {
		status, _ := queryStatus(err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	results, err := a.SearchVector(req.Vector, k)
	if err != nil {
		status, result := queryStatus(err)
		s.metrics.query("search", result)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.query("search", resultOK)
	writeJSON(w, http.StatusOK, searchResponse{K: k, Results: results})
}
