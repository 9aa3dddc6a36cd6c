// Package chi implements the reelrank HTTP API.
package chi

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cinesense/reelrank/internal/domain"
	"github.com/cinesense/reelrank/internal/domain/movie"
	"github.com/cinesense/reelrank/internal/domain/search/filter"
	"github.com/cinesense/reelrank/internal/domain/search/ranked"
	"github.com/cinesense/reelrank/internal/domain/search/request"
	healthuc "github.com/cinesense/reelrank/internal/usecase/health"
	searchuc "github.com/cinesense/reelrank/internal/usecase/search"
)

// Error codes returned in JSON error responses.
const (
	CodeBadRequest         = "bad_request"
	CodeInvalidQuery       = "invalid_query"
	CodeInvalidLimit       = "invalid_limit"
	CodeInvalidFilter      = "invalid_filter"
	CodeMovieNotFound      = "movie_not_found"
	CodeUpstreamFailed     = "upstream_unavailable"
	CodeRateLimited        = "rate_limited"
	CodeInternalError      = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server holds the HTTP handlers and their use case dependencies.
type Server struct {
	search  *searchuc.Service
	movies  MovieReader
	health  *healthuc.Service
	logger  *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(search *searchuc.Service, movies MovieReader, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{search: search, movies: movies, health: health, logger: logger}
}

// Routes mounts all API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.handleSearch)
	r.Get("/movies/{id}", s.handleGetMovie)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// searchRequest is the POST /search body. A nil limit means the default;
// nil filter fields mean unconstrained.
type searchRequest struct {
	Query     string   `json:"query"`
	Limit     *int     `json:"limit,omitempty"`
	MinYear   *int     `json:"min_year,omitempty"`
	MaxYear   *int     `json:"max_year,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
	Genres    []string `json:"genres,omitempty"`
}

// searchResultItem is one ranked movie in the search response.
type searchResultItem struct {
	MovieID       string   `json:"movie_id"`
	Title         string   `json:"title"`
	Score         float64  `json:"score"`
	SemanticScore float64  `json:"semantic_score"`
	Year          int      `json:"year,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	PosterPath    string   `json:"poster_path,omitempty"`
	Overview      string   `json:"overview,omitempty"`
	Rank          int      `json:"rank"`
}

// searchResponse is the POST /search response body.
type searchResponse struct {
	Query        string             `json:"query"`
	TotalResults int                `json:"total_results"`
	Fallback     bool               `json:"fallback"`
	Results      []searchResultItem `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	limit := request.DefaultLimit
	if body.Limit != nil {
		limit = *body.Limit
	}

	crit, err := filter.NewCriteria(body.MinYear, body.MaxYear, body.MinRating, body.Genres)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	req, err := request.New(body.Query, limit, crit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, meta, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:        req.Query(),
		TotalResults: len(results),
		Fallback:     meta.Fallback,
		Results:      resultsToItems(results),
	})
}

func resultsToItems(results []ranked.Result) []searchResultItem {
	items := make([]searchResultItem, len(results))
	for i := range results {
		res := &results[i]
		m := res.Movie()
		items[i] = searchResultItem{
			MovieID:       m.ID(),
			Title:         m.Title(),
			Score:         res.Blended(),
			SemanticScore: res.Semantic(),
			Year:          m.Year(),
			Genres:        m.Genres(),
			PosterPath:    m.PosterPath(),
			Overview:      truncateOverview(m.Overview()),
			Rank:          res.Position(),
		}
	}
	return items
}

// truncateOverview bounds the synopsis in list responses. The cut falls on a
// rune boundary so multi-byte text stays valid UTF-8.
func truncateOverview(s string) string {
	const maxRunes = 200
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// movieResponse is the GET /movies/{id} response body.
type movieResponse struct {
	MovieID    string   `json:"movie_id"`
	Title      string   `json:"title"`
	Year       int      `json:"year,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	PosterPath string   `json:"poster_path,omitempty"`
	Overview   string   `json:"overview,omitempty"`
	Rating     float64  `json:"rating"`
	Popularity float64  `json:"popularity"`
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Movie id is required")
		return
	}

	m, err := s.movies.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, movieToResponse(m))
}

func movieToResponse(m movie.Movie) movieResponse {
	return movieResponse{
		MovieID:    m.ID(),
		Title:      m.Title(),
		Year:       m.Year(),
		Genres:     m.Genres(),
		PosterPath: m.PosterPath(),
		Overview:   m.Overview(),
		Rating:     m.Rating(),
		Popularity: m.Popularity(),
	}
}

// healthResponse is the GET /health response body.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// handleDomainError maps domain sentinels to HTTP error responses.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
	case errors.Is(err, domain.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, CodeInvalidLimit, err.Error())
	case errors.Is(err, domain.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, CodeInvalidFilter, err.Error())
	case errors.Is(err, domain.ErrMovieNotFound):
		writeError(w, http.StatusNotFound, CodeMovieNotFound, err.Error())
	case errors.Is(err, domain.ErrFallbackDisabled),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrIndexUnavailable):
		writeError(w, http.StatusServiceUnavailable, CodeUpstreamFailed, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, CodeRateLimited, err.Error())
	default:
		s.logger.Error("Unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
