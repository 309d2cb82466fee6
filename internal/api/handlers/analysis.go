package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/pipeline"
	"github.com/wonny/qpcr/internal/plate"
	"github.com/wonny/qpcr/internal/s0_ingest"
	"github.com/wonny/qpcr/internal/s2_pfaffl"
	"github.com/wonny/qpcr/internal/s3_polysome"
	"github.com/wonny/qpcr/pkg/logger"
	"github.com/wonny/qpcr/pkg/redis"
)

// AnalysisHandler runs the stages on a plate export posted as the body
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	cache    contracts.ResultCache // optional
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler. cache may be nil.
func NewAnalysisHandler(cache contracts.ResultCache, cacheTTL time.Duration, log *logger.Logger) *AnalysisHandler {
	if cacheTTL <= 0 {
		cacheTTL = redis.TTLMedium
	}
	return &AnalysisHandler{
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

// TidyResponse is the tidied input table
type TidyResponse struct {
	Schema contracts.Schema    `json:"schema"`
	Rows   []contracts.TidyRow `json:"rows"`
}

// EfficiencyResponse holds one fit per gene
type EfficiencyResponse struct {
	Results []*contracts.EfficiencyResult `json:"results"`
}

// PfafflResponse is the expression result with its fold change
type PfafflResponse struct {
	Result     *contracts.ExpressionResult `json:"result"`
	FoldChange *float64                    `json:"fold_change,omitempty"`
}

// PolysomeResponse holds one profile per gene/condition
type PolysomeResponse struct {
	Profiles []*contracts.PolysomeProfile `json:"profiles"`
}

// Tidy returns the tidied rows of any schema
// POST /api/tidy
func (h *AnalysisHandler) Tidy(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "tidy", "", func(table contracts.RawTable) (interface{}, error) {
		schema, rows, err := pipeline.LoadTable(table, "")
		if err != nil {
			return nil, err
		}
		return TidyResponse{Schema: schema, Rows: rows}, nil
	})
}

// Efficiency fits the dilution series of the requested genes (all if none)
// POST /api/efficiency?gene=GOI&gene=ACTB
func (h *AnalysisHandler) Efficiency(w http.ResponseWriter, r *http.Request) {
	genes := r.URL.Query()["gene"]

	h.serve(w, r, "efficiency", contracts.SchemaDilution, func(table contracts.RawTable) (interface{}, error) {
		_, rows, err := pipeline.LoadTable(table, contracts.SchemaDilution)
		if err != nil {
			return nil, err
		}
		if len(genes) == 0 {
			genes = s0_ingest.Genes(rows)
		}
		results, err := pipeline.Efficiencies(r.Context(), rows, genes)
		if err != nil {
			return nil, err
		}
		return EfficiencyResponse{Results: results}, nil
	})
}

// Pfaffl computes efficiency-weighted expression ratios
// POST /api/pfaffl?target=&reference=&control=&experimental=&target_eff=&reference_eff=
func (h *AnalysisHandler) Pfaffl(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := s2_pfaffl.Request{
		Target:                q.Get("target"),
		Reference:             q.Get("reference"),
		ControlCondition:      q.Get("control"),
		ExperimentalCondition: q.Get("experimental"),
	}
	var err error
	if req.TargetEfficiency, err = parseEfficiency(q.Get("target_eff"), "target_eff"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ReferenceEfficiency, err = parseEfficiency(q.Get("reference_eff"), "reference_eff"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	h.serve(w, r, "pfaffl", contracts.SchemaCondition, func(table contracts.RawTable) (interface{}, error) {
		_, rows, err := pipeline.LoadTable(table, contracts.SchemaCondition)
		if err != nil {
			return nil, err
		}
		res, err := s2_pfaffl.Analyze(rows, req)
		if err != nil {
			return nil, err
		}

		resp := PfafflResponse{Result: res}
		if fold, ok := res.FoldChange(); ok {
			resp.FoldChange = &fold
		}
		return resp, nil
	})
}

// Polysome profiles one gene/condition, or every pair when both are omitted
// POST /api/polysome?gene=&condition=
func (h *AnalysisHandler) Polysome(w http.ResponseWriter, r *http.Request) {
	gene := r.URL.Query().Get("gene")
	condition := r.URL.Query().Get("condition")
	if (gene == "") != (condition == "") {
		respondError(w, http.StatusBadRequest, "gene and condition must be given together")
		return
	}

	h.serve(w, r, "polysome", contracts.SchemaFraction, func(table contracts.RawTable) (interface{}, error) {
		_, rows, err := pipeline.LoadTable(table, contracts.SchemaFraction)
		if err != nil {
			return nil, err
		}

		if gene == "" {
			profiles, err := s3_polysome.ProfileAll(rows)
			if err != nil {
				return nil, err
			}
			return PolysomeResponse{Profiles: profiles}, nil
		}

		p, err := s3_polysome.Profile(rows, gene, condition)
		if err != nil {
			return nil, err
		}
		return PolysomeResponse{Profiles: []*contracts.PolysomeProfile{p}}, nil
	})
}

// serve reads the body, answers from cache when possible, otherwise runs
// compute and caches its response
func (h *AnalysisHandler) serve(w http.ResponseWriter, r *http.Request, kind string, schema contracts.Schema, compute func(contracts.RawTable) (interface{}, error)) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, statusFor(err), "Failed to read request body")
		return
	}

	key := redis.AnalysisKey(kind, r.URL.Query().Encode(), body)
	if cached, ok := h.lookup(ctx, key); ok {
		w.Header().Set("X-Cache", "HIT")
		respondJSON(w, http.StatusOK, cached)
		return
	}

	table, err := plate.Read(bytes.NewReader(body), plate.Options{Comma: delimiter(r)})
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	resp, err := compute(table)
	if err != nil {
		status := statusFor(err)
		entry := h.logger.WithError(err).WithFields(map[string]interface{}{
			"kind":   kind,
			"schema": schema,
			"status": status,
		})
		if status == http.StatusInternalServerError {
			entry.Error("Analysis failed")
			respondError(w, status, fmt.Sprintf("Failed to run %s analysis", kind))
			return
		}
		entry.Debug("Analysis rejected input")
		respondError(w, status, err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, resp, h.cacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache analysis result")
		}
	}

	w.Header().Set("X-Cache", "MISS")
	respondJSON(w, http.StatusOK, resp)
}

func (h *AnalysisHandler) lookup(ctx context.Context, key string) (json.RawMessage, bool) {
	if h.cache == nil {
		return nil, false
	}
	var cached json.RawMessage
	found, err := h.cache.Get(ctx, key, &cached)
	if err != nil {
		h.logger.WithError(err).Warn("Cache lookup failed")
		return nil, false
	}
	return cached, found
}

// delimiter picks tab for TSV bodies
func delimiter(r *http.Request) rune {
	if r.URL.Query().Get("delimiter") == "tab" {
		return '\t'
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/tab-separated-values" {
		return '\t'
	}
	return ','
}

func parseEfficiency(s, name string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("%s is required (percent, e.g. 98.5)", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}
