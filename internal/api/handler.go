package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/density"
	"github.com/go-sod/outlier/internal/evaluate"
	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/httputil"
	"github.com/go-sod/outlier/internal/logging"
	"github.com/go-sod/outlier/internal/scorer"
)

const maxBodyBytes = 64 * 1024 * 1024

type point struct {
	ID    *int      `json:"id"`
	Vec   []float64 `json:"vector"`
	Label string    `json:"label"`
}

type request struct {
	K        int       `json:"k"`
	Method   string    `json:"method"`
	Distance string    `json:"distance"`
	Weights  []float64 `json:"weights"`
	ClampK   *bool     `json:"clampK"`
	// Positive is the label evaluated against, e.g. "Noise".
	Positive string  `json:"positive"`
	Top      int     `json:"top"`
	Points   []point `json:"points"`
}

type response struct {
	Result *scorer.Result `json:"result"`
	AUC    *float64       `json:"auc,omitempty"`
	Top    []scorer.Score `json:"top,omitempty"`
}

func NewHandler(cfg *Config, provide scorer.ProvideFn) (http.Handler, error) {
	if provide == nil {
		return nil, fmt.Errorf("nil scorer provider")
	}
	return &handler{
		cfg:     cfg,
		provide: provide,
	}, nil
}

type handler struct {
	provide scorer.ProvideFn
	cfg     *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debugf(`{"error": "method %v is not allowed"}`, r.Method)
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debugf(`{"error": "%v"}`, "content-type is not application/json")
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.Points) > h.cfg.MaxPoints {
		httputil.RespBadRequest(ctx, w, `{"error": "too many points, max allowed len is %d"}`, h.cfg.MaxPoints)
		return
	}
	ds, err := req.dataset()
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "invalid points: %v"}`, err)
		return
	}
	opts, err := req.options()
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		return
	}

	s, err := h.provide(opts...)
	if err != nil {
		respScoreErr(ctx, w, err)
		return
	}
	result, err := s.Score(ctx, ds)
	if err != nil {
		respScoreErr(ctx, w, err)
		return
	}

	resp := response{Result: result}
	if req.Positive != "" {
		auc, err := evaluate.AUC(result, evaluate.LabelSet(ds, req.Positive))
		if err != nil {
			httputil.RespBadRequest(ctx, w, `{"error": "unable to evaluate: %v"}`, err)
			return
		}
		resp.AUC = &auc
	}
	if req.Top > 0 {
		resp.Top = evaluate.TopN(result, req.Top)
	}
	httputil.RespJSON(ctx, w, http.StatusOK, resp)
}

func respScoreErr(ctx context.Context, w http.ResponseWriter, err error) {
	var cfgErr *scorer.ConfigError
	if errors.As(err, &cfgErr) {
		httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		return
	}
	httputil.RespInternalError(ctx, w, `{"error": "scoring error, %v"}`, err)
}

func (r *request) dataset() (*dataset.Dataset, error) {
	points := make([]dataset.Point, len(r.Points))
	for i, p := range r.Points {
		id := i
		if p.ID != nil {
			id = *p.ID
		}
		points[i] = dataset.Point{ID: id, Vec: geom.NewPoint(p.Vec), Label: p.Label}
	}
	return dataset.New(points...)
}

// options returns the per request overrides of the configured scorer.
func (r *request) options() ([]scorer.Option, error) {
	var opts []scorer.Option
	if r.K != 0 {
		opts = append(opts, scorer.WithK(r.K))
	}
	if r.Method != "" {
		m, err := density.ParseMethodType(r.Method)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scorer.WithMethod(m))
	}
	if r.Distance != "" {
		d, err := geom.ParseDistanceFuncType(r.Distance)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scorer.WithDistance(d))
	}
	if r.Weights != nil {
		opts = append(opts, scorer.WithWeights(r.Weights))
	}
	if r.ClampK != nil {
		opts = append(opts, scorer.WithClampK(*r.ClampK))
	}
	return opts, nil
}
