package api

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/plotdeck/plotdeck/pkg/buildinfo"
	"github.com/plotdeck/plotdeck/pkg/dataset"
	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
	"github.com/plotdeck/plotdeck/pkg/pipeline"
)

// maxBodyBytes bounds request bodies. Inline dataset values are the
// only thing that grows, and this matches the script line bound.
const maxBodyBytes = 16 << 20

// statusByCode maps engine error codes onto HTTP statuses. Codes not
// listed are internal failures.
var statusByCode = map[errors.Code]int{
	errors.ErrCodeInvalidInput:     http.StatusBadRequest,
	errors.ErrCodeInvalidName:      http.StatusBadRequest,
	errors.ErrCodeInvalidPath:      http.StatusBadRequest,
	errors.ErrCodeInvalidSetting:   http.StatusBadRequest,
	errors.ErrCodeInvalidFormat:    http.StatusBadRequest,
	errors.ErrCodeInvalidChildType: http.StatusBadRequest,
	errors.ErrCodeInvalidReference: http.StatusBadRequest,
	errors.ErrCodeParse:            http.StatusBadRequest,
	errors.ErrCodeEval:             http.StatusBadRequest,
	errors.ErrCodeShapeMismatch:    http.StatusBadRequest,
	errors.ErrCodeNotRaw:           http.StatusBadRequest,
	errors.ErrCodeNotDerived:       http.StatusBadRequest,
	errors.ErrCodeUnsupported:      http.StatusBadRequest,
	errors.ErrCodeCycleDetected:    http.StatusConflict,
	errors.ErrCodeDuplicateName:    http.StatusConflict,
	errors.ErrCodeInUse:            http.StatusConflict,
	errors.ErrCodeDocumentBusy:     http.StatusConflict,
	errors.ErrCodeNothingToUndo:    http.StatusConflict,
	errors.ErrCodeNothingToRedo:    http.StatusConflict,
	errors.ErrCodeNotFound:         http.StatusNotFound,
	errors.ErrCodeDocumentNotFound: http.StatusNotFound,
	errors.ErrCodeFileNotFound:     http.StatusNotFound,
	errors.ErrCodeUnavailable:      http.StatusServiceUnavailable,
	errors.ErrCodeCancelled:        http.StatusServiceUnavailable,
}

// contentTypes maps artifact formats onto MIME types.
var contentTypes = map[string]string{
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
	pipeline.FormatPDF: "application/pdf",
	pipeline.FormatEPS: "application/postscript",
	pipeline.FormatDOT: "text/vnd.graphviz; charset=utf-8",
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: errors.UserMessage(err)},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func docID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// ============================================================================
// Document lifecycle
// ============================================================================

type createRequest struct {
	Script string `json:"script,omitempty"`
}

type createResponse struct {
	ID       string `json:"id"`
	Revision int64  `json:"revision"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && err != io.EOF {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parsing request body"))
		return
	}

	id, d, err := s.store.Create(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Script != "" {
		err := s.store.Mutate(r.Context(), id, func(d *document.Document) error {
			return d.LoadScript(strings.NewReader(req.Script))
		})
		if err != nil {
			// All or nothing: a bad script leaves no document behind.
			_ = s.store.Delete(r.Context(), id)
			s.writeError(w, err)
			return
		}
	}
	s.writeJSON(w, http.StatusCreated, createResponse{ID: id, Revision: d.Revision()})
}

type historyInfo struct {
	Length   int    `json:"length"`
	Position int    `json:"position"`
	CanUndo  string `json:"can_undo,omitempty"`
	CanRedo  string `json:"can_redo,omitempty"`
}

type documentInfo struct {
	ID       string      `json:"id"`
	Revision int64       `json:"revision"`
	Pages    int         `json:"pages"`
	Widgets  int         `json:"widgets"`
	Datasets int         `json:"datasets"`
	History  historyInfo `json:"history"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	id := docID(r)
	var info documentInfo
	err := s.store.With(r.Context(), id, func(d *document.Document) error {
		return d.Snapshot(func() error {
			info = documentInfo{
				ID:       id,
				Revision: d.Revision(),
				Pages:    len(d.Pages()),
				Widgets:  d.NodeCount(),
				Datasets: d.Store().Len(),
				History: historyInfo{
					Length:   d.HistoryLen(),
					Position: d.HistoryPosition(),
				},
			}
			if label, ok := d.CanUndo(); ok {
				info.History.CanUndo = label
			}
			if label, ok := d.CanRedo(); ok {
				info.History.CanRedo = label
			}
			return nil
		})
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), docID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Mutation
// ============================================================================

type commandResponse struct {
	Revision int64  `json:"revision"`
	Applied  string `json:"applied"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading request body"))
		return
	}
	cmd, err := document.DecodeCommand(data)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var resp commandResponse
	err = s.store.Mutate(r.Context(), docID(r), func(d *document.Document) error {
		if err := d.Apply(cmd); err != nil {
			return err
		}
		resp = commandResponse{Revision: d.Revision(), Applied: cmd.CommandName()}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type undoResponse struct {
	Revision int64  `json:"revision"`
	Undone   string `json:"undone,omitempty"`
	Redone   string `json:"redone,omitempty"`
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var resp undoResponse
	err := s.store.Mutate(r.Context(), docID(r), func(d *document.Document) error {
		label, _ := d.CanUndo()
		if err := d.Undo(); err != nil {
			return err
		}
		resp = undoResponse{Revision: d.Revision(), Undone: label}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	var resp undoResponse
	err := s.store.Mutate(r.Context(), docID(r), func(d *document.Document) error {
		label, _ := d.CanRedo()
		if err := d.Redo(); err != nil {
			return err
		}
		resp = undoResponse{Revision: d.Revision(), Redone: label}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// Rendering
// ============================================================================

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}
	opts := pipeline.Options{
		Page:    q.Get("page"),
		Formats: []string{format},
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "scale %q is not a number", v))
			return
		}
		opts.Scale = scale
	}
	if v := q.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "refresh %q is not a boolean", v))
			return
		}
		opts.Refresh = refresh
	}

	var res *pipeline.Result
	err := s.store.With(r.Context(), docID(r), func(d *document.Document) error {
		var err error
		res, err = s.runner.Execute(r.Context(), d, opts)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	page := opts.Page
	if page == "" {
		switch len(res.Pages) {
		case 1:
			page = res.Pages[0]
		case 0:
			s.writeError(w, errors.New(errors.ErrCodeNotFound, "document has no visible pages"))
			return
		default:
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput,
				"document has %d pages; pass page=", len(res.Pages)))
			return
		}
	}
	data, ok := res.Artifact(page, format)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeInternal, "no %s artifact for page %q", format, page))
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	if res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.Write(data)
}

func (s *Server) handleDeps(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatDOT
	}

	var data []byte
	err := s.store.With(r.Context(), docID(r), func(d *document.Document) error {
		var err error
		data, err = s.runner.Deps(r.Context(), d.Store(), format)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Write(data)
}

// ============================================================================
// Datasets
// ============================================================================

type datasetPayload struct {
	Name      string            `json:"name"`
	Kind      string            `json:"kind"`
	Derived   bool              `json:"derived"`
	Points    int               `json:"points"`
	Tags      []string          `json:"tags,omitempty"`
	Formulas  map[string]string `json:"formulas,omitempty"`
	Data      []any             `json:"data,omitempty"`
	Serr      []any             `json:"serr,omitempty"`
	Perr      []any             `json:"perr,omitempty"`
	Nerr      []any             `json:"nerr,omitempty"`
	Values    []string          `json:"values,omitempty"`
	EvalError string            `json:"eval_error,omitempty"`
}

// jsonNumbers converts a column for JSON, which has no NaN or
// infinities; invalid points become null.
func jsonNumbers(vs []float64) []any {
	if vs == nil {
		return nil
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = nil
		} else {
			out[i] = v
		}
	}
	return out
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "bad dataset name encoding"))
		return
	}

	var payload datasetPayload
	err = s.store.With(r.Context(), docID(r), func(d *document.Document) error {
		return d.Snapshot(func() error {
			info, err := d.Store().Info(name)
			if err != nil {
				return err
			}
			payload = datasetPayload{
				Name:      name,
				Kind:      info.Kind.String(),
				Derived:   info.Derived,
				Points:    info.Points,
				Tags:      info.Tags,
				EvalError: info.EvalErr,
			}
			if info.Def != nil {
				payload.Formulas = map[string]string{}
				for key, formula := range map[string]string{
					"data": info.Def.Data, "serr": info.Def.Serr,
					"perr": info.Def.Perr, "nerr": info.Def.Nerr,
				} {
					if formula != "" {
						payload.Formulas[key] = formula
					}
				}
			}
			switch info.Kind {
			case dataset.KindText:
				values, err := d.Store().Text(name)
				if err != nil {
					return err
				}
				payload.Values = values
			default:
				cols, err := d.Store().Columns(name)
				if err != nil {
					return err
				}
				payload.Data = jsonNumbers(cols.Data)
				payload.Serr = jsonNumbers(cols.Serr)
				payload.Perr = jsonNumbers(cols.Perr)
				payload.Nerr = jsonNumbers(cols.Nerr)
				payload.Points = cols.Len()
			}
			return nil
		})
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// ============================================================================
// Health
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}
