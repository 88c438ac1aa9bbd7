package api

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/okian/turnover/internal/adapters/csvtable"
	"github.com/okian/turnover/internal/domain/fusion"
	"github.com/okian/turnover/internal/domain/types"
)

// Multipart field names of the three extracts.
const (
	FieldSurveyFile     = "sondage_file"
	FieldEvaluationFile = "eval_file"
	FieldHRFile         = "sirh_file"
)

// BatchDependencies defines the batch scoring operation.
type BatchDependencies interface {
	PredictBatch(ctx context.Context, requestID string, survey, eval, hr *fusion.Table) (types.BatchPrediction, error)
}

// BatchHandler handles CSV uploads.
type BatchHandler struct {
	deps           BatchDependencies
	maxUploadBytes int64
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps BatchDependencies, maxUploadBytes int64) *BatchHandler {
	return &BatchHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// HandleBatch handles POST /predict/batch. The optional "delimiter" form
// value sets the CSV separator of all three files.
func (h *BatchHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_batch"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("invalid multipart upload: %w", err)))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var opts []csvtable.Option
	if d := r.FormValue("delimiter"); d != "" {
		c, size := utf8.DecodeRuneInString(d)
		if size != len(d) || c == utf8.RuneError || c == '"' || c == '\r' || c == '\n' {
			writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("invalid delimiter %q", d)))
			return
		}
		opts = append(opts, csvtable.WithComma(c))
	}

	fields := [3]struct{ form, source string }{
		{FieldSurveyFile, fusion.SourceSurvey},
		{FieldEvaluationFile, fusion.SourceEvaluation},
		{FieldHRFile, fusion.SourceHR},
	}
	var headers [3]*multipart.FileHeader
	for i, f := range fields {
		fhs := r.MultipartForm.File[f.form]
		if len(fhs) == 0 {
			writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("missing file %s", f.form)))
			return
		}
		headers[i] = fhs[0]
	}

	var tables [3]*fusion.Table
	var g errgroup.Group
	for i := range fields {
		g.Go(func() error {
			t, err := readUpload(headers[i], fields[i].source, opts...)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}

	out, err := h.deps.PredictBatch(r.Context(), RequestIDFrom(r.Context()), tables[0], tables[1], tables[2])
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func readUpload(fh *multipart.FileHeader, source string, opts ...csvtable.Option) (*fusion.Table, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s upload: %w", source, err)
	}
	defer f.Close()
	t, err := csvtable.Read(f, source, opts...)
	if err != nil {
		if errors.Is(err, csvtable.ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("read %s upload: %w", source, err)
	}
	return t, nil
}
