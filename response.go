package restful

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// HeaderSetter is optionally implemented by response values to set response headers.
type HeaderSetter interface {
	SetHeaders(h http.Header)
}

// Response lets a handler choose the status code and headers without
// implementing StatusCoder or HeaderSetter on its data.
type Response struct {
	Status int
	Header http.Header
	Data   any
}

// writeResponse renders resp and writes it. Rendering happens before the
// status line so that encoding failures can still produce a 500. Headers
// chosen by the handler are only applied to a successful response.
func (a *API) writeResponse(w http.ResponseWriter, r *http.Request, resp any) {
	status := http.StatusOK

	var extra http.Header
	if wrapped, ok := resp.(*Response); ok {
		extra = wrapped.Header
		if wrapped.Status != 0 {
			status = wrapped.Status
		}
		resp = wrapped.Data
		if resp == nil {
			if wrapped.Status == 0 {
				status = http.StatusNoContent
			}
			addHeaders(w.Header(), extra)
			w.WriteHeader(status)
			return
		}
	}

	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if sc, ok := resp.(StatusCoder); ok {
		status = sc.StatusCode()
	}

	accept := r.Header.Get("Accept")
	renderer, ok := a.renderers.Negotiate(accept)
	if !ok {
		a.writeError(w, r, httpError(http.StatusNotAcceptable, fmt.Errorf("%w: %s", ErrNotAcceptable, accept)))
		return
	}

	body, err := renderer.Render(resp)
	if err != nil {
		a.writeError(w, r, httpError(http.StatusInternalServerError,
			fmt.Errorf("%w: %s: %w", ErrRender, renderer.ContentType(), err)))
		return
	}

	addHeaders(w.Header(), extra)
	if hs, ok := resp.(HeaderSetter); ok {
		hs.SetHeaders(w.Header())
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort after WriteHeader
	w.Write(body)
}

func addHeaders(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

// writeError hands err to the custom error handler, or writes it as an
// RFC 9457 problem details response. Server errors are logged.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.LogAttrs(r.Context(), slog.LevelError, "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("err", err.Error()),
		)
	}

	if a.errorHandler != nil {
		a.errorHandler(w, r, err)
		return
	}
	writeProblem(w, err)
}

// writeProblem writes an error as an RFC 9457 problem details response.
// A problem without a usable status is sent as a 500.
func writeProblem(w http.ResponseWriter, err error) {
	status := ErrorStatus(err)

	var pd *ProblemDetail
	if !errors.As(err, &pd) {
		pd = &ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(status),
			Status: status,
			Detail: err.Error(),
		}
	} else if pd.Status < 100 || pd.Status > 999 {
		fixed := *pd
		fixed.Status = http.StatusInternalServerError
		pd = &fixed
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(pd.Status)
	//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(pd)
}
