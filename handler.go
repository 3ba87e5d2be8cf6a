package restful

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// Request is the parsed request handed to a Handler.
type Request struct {
	*http.Request

	// ContentType is the media type the body was parsed as, without
	// parameters. Empty when there was no body.
	ContentType string
	// Raw is the unparsed body.
	Raw []byte
	// Body is the parser's output, or nil when there was no body.
	Body any
}

// Handler handles a parsed request. The returned value is rendered with the
// renderer negotiated from the Accept header; a nil value yields 204 No
// Content.
type Handler func(ctx context.Context, req *Request) (any, error)

func (a *API) dispatch(h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := a.decodeRequest(w, r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		resp, err := h(r.Context(), req)
		if err != nil {
			a.writeError(w, r, timeoutError(r.Context(), err))
			return
		}

		a.writeResponse(w, r, resp)
	})
}

// decodeRequest reads the body and runs the parser registered for its
// content type.
func (a *API) decodeRequest(w http.ResponseWriter, r *http.Request) (*Request, error) {
	req := &Request{Request: r}
	if r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}

	body := r.Body
	if a.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, httpError(http.StatusRequestEntityTooLarge, fmt.Errorf("%w: body exceeds %d bytes", ErrReadBody, tooLarge.Limit))
		}
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("%w: %w", ErrReadBody, err))
	}
	if len(raw) == 0 {
		return req, nil
	}
	req.Raw = raw

	mediaType := a.defaultContentType
	if header := r.Header.Get("Content-Type"); header != "" {
		mediaType, _, err = mime.ParseMediaType(header)
		if err != nil {
			return nil, httpError(http.StatusUnsupportedMediaType, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, header))
		}
	}

	parse, ok := a.parsers.Parser(mediaType)
	if !ok {
		return nil, httpError(http.StatusUnsupportedMediaType, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType))
	}

	v, err := parse(raw)
	if err != nil {
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("%w: %s: %w", ErrParse, mediaType, err))
	}

	req.ContentType = mediaType
	req.Body = v
	return req, nil
}

func httpError(status int, err error) error {
	return &HTTPError{Status: status, Message: err.Error(), Err: err}
}
