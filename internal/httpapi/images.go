package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mhpenta/mifoto"
)

// multipartOverhead leaves room for form boundaries and headers.
const multipartOverhead = 1 << 20

func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUploadBytes+multipartOverhead)

	file, header, err := req.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			r.writeError(w, err)
			return
		}
		badRequest(w, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, r.maxUploadBytes+1))
	if err != nil {
		r.writeError(w, err)
		return
	}
	if int64(len(data)) > r.maxUploadBytes {
		r.writeError(w, &http.MaxBytesError{Limit: r.maxUploadBytes})
		return
	}

	image := mifoto.InputImage{
		Data:     data,
		MIMEType: mifoto.DetectMIMEType(data, header.Header.Get("Content-Type")),
	}

	s := r.session(req)
	if err := s.Upload(header.Filename, image); err != nil {
		r.writeError(w, err)
		return
	}
	r.writeState(w, req, s)
}

func (r *Router) handleGenerate(w http.ResponseWriter, req *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		badRequest(w, "invalid json")
		return
	}
	s := r.session(req)
	if _, err := s.Generate(req.Context(), body.Instruction); err != nil {
		r.writeError(w, err)
		return
	}
	r.writeState(w, req, s)
}

func (r *Router) handleUpscale(w http.ResponseWriter, req *http.Request) {
	s := r.session(req)
	if _, err := s.Upscale(req.Context()); err != nil {
		r.writeError(w, err)
		return
	}
	r.writeState(w, req, s)
}
