package server

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/diagramkit/pkg/buildinfo"
	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/lang"
	"github.com/matzehuels/diagramkit/pkg/packet"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
	"github.com/matzehuels/diagramkit/pkg/render/packetsvg"
	"github.com/matzehuels/diagramkit/pkg/render/shapes"
	"github.com/matzehuels/diagramkit/pkg/store"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

// packetRequest is the body of the packet endpoints.
type packetRequest struct {
	Source     string            `json:"source"`
	Name       string            `json:"name,omitempty"`
	BitsPerRow int               `json:"bits_per_row,omitempty"`
	Packet     *packetsvg.Config `json:"packet,omitempty"`
	Refresh    bool              `json:"refresh,omitempty"`
}

func (p packetRequest) options(format string) pipeline.Options {
	return pipeline.Options{
		Source:     p.Source,
		Name:       p.Name,
		BitsPerRow: p.BitsPerRow,
		Packet:     p.Packet,
		Refresh:    p.Refresh,
		Format:     format,
	}
}

type parseResponse struct {
	Diagram     *packet.Diagram   `json:"diagram"`
	SourceHash  string            `json:"source_hash"`
	Cached      bool              `json:"cached"`
	Diagnostics []lang.Diagnostic `json:"diagnostics"`
}

func (s *Server) handlePacketParse(w http.ResponseWriter, r *http.Request) {
	var req packetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := req.options(pipeline.FormatJSON)
	d, hit, err := s.runner.ParseWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeParseError(w, r, req.Source, err)
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{
		Diagram:     d,
		SourceHash:  cache.Hash([]byte(req.Source)),
		Cached:      hit,
		Diagnostics: []lang.Diagnostic{},
	})
}

func (s *Server) handlePacketRender(w http.ResponseWriter, r *http.Request) {
	var req packetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), req.options(r.URL.Query().Get("format")))
	if err != nil {
		s.writeParseError(w, r, req.Source, err)
		return
	}
	writeArtifact(w, res.Format, res.CacheInfo.RenderHit, res.Artifact)
}

// writeParseError attaches positioned diagnostics to syntax errors.
func (s *Server) writeParseError(w http.ResponseWriter, r *http.Request, src string, err error) {
	if errors.Is(err, errors.ErrCodeParse) {
		s.writeErrorWithDiagnostics(w, r, err, pipeline.Diagnostics(s.runner.Services.Packet, src))
		return
	}
	s.writeError(w, r, err)
}

func (s *Server) handleShape(w http.ResponseWriter, r *http.Request) {
	var node shapes.Node
	if err := decodeJSON(r, &node); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.ShapeOptions{
		Node:   node,
		Kind:   chi.URLParam(r, "kind"),
		Format: r.URL.Query().Get("format"),
	}
	data, hit, err := s.runner.RenderShapeWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Format
	if format == "" {
		format = pipeline.FormatSVG
	}
	writeArtifact(w, format, hit, data)
}

type saveRequest struct {
	Language string `json:"language,omitempty"`
	Name     string `json:"name,omitempty"`
	Source   string `json:"source"`
	// TTL in seconds; zero uses store.DefaultTTL, negative never expires
	TTL int64 `json:"ttl,omitempty"`
}

func (s *Server) handleSaveDiagram(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.Name != "" {
		if err := errors.ValidatePath(req.Name); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	// Only valid diagrams are stored
	opts := pipeline.Options{Language: req.Language, Source: req.Source, Name: req.Name}
	if _, err := s.runner.Parse(r.Context(), opts); err != nil {
		s.writeParseError(w, r, req.Source, err)
		return
	}
	if req.Language == "" {
		req.Language = pipeline.DefaultLanguage
	}

	ttl := store.DefaultTTL
	switch {
	case req.TTL > 0:
		ttl = time.Duration(req.TTL) * time.Second
	case req.TTL < 0:
		ttl = 0
	}
	d := store.New(req.Language, req.Name, req.Source, ttl)
	d.SourceHash = cache.Hash([]byte(req.Source))

	if err := s.store.Put(r.Context(), d); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeUnavailable, err, "save diagram"))
		return
	}
	w.Header().Set("Location", "/v1/diagrams/"+d.ID)
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) loadDiagram(r *http.Request) (*store.Diagram, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDiagramID(id); err != nil {
		return nil, err
	}
	d, err := s.store.Get(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeDiagramNotFound, "diagram %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "load diagram")
	}
	return d, nil
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDiagram(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRenderDiagram(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDiagram(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), pipeline.Options{
		Language: d.Language,
		Source:   d.Source,
		Name:     d.Name,
		Format:   pipeline.FormatSVG,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeArtifact(w, res.Format, res.CacheInfo.RenderHit, res.Artifact)
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDiagramID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeUnavailable, err, "delete diagram"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
