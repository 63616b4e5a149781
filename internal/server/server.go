package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kiesman99/heattile/internal/api"
	"github.com/kiesman99/heattile/internal/encode"
	"github.com/kiesman99/heattile/internal/heatmap"
	"github.com/kiesman99/heattile/internal/logging"
	"github.com/kiesman99/heattile/internal/metrics"
	"github.com/kiesman99/heattile/pkg/tile"
)

// Server implements api.ServerInterface on top of a bitmap producer
type Server struct {
	producer heatmap.Producer
}

var _ api.ServerInterface = (*Server)(nil)

// NewServer creates a server. The producer must be ready to use; the server
// neither initialises nor closes it.
func NewServer(producer heatmap.Producer) *Server {
	return &Server{producer: producer}
}

// GetHeatmapTile validates the tile address, renders the bitmap and answers
// with a PNG. It only ever answers 200, 400 or 500.
func (s *Server) GetHeatmapTile(w http.ResponseWriter, r *http.Request, z string, x string, y string) {
	addr, err := tile.ParseAddress(z, x, y)
	if err != nil {
		s.writeBadRequest(w)
		return
	}

	start := time.Now()
	bitmap, err := s.producer.BitmapForTile(r.Context(), addr)
	elapsed := time.Since(start)
	metrics.ObserveProduction(elapsed)
	logging.Ctx(r.Context()).Debug().
		Stringer("tile", addr).
		Dur("duration", elapsed).
		Msg("time spent for tile")
	if err != nil {
		s.handleTileError(w, r, addr, err)
		return
	}

	png, err := encode.PNG(bitmap)
	if err != nil {
		s.handleTileError(w, r, addr, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	metrics.RecordTileRequest(http.StatusOK)

	if _, err := w.Write(png); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("error writing tile response")
	}
}

// BindError is the api.ChiServerOptions error handler; path parameters that
// cannot even be extracted are malformed coordinates too.
func (s *Server) BindError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeBadRequest(w)
}

func (s *Server) writeBadRequest(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
	metrics.RecordTileRequest(http.StatusBadRequest)
}

// handleTileError answers 500 with the error text as the body
func (s *Server) handleTileError(w http.ResponseWriter, r *http.Request, addr tile.Address, err error) {
	event := logging.Ctx(r.Context()).Warn()
	if errors.Is(err, tile.ErrOutOfRange) {
		event = logging.Ctx(r.Context()).Debug()
	}
	event.Err(err).Stringer("tile", addr).Msg("tile request failed")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	metrics.RecordTileRequest(http.StatusInternalServerError)

	if _, werr := w.Write([]byte(err.Error())); werr != nil {
		logging.Ctx(r.Context()).Debug().Err(werr).Msg("error writing error response")
	}
}
