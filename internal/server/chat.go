package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leofalp/chatgate/core/gateway"
	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/observability"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	vendor, ok := routeVendor(r.PathValue("provider"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown provider " + r.PathValue("provider")})
		return
	}

	var request gateway.Request
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := decoder.Decode(&request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"message": "request body too large"})
			return
		}
		// Message decoding reports its own kinds (e.g. UnsupportedRole).
		if _, typed := ai.AsError(err); !typed {
			err = ai.WrapError(ai.KindMalformedMessage, err, "invalid request body")
		}
		writeError(w, err)
		return
	}
	request.Vendor = vendor

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	sink := newStreamWriter(w)
	outcome, err := s.runner.Run(ctx, request, sink)
	if err != nil {
		if sink.committed() {
			// Status and part of the body are already on the wire.
			s.warn(ctx, "chat stream ended with error", vendor, err)
			return
		}
		s.warn(ctx, "chat request failed", vendor, err)
		writeError(w, err)
		return
	}

	if outcome != nil && !outcome.Streamed {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(outcome.Direct))
		return
	}
	sink.commit()
}

// routeVendor maps the {provider} path segment to a vendor.
func routeVendor(segment string) (ai.Vendor, bool) {
	if segment == toolsRoute {
		return ai.VendorOpenAI, true
	}
	return ai.ParseVendor(segment)
}

func (s *Server) warn(ctx context.Context, msg string, vendor ai.Vendor, err error) {
	if s.observer == nil {
		return
	}
	s.observer.Warn(ctx, msg,
		observability.String(observability.AttrLLMProvider, string(vendor)),
		observability.String(observability.AttrErrorKind, string(ai.KindOf(err))),
		observability.Int(observability.AttrHTTPStatusCode, ai.HTTPStatus(err)),
		observability.Error(err),
	)
}
