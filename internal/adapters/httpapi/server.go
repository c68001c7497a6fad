package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BennettSmith/insurance-intake-api/internal/app/applications"
	"github.com/BennettSmith/insurance-intake-api/internal/domain"
	"github.com/BennettSmith/insurance-intake-api/internal/ports/out/idempotency"
)

const maxBodyBytes = 1 << 20

// ApplicationService is the subset of the application service the handlers call.
type ApplicationService interface {
	Create(ctx context.Context, in applications.Payload) (applications.CreateResult, error)
	Get(ctx context.Context, id string) (domain.Application, error)
	SaveDraft(ctx context.Context, id string, in applications.Payload) (domain.Application, error)
	Submit(ctx context.Context, id string, in applications.Payload) (applications.SubmitResult, error)
	Delete(ctx context.Context, id string) (string, error)
}

// Server holds the HTTP handlers for the applications resource.
type Server struct {
	Applications ApplicationService
	Idem         idempotency.Store
	Logger       *slog.Logger
}

func NewServer(svc ApplicationService, idem idempotency.Store, logger *slog.Logger) *Server {
	return &Server{
		Applications: svc,
		Idem:         idem,
		Logger:       logger,
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Server) CreateApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := s.decodeBody(w, r, true)
	if !ok {
		return
	}
	in, shapeErrs := applications.CreatePayload(body)
	if len(shapeErrs) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, applications.CodeValidation, "Invalid inputs passed, please check your data.", nil, shapeErrs)
		return
	}

	// Idempotency handling:
	// - Replay if same key+route+bodyHash
	// - Reject if same key+route with different bodyHash (409)
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	var respFP idempotency.Fingerprint
	if s.Idem != nil && idemKey != "" {
		bodyHash, err := hashBody(body)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		metaFP := idempotency.Fingerprint{
			Key:      idempotency.Key(idemKey),
			Method:   http.MethodPost,
			Route:    "/applications",
			BodyHash: "",
		}
		if meta, ok, err := s.Idem.Get(ctx, metaFP); err != nil {
			s.writeServiceError(w, r, err)
			return
		} else if ok {
			if string(meta.Body) != bodyHash {
				writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil, nil)
				return
			}
		} else {
			_ = s.Idem.Put(ctx, metaFP, idempotency.Record{
				StatusCode:  0,
				ContentType: "text/plain",
				Body:        []byte(bodyHash),
				CreatedAt:   time.Now().UTC(),
			})
		}

		respFP = metaFP
		respFP.BodyHash = bodyHash
		if rec, ok, err := s.Idem.Get(ctx, respFP); err != nil {
			s.writeServiceError(w, r, err)
			return
		} else if ok && rec.StatusCode == http.StatusCreated && strings.HasPrefix(rec.ContentType, "application/json") {
			w.Header().Set("Content-Type", rec.ContentType)
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			return
		}
	}

	res, err := s.Applications.Create(ctx, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := createApplicationResponse{
		Message:     res.Message,
		Application: applicationFromDomain(res.Application),
		ResumeRoute: res.ResumeRoute,
	}

	// Store successful response for replay.
	if s.Idem != nil && idemKey != "" {
		if b, err := json.Marshal(resp); err == nil {
			_ = s.Idem.Put(ctx, respFP, idempotency.Record{
				StatusCode:  http.StatusCreated,
				ContentType: "application/json",
				Body:        append(b, '\n'),
				CreatedAt:   time.Now().UTC(),
			})
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.Applications.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, applicationFromDomain(app))
}

func (s *Server) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeDraftPayload(w, r)
	if !ok {
		return
	}
	app, err := s.Applications.SaveDraft(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, applicationFromDomain(app))
}

func (s *Server) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeDraftPayload(w, r)
	if !ok {
		return
	}
	res, err := s.Applications.Submit(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitApplicationResponse{
		Message:          res.Message,
		Application:      applicationFromDomain(res.Application),
		ValidationNumber: res.QuoteNumber,
	})
}

func (s *Server) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	msg, err := s.Applications.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) decodeDraftPayload(w http.ResponseWriter, r *http.Request) (applications.Payload, bool) {
	body, ok := s.decodeBody(w, r, false)
	if !ok {
		return applications.Payload{}, false
	}
	in, shapeErrs := applications.DraftPayload(body)
	if len(shapeErrs) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, applications.CodeValidation, "Invalid inputs passed, please check your data.", nil, shapeErrs)
		return applications.Payload{}, false
	}
	return in, true
}

// decodeBody reads a JSON object. An empty body is accepted only when allowEmpty is set.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, allowEmpty bool) (map[string]any, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil, nil)
			return nil, false
		}
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "could not read request body", nil, nil)
		return nil, false
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if allowEmpty {
			return map[string]any{}, true
		}
		writeError(w, r, http.StatusUnprocessableEntity, applications.CodeValidation, "missing request body", nil, nil)
		return nil, false
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "request body must be a JSON object", nil, nil)
		return nil, false
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, true
}

// hashBody fingerprints a decoded body. encoding/json sorts map keys, so
// semantically equal objects hash the same regardless of field order.
func hashBody(body map[string]any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
