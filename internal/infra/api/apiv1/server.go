package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cgn-operator-search/internal/domain"
	"cgn-operator-search/internal/infra/logging"
	"cgn-operator-search/internal/usecase"
)

const BucketCodePath = "/api/v1/cgn/operator-search/discount-bucket-code/{discountId}"

type BucketCode struct {
	Code string `json:"code"`
}

type Problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Status int    `json:"status"`
}

type Server struct {
	uc  usecase.BucketCodeUseCase
	log *zerolog.Logger
}

func NewServer(uc usecase.BucketCodeUseCase, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{uc: uc, log: logger}
}

func RegisterAPIV1(r chi.Router, s *Server) {
	r.Get(BucketCodePath, s.GetDiscountBucketCode)
}

// GetDiscountBucketCode hands out one unused code of the discount.
func (s *Server) GetDiscountBucketCode(w http.ResponseWriter, r *http.Request) {
	discountID := strings.TrimSpace(chi.URLParam(r, "discountId"))
	if discountID == "" {
		WriteProblem(w, http.StatusBadRequest, "Invalid discountId", "discountId is required")
		return
	}
	ctx := logging.WithDiscountID(r.Context(), discountID)

	code, err := s.uc.Allocate(ctx, discountID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, BucketCode{Code: code})
	case errors.Is(err, domain.ErrInvalidArgument):
		WriteProblem(w, http.StatusBadRequest, "Invalid discountId", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteProblem(w, http.StatusNotFound, "Not Found", "Cannot find bucket code")
	default:
		logging.With(ctx, s.log).Error().Err(err).Msg("allocate bucket code")
		WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

// WriteProblem renders an application/problem+json body.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{Title: title, Detail: detail, Status: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
