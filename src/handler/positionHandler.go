package handler

import (
	"context"
	"net/http"

	"ladderbot/src/controller"
	"ladderbot/src/model"
	"ladderbot/src/repository"

	logger "github.com/sirupsen/logrus"
)

type positionReader interface {
	GetPosition(ctx context.Context, pair string) (*model.Position, error)
	GetCapital(ctx context.Context, pair string) (*model.Capital, error)
}

type reporter interface {
	Report(ctx context.Context) (controller.Snapshot, error)
}

// PositionResponse is the body of GET /position. Missing rows are reported as zero values.
type PositionResponse struct {
	Position model.Position `json:"position"`
	Capital  model.Capital  `json:"capital"`
}

// PositionHandler returns the derived position and capital rows for the pair.
func PositionHandler(repo positionReader, pair string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := PositionResponse{
			Position: model.Position{Pair: pair},
			Capital:  model.Capital{Pair: pair},
		}

		pos, err := repo.GetPosition(r.Context(), pair)
		if err != nil {
			logger.WithError(err).Error("failed to load position")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if pos != nil {
			resp.Position = *pos
		}

		capital, err := repo.GetCapital(r.Context(), pair)
		if err != nil {
			logger.WithError(err).Error("failed to load capital")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if capital != nil {
			resp.Capital = *capital
		}

		writeJSON(w, resp)
	}
}

// DefaultPositionHandler wires the handler to the production repository implementation.
func DefaultPositionHandler(pair string) http.HandlerFunc {
	return PositionHandler(repository.NewPositionRepository(), pair)
}

// StatusHandler serves the equity snapshot.
func StatusHandler(rep reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := rep.Report(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to build status snapshot")
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
			return
		}
		writeJSON(w, snap)
	}
}
