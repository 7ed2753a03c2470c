package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ladderbot/src/model"
	"ladderbot/src/repository"

	logger "github.com/sirupsen/logrus"
)

type orderSearcher interface {
	Search(ctx context.Context, options repository.OrderSearchOptions) ([]model.Order, error)
}

// SearchOrdersHandler returns a handler that lists the pair's ledger orders.
// Supports pagination and filters (side, status, createdFrom, createdTo).
// status accepts a comma separated list; "open" expands to NEW and PARTIALLY_FILLED.
func SearchOrdersHandler(repo orderSearcher, pair string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var side *string
		if sideParam := r.URL.Query().Get("side"); sideParam != "" {
			normalized := model.NormalizeSide(sideParam)
			if normalized == "" {
				http.Error(w, "invalid side", http.StatusBadRequest)
				return
			}
			side = &normalized
		}

		var statuses []string
		if statusParam := r.URL.Query().Get("status"); statusParam != "" {
			for _, s := range strings.Split(statusParam, ",") {
				s = strings.ToUpper(strings.TrimSpace(s))
				switch s {
				case "OPEN":
					statuses = append(statuses, model.OpenStatuses...)
				case model.OrderStatusNew, model.OrderStatusPartiallyFilled, model.OrderStatusFilled, model.OrderStatusCanceled:
					statuses = append(statuses, s)
				default:
					http.Error(w, "invalid status", http.StatusBadRequest)
					return
				}
			}
		}

		var createdFrom, createdTo *time.Time
		if createdFromParam := r.URL.Query().Get("createdFrom"); createdFromParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdFromParam)
			if err != nil {
				http.Error(w, "invalid createdFrom", http.StatusBadRequest)
				return
			}
			createdFrom = &parsed
		}

		if createdToParam := r.URL.Query().Get("createdTo"); createdToParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdToParam)
			if err != nil {
				http.Error(w, "invalid createdTo", http.StatusBadRequest)
				return
			}
			createdTo = &parsed
		}

		page := 1
		if pageParam := r.URL.Query().Get("page"); pageParam != "" {
			parsedPage, err := strconv.Atoi(pageParam)
			if err != nil || parsedPage <= 0 {
				http.Error(w, "invalid page", http.StatusBadRequest)
				return
			}
			page = parsedPage
		}

		pageSize := 20
		if sizeParam := r.URL.Query().Get("pageSize"); sizeParam != "" {
			parsedSize, err := strconv.Atoi(sizeParam)
			if err != nil || parsedSize <= 0 || parsedSize > 500 {
				http.Error(w, "invalid pageSize", http.StatusBadRequest)
				return
			}
			pageSize = parsedSize
		}

		offset := (page - 1) * pageSize

		orders, err := repo.Search(r.Context(), repository.OrderSearchOptions{
			Pair:          pair,
			Side:          side,
			Statuses:      statuses,
			CreatedAfter:  createdFrom,
			CreatedBefore: createdTo,
			Limit:         pageSize,
			Offset:        offset,
		})
		if err != nil {
			logger.WithError(err).Error("failed to search orders")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, orders)
	}
}

// DefaultSearchOrdersHandler wires the handler to the production repository implementation.
func DefaultSearchOrdersHandler(pair string) http.HandlerFunc {
	return SearchOrdersHandler(repository.NewOrderRepository(), pair)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
