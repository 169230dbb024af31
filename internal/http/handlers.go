package http

import (
	"net/http"

	"github.com/google/uuid"

	"max.ks1230/budget-tracker/internal/model/customerr"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.ledger.GetSettings(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.ledger.UpdateCurrency(r.Context(), identityFrom(r.Context()), req.Currency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := parseOptionalKind(r.URL.Query().Get("type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cats, err := s.ledger.ListCategories(r.Context(), identityFrom(r.Context()), kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := parseKind(req.Type)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cat, err := s.ledger.CreateCategory(r.Context(), identityFrom(r.Context()), req.Name, req.Icon, kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	kind, err := parseKind(query.Get("type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := query.Get("name")
	if name == "" {
		s.writeError(w, r, customerr.Validation("name is required"))
		return
	}
	if err = s.ledger.DeleteCategory(r.Context(), identityFrom(r.Context()), name, kind); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	newTx, err := req.toNewTransaction()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.ledger.CreateTransaction(r.Context(), identityFrom(r.Context()), newTx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, customerr.Validation("invalid transaction id %q", r.PathValue("id")))
		return
	}
	if err = s.ledger.DeleteTransaction(r.Context(), identityFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query(), s.maxRangeDays)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	history, err := s.ledger.GetTransactionHistory(r.Context(), identityFrom(r.Context()), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleBalanceStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query(), s.maxRangeDays)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	balance, err := s.ledger.GetBalanceStats(r.Context(), identityFrom(r.Context()), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query(), s.maxRangeDays)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.ledger.GetCategoryStats(r.Context(), identityFrom(r.Context()), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistoryPeriods(w http.ResponseWriter, r *http.Request) {
	years, err := s.ledger.GetHistoryPeriods(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleHistoryData(w http.ResponseWriter, r *http.Request) {
	req, err := parseHistoryRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := identityFrom(r.Context())
	if req.TimeFrame == timeFrameYear {
		points, err := s.ledger.GetYearHistory(r.Context(), id, req.Year)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, points)
		return
	}

	points, err := s.ledger.GetMonthHistory(r.Context(), id, req.Year, req.Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}
