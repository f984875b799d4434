package http

import (
	"net/http"
	"strings"

	"bills/internal/core"
	"bills/internal/log"

	"github.com/shopspring/decimal"
)

type billsJSON struct {
	Bills      []billRow `json:"bills"`
	Categories []string  `json:"categories"`
	Category   string    `json:"category,omitempty"`
	Budget     string    `json:"budget"`
}

type affordableJSON struct {
	Budget      string    `json:"budget"`
	Total       string    `json:"total"`
	Unparseable int       `json:"unparseable"`
	IDs         []int64   `json:"ids"`
	Bills       []billRow `json:"bills"`
}

func (s *Server) handleAPIBills(w http.ResponseWriter, r *http.Request) {
	ov, err := s.svc.Overview(r.Context(), categoryParam(r))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	s.metrics.observe(ov.Affordable)
	JSONResponse(w, http.StatusOK, billsJSON{
		Bills:      newBillRows(ov.Bills, ov.Affordable.IDs),
		Categories: ov.Categories,
		Category:   ov.Category,
		Budget:     ov.Summary.Budget.String(),
	})
}

// handleAPIAffordable runs the budget fit against ?budget= or the stored
// budget.
func (s *Server) handleAPIAffordable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		budget decimal.Decimal
		err    error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("budget")); raw != "" {
		if budget, err = core.ParseBudget(raw); err != nil {
			s.writeError(w, r, log.OpRead, err)
			return
		}
	} else if budget, err = s.svc.Budget(ctx); err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}

	sel, bills, err := s.svc.Affordable(ctx, &budget)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	s.metrics.observe(sel)

	selected := make([]billRow, 0, sel.IDs.Len())
	for _, b := range bills {
		if sel.IDs.Has(b.ID) {
			selected = append(selected, newBillRow(b, sel.IDs))
		}
	}
	JSONResponse(w, http.StatusOK, affordableJSON{
		Budget:      budget.String(),
		Total:       sel.Total.String(),
		Unparseable: sel.Unparseable,
		IDs:         sel.IDs.Sorted(),
		Bills:       selected,
	})
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	sum, err := s.svc.Summary(r.Context(), params.Year, params.Month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	JSONResponse(w, http.StatusOK, newSummaryJSON(sum, params))
}
