package http

import (
	"net/http"
	"strings"

	"bills/internal/core"
	"bills/internal/log"
	"bills/internal/services"
)

type pageData struct {
	Theme   string
	Budget  string
	Today   string
	Table   tableData
	Summary summaryData
}

func newTableData(ov services.Overview, oob bool) tableData {
	return tableData{
		Rows:            newBillRows(ov.Bills, ov.Affordable.IDs),
		Categories:      ov.Categories,
		Category:        ov.Category,
		AffordableCount: ov.Affordable.IDs.Len(),
		AffordableTotal: core.FormatAmount(ov.Affordable.Total),
		Budget:          core.FormatAmount(ov.Summary.Budget),
		OOB:             oob,
	}
}

func categoryParam(r *http.Request) string {
	c := sanitizeInput(r.URL.Query().Get("category"))
	if strings.EqualFold(c, core.AllCategories) {
		return ""
	}
	return c
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ov, err := s.svc.Overview(r.Context(), categoryParam(r))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	s.metrics.observe(ov.Affordable)

	data := pageData{
		Theme:   string(ov.Theme),
		Budget:  ov.Summary.Budget.String(),
		Today:   s.now().Format(core.DateLayout),
		Table:   newTableData(ov, false),
		Summary: newSummaryData(ov.Summary, MonthParams{}),
	}
	s.render(w, r, "index.html", http.StatusOK, data)
}

// handleBillsPartial renders the table for the category filter. The filter
// options are swapped out of band so new categories show up.
func (s *Server) handleBillsPartial(w http.ResponseWriter, r *http.Request) {
	ov, err := s.svc.Overview(r.Context(), categoryParam(r))
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	s.metrics.observe(ov.Affordable)
	s.render(w, r, "bills_partial", http.StatusOK, newTableData(ov, true))
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseBillID(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	b, err := s.svc.GetBill(r.Context(), id)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, "edit_row", http.StatusOK, newBillRow(b, nil))
}

func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
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
	s.render(w, r, "summary", http.StatusOK, newSummaryData(sum, params))
}
