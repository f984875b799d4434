package http

import (
	"fmt"
	"html/template"
	"net/http"

	"bills/internal/core"
	"bills/internal/log"
)

// decodeBill parses and validates a bill payload.
func (s *Server) decodeBill(w http.ResponseWriter, r *http.Request, id int64) (core.Bill, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return core.Bill{}, errMalformedRequest
	}
	form := parseBillForm(p)
	if err := s.validator.Struct(form); err != nil {
		return core.Bill{}, err
	}
	return form.toBill(id)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	b, err := s.decodeBill(w, r, 0)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	created, err := s.svc.CreateBill(r.Context(), b)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	if wantsJSON(r) {
		JSONResponse(w, http.StatusCreated, newBillRow(created, nil))
		return
	}
	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerBillCreated(created.ID).
		TriggerFormReset().
		BodyHTML(successMessage("Bill saved", created)).
		Write(w)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id, err := parseBillID(r)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	b, err := s.decodeBill(w, r, id)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	if err := s.svc.UpdateBill(r.Context(), b); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	if wantsJSON(r) {
		JSONResponse(w, http.StatusOK, newBillRow(b, nil))
		return
	}
	NewHTMXResponse().
		TriggerBillUpdated(id).
		BodyHTML(successMessage("Bill updated", b)).
		Write(w)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := parseBillID(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.DeleteBill(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}

	if wantsJSON(r) {
		JSONResponse(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
		return
	}
	// Empty body: the row is swapped out.
	NewHTMXResponse().
		TriggerBillDeleted(id).
		Header("Content-Type", "text/html; charset=utf-8").
		Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, log.OpUpdate, errMalformedRequest)
		return
	}
	form := budgetForm{Budget: p.Get("budget")}
	if err := s.validator.Struct(form); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	budget, err := s.svc.SetBudget(r.Context(), form.Budget)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	if wantsJSON(r) {
		JSONResponse(w, http.StatusOK, map[string]string{"budget": budget.String()})
		return
	}
	NewHTMXResponse().
		TriggerBudgetChanged(budget.String()).
		BodyHTML(`<div class="success">Budget set to ` + template.HTMLEscapeString(core.FormatAmount(budget)) + `</div>`).
		Write(w)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, log.OpUpdate, errMalformedRequest)
		return
	}
	form := themeForm{Theme: p.Get("theme")}
	if err := s.validator.Struct(form); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	theme, err := s.svc.SetTheme(r.Context(), form.Theme)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	if wantsJSON(r) {
		JSONResponse(w, http.StatusOK, map[string]string{"theme": string(theme)})
		return
	}
	NewHTMXResponse().
		TriggerThemeChanged(string(theme)).
		Status(http.StatusNoContent).
		Write(w)
}

func successMessage(prefix string, b core.Bill) string {
	amount := b.Amount
	if a := b.ParsedAmount(); a.Valid {
		amount = core.FormatAmount(a.Value)
	}
	return fmt.Sprintf(`<div class="success">%s: %s (%s) %s, due %s</div>`,
		template.HTMLEscapeString(prefix),
		template.HTMLEscapeString(b.Description),
		template.HTMLEscapeString(b.Category),
		template.HTMLEscapeString(amount),
		template.HTMLEscapeString(b.Date.Display()))
}
