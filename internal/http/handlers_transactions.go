package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilterSpec(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.ledger.List(r.Context(), ownerOf(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(page).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)
	in.Notes = sanitizeInput(in.Notes)

	txn, err := s.ledger.Create(r.Context(), ownerOf(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+txn.ID).
		Data(txn).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := s.ledger.Get(r.Context(), ownerOf(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(txn).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var p core.TransactionPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.Description != nil {
		d := sanitizeInput(*p.Description)
		p.Description = &d
	}
	if p.Notes != nil {
		n := sanitizeInput(*p.Notes)
		p.Notes = &n
	}

	txn, err := s.ledger.Update(r.Context(), ownerOf(r), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(txn).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.Delete(r.Context(), ownerOf(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted via API",
		log.FieldOwnerID, ownerOf(r), log.FieldTransactionID, id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	dr, err := ParseDateRange(r.URL.Query(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.ledger.Summary(r.Context(), ownerOf(r), dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(sum).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context(), ownerOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	NewJSONResponse().Data(map[string]any{"data": cats}).Write(w)
}
