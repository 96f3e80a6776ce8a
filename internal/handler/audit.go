package handler

import "net/http"

// ListAuditLogs handles GET /audit-logs (admin only).
// userId narrows the log to one user's events.
func (s *Server) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	p, err := pagination(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	userID, err := queryUUID(r, "userId")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	entries, total, err := s.audit.List(r.Context(), userID, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := make([]AuditEntry, 0, len(entries))
	for _, e := range entries {
		data = append(data, auditToResponse(e))
	}
	writeJSON(w, http.StatusOK, AuditList{
		Data:       data,
		Pagination: paginationOf(p, total),
	})
}
