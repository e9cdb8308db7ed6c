package http

import (
	"net/http"

	"fintrack/internal/csvimport"
)

const maxImportBytes = 10 << 20 // 10 MiB

type importRowResponse struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
}

type importErrorResponse struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type importPreviewResponse struct {
	Headers   []string              `json:"headers"`
	Rows      []importRowResponse   `json:"rows"`
	RowErrors []importErrorResponse `json:"row_errors"`
	TotalRows int                   `json:"total_rows"`
}

type importCommitResponse struct {
	Imported  int                   `json:"imported"`
	RowErrors []importErrorResponse `json:"row_errors"`
}

// importForm pulls the upload and column mapping out of a multipart request.
func importForm(w http.ResponseWriter, r *http.Request) (filename string, mapping csvimport.ColumnMapping, ok bool) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		badRequest(w, "invalid multipart form: "+err.Error())
		return "", csvimport.ColumnMapping{}, false
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file upload")
		return "", csvimport.ColumnMapping{}, false
	}
	mapping = csvimport.ColumnMapping{
		Date:        r.FormValue("date_column"),
		Description: r.FormValue("description_column"),
		Amount:      r.FormValue("amount_column"),
		Type:        r.FormValue("type_column"),
	}
	return header.Filename, mapping, true
}

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	filename, mapping, ok := importForm(w, r)
	if !ok {
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file upload")
		return
	}
	defer file.Close()

	preview, err := s.imports.Preview(filename, file, mapping)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := importPreviewResponse{
		Headers:   preview.Headers,
		TotalRows: preview.TotalRows,
		Rows:      make([]importRowResponse, 0, len(preview.Rows)),
		RowErrors: toImportErrors(preview.RowErrors),
	}
	for _, row := range preview.Rows {
		out.Rows = append(out.Rows, importRowResponse{
			Date:        row.Date.Format("2006-01-02"),
			Description: row.Description,
			AmountCents: row.Amount.Cents,
			Type:        string(row.Type),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImportCommit(w http.ResponseWriter, r *http.Request) {
	filename, mapping, ok := importForm(w, r)
	if !ok {
		return
	}
	accountID := r.FormValue("account_id")
	if accountID == "" {
		badRequest(w, "missing account_id")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file upload")
		return
	}
	defer file.Close()

	result, err := s.imports.Commit(r.Context(), filename, file, mapping, accountID, r.FormValue("currency"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.reports.Invalidate()

	writeJSON(w, http.StatusOK, importCommitResponse{
		Imported:  result.Imported,
		RowErrors: toImportErrors(result.RowErrors),
	})
}

func toImportErrors(rowErrs []*csvimport.RowError) []importErrorResponse {
	out := make([]importErrorResponse, 0, len(rowErrs))
	for _, e := range rowErrs {
		out = append(out, importErrorResponse{Row: e.Row, Error: e.Err.Error()})
	}
	return out
}
