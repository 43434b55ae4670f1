package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sheetbridge/sheetbridge/internal/audit"
	"github.com/sheetbridge/sheetbridge/internal/logging"
	"github.com/sheetbridge/sheetbridge/internal/profile"
	"github.com/sheetbridge/sheetbridge/internal/tabular"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// profileInfo is the listing shape for one profile.
type profileInfo struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Columns []string `json:"columns"`
}

// convertResponse carries the validated records of a parse call.
type convertResponse struct {
	Profile string            `json:"profile"`
	Rows    int               `json:"rows"`
	Records []*tabular.Record `json:"records"`
}

// generateRequest is the JSON body for the generate endpoint.
type generateRequest struct {
	Records []*tabular.Record `json:"records"`
}

// handleListProfiles returns all registered conversion profiles.
func (s *Server) handleListProfiles(w http.ResponseWriter, _ *http.Request) {
	all := profile.All()
	infos := make([]profileInfo, len(all))
	for i, p := range all {
		infos[i] = profileInfo{Key: p.Key, Label: p.Label, Columns: p.Headers()}
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleConvert parses an uploaded spreadsheet against a profile and returns
// the validated records as JSON.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	p, ok := profile.Get(chi.URLParam(r, "profileKey"))
	if !ok {
		s.badRequest(w, r, "unknown profile")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		s.badRequest(w, r, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, r, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	reader, err := tabular.NewReader(s.codec, p.Mappings, p.Schema, logging.FromContext(r.Context()))
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	start := time.Now()
	records, err := reader.Parse(data)
	s.record(r, audit.Entry{
		ProfileKey: p.Key,
		FileName:   header.Filename,
		Direction:  audit.DirectionParse,
		Rows:       len(records),
		Succeeded:  err == nil,
		Detail:     errDetail(err),
		Duration:   time.Since(start),
	})
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		Profile: p.Key,
		Rows:    len(records),
		Records: records,
	})
}

// handleGenerate serializes posted records to an XLSX or CSV download using
// the profile's writer defaults. The format query parameter selects the
// output: "xlsx" (default) or "csv".
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	p, ok := profile.Get(chi.URLParam(r, "profileKey"))
	if !ok {
		s.badRequest(w, r, "unknown profile")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, r, "invalid request body")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}

	writer := tabular.NewWriter(s.codec)
	start := time.Now()

	switch format {
	case "csv":
		text, err := writer.WriteCSV(req.Records, p.Options)
		s.recordGenerate(r, p.Key, len(req.Records), err, start)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Key+".csv"))
		w.Write([]byte(text))

	case "xlsx":
		data, err := writer.WriteXLSX(req.Records, p.Options)
		s.recordGenerate(r, p.Key, len(req.Records), err, start)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Key+".xlsx"))
		w.Write(data)

	default:
		s.badRequest(w, r, "unknown format: "+format)
	}
}

// handleDownloadTemplate produces an empty workbook with the profile's
// column headers, for users filling in data by hand.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	p, ok := profile.Get(chi.URLParam(r, "profileKey"))
	if !ok {
		s.badRequest(w, r, "unknown profile")
		return
	}

	data, err := s.codec.Encode(p.Options.SheetName, p.Headers(), nil)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Key+"-template.xlsx"))
	w.Write(data)
}

// record writes an audit entry; audit failures never fail the request.
func (s *Server) record(r *http.Request, e audit.Entry) {
	if err := s.recorder.Record(r.Context(), e); err != nil {
		logging.FromContext(r.Context()).Warn("audit record failed", "error", err)
	}
}

func (s *Server) recordGenerate(r *http.Request, key string, rows int, err error, start time.Time) {
	s.record(r, audit.Entry{
		ProfileKey: key,
		Direction:  audit.DirectionGenerate,
		Rows:       rows,
		Succeeded:  err == nil,
		Detail:     errDetail(err),
		Duration:   time.Since(start),
	})
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
