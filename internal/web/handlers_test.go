package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sheetbridge/sheetbridge/internal/audit"
	"github.com/sheetbridge/sheetbridge/internal/config"
	"github.com/sheetbridge/sheetbridge/internal/profile"
	"github.com/sheetbridge/sheetbridge/internal/sheetio"
	"github.com/sheetbridge/sheetbridge/internal/tabular"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 10 * time.Second,
		},
		Upload: config.UploadConfig{MaxFileSize: 1 << 20},
	}
}

// registerTestProfile registers the shared test profile once per test
// binary; the registry is process-wide.
func registerTestProfile(t *testing.T) {
	t.Helper()
	if _, ok := profile.Get("people"); ok {
		return
	}
	err := profile.Register(&profile.Profile{
		Key:   "people",
		Label: "People",
		Mappings: []tabular.ColumnMapping{
			{Header: "Name", Field: "name"},
			{Header: "Price", Field: "price"},
		},
		Schema: tabular.MustSchema(
			tabular.FieldSpec{Name: "name", Kind: tabular.KindString},
			tabular.FieldSpec{Name: "price", Kind: tabular.KindNumber},
		),
		Options: tabular.WriteOptions{
			SheetName:     "People",
			HeaderMapping: map[string]string{"name": "Name", "price": "Price"},
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registerTestProfile(t)
	return NewServer(testConfig(), sheetio.New(), audit.Nop{})
}

func uploadRequest(t *testing.T, url string, payload []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "people.xlsx")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func encodeSheet(t *testing.T, headers []string, rows [][]any) []byte {
	t.Helper()
	data, err := sheetio.New().Encode("People", headers, rows)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}

// ----------------------------------------------------------------------------
// Convert
// ----------------------------------------------------------------------------

func TestHandleConvert(t *testing.T) {
	srv := newTestServer(t)
	payload := encodeSheet(t, []string{"Name", "Price"}, [][]any{
		{"john doe", "10.5"},
	})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "/api/convert/people", payload))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Profile string            `json:"profile"`
		Rows    int               `json:"rows"`
		Records []*tabular.Record `json:"records"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Profile != "people" || resp.Rows != 1 || len(resp.Records) != 1 {
		t.Fatalf("response = %+v, want 1 record for people", resp)
	}
	if v, _ := resp.Records[0].Get("name"); v != "john doe" {
		t.Errorf("name = %v, want %q", v, "john doe")
	}
	if v, _ := resp.Records[0].Get("price"); v != 10.5 {
		t.Errorf("price = %v, want 10.5", v)
	}
}

func TestHandleConvert_MissingHeaders(t *testing.T) {
	srv := newTestServer(t)
	payload := encodeSheet(t, []string{"Wrong"}, [][]any{{"x"}})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "/api/convert/people", payload))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "MISSING_HEADERS" {
		t.Errorf("code = %q, want MISSING_HEADERS", resp.Code)
	}
	if len(resp.Missing) != 2 {
		t.Errorf("missing = %v, want both columns", resp.Missing)
	}
}

func TestHandleConvert_EmptySheet(t *testing.T) {
	srv := newTestServer(t)
	payload := encodeSheet(t, []string{"Name", "Price"}, nil)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "/api/convert/people", payload))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Code != "EMPTY_PAYLOAD" {
		t.Errorf("code = %q, want EMPTY_PAYLOAD", resp.Code)
	}
}

func TestHandleConvert_InvalidRow(t *testing.T) {
	srv := newTestServer(t)
	payload := encodeSheet(t, []string{"Name", "Price"}, [][]any{
		{"ok", "1.5"},
		{"bad", "not a number"},
	})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "/api/convert/people", payload))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Code != "ROW_INVALID" {
		t.Errorf("code = %q, want ROW_INVALID", resp.Code)
	}
	if resp.Row != 3 {
		t.Errorf("row = %d, want 3 (header offset)", resp.Row)
	}
}

func TestHandleConvert_UnknownProfile(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, uploadRequest(t, "/api/convert/nope", []byte("x")))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

// ----------------------------------------------------------------------------
// Generate
// ----------------------------------------------------------------------------

func TestHandleGenerate_CSV(t *testing.T) {
	srv := newTestServer(t)

	body := `{"records":[{"name":"Ann","price":30}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate/people?format=csv", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	want := "Name,Price\n\"Ann\",30"
	if rr.Body.String() != want {
		t.Errorf("body = %q, want %q", rr.Body.String(), want)
	}
}

func TestHandleGenerate_XLSXRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	body := `{"records":[{"name":"Ann","price":30}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate/people", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	// The generated workbook parses back through the same profile.
	rr2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr2, uploadRequest(t, "/api/convert/people", rr.Body.Bytes()))
	if rr2.Code != http.StatusOK {
		t.Fatalf("round-trip convert status = %d, body = %s", rr2.Code, rr2.Body.String())
	}
}

func TestHandleGenerate_NullRecordRejected(t *testing.T) {
	// A JSON null in the records array decodes to a nil record; it must
	// produce a 400, not a recovered panic.
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate/people?format=csv", strings.NewReader(`{"records":[null]}`))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleGenerate_UnknownFormat(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate/people?format=pdf", strings.NewReader(`{"records":[]}`))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

// ----------------------------------------------------------------------------
// Template and health
// ----------------------------------------------------------------------------

func TestHandleDownloadTemplate(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/template/people", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	// The template decodes as a header-only workbook.
	records, err := sheetio.New().Decode(rr.Body.Bytes())
	if err != nil {
		t.Fatalf("Decode(template) error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("template has %d data rows, want 0", len(records))
	}
}

func TestHandleListProfiles(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var infos []profileInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	found := false
	for _, info := range infos {
		if info.Key == "people" {
			found = true
		}
	}
	if !found {
		t.Errorf("profiles = %+v, want people listed", infos)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}
