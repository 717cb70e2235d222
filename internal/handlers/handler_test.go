package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/fuel-receipts/internal/adapters/filestore"
	"github.com/csg33k/fuel-receipts/internal/adapters/pdf"
	"github.com/csg33k/fuel-receipts/internal/adapters/refdata"
	"github.com/csg33k/fuel-receipts/internal/adapters/sqlite"
	"github.com/csg33k/fuel-receipts/internal/adapters/textreceipt"
	"github.com/csg33k/fuel-receipts/internal/composer"
	"github.com/csg33k/fuel-receipts/internal/handlers"
	"github.com/csg33k/fuel-receipts/internal/ports"
	"github.com/csg33k/fuel-receipts/internal/rules"
	"github.com/csg33k/fuel-receipts/internal/synth"
)

type server struct {
	*httptest.Server
	outDir string
}

func newServer(t *testing.T, opts ...handlers.Option) *server {
	t.Helper()
	dir := t.TempDir()

	repo, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	_, err = repo.Migrate(context.Background())
	require.NoError(t, err)

	catalog, err := refdata.Default()
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := composer.New(repo, catalog, rules.MustNew(),
		composer.WithClock(func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }),
		composer.WithRandom(func() synth.Source { return synth.NewSeeded(5) }),
		composer.WithLogger(log),
	)

	outDir := filepath.Join(dir, "out")
	files, err := filestore.New(outDir)
	require.NoError(t, err)

	opts = append([]handlers.Option{handlers.WithHealthCheck(repo.Ping), handlers.WithLogger(log)}, opts...)
	h := handlers.New(c, repo, catalog, files,
		[]ports.DocumentEncoder{pdf.New(), textreceipt.New()}, opts...)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &server{Server: srv, outDir: outDir}
}

func (s *server) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(s.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (s *server) get(t *testing.T, path string, header ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.URL+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

const cashGeneric = `{
	"companyId": 1, "country": "USA", "paymentMethod": "cash", "format": "txt",
	"items": [{"name": "Regular", "quantity": "10.0", "price": "3.00"}],
	"vehicleId": "TRK-42", "dlNumber": "D1234567", "driverCompanyName": "Prairie Haulers",
	"storeData": {"storeCode": "900", "address": "1 Depot Rd", "cityState": "Tulsa, OK"}
}`

func TestGenerateReceipt_TextDownload(t *testing.T) {
	s := newServer(t)
	resp, body := s.post(t, "/api/generate-receipt", cashGeneric)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, true, body["success"])
	assert.Regexp(t, `^REC-\d{8}$`, body["receiptNumber"])
	assert.NotEmpty(t, body["design"])

	name := body["fileName"].(string)
	assert.True(t, strings.HasSuffix(name, ".txt"), name)
	assert.Equal(t, "/receipts/"+name, body["downloadUrl"])

	dl, text := s.get(t, "/receipts/"+name)
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), name)
	assert.Contains(t, text, "STORE #900")
	assert.Contains(t, text, "$30.00")
}

func TestGenerateReceipt_DefaultsToPDF(t *testing.T) {
	s := newServer(t)
	body := strings.Replace(cashGeneric, `"format": "txt",`, "", 1)
	resp, out := s.post(t, "/api/generate-receipt", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)

	name := out["fileName"].(string)
	assert.True(t, strings.HasSuffix(name, ".pdf"), name)
	dl, data := s.get(t, "/receipts/"+name)
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "application/pdf", dl.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(data, "%PDF-"))
}

func TestGenerateReceipt_ValidationWritesNothing(t *testing.T) {
	s := newServer(t)
	resp, out := s.post(t, "/api/generate-receipt", `{
		"companyId": 2, "country": "USA", "paymentMethod": "efs",
		"items": [{"name": "Diesel", "quantity": 120.5, "price": 3.899}],
		"driverCompanyName": "Prairie Haulers", "cardLast4": "7788"
	}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, out["success"])

	var fields []string
	for _, p := range out["fieldErrors"].([]any) {
		fields = append(fields, p.(map[string]any)["field"].(string))
	}
	assert.ElementsMatch(t, []string{"driverFirstName", "driverLastName"}, fields)

	entries, err := os.ReadDir(s.outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateReceipt_BadRequests(t *testing.T) {
	s := newServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"companyId":`},
		{"bad decimal", `{"companyId": 1, "items": [{"name": "Diesel", "quantity": "lots"}]}`},
		{"unknown format", strings.Replace(cashGeneric, `"txt"`, `"docx"`, 1)},
		{"unknown company", strings.Replace(cashGeneric, `"companyId": 1`, `"companyId": 999`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := s.post(t, "/api/generate-receipt", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, false, out["success"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestGenerateReceipt_RateLimited(t *testing.T) {
	s := newServer(t, handlers.WithRateLimit(0.001, 1))
	resp, out := s.post(t, "/api/generate-receipt", cashGeneric)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)

	resp, out = s.post(t, "/api/generate-receipt", cashGeneric)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "too many requests", out["error"])
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	// Other endpoints are not limited.
	resp, _ = s.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProfile_JSON(t *testing.T) {
	s := newServer(t)
	resp, body := s.get(t, "/api/profile?companyId=2&country=USA&paymentMethod=efs")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var out struct {
		Merchant string `json:"merchant"`
		Template string `json:"template"`
		Profile  struct {
			Fields map[string]string `json:"fields"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "loves", out.Merchant)
	assert.NotEmpty(t, out.Template)
	assert.Equal(t, "hidden", out.Profile.Fields["checkNumber"])
	assert.Equal(t, "required", out.Profile.Fields["driverFirstName"])
}

func TestProfile_Fragment(t *testing.T) {
	s := newServer(t)
	resp, body := s.get(t, "/api/profile?companyId=2&country=USA&paymentMethod=efs", "HX-Request", "true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<td>Driver First Name</td><td>required</td>")
}

func TestProfile_Invalid(t *testing.T) {
	s := newServer(t)
	resp, _ := s.get(t, "/api/profile?companyId=2&country=Mexico&paymentMethod=efs")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreview(t *testing.T) {
	s := newServer(t)
	resp, out := s.post(t, "/api/preview", `{"country": "USA", "items": [{"name": "Diesel", "quantity": "10", "price": "4"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.Equal(t, "40.00", out["subtotal"])
	assert.Equal(t, "3.20", out["tax"])
	assert.Equal(t, "43.20", out["total"])

	resp, _ = s.post(t, "/api/preview", `{"country": "USA", "items": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompaniesAndStores(t *testing.T) {
	s := newServer(t)
	resp, body := s.get(t, "/api/companies")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var companies []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &companies))
	assert.Len(t, companies, 13)

	resp, body = s.get(t, "/api/companies/2/stores")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stores []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &stores))
	assert.Len(t, stores, 2)

	resp, _ = s.get(t, "/api/companies/999/stores")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = s.get(t, "/api/companies/abc/stores")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIndexHealthAndMissingFile(t *testing.T) {
	s := newServer(t)

	resp, body := s.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Love&#39;s Travel Stop")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = s.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)

	resp, _ = s.get(t, "/receipts/receipt-REC-00000000-missing.pdf")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
