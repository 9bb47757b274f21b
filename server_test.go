package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/bank_recon_report/models"
	"bitbucket.org/mmdatafocus/bank_recon_report/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLedger() *models.MemoryLedger {
	m := models.NewMemoryLedger()
	account := 100
	m.SetCompanyCurrency(1, models.Currency{ID: 1, Symbol: "K", Name: "MMK", DecimalPlaces: 0})
	m.AddJournal(models.AccountJournal{ID: 1, CompanyId: 1, Name: "KBZ Bank", Code: "KBZ", Type: models.JournalTypeBank, DefaultAccountId: &account})
	m.AddJournal(models.AccountJournal{ID: 2, CompanyId: 1, Name: "AYA Bank", Code: "AYA", Type: models.JournalTypeBank, DefaultAccountId: &account})
	m.AddJournal(models.AccountJournal{ID: 3, CompanyId: 1, Name: "Sales", Code: "INV", Type: models.JournalTypeSale})
	m.AddJournal(models.AccountJournal{ID: 4, CompanyId: 2, Name: "Other Co Bank", Code: "OTH", Type: models.JournalTypeBank})

	payment := 1
	m.AddLine(models.LedgerLine{Date: models.NewDate(2023, time.December, 31), CompanyId: 1, JournalId: 1, AccountId: account, MoveState: models.MoveStatePosted, MoveName: "KBZ/0001", Debit: decimal.NewFromInt(1000)})
	m.AddLine(models.LedgerLine{Date: models.NewDate(2024, time.January, 10), CompanyId: 1, JournalId: 1, AccountId: account, MoveState: models.MoveStatePosted, MoveName: "KBZ/0002", Debit: decimal.NewFromInt(500)})
	m.AddLine(models.LedgerLine{Date: models.NewDate(2024, time.January, 15), CompanyId: 1, JournalId: 1, AccountId: account, MoveState: models.MoveStatePosted, MoveName: "KBZ/0003", Name: "CHK 1", PaymentId: &payment, Credit: decimal.NewFromInt(200)})
	return m
}

type testServer struct {
	router *gin.Engine
	token  string
	ready  bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("API_SECRET", "test-secret")
	t.Setenv("TOKEN_HOUR_LIFESPAN", "1")
	token, err := utils.JwtGenerate(1, "tester", 1)
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := &testServer{token: token, ready: true}
	s.router = newRouter(newReportHandler(testLedger(), logger), logger, func() bool { return s.ready })
	return s
}

func (s *testServer) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthzAndReadiness(t *testing.T) {
	s := newTestServer(t)
	s.ready = false

	// liveness answers before the ledger is bound, readiness does not
	if w := s.do(http.MethodGet, "/healthz", "", false); w.Code != http.StatusNoContent {
		t.Fatalf("healthz: expected 204, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/readyz", "", false); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before ledger bound: expected 503, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/journals", "", true); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready: expected 503, got %d", w.Code)
	}
	s.ready = true
	if w := s.do(http.MethodGet, "/readyz", "", false); w.Code != http.StatusNoContent {
		t.Fatalf("readyz: expected 204, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/journals", "", false); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/nope", "", true); w.Code != http.StatusNotFound {
		t.Fatalf("unknown route: expected 404, got %d", w.Code)
	}
}

func TestListJournals(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/journals", "", true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Journals []models.AccountJournal `json:"journals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// bank journals of company 1 only, by name
	if len(body.Journals) != 2 || body.Journals[0].Name != "AYA Bank" || body.Journals[1].Name != "KBZ Bank" {
		t.Fatalf("unexpected journals %+v", body.Journals)
	}
}

func TestBankReconciliationEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/reports/bank-reconciliation",
		`{"journal_id":1,"date_from":"2024-01-01","date_to":"2024-01-31","bank_balance":"1300"}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	expect := map[string]string{
		"opening_balance":    "1000",
		"period_debit":       "500",
		"period_credit":      "200",
		"closing_balance":    "1300",
		"unpresented_checks": "200",
		"variance":           "0",
	}
	for k, v := range expect {
		if body[k] != v {
			t.Fatalf("%s: expected %q, got %v", k, v, body[k])
		}
	}
	if body["is_reconciled"] != true || body["journal_name"] != "KBZ Bank" {
		t.Fatalf("unexpected body %v", body)
	}
	lines, _ := body["detail_lines"].([]interface{})
	if len(lines) != 2 {
		t.Fatalf("expected 2 detail lines, got %v", body["detail_lines"])
	}
	if w.Header().Get("X-Correlation-Id") == "" {
		t.Fatalf("expected a correlation id header")
	}
}

func TestBankReconciliationEndpoint_Errors(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"missing journal", `{"date_from":"2024-01-01","date_to":"2024-01-31","bank_balance":"0"}`, http.StatusBadRequest, ""},
		{"unknown journal", `{"journal_id":99,"date_from":"2024-01-01","date_to":"2024-01-31","bank_balance":"0"}`, http.StatusNotFound, ""},
		{"other company journal", `{"journal_id":4,"date_from":"2024-01-01","date_to":"2024-01-31","bank_balance":"0"}`, http.StatusNotFound, ""},
		{"non bank journal", `{"journal_id":3,"date_from":"2024-01-01","date_to":"2024-01-31","bank_balance":"0"}`, http.StatusBadRequest, "journal_id"},
		{"missing bank balance", `{"journal_id":1,"date_from":"2024-01-01","date_to":"2024-01-31"}`, http.StatusBadRequest, "bank_balance"},
		{"reversed dates", `{"journal_id":1,"date_from":"2024-02-01","date_to":"2024-01-31","bank_balance":"0"}`, http.StatusBadRequest, "date_from"},
		{"bad date", `{"journal_id":1,"date_from":"01/01/2024","date_to":"2024-01-31","bank_balance":"0"}`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		w := s.do(http.MethodPost, "/reports/bank-reconciliation", tc.body, true)
		if w.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.status, w.Code, w.Body.String())
		}
		if tc.field != "" {
			if body := decodeBody(t, w); body["field"] != tc.field {
				t.Fatalf("%s: expected field %s, got %v", tc.name, tc.field, body["field"])
			}
		}
	}

	w := s.do(http.MethodPost, "/reports/bank-reconciliation", `{"date_from":"2024-01-01"}`, true)
	errs, _ := decodeBody(t, w)["errors"].(map[string]interface{})
	if errs["JournalId"] != "required" {
		t.Fatalf("expected JournalId required, got %v", errs)
	}
}

func TestBankReconciliationXlsxEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/reports/bank-reconciliation/xlsx",
		`{"journal_id":1,"date_from":"2024-01-01","date_to":"2024-01-31","bank_balance":"1250","show_details":false}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "bank_reconciliation_1_2024-01-01_2024-01-31.xlsx") {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	variance, _ := f.GetCellValue("Summary", "B13", excelize.Options{RawCellValue: true})
	if variance != "50" {
		t.Fatalf("expected variance 50, got %q", variance)
	}
}

func TestBankReconciliationBatchEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/reports/bank-reconciliation/batch", `{
		"date_from":"2024-01-01","date_to":"2024-01-31","show_details":false,
		"journals":[
			{"journal_id":1,"bank_balance":"1300"},
			{"journal_id":2,"bank_balance":"10"},
			{"journal_id":3,"bank_balance":"0"},
			{"journal_id":99,"bank_balance":"0"}
		]}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Reports []batchReconciliationResult `json:"reports"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Reports) != 4 {
		t.Fatalf("expected 4 results, got %d", len(body.Reports))
	}
	if r := body.Reports[0]; r.Report == nil || !r.Report.IsReconciled {
		t.Fatalf("journal 1: expected reconciled report, got %+v", r)
	}
	if r := body.Reports[1]; r.Report == nil || !r.Report.Variance.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("journal 2: expected variance -10, got %+v", r)
	}
	if r := body.Reports[2]; r.Report != nil || r.Field != "journal_id" {
		t.Fatalf("journal 3: expected validation failure, got %+v", r)
	}
	if r := body.Reports[3]; r.Report != nil || r.Error != "journal not found" {
		t.Fatalf("journal 99: expected not found, got %+v", r)
	}

	w = s.do(http.MethodPost, "/reports/bank-reconciliation/batch", `{"journals":[]}`, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty batch: expected 400, got %d", w.Code)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected %v", got)
	}
	if splitAndTrim("  ") != nil {
		t.Fatalf("expected nil for blank input")
	}
}
