package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) *GoogleSheetRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return &GoogleSheetRepository{service: service, spreadsheetID: "sheet-1", logger: zap.NewNop()}
}

func TestAppendRow(t *testing.T) {
	var body sheetsapi.ValueRange
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":append") {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("valueInputOption") != "RAW" {
			t.Errorf("valueInputOption = %q", r.URL.Query().Get("valueInputOption"))
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	if err := repo.AppendRow(context.Background(), "Relatorios!A:H", []interface{}{"2025-03-10", "A", 20}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if len(body.Values) != 1 || body.Values[0][1] != "A" {
		t.Errorf("unexpected payload %+v", body.Values)
	}

	if err := repo.AppendRow(context.Background(), "", nil); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("empty range: %v", err)
	}
}

func TestReadRange(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Relatorios!A1:H2","values":[["2025-03-10","A","20"],["2025-03-10","B"]]}`))
	})

	rows, err := repo.ReadRange(context.Background(), "Relatorios!A:H")
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "B" {
		t.Errorf("unexpected rows %v", rows)
	}
}
