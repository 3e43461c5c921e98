package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type sampleRequest struct {
	Symbol string `json:"symbol" validate:"required,max=8"`
	Months int    `json:"months" default:"6" validate:"gte=1,lte=60"`
}

func newContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequest_AppliesDefaults(t *testing.T) {
	c, _ := newContext(`{"symbol":"AAPL"}`)
	var req sampleRequest
	if errs := ReadAndValidateRequest(c, &req); errs != nil {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if req.Months != 6 {
		t.Fatalf("months=%d want default 6", req.Months)
	}
}

func TestReadAndValidateRequest_ReportsJSONFieldNames(t *testing.T) {
	c, _ := newContext(`{"months":99}`)
	var req sampleRequest
	errs := ReadAndValidateRequest(c, &req)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %+v", errs)
	}
	if errs[0].Field != "symbol" || errs[0].Code != "ERR_REQUIRED" {
		t.Fatalf("first error=%+v", errs[0])
	}
	if errs[1].Field != "months" || errs[1].Code != "ERR_LTE" || errs[1].Params["max"] != "60" {
		t.Fatalf("second error=%+v", errs[1])
	}
}

func TestReadAndValidateRequest_BadJSON(t *testing.T) {
	c, _ := newContext(`{"symbol":`)
	var req sampleRequest
	errs := ReadAndValidateRequest(c, &req)
	if len(errs) != 1 || errs[0].Code != "ERR_BAD_BODY" {
		t.Fatalf("errors=%+v", errs)
	}
}

func TestValidateStruct(t *testing.T) {
	if err := ValidateStruct(context.Background(), &sampleRequest{Symbol: "AAPL", Months: 1}); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	err := ValidateStruct(context.Background(), &sampleRequest{Months: 1})
	if err == nil || !strings.Contains(err.Error(), "symbol is required") {
		t.Fatalf("err=%v", err)
	}
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := newContext("")
	appErr := NotFoundErrorf("No data found for symbol %s", "ZZZZ")
	if err := AppErrorResponse(c, errors.Join(errors.New("ctx"), appErr)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	var body struct {
		Status int         `json:"status"`
		Data   []*AppError `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != 404 || len(body.Data) != 1 || body.Data[0].Message != "No data found for symbol ZZZZ" {
		t.Fatalf("body=%s", rec.Body.String())
	}

	c, rec = newContext("")
	_ = AppErrorResponse(c, errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
}
