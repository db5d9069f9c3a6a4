package printing_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labelprint/labelprint/internal/domain/printing"
	infra "github.com/labelprint/labelprint/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *infra.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := infra.NewClient(infra.ClientConfig{BaseURL: server.URL + "/", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return client
}

func testPayload(t *testing.T) *printing.PrintJobPayload {
	t.Helper()
	paper, err := printing.NewPhysicalSize(40, 30, 204, printing.PaperShapeRectangular)
	require.NoError(t, err)
	printer, err := printing.NewPrinterDescriptor("M110 #2", paper)
	require.NoError(t, err)
	payload, err := printing.NewPrintJobPayload([]byte("\x89PNG fake"), paper.Pixels(), *printer)
	require.NoError(t, err)
	return payload
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := infra.NewClient(infra.ClientConfig{BaseURL: "localhost:5000"})
	assert.Error(t, err)

	_, err = infra.NewClient(infra.ClientConfig{BaseURL: "ftp://printers"})
	assert.ErrorContains(t, err, "scheme")
}

func TestClient_ListPrinters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/printers", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"name":"M110","paper":{"name":"40x30","width":40,"height":30,"dpi":203,"shape":"rectangular"}},
			{"name":"M120","paper":{"width":30,"height":30,"dpi":203,"shape":"circle"}}
		]`)
	})

	printers, err := client.ListPrinters(context.Background())
	require.NoError(t, err)
	require.Len(t, printers, 2)
	assert.Equal(t, "M110", printers[0].Name)
	assert.Equal(t, 40.0, printers[0].Paper.WidthMm)
	assert.Equal(t, printing.PaperShapeCircular, printers[1].Paper.Shape)
}

func TestClient_ListPrintersFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"invalid body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"printers":`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.ListPrinters(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, printing.ErrCatalogFetchFailed))
		})
	}
}

func TestClient_Submit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/print", r.URL.Path)
		assert.Equal(t, "M110 #2", r.URL.Query().Get("printer"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, infra.FormatPixels(40/25.4*204), r.FormValue("width"))
		assert.Equal(t, infra.FormatPixels(30/25.4*204), r.FormValue("height"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, infra.LabelFilename, header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte("\x89PNG fake"), data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"job-42","status":"COMPLETED"}}`)
	})

	receipt, err := client.Submit(context.Background(), testPayload(t))
	require.NoError(t, err)
	assert.Equal(t, "job-42", receipt.JobID)
	assert.Equal(t, "COMPLETED", receipt.Status)
}

func TestClient_SubmitErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"envelope message", http.StatusServiceUnavailable,
			`{"success":false,"error":{"code":"PRINTER_BUSY","message":"printer is busy"}}`, "printer is busy"},
		{"plain message field", http.StatusBadRequest, `{"message":"width is required"}`, "width is required"},
		{"raw body", http.StatusBadGateway, "printer offline", "printer offline"},
		{"empty body", http.StatusInternalServerError, "", "Internal Server Error"},
		{"json without message", http.StatusNotFound, `{}`, "Not Found"},
		{"unknown status", 599, "", "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Submit(context.Background(), testPayload(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, printing.ErrSubmissionFailed))

			var subErr *printing.SubmissionError
			require.True(t, errors.As(err, &subErr))
			assert.Equal(t, tt.status, subErr.StatusCode)
			assert.Equal(t, tt.message, subErr.Message)
		})
	}
}

func TestClient_SubmitTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := infra.NewClient(infra.ClientConfig{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), testPayload(t))
	var subErr *printing.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Zero(t, subErr.StatusCode)
	assert.NotEmpty(t, subErr.Message)
}
