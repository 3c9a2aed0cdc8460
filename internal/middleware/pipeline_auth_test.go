package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "helpinvest/internal/errors"
	"helpinvest/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

// pipelineRouter mounts a snapshot stub behind PipelineAuthMiddleware and
// counts how often it runs.
func pipelineRouter(apiKey string, reached *int) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/pipeline/snapshots", PipelineAuthMiddleware(apiKey), func(c *gin.Context) {
		*reached++
		c.JSON(http.StatusCreated, gin.H{"recorded": 1})
	})
	return r
}

func postSnapshot(r *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/pipeline/snapshots", http.NoBody)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func withKey(key string) http.Header {
	return http.Header{"X-Api-Key": {key}}
}

func TestPipelineAuthMiddleware(t *testing.T) {
	const key = "pipeline-4f2a"

	tests := []struct {
		name       string
		configured string
		header     http.Header
		wantErr    *apperrors.AppError
	}{
		{name: "matching_key", configured: key, header: withKey(key)},
		{name: "wrong_key", configured: key, header: withKey("pipeline-0000"), wantErr: apperrors.ErrInvalidAPIKey},
		{name: "no_header", configured: key, header: http.Header{}, wantErr: apperrors.ErrInvalidAPIKey},
		{name: "prefix_of_key", configured: key, header: withKey("pipeline"), wantErr: apperrors.ErrInvalidAPIKey},
		{name: "bearer_token_instead_of_key", configured: key, header: http.Header{"Authorization": {"Bearer " + key}}, wantErr: apperrors.ErrInvalidAPIKey},
		{name: "unconfigured_rejects_any_key", configured: "", header: withKey(key), wantErr: apperrors.ErrPipelineNotConfigured},
		{name: "unconfigured_rejects_empty_key", configured: "", header: withKey(""), wantErr: apperrors.ErrPipelineNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached int
			rec := postSnapshot(pipelineRouter(tt.configured, &reached), tt.header)

			if tt.wantErr == nil {
				if rec.Code != http.StatusCreated || reached != 1 {
					t.Fatalf("expected handler to run once with 201, got status %d reached %d", rec.Code, reached)
				}
				return
			}

			if reached != 0 {
				t.Errorf("handler must not run, ran %d time(s)", reached)
			}
			if rec.Code != tt.wantErr.StatusCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantErr.StatusCode)
			}

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to parse response body: %v", err)
			}
			if body.Error.Code != tt.wantErr.Code || body.Error.Message != tt.wantErr.Message {
				t.Errorf("error = %+v, want code %q message %q", body.Error, tt.wantErr.Code, tt.wantErr.Message)
			}
		})
	}
}
