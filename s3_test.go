package difftar

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireS3_RequiresCredentials(t *testing.T) {
	_, err := Acquire(t.Context(), S3Source{Source: "s3://bucket/key.tgz"})
	assertPhase(t, err, PhaseAuth, 401)

	_, err = Acquire(t.Context(), S3Source{Source: "s3://bucket/key.tgz", AccessKeyID: "AKID"})
	assertPhase(t, err, PhaseAuth, 401)
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		bucket  string
		key     string
		wantErr string
	}{
		{name: "bucket and key", uri: "s3://bucket/path/to/key.tgz", bucket: "bucket", key: "path/to/key.tgz"},
		{name: "no key", uri: "s3://bucket", wantErr: "S3 URI has no key"},
		{name: "empty key", uri: "s3://bucket/", wantErr: "S3 URI has no key"},
		{name: "no bucket", uri: "s3:///key.tgz", wantErr: "S3 URI has no bucket"},
		{name: "not an s3 uri", uri: "ftp://bucket/key.tgz", wantErr: "Invalid S3 URI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := parseS3URI(tt.uri)
			if tt.wantErr != "" {
				var de *DiffError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, PhaseFetch, de.Phase)
				assert.Contains(t, de.Message, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestAcquireS3_PathStyleEndpoint(t *testing.T) {
	payload := []byte("s3 object bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/bucket/path/key.tgz", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "AWS4-HMAC-SHA256")
		assert.Contains(t, r.Header.Get("Authorization"), "Credential=AKID")
		assert.NotEmpty(t, r.Header.Get("X-Amz-Date"))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	acquired, err := Acquire(t.Context(), S3Source{
		Source:          "s3://bucket/path/key.tgz",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Endpoint:        srv.URL,
	})
	require.NoError(t, err)
	defer acquired.Body.Close()

	data, err := io.ReadAll(acquired.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestAcquireS3_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
	}))
	defer srv.Close()

	_, err := Acquire(t.Context(), S3Source{
		Source:          "s3://bucket/missing.tgz",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Endpoint:        srv.URL,
	})
	assertPhase(t, err, PhaseFetch, 502)

	var de *DiffError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Message, "S3 object not found")
}

func TestAcquireS3_AccessDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`))
	}))
	defer srv.Close()

	_, err := Acquire(t.Context(), S3Source{
		Source:          "s3://bucket/secret.tgz",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		Endpoint:        srv.URL,
	})
	assertPhase(t, err, PhaseAuth, 401)
}

func TestAcquireS3_SignedHTTPSource(t *testing.T) {
	payload := []byte("signed url bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/direct/key.tgz", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "AWS4-HMAC-SHA256")
		assert.Equal(t, "sess-token", r.Header.Get("X-Amz-Security-Token"))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	acquired, err := Acquire(t.Context(), S3Source{
		Source:          srv.URL + "/direct/key.tgz",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
		SessionToken:    "sess-token",
	})
	require.NoError(t, err)
	defer acquired.Body.Close()

	data, err := io.ReadAll(acquired.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestAcquireS3_SignedHTTPSourceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Acquire(t.Context(), S3Source{
		Source:          srv.URL + "/gone.tgz",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
	})
	assertPhase(t, err, PhaseFetch, 502)

	var de *DiffError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Message, "S3 object not found")
}
