package difftar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const defaultS3Region = "us-east-1"

// emptyPayloadHash is the SHA-256 of a zero-byte payload, used when signing
// bodiless GET requests.
const emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func acquireS3(ctx context.Context, s S3Source) (*AcquiredStream, error) {
	if s.AccessKeyID == "" || s.SecretAccessKey == "" {
		return nil, NewDiffError(PhaseAuth, "S3 source requires accessKeyId and secretAccessKey")
	}

	region := s.Region
	if region == "" {
		region = defaultS3Region
	}

	// An http(s) source is used as-is and signed directly; anything else must
	// be an s3:// URI resolved through the SDK client.
	if strings.HasPrefix(s.Source, "http://") || strings.HasPrefix(s.Source, "https://") {
		return acquireSignedURL(ctx, s, region)
	}

	bucket, key, err := parseS3URI(s.Source)
	if err != nil {
		return nil, err
	}

	client := s3.New(s3.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, s.SessionToken),
	}, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
			o.UsePathStyle = true
		}
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		return nil, mapS3Error(err, bucket, key)
	}

	declared := int64(-1)
	if out.ContentLength != nil {
		declared = *out.ContentLength
	}
	if declared > MaxTarballSize {
		_ = out.Body.Close()
		return nil, sizeExceededError(declared)
	}
	if out.Body == nil {
		return nil, NewDiffError(PhaseFetch, "Response has no body")
	}

	return &AcquiredStream{
		Body:         newSizeLimitedReader(out.Body),
		DeclaredSize: declared,
	}, nil
}

// acquireSignedURL signs a plain GET against the given URL with AWS Signature
// V4 (service "s3"); the session token, when present, rides along as
// x-amz-security-token.
func acquireSignedURL(ctx context.Context, s S3Source, region string) (*AcquiredStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Source, nil)
	if err != nil {
		return nil, Wrap(PhaseFetch, err, fmt.Sprintf("Invalid URL %s", s.Source))
	}

	creds := aws.Credentials{
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		SessionToken:    s.SessionToken,
	}
	if err = v4.NewSigner().SignHTTP(ctx, creds, req, emptyPayloadHash, "s3", region, time.Now()); err != nil {
		return nil, Wrap(PhaseAuth, err, "Failed to sign S3 request")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		return nil, Wrap(PhaseFetch, err, fmt.Sprintf("Network error fetching %s", s.Source))
	}

	return checkResponse(resp, s.Source, true)
}

func parseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", NewDiffError(PhaseFetch, fmt.Sprintf("Invalid S3 URI: %s", uri))
	}

	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", NewDiffError(PhaseFetch, fmt.Sprintf("S3 URI has no bucket: %s", uri))
	}
	if key == "" {
		return "", "", NewDiffError(PhaseFetch, fmt.Sprintf("S3 URI has no key: %s", uri))
	}
	return bucket, key, nil
}

func mapS3Error(err error, bucket, key string) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return NewDiffError(PhaseFetch, "S3 object not found")
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return NewDiffError(PhaseFetch, "S3 object not found")
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return NewDiffError(PhaseAuth, fmt.Sprintf("Authentication failed: %s", apiErr.ErrorCode()))
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return NewDiffError(PhaseFetch, "S3 object not found")
		case http.StatusUnauthorized, http.StatusForbidden:
			return NewDiffError(PhaseAuth, fmt.Sprintf("Authentication failed: %d", respErr.HTTPStatusCode()))
		}
	}

	return Wrap(PhaseFetch, err, fmt.Sprintf("Network error fetching s3://%s/%s", bucket, key))
}
