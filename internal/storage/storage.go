package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	fbstorage "firebase.google.com/go/v4/storage"
	"google.golang.org/api/option"
)

// PublicResolver builds unsigned object URLs under a public base, e.g.
// https://storage.googleapis.com/{bucket}/{filename}.
type PublicResolver struct {
	BaseURL string
}

func NewPublicResolver(baseURL string) *PublicResolver {
	return &PublicResolver{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (r *PublicResolver) PublicURL(bucket, filename string) string {
	return fmt.Sprintf("%s/%s/%s", r.BaseURL, url.PathEscape(bucket), url.PathEscape(filename))
}

// FirebaseResolver resolves badge artwork through Firebase Storage. With a positive
// signedTTL it hands out V4 signed URLs; otherwise, or when signing fails, it falls
// back to the public URL.
type FirebaseResolver struct {
	client    *fbstorage.Client
	fallback  *PublicResolver
	signedTTL time.Duration
	now       func() time.Time
}

type FirebaseOptions struct {
	CredentialsFile    string
	ServiceAccountJSON string // base64
	DefaultBucket      string
	SignedURLTTL       time.Duration
	PublicBaseURL      string
}

// NewFirebaseResolver prefers base64 credentials from ServiceAccountJSON and falls
// back to CredentialsFile.
func NewFirebaseResolver(ctx context.Context, opts FirebaseOptions) (*FirebaseResolver, error) {
	var opt option.ClientOption

	if opts.ServiceAccountJSON != "" {
		decoded, err := base64.StdEncoding.DecodeString(opts.ServiceAccountJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Println("Storage: Initializing from FIREBASE_SERVICE_ACCOUNT_JSON environment variable.")
	} else {
		if _, err := os.Stat(opts.CredentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("local firebase file not found: %s, and FIREBASE_SERVICE_ACCOUNT_JSON is not set", opts.CredentialsFile)
		}
		opt = option.WithCredentialsFile(opts.CredentialsFile)
		log.Printf("Storage: Initializing from local file: %s.", opts.CredentialsFile)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: opts.DefaultBucket}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting storage client: %w", err)
	}

	return &FirebaseResolver{
		client:    client,
		fallback:  NewPublicResolver(opts.PublicBaseURL),
		signedTTL: opts.SignedURLTTL,
		now:       time.Now,
	}, nil
}

func (r *FirebaseResolver) PublicURL(bucket, filename string) string {
	if r.signedTTL <= 0 {
		return r.fallback.PublicURL(bucket, filename)
	}

	handle, err := r.bucket(bucket)
	if err != nil {
		log.Printf("Storage: failed to open bucket %q: %v", bucket, err)
		return r.fallback.PublicURL(bucket, filename)
	}

	signed, err := handle.SignedURL(filename, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: r.now().Add(r.signedTTL),
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		log.Printf("Storage: failed to sign %s/%s: %v", bucket, filename, err)
		return r.fallback.PublicURL(bucket, filename)
	}
	return signed
}

func (r *FirebaseResolver) bucket(name string) (*gcs.BucketHandle, error) {
	if name == "" {
		return r.client.DefaultBucket()
	}
	return r.client.Bucket(name)
}
