// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrBadObjectURL reports a destination that is not gs://bucket[/prefix].
var ErrBadObjectURL = errors.New("destination is not a gs:// URL")

// ObjectRef is a GCS destination parsed from gs://bucket/prefix.
type ObjectRef struct {
	Bucket string
	Prefix string
}

// ParseObjectRef splits a gs://bucket/prefix destination.
func ParseObjectRef(raw string) (ObjectRef, error) {
	rest, ok := strings.CutPrefix(raw, "gs://")
	if !ok {
		return ObjectRef{}, fmt.Errorf("%q: %w", raw, ErrBadObjectURL)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return ObjectRef{}, fmt.Errorf("%q: missing bucket: %w", raw, ErrBadObjectURL)
	}
	return ObjectRef{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Uploader ships rendered reports to Google Cloud Storage.
type Uploader struct {
	client *storage.Client
	ref    ObjectRef
}

// NewUploader connects a storage client for the destination.
//
// Description:
//
//	When keyPath is non-empty it must name a readable service account
//	key file; otherwise the client uses application default
//	credentials.
//
// Inputs:
//   - ctx: controls client setup.
//   - ref: parsed gs:// destination.
//   - keyPath: optional service account key file.
//
// Outputs:
//   - *Uploader: owns the client; call Close when done.
//   - error: missing key file or client construction failure.
func NewUploader(ctx context.Context, ref ObjectRef, keyPath string) (*Uploader, error) {
	var opts []option.ClientOption
	if keyPath != "" {
		if _, err := os.Stat(keyPath); err != nil {
			return nil, fmt.Errorf("service account key %s: %w", keyPath, err)
		}
		opts = append(opts, option.WithCredentialsFile(keyPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Uploader{client: client, ref: ref}, nil
}

// Upload writes one rendered report under the configured prefix and
// returns the full gs:// path of the object.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	object := path.Join(u.ref.Prefix, name)
	writer := u.client.Bucket(u.ref.Bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", object, err)
	}
	return fmt.Sprintf("gs://%s/%s", u.ref.Bucket, object), nil
}

// Close releases the storage client.
func (u *Uploader) Close() error {
	return u.client.Close()
}
