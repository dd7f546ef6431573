package publish

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"previewhub/internal/config"
)

func TestMemoryPublisher(t *testing.T) {
	m := NewMemoryPublisher("mem")

	if err := m.PutFile("s/sb26/index.html", strings.NewReader("redirect"), 8, "text/html"); err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}
	if err := m.PutFile("index.html", strings.NewReader("home"), 4, "text/html"); err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}
	if err := m.PutFile("bad.html", strings.NewReader("abc"), 10, "text/html"); err == nil {
		t.Error("PutFile() with wrong size should fail")
	}

	if err := m.DeletePrefix("s/"); err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if keys := m.Keys(); len(keys) != 1 || keys[0] != "index.html" {
		t.Errorf("Keys() = %v, want [index.html]", keys)
	}
	if f, ok := m.Get("index.html"); !ok || f.ContentType != "text/html" {
		t.Errorf("Get() = %+v, %v", f, ok)
	}
}

func TestFileSystemPublisher(t *testing.T) {
	root := filepath.Join(t.TempDir(), "www")
	p, err := NewFileSystemPublisher("local", root)
	if err != nil {
		t.Fatalf("NewFileSystemPublisher() error = %v", err)
	}
	if err := p.ValidateSetup(); err != nil {
		t.Fatalf("ValidateSetup() error = %v", err)
	}

	put := func(key, data string) error {
		return p.PutFile(key, strings.NewReader(data), int64(len(data)), "text/html")
	}
	if err := put("s/sb26/home-v1/index.html", "<p>r</p>"); err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}
	if err := put("clients/atlas/index.html", "<p>a</p>"); err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "clients", "atlas", "index.html"))
	if err != nil || string(got) != "<p>a</p>" {
		t.Errorf("published file = %q, %v", got, err)
	}

	t.Run("size mismatch leaves nothing behind", func(t *testing.T) {
		if err := p.PutFile("clients/atlas/short.html", strings.NewReader("abc"), 99, "text/html"); err == nil {
			t.Fatal("PutFile() should fail on size mismatch")
		}
		entries, _ := os.ReadDir(filepath.Join(root, "clients", "atlas"))
		if len(entries) != 1 {
			t.Errorf("directory entries = %d, want only index.html", len(entries))
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		if err := put("../escape.html", "x"); err == nil {
			t.Error("PutFile() should reject keys outside the root")
		}
	})

	if err := p.DeletePrefix("s/"); err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "s")); !os.IsNotExist(err) {
		t.Errorf("share tree still present: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "clients", "atlas", "index.html")); err != nil {
		t.Errorf("DeletePrefix removed too much: %v", err)
	}
}

// fakeS3 is an in-memory stand-in for the S3 API.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range in.Delete.Objects {
		delete(f.objects, aws.ToString(id.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, errors.New("NotFound")
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Publisher(t *testing.T) {
	fake := newFakeS3("previews")
	p := newS3Publisher("prod", "previews", "/site/", fake)

	if err := p.ValidateSetup(); err != nil {
		t.Fatalf("ValidateSetup() error = %v", err)
	}

	body := []byte("<!doctype html>")
	if err := p.PutFile("s/sb26/index.html", bytes.NewReader(body), int64(len(body)), "text/html; charset=utf-8"); err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}
	if err := p.PutFile("index.html", bytes.NewReader(body), int64(len(body)), "text/html; charset=utf-8"); err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}
	if got := string(fake.objects["site/index.html"]); got != string(body) {
		t.Errorf("object body = %q", got)
	}
	if ct := fake.types["site/s/sb26/index.html"]; ct != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}

	if err := p.PutFile("short.html", bytes.NewReader(body), 3, "text/html"); err == nil {
		t.Error("PutFile() should report a size mismatch")
	}

	if err := p.DeletePrefix("s/"); err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if _, ok := fake.objects["site/s/sb26/index.html"]; ok {
		t.Error("share object survived DeletePrefix")
	}
	if _, ok := fake.objects["site/index.html"]; !ok {
		t.Error("DeletePrefix removed an object outside the prefix")
	}

	wrong := newS3Publisher("prod", "missing", "", fake)
	if err := wrong.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() on a missing bucket should fail")
	}
}

func TestNewPublisherFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PublisherConfig
		wantErr bool
	}{
		{"memory", config.PublisherConfig{Type: "memory", Name: "m"}, false},
		{"filesystem", config.PublisherConfig{Type: "filesystem", Name: "fs", FSRoot: t.TempDir()}, false},
		{"filesystem without root", config.PublisherConfig{Type: "filesystem", Name: "fs"}, true},
		{"s3 without bucket", config.PublisherConfig{Type: "s3", Name: "s3"}, true},
		{"unknown", config.PublisherConfig{Type: "ftp", Name: "ftp"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPublisherFromConfig(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPublisherFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Name() != tt.cfg.Name {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.cfg.Name)
			}
		})
	}
}
