package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/princekumarofficial/familybook/internal/types/media"
)

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }

func file(name string, body string) media.File {
	return media.File{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Open: func() (media.ReadSeekCloser, error) {
			return nopSeekCloser{bytes.NewReader([]byte(body))}, nil
		},
	}
}

type fakeBlobs struct {
	stored   map[string]string
	failOn   string
	validErr error
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{stored: make(map[string]string)} }

func (f *fakeBlobs) Validate(contentType string, size int64) error {
	if size == 0 {
		return errors.New("empty")
	}
	return f.validErr
}

func (f *fakeBlobs) ObjectKey(accountID, name string) string {
	return fmt.Sprintf("accounts/%s/%s", accountID, name)
}

func (f *fakeBlobs) Upload(_ context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	if key == "accounts/a/"+f.failOn {
		return errors.New("minio unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.stored[bucket+"/"+key] = string(data)
	return nil
}

func (f *fakeBlobs) PublicURL(bucket, key string) string {
	return "http://minio.local/" + bucket + "/" + key
}

type recorder struct {
	rows   []media.Stored
	failOn string
}

func (r *recorder) record(_ context.Context, s media.Stored) (string, error) {
	if s.FileName == r.failOn {
		return "", errors.New("insert failed")
	}
	r.rows = append(r.rows, s)
	return fmt.Sprintf("row-%d", len(r.rows)), nil
}

func TestUploadAllStoresEveryFile(t *testing.T) {
	blobs := newFakeBlobs()
	rec := &recorder{}
	g := NewGateway(blobs, nil)

	results, err := g.UploadAll(context.Background(), "photos", "a", []media.File{file("1.jpg", "one"), file("2.jpg", "two")}, rec.record)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(results) != 2 || len(rec.rows) != 2 {
		t.Fatalf("expected 2 results and rows, got %d/%d", len(results), len(rec.rows))
	}
	if results[1].RecordID != "row-2" || results[1].URL != "http://minio.local/photos/accounts/a/2.jpg" {
		t.Fatalf("unexpected result: %+v", results[1])
	}
	if blobs.stored["photos/accounts/a/1.jpg"] != "one" {
		t.Fatal("blob content not stored")
	}
}

func TestUploadAllAbortsOnFirstStoreFailure(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.failOn = "2.jpg"
	rec := &recorder{}
	g := NewGateway(blobs, nil)

	files := []media.File{file("1.jpg", "one"), file("2.jpg", "two"), file("3.jpg", "three")}
	results, err := g.UploadAll(context.Background(), "photos", "a", files, rec.record)

	var fe *FileError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FileError, got %v", err)
	}
	if fe.Index != 1 || fe.Stage != StageStore || fe.Name != "2.jpg" {
		t.Fatalf("unexpected file error: %+v", fe)
	}

	// The first file stays stored and recorded; the third is never tried.
	if len(results) != 1 || results[0].FileName != "1.jpg" {
		t.Fatalf("expected the first result kept, got %+v", results)
	}
	if len(rec.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rec.rows))
	}
	if _, ok := blobs.stored["photos/accounts/a/3.jpg"]; ok {
		t.Fatal("files after the failure must not be stored")
	}
}

func TestUploadAllRecordFailureLeavesBlob(t *testing.T) {
	blobs := newFakeBlobs()
	rec := &recorder{failOn: "1.jpg"}
	g := NewGateway(blobs, nil)

	results, err := g.UploadAll(context.Background(), "stories", "a", []media.File{file("1.jpg", "one"), file("2.jpg", "two")}, rec.record)

	var fe *FileError
	if !errors.As(err, &fe) || fe.Stage != StageRecord || fe.Index != 0 {
		t.Fatalf("expected record failure on file 0, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
	// The orphaned blob is left for the sweeper.
	if _, ok := blobs.stored["stories/accounts/a/1.jpg"]; !ok {
		t.Fatal("blob stored before the failed insert must remain")
	}
	if _, ok := blobs.stored["stories/accounts/a/2.jpg"]; ok {
		t.Fatal("second file must not be stored")
	}
}

func TestUploadAllValidatesBeforeStoring(t *testing.T) {
	blobs := newFakeBlobs()
	rec := &recorder{}
	g := NewGateway(blobs, nil)

	files := []media.File{file("1.jpg", "one"), file("empty.jpg", "")}
	results, err := g.UploadAll(context.Background(), "photos", "a", files, rec.record)

	var fe *FileError
	if !errors.As(err, &fe) || fe.Stage != StageValidate || fe.Index != 1 {
		t.Fatalf("expected validation failure on file 1, got %v", err)
	}
	if results != nil || len(blobs.stored) != 0 || len(rec.rows) != 0 {
		t.Fatal("nothing may be stored when validation fails")
	}
}

func TestUploadAllOpenFailure(t *testing.T) {
	g := NewGateway(newFakeBlobs(), nil)
	bad := file("x.jpg", "data")
	bad.Open = func() (media.ReadSeekCloser, error) { return nil, errors.New("disk gone") }

	_, err := g.UploadAll(context.Background(), "photos", "a", []media.File{bad}, (&recorder{}).record)

	var fe *FileError
	if !errors.As(err, &fe) || fe.Stage != StageOpen {
		t.Fatalf("expected open failure, got %v", err)
	}
}
