package storage

import (
	"context"
	"errors"
	"testing"
)

func TestObjectURL(t *testing.T) {
	cases := []struct {
		name     string
		endpoint string
		want     string
	}{
		{
			name: "aws",
			want: "https://ddq-artifacts.s3.eu-west-1.amazonaws.com/ddq_responses/a.docx",
		},
		{
			name:     "custom endpoint",
			endpoint: "http://localhost:9000/",
			want:     "http://localhost:9000/ddq-artifacts/ddq_responses/a.docx",
		},
	}

	for _, tc := range cases {
		got := objectURL(tc.endpoint, "ddq-artifacts", "eu-west-1", "ddq_responses/a.docx")
		if got != tc.want {
			t.Errorf("%s: objectURL = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore("https://blobs")

	url, err := store.Upload(context.Background(), "p/x.docx", "application/test", []byte("payload"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://blobs/p/x.docx" {
		t.Fatalf("unexpected url: %q", url)
	}

	data, contentType, ok := store.Object("p/x.docx")
	if !ok || string(data) != "payload" || contentType != "application/test" {
		t.Fatalf("unexpected stored object: %q %q %v", data, contentType, ok)
	}
}

func TestMemoryStoreFailWith(t *testing.T) {
	store := NewMemoryStore("https://blobs")
	store.FailWith(errors.New("denied"))

	if _, err := store.Upload(context.Background(), "x", "t", nil); err == nil {
		t.Fatal("expected injected failure")
	}
	if len(store.Names()) != 0 {
		t.Fatal("failed uploads must not persist anything")
	}
}
