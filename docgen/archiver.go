package docgen

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fabfab/ddq-agent/storage"
)

const ContentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const safeNameMaxChars = 30

// Archiver renders response documents and uploads them to blob storage.
type Archiver struct {
	store  storage.BlobStore
	prefix string
	logger *log.Logger
}

func NewArchiver(store storage.BlobStore, prefix string, logger *log.Logger) *Archiver {
	if prefix == "" {
		prefix = "ddq_responses"
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Archiver{store: store, prefix: prefix, logger: logger}
}

// Archive renders the document and uploads it under a collision-resistant
// name. The URL is only returned when the upload succeeded; there is no
// partial artifact to reference otherwise.
func (a *Archiver) Archive(ctx context.Context, question, answer string, sources []string, templateID string) (string, error) {
	layout := Lookup(templateID)

	data, err := Render(question, answer, sources, layout)
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}

	name := blobName(a.prefix, question)
	url, err := a.store.Upload(ctx, name, ContentTypeDocx, data)
	if err != nil {
		return "", fmt.Errorf("upload document %s: %w", name, err)
	}

	a.logger.Printf("archived response document %s (%d bytes, template %s)", name, len(data), layout.Name)
	return url, nil
}

// blobName derives a readable, unique object name from the question:
// a sanitized prefix of the question plus a timestamp and random suffix.
func blobName(prefix, question string) string {
	safe := question
	if len(safe) > safeNameMaxChars {
		safe = safe[:safeNameMaxChars]
	}

	var sb strings.Builder
	for _, r := range safe {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('_')
		}
	}

	name := strings.Trim(sb.String(), "_")
	if name == "" {
		name = "response"
	}

	timestamp := time.Now().UTC().Format("20060102150405")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	return fmt.Sprintf("%s/%s_%s_%s.docx", prefix, name, timestamp, suffix)
}
