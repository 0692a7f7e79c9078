package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"gopherai-pdfchat/internal/metrics"
	"gopherai-pdfchat/internal/model"
	"gopherai-pdfchat/internal/storage"
)

// OverwritePolicy decides what happens when a document name is uploaded twice.
type OverwritePolicy string

const (
	// OverwriteReplace stores the new record and deletes the old backing file.
	OverwriteReplace OverwritePolicy = "replace"
	// OverwriteReject keeps the existing record and refuses the new upload.
	OverwriteReject OverwritePolicy = "reject"
)

func ParseOverwritePolicy(raw string) (OverwritePolicy, error) {
	switch OverwritePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OverwriteReplace:
		return OverwriteReplace, nil
	case OverwriteReject:
		return OverwriteReject, nil
	default:
		return "", fmt.Errorf("unknown overwrite policy %q", raw)
	}
}

// FileStore persists uploaded bytes.
type FileStore interface {
	Save(filename string, r io.Reader) (path string, size int64, err error)
	Remove(path string) error
}

// Extractor turns a stored PDF into text. Failures come back as ("", 0).
type Extractor interface {
	Extract(path string) (text string, pages int)
}

type DocumentService struct {
	files     FileStore
	extractor Extractor
	policy    OverwritePolicy
	logger    *zerolog.Logger
}

func NewDocumentService(files FileStore, extractor Extractor, policy OverwritePolicy, logger *zerolog.Logger) *DocumentService {
	if policy == "" {
		policy = OverwriteReplace
	}
	return &DocumentService{
		files:     files,
		extractor: extractor,
		policy:    policy,
		logger:    logger,
	}
}

// IsPDF reports whether filename carries a .pdf extension.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// Upload stores r, extracts its text and adds the resulting document under the
// sanitised filename.
func (s *DocumentService) Upload(ctx context.Context, sess *model.Session, filename string, r io.Reader) (*model.Document, error) {
	if !IsPDF(filename) {
		metrics.UploadObserved("rejected_type")
		return nil, ErrUnsupportedFile
	}
	name := storage.SanitizeFilename(filename)
	if _, exists := sess.Document(name); exists && s.policy == OverwriteReject {
		metrics.UploadObserved("rejected_duplicate")
		return nil, ErrDocumentExists
	}

	path, size, err := s.files.Save(name, r)
	if err != nil {
		metrics.UploadObserved("error")
		return nil, err
	}

	text, pages := s.extractor.Extract(path)
	doc := model.Document{
		Name:        name,
		StoragePath: path,
		Text:        text,
		Pages:       pages,
		SizeKB:      model.SizeInKB(size),
	}
	if err := s.Add(sess, doc); err != nil {
		s.removeFile(path, "rejected")
		metrics.UploadObserved("rejected")
		return nil, err
	}

	s.logger.Info().
		Str("session_id", sess.ID).
		Str("document", name).
		Int("pages", pages).
		Float64("size_kb", doc.SizeKB).
		Bool("has_text", strings.TrimSpace(text) != "").
		Msg("document uploaded")
	metrics.UploadObserved("ok")
	return &doc, nil
}

// Add stores doc under its name according to the overwrite policy.
func (s *DocumentService) Add(sess *model.Session, doc model.Document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return ErrInvalidInput
	}
	if _, exists := sess.Document(doc.Name); exists && s.policy == OverwriteReject {
		return ErrDocumentExists
	}
	prev := sess.PutDocument(doc)
	if prev != nil && prev.StoragePath != doc.StoragePath {
		s.removeFile(prev.StoragePath, "overwrite")
	}
	return nil
}

func (s *DocumentService) List(sess *model.Session) []model.DocumentSummary {
	return sess.DocumentSummaries()
}

func (s *DocumentService) Get(sess *model.Session, name string) (*model.Document, error) {
	doc, ok := sess.Document(name)
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &doc, nil
}

// Remove drops one document, its backing file and its transcript.
func (s *DocumentService) Remove(sess *model.Session, name string) error {
	doc, ok := sess.DeleteDocument(name)
	if !ok {
		return ErrDocumentNotFound
	}
	s.removeFile(doc.StoragePath, "remove")
	sess.ClearTranscript(name)
	return nil
}

// RemoveAll drops every document, every backing file and every transcript.
// The session itself stays usable.
func (s *DocumentService) RemoveAll(sess *model.Session) {
	for _, doc := range sess.DeleteAllDocuments() {
		s.removeFile(doc.StoragePath, "remove_all")
	}
	sess.ClearTranscripts()
}

// Reset clears the session like RemoveAll. The caller is expected to discard the
// session handle afterwards.
func (s *DocumentService) Reset(sess *model.Session) {
	s.RemoveAll(sess)
	s.logger.Info().Str("session_id", sess.ID).Msg("session reset")
}

// StoredFile resolves the path of one of the session's own uploads by its base name.
func (s *DocumentService) StoredFile(sess *model.Session, filename string) (string, error) {
	for _, doc := range sess.Documents {
		if doc.StoragePath != "" && filepath.Base(doc.StoragePath) == filename {
			return doc.StoragePath, nil
		}
	}
	return "", ErrDocumentNotFound
}

func (s *DocumentService) removeFile(path, reason string) {
	err := s.files.Remove(path)
	metrics.FileRemoved(reason, err)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Str("reason", reason).Msg("delete upload file failed")
	}
}
