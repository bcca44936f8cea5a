// Package extract validates and decodes raw chat-history exports.
//
// A source is either a JSON export document or a TAR archive holding
// one. When an archive holds several candidate documents the extractor
// fails with an ambiguous-member error rather than silently picking
// one; callers can opt into the legacy first-member behavior.
package extract

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/chatvault/core"
	"github.com/poiesic/chatvault/storage"
)

// exportDocument is the on-disk shape of an export payload.
type exportDocument struct {
	UserID        string                           `json:"user_id"`
	ExportDate    string                           `json:"export_date"`
	Conversations map[string]*core.RawConversation `json:"conversations"`
}

// Extractor decodes export sources into RawExport values.
type Extractor struct {
	raws             storage.RawStorage
	allowFirstMember bool
	logger           *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithFirstMember opts into taking the first candidate document when
// an archive holds several. Off by default: the ambiguity is surfaced
// as an error because silently picking a member loses data.
func WithFirstMember(allow bool) Option {
	return func(e *Extractor) error {
		e.allowFirstMember = allow
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an Extractor. raws may be nil, in which case no audit
// copy is written and export ids are generated locally.
func New(raws storage.RawStorage, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		raws:   raws,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ExtractFile decodes the export at path.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*core.RawExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{Kind: KindNotFound, Detail: path, Err: err}
	}
	return e.extract(ctx, data, filepath.Base(path))
}

// Extract decodes an export from an already-open byte stream.
// sourceName labels the stream in errors and export metadata.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, sourceName string) (*core.RawExport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ExtractionError{Kind: KindNotFound, Detail: sourceName, Err: err}
	}
	return e.extract(ctx, data, sourceName)
}

func (e *Extractor) extract(ctx context.Context, data []byte, sourceName string) (*core.RawExport, error) {
	member := data
	memberName := sourceName

	if isTarArchive(data, sourceName) {
		var err error
		member, memberName, err = e.selectArchiveMember(data, sourceName)
		if err != nil {
			return nil, err
		}
	}

	var doc exportDocument
	if err := json.Unmarshal(member, &doc); err != nil {
		return nil, &ExtractionError{Kind: KindMalformed, Detail: memberName, Err: err}
	}
	if doc.UserID == "" {
		return nil, &ExtractionError{Kind: KindMissingField, Detail: "user_id"}
	}

	raw := &core.RawExport{
		UserID:        doc.UserID,
		ExportDate:    parseExportDate(doc.ExportDate),
		SourceFile:    sourceName,
		Conversations: doc.Conversations,
	}
	if raw.Conversations == nil {
		raw.Conversations = map[string]*core.RawConversation{}
	}

	exportID, err := e.storeAudit(ctx, member, raw)
	if err != nil {
		return nil, err
	}
	raw.ExportID = exportID

	e.logger.Info("export extracted",
		"source", sourceName, "export_id", exportID, "conversations", len(raw.Conversations))
	return raw, nil
}

// storeAudit writes the raw payload copy and returns the export id the
// loader anchors its rows on.
func (e *Extractor) storeAudit(ctx context.Context, payload []byte, raw *core.RawExport) (string, error) {
	if e.raws == nil {
		return uuid.NewString(), nil
	}
	return e.raws.Store(ctx, payload, storage.RawMeta{
		UserID:     raw.UserID,
		ExportDate: raw.ExportDate,
		SourceFile: raw.SourceFile,
	})
}

// selectArchiveMember picks the structured document member of a TAR archive.
func (e *Extractor) selectArchiveMember(data []byte, sourceName string) ([]byte, string, error) {
	reader := tar.NewReader(bytes.NewReader(data))

	var (
		first      []byte
		firstName  string
		candidates []string
	)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", &ExtractionError{Kind: KindMalformed, Detail: sourceName, Err: err}
		}
		if header.Typeflag != tar.TypeReg || !strings.HasSuffix(header.Name, ".json") {
			continue
		}
		candidates = append(candidates, header.Name)
		if first == nil {
			body, err := io.ReadAll(reader)
			if err != nil {
				return nil, "", &ExtractionError{Kind: KindMalformed, Detail: header.Name, Err: err}
			}
			first = body
			firstName = header.Name
		}
	}

	switch {
	case len(candidates) == 0:
		return nil, "", &ExtractionError{Kind: KindMalformed, Detail: sourceName + ": no document member"}
	case len(candidates) > 1 && !e.allowFirstMember:
		return nil, "", &ExtractionError{
			Kind:   KindAmbiguousArchiveMember,
			Detail: strings.Join(candidates, ", "),
		}
	case len(candidates) > 1:
		e.logger.Warn("archive holds multiple documents, taking first member",
			"member", firstName, "candidates", len(candidates))
	}
	return first, firstName, nil
}

// isTarArchive detects a TAR source by name or by the ustar magic.
func isTarArchive(data []byte, name string) bool {
	if strings.HasSuffix(name, ".tar") {
		return true
	}
	const magicOffset = 257
	return len(data) > magicOffset+5 && bytes.Equal(data[magicOffset:magicOffset+5], []byte("ustar"))
}

// parseExportDate parses the export timestamp, tolerating the date
// formats seen in the wild. A value that parses as nothing yields the
// zero time; export date is metadata, not a validity requirement.
func parseExportDate(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
