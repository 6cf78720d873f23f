package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/providers/ipfs"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
	"github.com/feral-file/ff-marketplace-indexer/internal/uri"
)

// Reason explains why a descriptor could not be enriched
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNoContentHash Reason = "no_content_hash"
	ReasonNotFound      Reason = "not_found"
	ReasonFetchFailed   Reason = "fetch_failed"
	ReasonParseFailed   Reason = "parse_failed"
	ReasonNotAnObject   Reason = "not_an_object"
)

// Fields are the artwork attributes read from a descriptor document.
// A nil pointer or nil slice means the document did not provide the field.
type Fields struct {
	Name        *string
	Description *string
	YearCreated *string
	CreatedBy   *string
	ImageURI    *string
	ImageHash   *string
	Tags        []string
}

// Result is the outcome of enriching one descriptor URI.
// Fields is set only when Reason is ReasonNone.
type Result struct {
	DescriptorHash *string
	Fields         *Fields
	// Raw is the canonical JSON of the document, when it could be canonicalized
	Raw    []byte
	Reason Reason
	Err    error
}

// Enriched reports whether the descriptor was fetched and parsed
func (r Result) Enriched() bool {
	return r.Reason == ReasonNone && r.Fields != nil
}

// ApplyTo copies the result onto an artwork. Fields the document did not provide are left untouched.
func (r Result) ApplyTo(artwork *schema.Artwork) {
	if r.DescriptorHash != nil {
		artwork.DescriptorHash = r.DescriptorHash
	}

	if !r.Enriched() {
		return
	}

	f := r.Fields
	if f.Name != nil {
		artwork.Name = f.Name
	}
	if f.Description != nil {
		artwork.Description = f.Description
	}
	if f.YearCreated != nil {
		artwork.YearCreated = f.YearCreated
	}
	if f.CreatedBy != nil {
		artwork.CreatedBy = f.CreatedBy
	}
	if f.ImageURI != nil {
		artwork.ImageURI = f.ImageURI
	}
	if f.ImageHash != nil {
		artwork.ImageHash = f.ImageHash
	}
	if f.Tags != nil {
		artwork.Tags = f.Tags
	}
	if len(r.Raw) > 0 {
		artwork.Metadata = r.Raw
	}
}

// Enricher resolves a descriptor URI into artwork fields
//
//go:generate mockgen -source=enricher.go -destination=../mocks/enricher.go -package=mocks -mock_names=Enricher=MockEnricher
type Enricher interface {
	// Enrich never fails; problems are reported through Result.Reason and Result.Err
	Enrich(ctx context.Context, descriptorURI string) Result
}

type enricher struct {
	ipfsClient ipfs.Client
	jcs        adapter.JCS
}

// NewEnricher creates a new descriptor enricher
func NewEnricher(ipfsClient ipfs.Client, jcs adapter.JCS) Enricher {
	return &enricher{
		ipfsClient: ipfsClient,
		jcs:        jcs,
	}
}

func (e *enricher) Enrich(ctx context.Context, descriptorURI string) Result {
	hash, ok := uri.ExtractContentHash(descriptorURI)
	if !ok {
		logger.DebugCtx(ctx, "Descriptor URI has no content hash", zap.String("uri", descriptorURI))
		return Result{Reason: ReasonNoContentHash}
	}

	result := Result{DescriptorHash: &hash}

	body, err := e.ipfsClient.Fetch(ctx, hash)
	if err != nil {
		result.Err = err
		result.Reason = ReasonFetchFailed
		if errors.Is(err, ipfs.ErrContentNotFound) {
			result.Reason = ReasonNotFound
		}
		logger.WarnCtx(ctx, "Failed to fetch descriptor",
			zap.String("hash", hash),
			zap.String("reason", string(result.Reason)),
			zap.Error(err))
		return result
	}

	doc, reason, err := decodeDocument(body)
	if err != nil {
		result.Err = err
		result.Reason = reason
		logger.WarnCtx(ctx, "Failed to parse descriptor",
			zap.String("hash", hash),
			zap.String("reason", string(reason)),
			zap.Error(err))
		return result
	}

	result.Fields = extractFields(doc)

	raw, err := e.jcs.Transform(body)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to canonicalize descriptor", zap.String("hash", hash), zap.Error(err))
	} else {
		result.Raw = raw
	}

	return result
}

// decodeDocument parses a descriptor, keeping numbers in their original text form
func decodeDocument(body []byte) (map[string]interface{}, Reason, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, ReasonParseFailed, fmt.Errorf("failed to decode descriptor: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, ReasonParseFailed, errors.New("failed to decode descriptor: trailing data")
	}

	doc, ok := value.(map[string]interface{})
	if !ok {
		return nil, ReasonNotAnObject, fmt.Errorf("descriptor is %T, not an object", value)
	}

	return doc, ReasonNone, nil
}

func extractFields(doc map[string]interface{}) *Fields {
	f := &Fields{
		Name:        stringField(doc, "name"),
		Description: stringField(doc, "description"),
		YearCreated: stringField(doc, "yearCreated"),
		CreatedBy:   stringField(doc, "createdBy"),
		ImageURI:    stringField(doc, "image"),
	}

	if f.ImageURI != nil {
		if hash, ok := uri.ExtractContentHash(*f.ImageURI); ok {
			f.ImageHash = &hash
		}
	}

	if items, ok := doc["tags"].([]interface{}); ok {
		f.Tags = make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := renderScalar(item); ok {
				f.Tags = append(f.Tags, s)
			}
		}
	}

	return f
}

func stringField(doc map[string]interface{}, key string) *string {
	s, ok := renderScalar(doc[key])
	if !ok {
		return nil
	}
	return &s
}

// renderScalar renders strings as-is and numbers or booleans as their JSON text
func renderScalar(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
