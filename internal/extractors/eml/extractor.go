// Package eml extracts the headers and readable body of RFC 822 email files.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/extractors/html"
	"github.com/custodia-labs/docsearch/internal/extractors/text"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// maxDepth bounds nested multipart recursion.
const maxDepth = 8

// Extractor handles .eml messages. Text parts are decoded by the text
// extractor and HTML parts by the HTML extractor.
type Extractor struct {
	text *text.Extractor
	html *html.Extractor
}

// New creates an email extractor.
func New() *Extractor {
	return &Extractor{text: text.New(), html: html.New()}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the From, To, Date and Subject headers followed by the
// body. Plain text parts are preferred over HTML alternatives.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %w", domain.ErrExtraction, raw.Name, err)
	}

	var out strings.Builder
	for _, h := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			fmt.Fprintf(&out, "%s: %s\n", h, v)
		}
	}

	body, err := e.body(ctx, raw.Name, textproto.MIMEHeader(msg.Header), msg.Body, 0)
	if err != nil {
		return "", err
	}
	if body != "" {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(body)
	}
	return strings.TrimSpace(out.String()), nil
}

// body decodes one MIME entity.
func (e *Extractor) body(
	ctx context.Context, name string, header textproto.MIMEHeader, r io.Reader, depth int,
) (string, error) {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "text/plain", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxDepth {
			return "", nil
		}
		return e.multipart(ctx, name, r, params["boundary"], depth)
	}

	content, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), r))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, name, err)
	}

	part := &domain.RawDocument{Name: name, MIMEType: contentType, Content: content}
	switch mediaType {
	case "text/html":
		return e.html.Extract(ctx, part)
	case "text/plain", "text/markdown":
		return e.text.Extract(ctx, part)
	default:
		// Attachments are not indexed.
		return "", nil
	}
}

// multipart collects text parts, falling back to HTML parts when a message
// has no plain text.
func (e *Extractor) multipart(
	ctx context.Context, name string, r io.Reader, boundary string, depth int,
) (string, error) {
	if boundary == "" {
		return "", nil
	}

	var plain, rich []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Keep what was read before a malformed boundary.
			break
		}

		if disposition, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disposition == "attachment" {
			part.Close()
			continue
		}

		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		s, err := e.body(ctx, name, part.Header, part, depth+1)
		part.Close()
		if err != nil || s == "" {
			continue
		}
		if mediaType == "text/html" {
			rich = append(rich, s)
		} else {
			plain = append(plain, s)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(rich, "\n"), nil
}

// decodeTransfer undoes base64 and quoted-printable encodings.
// multipart.Reader already strips quoted-printable from parts.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// decodeHeader decodes RFC 2047 encoded words in any charset x/net knows.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := &mime.WordDecoder{
		CharsetReader: func(label string, input io.Reader) (io.Reader, error) {
			return charset.NewReaderLabel(label, input)
		},
	}
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}
