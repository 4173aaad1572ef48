// Package inlineimg moves base64 images embedded in editor HTML to hosted
// storage and points the markup at the hosted copies.
package inlineimg

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const dataImagePrefix = "data:image/"

var bareDataURI = regexp.MustCompile(`(?s)^data:image/([^;"]+);base64,(.*)$`)

// Uploader stores decoded image bytes and returns the URL they are served from.
type Uploader interface {
	Upload(ctx context.Context, data []byte, subtype string) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, data []byte, subtype string) (string, error)

func (f UploaderFunc) Upload(ctx context.Context, data []byte, subtype string) (string, error) {
	return f(ctx, data, subtype)
}

// ImageDecodeError reports an inline image whose payload is not valid base64.
type ImageDecodeError struct {
	Index int
	Err   error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("inline image %d: decode base64: %v", e.Index, e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

// UploadError reports an inline image the uploader rejected.
type UploadError struct {
	Index   int
	Subtype string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("inline image %d (%s): upload: %v", e.Index, e.Subtype, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Report summarises one rewrite.
type Report struct {
	Found    int
	Uploaded int
	Failures []error
}

// Rewriter replaces inline images in HTML. The zero value uploads one image
// at a time and logs nothing.
type Rewriter struct {
	// Concurrency bounds parallel uploads. Values below 1 mean 1.
	Concurrency int
	Logger      *zap.SugaredLogger
}

// match is the position of one src="data:image/..." attribute in the document.
type match struct {
	start, end int
	value      string
	subtype    string
	payload    string
}

// Rewrite returns html with every successfully uploaded inline image pointing
// at its hosted URL. Images that fail to decode or upload keep their original
// src. It never fails as a whole.
func (rw *Rewriter) Rewrite(ctx context.Context, doc string, up Uploader) string {
	out, _ := rw.RewriteReport(ctx, doc, up)
	return out
}

// RewriteReport is Rewrite that also returns what happened to each image.
func (rw *Rewriter) RewriteReport(ctx context.Context, doc string, up Uploader) (string, Report) {
	if !strings.Contains(doc, dataImagePrefix) {
		return doc, Report{}
	}
	matches := scan(doc)
	rep := Report{Found: len(matches)}
	if len(matches) == 0 {
		return doc, rep
	}

	urls := make([]string, len(matches))
	errs := make([]error, len(matches))

	limit := rw.Concurrency
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, m := range matches {
		g.Go(func() error {
			urls[i], errs[i] = uploadOne(ctx, i, m.subtype, m.payload, up)
			return nil
		})
	}
	_ = g.Wait()

	log := rw.logger()
	var b strings.Builder
	b.Grow(len(doc))
	last := 0
	for i, m := range matches {
		if errs[i] != nil {
			rep.Failures = append(rep.Failures, errs[i])
			log.Warnw("inline image left embedded", "index", i, "subtype", m.subtype, "error", errs[i])
			continue
		}
		b.WriteString(doc[last:m.start])
		b.WriteString(`src="`)
		b.WriteString(html.EscapeString(urls[i]))
		b.WriteString(`"`)
		last = m.end
		rep.Uploaded++
	}
	b.WriteString(doc[last:])

	if rep.Uploaded > 0 || len(rep.Failures) > 0 {
		log.Debugw("inline images rewritten", "found", rep.Found, "uploaded", rep.Uploaded, "failed", len(rep.Failures))
	}
	return b.String(), rep
}

func (rw *Rewriter) logger() *zap.SugaredLogger {
	if rw.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return rw.Logger
}

// scan walks the tokens of doc and records, for every img tag, the byte range
// of a src attribute holding a base64 data URI. Offsets index the original
// document, so untouched markup is copied verbatim.
func scan(doc string) []match {
	var matches []match
	z := html.NewTokenizer(strings.NewReader(doc))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return matches
		}
		n := len(z.Raw())
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			// TagName lowercases the tokenizer buffer, so read the tag text
			// from doc rather than from Raw.
			name, _ := z.TagName()
			if string(name) == "img" {
				if m, ok := dataSrc(doc[offset : offset+n]); ok {
					m.start += offset
					m.end += offset
					matches = append(matches, m)
				}
			}
		}
		offset += n
	}
}

// dataSrc reports the first src attribute of a raw img tag when it holds a
// base64 data URI. Quoted values of other attributes are skipped whole, so
// text such as alt='src="data:..."' is never mistaken for the source.
func dataSrc(tag string) (match, bool) {
	start, end, raw, ok := srcAttr(tag)
	if !ok {
		return match{}, false
	}
	value := html.UnescapeString(raw)
	sm := bareDataURI.FindStringSubmatch(value)
	if sm == nil {
		return match{}, false
	}
	return match{start: start, end: end, value: value, subtype: sm[1], payload: sm[2]}, true
}

// srcAttr lexes the attributes of a raw start tag the way the HTML tokenizer
// does and returns the byte range of the first src attribute and its raw value.
func srcAttr(tag string) (start, end int, value string, ok bool) {
	i := 1
	for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '/' && tag[i] != '>' {
		i++
	}
	for i < len(tag) {
		for i < len(tag) && (isTagSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			return 0, 0, "", false
		}
		nameStart := i
		i++ // a leading '=' belongs to the name
		for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '/' && tag[i] != '>' && tag[i] != '=' {
			i++
		}
		name := tag[nameStart:i]

		hasValue := false
		var valStart, valEnd int
		j := i
		for j < len(tag) && isTagSpace(tag[j]) {
			j++
		}
		if j < len(tag) && tag[j] == '=' {
			hasValue = true
			j++
			for j < len(tag) && isTagSpace(tag[j]) {
				j++
			}
			if j < len(tag) && (tag[j] == '"' || tag[j] == '\'') {
				k := strings.IndexByte(tag[j+1:], tag[j])
				if k < 0 {
					return 0, 0, "", false
				}
				valStart, valEnd = j+1, j+1+k
				i = valEnd + 1
			} else {
				valStart = j
				for j < len(tag) && !isTagSpace(tag[j]) && tag[j] != '>' {
					j++
				}
				valEnd = j
				i = j
			}
		}
		if strings.EqualFold(name, "src") {
			if !hasValue {
				return 0, 0, "", false
			}
			return nameStart, i, tag[valStart:valEnd], true
		}
	}
	return 0, 0, "", false
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func uploadOne(ctx context.Context, index int, subtype, payload string, up Uploader) (string, error) {
	data, err := decode(payload)
	if err != nil {
		return "", &ImageDecodeError{Index: index, Err: err}
	}
	url, err := up.Upload(ctx, data, strings.ToLower(subtype))
	if err != nil {
		return "", &UploadError{Index: index, Subtype: subtype, Err: err}
	}
	if url == "" {
		return "", &UploadError{Index: index, Subtype: subtype, Err: errors.New("uploader returned an empty url")}
	}
	return url, nil
}

// decode accepts padded and unpadded standard base64 and ignores whitespace
// that editors insert when wrapping long attribute values.
func decode(payload string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, payload)
	if clean == "" {
		return nil, errors.New("empty payload")
	}
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(clean)
		if rawErr != nil {
			return nil, err
		}
	}
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}
	return data, nil
}

// ExternalizeDataURI uploads a bare data:image URI, as used for featured
// images and icons, and returns the hosted URL. Any other value is returned
// unchanged.
func ExternalizeDataURI(ctx context.Context, value string, up Uploader) (string, error) {
	if !strings.HasPrefix(value, dataImagePrefix) {
		return value, nil
	}
	m := bareDataURI.FindStringSubmatch(value)
	if m == nil {
		return "", &ImageDecodeError{Err: errors.New("not a base64 data URI")}
	}
	return uploadOne(ctx, 0, m[1], m[2], up)
}

// HasInlineImages reports whether any img tag still embeds a base64 image.
func HasInlineImages(doc string) bool {
	if !strings.Contains(doc, dataImagePrefix) {
		return false
	}
	return len(scan(doc)) > 0
}

// Preserve swaps the src of every img that still embeds a base64 image for a
// placeholder path, so an HTML sanitizer that drops data URIs it cannot parse
// keeps the tag. restore writes the original sources back into the sanitized
// output.
func Preserve(doc string) (masked string, restore func(string) string) {
	keep := func(s string) string { return s }
	if !strings.Contains(doc, dataImagePrefix) {
		return doc, keep
	}
	matches := scan(doc)
	if len(matches) == 0 {
		return doc, keep
	}

	// A fixed suffix keeps any placeholder from being a prefix of another.
	nonce := uuid.NewString()
	pairs := make([]string, 0, 2*len(matches))
	var b strings.Builder
	b.Grow(len(doc))
	last := 0
	for i, m := range matches {
		placeholder := fmt.Sprintf("/inline-image/%s/%d.img", nonce, i)
		b.WriteString(doc[last:m.start])
		b.WriteString(`src="` + placeholder + `"`)
		last = m.end
		pairs = append(pairs, placeholder, html.EscapeString(m.value))
	}
	b.WriteString(doc[last:])
	return b.String(), strings.NewReplacer(pairs...).Replace
}

// ImageSources lists the src of every img tag in document order.
func ImageSources(doc string) []string {
	var srcs []string
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return srcs
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "img" {
			continue
		}
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			if string(key) == "src" && len(val) > 0 {
				srcs = append(srcs, string(val))
				break
			}
		}
	}
}
