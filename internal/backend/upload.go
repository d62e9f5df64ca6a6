package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// ProgressFunc receives the percentage of the request body sent so far.
type ProgressFunc func(percent int)

// FilePart is one file in a multipart upload.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Content     io.Reader
}

// Upload posts fields and file as multipart/form-data and decodes the result
// into out. progress, when set, sees non-decreasing values ending at 100.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, file FilePart, progress ProgressFunc, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.FileName))
	if file.ContentType != "" {
		header.Set("Content-Type", file.ContentType)
	}

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}

	if _, err := io.Copy(part, file.Content); err != nil {
		return fmt.Errorf("copy file content: %w", err)
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	var body io.Reader = bytes.NewReader(buf.Bytes())
	if progress != nil {
		body = &progressReader{r: body, total: int64(buf.Len()), fn: progress, last: -1}
	}

	return c.do(ctx, http.MethodPost, path, url.Values(nil), body, mw.FormDataContentType(), out)
}

type progressReader struct {
	r     io.Reader
	total int64
	sent  int64
	last  int
	fn    ProgressFunc
}

func (p *progressReader) Size() int64 {
	return p.total
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.sent += int64(n)

	if p.total > 0 {
		pct := int(p.sent * 100 / p.total)
		if pct > p.last {
			p.last = pct
			p.fn(pct)
		}
	}

	return n, err
}
