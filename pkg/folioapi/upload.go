package folioapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// File is one part of a multipart upload.
type File struct {
	// Name is the filename sent to the server. Only its base is used.
	Name   string
	Reader io.Reader
}

// OpenFile opens path for upload. The caller closes the returned file.
func OpenFile(path string) (File, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, nil, fmt.Errorf("open upload %q: %w", path, err)
	}
	return File{Name: filepath.Base(path), Reader: f}, f, nil
}

// Upload posts files as a multipart body, every file under field. It follows
// the same error policy as the JSON calls.
func (c *Client) Upload(ctx context.Context, path, field string, files ...File) (Record, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	return c.postMultipart(ctx, path, func(w *multipart.Writer) error {
		for _, f := range files {
			part, err := w.CreateFormFile(field, filepath.Base(f.Name))
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, f.Reader); err != nil {
				return fmt.Errorf("copy %q: %w", f.Name, err)
			}
		}
		return nil
	})
}

// ClearUpload asks the server to remove the file previously stored at path.
func (c *Client) ClearUpload(ctx context.Context, path string) (Record, error) {
	return c.postMultipart(ctx, path, func(w *multipart.Writer) error {
		return w.WriteField("clear", "true")
	})
}

func (c *Client) postMultipart(ctx context.Context, path string, fill func(*multipart.Writer) error) (Record, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := fill(w); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, &buf, map[string]string{
		"Content-Type": w.FormDataContentType(),
	}, c.token())
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}
