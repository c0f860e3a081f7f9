package studyapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"studyhall/internal/flashcards"
)

// ListDocuments returns the caller's documents.
func (c *Client) ListDocuments(ctx context.Context) ([]flashcards.Document, error) {
	var docs []flashcards.Document
	if err := c.doJSON(ctx, "list documents", http.MethodGet, c.endpoint("api", "documents"), nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument returns one document.
func (c *Client) GetDocument(ctx context.Context, documentID string) (flashcards.Document, error) {
	var doc flashcards.Document
	err := c.doJSON(ctx, "get document", http.MethodGet, c.endpoint("api", "documents", documentID), nil, &doc)
	return doc, err
}

// RenameDocument changes a document's title.
func (c *Client) RenameDocument(ctx context.Context, documentID, title string) (flashcards.Document, error) {
	var doc flashcards.Document
	title = strings.TrimSpace(title)
	if title == "" {
		return doc, Wrap(ErrRejected, "rename document", "title required", nil)
	}
	payload := map[string]string{"title": title}
	err := c.doJSON(ctx, "rename document", http.MethodPut, c.endpoint("api", "documents", documentID), payload, &doc)
	return doc, err
}

// DeleteDocument removes a document and everything generated from it.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	return c.doJSON(ctx, "delete document", http.MethodDelete, c.endpoint("api", "documents", documentID), nil, nil)
}

// UploadDocument sends content as a multipart "file" field. The backend
// returns the document in the processing state.
func (c *Client) UploadDocument(ctx context.Context, title, fileName string, content io.Reader) (flashcards.Document, error) {
	const op = "upload document"
	var doc flashcards.Document

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if strings.TrimSpace(title) != "" {
		if err := writer.WriteField("title", strings.TrimSpace(title)); err != nil {
			return doc, Wrap(ErrRejected, op, "encode title", err)
		}
	}
	part, err := writer.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return doc, Wrap(ErrRejected, op, "create form file", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return doc, Wrap(ErrRejected, op, "read upload", err)
	}
	if err := writer.Close(); err != nil {
		return doc, Wrap(ErrRejected, op, "finish form", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("api", "documents", "upload"), &body, writer.FormDataContentType())
	if err != nil {
		return doc, Wrap(ErrTransport, op, "build request", err)
	}
	err = c.do(op, req, &doc)
	return doc, err
}

// EventsURL returns the websocket URL of the document status stream.
func (c *Client) EventsURL() (string, error) {
	u := c.baseURL.JoinPath("api", "documents", "events")
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("events url: unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// AuthHeader returns the headers a websocket dial needs to authenticate.
func (c *Client) AuthHeader() http.Header {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	return header
}

