package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
)

// WithAttachments returns a copy of d whose Attachments reference each of
// its Files by upload index.
func (d MessageData) WithAttachments() MessageData {
	if len(d.Files) == 0 {
		return d
	}
	attachments := make([]Attachment, 0, len(d.Files))
	for i, file := range d.Files {
		attachments = append(attachments, Attachment{ID: i, Filename: file.Name})
	}
	d.Attachments = attachments
	return d
}

// EncodeMultipart writes payload as the payload_json part followed by one
// files[n] part per upload. It returns the body and its content type.
func EncodeMultipart(payload any, files []File) (io.Reader, string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("encode payload: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="payload_json"`)
	header.Set("Content-Type", "application/json")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create payload part: %w", err)
	}
	if _, err := part.Write(encoded); err != nil {
		return nil, "", fmt.Errorf("write payload part: %w", err)
	}

	for i, file := range files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[%d]"; filename=%q`, i, file.Name))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create file part %s: %w", file.Name, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("write file part %s: %w", file.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
