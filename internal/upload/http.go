package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
)

// maxResponseBytes 限制上传响应体大小
const maxResponseBytes = 1 << 20

// Result is the backend's answer to a successful upload
type Result struct {
	Name      string `json:"name"`
	Subfolder string `json:"subfolder,omitempty"`
	Type      string `json:"type,omitempty"`
}

// RelativePath is the value the combo widget stores for this upload
func (r Result) RelativePath() string {
	if r.Subfolder != "" {
		return r.Subfolder + "/" + r.Name
	}
	return r.Name
}

// Uploader sends one file to an upload endpoint
type Uploader interface {
	Upload(ctx context.Context, endpoint, formField string, file editor.File, opts Options) (*Result, error)
}

// StatusError reports a non-200 upload response
type StatusError struct {
	StatusCode int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.StatusText)
}

// uploadError 包装上传相关的错误
type uploadError struct {
	operation string
	path      string
	err       error
}

func (e *uploadError) Error() string {
	return fmt.Sprintf("upload %s failed for %s: %v", e.operation, e.path, e.err)
}

func (e *uploadError) Unwrap() error {
	return e.err
}

// HTTPUploader posts multipart forms to the backend
type HTTPUploader struct {
	client  *http.Client
	baseURL string
}

// NewHTTPUploader creates an uploader for the backend at baseURL
func NewHTTPUploader(client *http.Client, baseURL string) *HTTPUploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPUploader{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Upload implements Uploader
func (u *HTTPUploader) Upload(ctx context.Context, endpoint, formField string, file editor.File, opts Options) (*Result, error) {
	// 打开文件内容
	content, err := file.Open()
	if err != nil {
		return nil, &uploadError{operation: "open file", path: file.Name, err: err}
	}

	// 以流的方式写入 multipart 请求体
	body, writer := io.Pipe()
	form := multipart.NewWriter(writer)
	go func() {
		defer content.Close()
		writer.CloseWithError(writeForm(form, formField, file, content, opts))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+endpoint, body)
	if err != nil {
		body.Close()
		return nil, &uploadError{operation: "build request", path: file.Name, err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	logrus.Debugf("Uploading %s (%d bytes) to %s", file.Name, file.Size, endpoint)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, &uploadError{operation: "send request", path: file.Name, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}

	var result Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return nil, &uploadError{operation: "decode response", path: file.Name, err: err}
	}
	if result.Name == "" {
		return nil, &uploadError{operation: "decode response", path: file.Name, err: fmt.Errorf("response has no name")}
	}

	logrus.Infof("Successfully uploaded %s as %s", file.Name, result.RelativePath())
	return &result, nil
}

func writeForm(form *multipart.Writer, formField string, file editor.File, content io.Reader, opts Options) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(formField), escapeQuotes(file.Name)))
	contentType := file.MediaType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}

	// 粘贴的文件放到固定子目录
	if opts.IsPasted {
		if err := form.WriteField("subfolder", PastedSubfolder); err != nil {
			return err
		}
	}
	return form.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
