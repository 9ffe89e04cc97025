package churchtools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"songqs/internal/logging"
)

// DomainTypeSongArrangement is the file domain song attachments live in.
const DomainTypeSongArrangement = "song_arrangement"

// Files lists the attachments of a domain object, e.g. all files of one
// song arrangement.
func (c *Client) Files(ctx context.Context, domainType string, domainID int) ([]File, error) {
	path := "/api/files/" + domainType + "/" + strconv.Itoa(domainID)
	env, err := c.doJSON(ctx, "GET", path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files of %d: %w", domainType, domainID, err)
	}
	var files []File
	if err := json.Unmarshal(env.Data, &files); err != nil {
		return nil, fmt.Errorf("failed to decode file list: %w", err)
	}
	return files, nil
}

// DeleteFile removes one attachment.
func (c *Client) DeleteFile(ctx context.Context, fileID int) error {
	path := "/api/files/" + strconv.Itoa(fileID)
	if _, err := c.doJSON(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete file %d: %w", fileID, err)
	}
	return nil
}

// UploadFile attaches the local file at path to a domain object. With
// overwrite, existing attachments of the same name are deleted first so
// the arrangement keeps exactly one copy.
func (c *Client) UploadFile(ctx context.Context, domainType string, domainID int, path string, overwrite bool) error {
	name := filepath.Base(path)

	if overwrite {
		existing, err := c.Files(ctx, domainType, domainID)
		if err != nil {
			return err
		}
		for _, file := range existing {
			if file.Name != name {
				continue
			}
			if err := c.DeleteFile(ctx, file.ID); err != nil {
				return err
			}
			logging.L().Debug("deleted existing attachment before upload",
				zap.String("name", name), zap.Int("file", file.ID))
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read upload file: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files[]", name)
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}

	if err := c.wait(ctx); err != nil {
		return err
	}
	u := c.baseURL + "/api/files/" + domainType + "/" + strconv.Itoa(domainID)
	req, err := http.NewRequestWithContext(ctx, "POST", u, &body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Login "+c.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Message: apiMessage(raw)}
	}

	logging.L().Info("uploaded file",
		zap.String("name", name), zap.String("domain", domainType),
		zap.Int("id", domainID))
	return nil
}

// DownloadFile fetches the attachment with the given name from a domain
// object into targetDir. Returns an error when no attachment matches.
func (c *Client) DownloadFile(ctx context.Context, domainType string, domainID int, name, targetDir string) error {
	files, err := c.Files(ctx, domainType, domainID)
	if err != nil {
		return err
	}

	var fileURL string
	for _, file := range files {
		if file.Name == name {
			fileURL = file.FileURL
			break
		}
	}
	if fileURL == "" {
		return fmt.Errorf("no attachment %q on %s %d", name, domainType, domainID)
	}
	if !strings.HasPrefix(fileURL, "http") {
		fileURL = c.baseURL + fileURL
	}

	if err := c.wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("Authorization", "Login "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Message: apiMessage(raw)}
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	target := filepath.Join(targetDir, name)
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create download file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write download file: %w", err)
	}

	logging.L().Debug("downloaded file",
		zap.String("name", name), zap.String("target", target))
	return nil
}
