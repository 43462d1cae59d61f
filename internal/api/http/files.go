package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/templates"
)

// CreateFileRequest is the body of POST /files
type CreateFileRequest struct {
	Name string `json:"name"`
}

// UpdateFileRequest is the body of PUT /files
type UpdateFileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

// ListFiles returns the explorer listing, or the tree with ?view=tree
func (h *Handlers) ListFiles(c *gin.Context) {
	inst := instance(c)

	if c.Query("view") == "tree" {
		c.JSON(http.StatusOK, gin.H{"tree": inst.Explorer.Tree()})
		return
	}

	entries, err := inst.Explorer.Entries(c.Query("glob"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files":       entries,
		"active_file": inst.Workspace.ActiveFile(),
		"entry":       inst.Workspace.EntryFile(),
	})
}

// CreateFile creates a placeholder file and makes it active
func (h *Handlers) CreateFile(c *gin.Context) {
	var req CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	p, err := instance(c).Explorer.CreateFile(req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": p})
}

// UpdateFile replaces the content of an existing file
func (h *Handlers) UpdateFile(c *gin.Context) {
	var req UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if int64(len(req.Content)) > h.maxFileBytes {
		h.fail(c, fmt.Errorf("%w: %d bytes", errTooLarge, len(req.Content)))
		return
	}

	ws := instance(c).Workspace
	if err := ws.UpdateFile(req.Path, req.Content); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": req.Path, "revision": ws.Revision()})
}

// DeleteFile removes ?path=. Deleting the entry file succeeds without effect.
func (h *Handlers) DeleteFile(c *gin.Context) {
	p := c.Query("path")
	if err := instance(c).Explorer.Delete(p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": p})
}

// RawFile serves the content of ?path= with its detected MIME type
func (h *Handlers) RawFile(c *gin.Context) {
	content, err := instance(c).Workspace.File(c.Query("path"))
	if err != nil {
		h.fail(c, err)
		return
	}

	data := []byte(content)
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// UploadFile stores the raw request body at ?path=, converted to UTF-8.
// ?charset= overrides detection.
func (h *Handlers) UploadFile(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxFileBytes+1))
	if err != nil {
		badRequest(c, "read body: "+err.Error())
		return
	}
	if int64(len(data)) > h.maxFileBytes {
		h.fail(c, fmt.Errorf("%w: limit is %d bytes", errTooLarge, h.maxFileBytes))
		return
	}

	content, detected, err := decodeText(data, c.Query("charset"))
	if err != nil {
		h.fail(c, err)
		return
	}

	p, err := workspace.NormalizePath(c.Query("path"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := instance(c).Workspace.AddFile(p, content); err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Debug("File uploaded",
		zap.String("path", p),
		zap.String("charset", detected),
		zap.Int("bytes", len(data)))

	c.JSON(http.StatusCreated, gin.H{
		"path":    p,
		"charset": detected,
		"bytes":   len(content),
	})
}

// Archive exports the file set as zip, tar.gz or tar.zst
func (h *Handlers) Archive(c *gin.Context) {
	format, err := templates.ParseArchiveFormat(c.Query("format"))
	if err != nil {
		h.fail(c, err)
		return
	}

	inst := instance(c)
	snap := inst.Snapshot()
	root := inst.ID().String()

	var buf bytes.Buffer
	if err := templates.WriteArchive(&buf, format, root, snap.Files, snap.CreatedAt); err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, root, format.Extension()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// decodeText converts data to UTF-8. An empty label means detect.
func decodeText(data []byte, label string) (string, string, error) {
	if label == "" {
		if utf8.Valid(data) {
			return string(data), "utf-8", nil
		}
		result, err := chardet.NewTextDetector().DetectBest(data)
		if err != nil || result == nil {
			return "", "", fmt.Errorf("%w: cannot detect charset", templates.ErrUnsupportedFormat)
		}
		label = result.Charset
	}

	enc, name := charset.Lookup(label)
	if enc == nil {
		return "", "", fmt.Errorf("%w: unknown charset %q", templates.ErrUnsupportedFormat, label)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: decode %s: %w", templates.ErrUnsupportedFormat, name, err)
	}
	return string(out), name, nil
}
