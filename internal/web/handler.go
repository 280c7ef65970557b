// Package web serves the HTML page and the JSON API for creative generation.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/creative"
	"github.com/BerylCAtieno/ad-creative-agent/internal/logger"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Handler struct {
	svc      *creative.Service
	cfg      *config.Config
	renderer *Renderer
	tmpl     *template.Template
}

func NewHandler(svc *creative.Service, cfg *config.Config) (*Handler, error) {
	tmpl, err := template.New("_root").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Handler{
		svc:      svc,
		cfg:      cfg,
		renderer: NewRenderer(),
		tmpl:     tmpl,
	}, nil
}

type pageData struct {
	Title        string
	Instructions string
	UseReal      bool
	Provider     string
	DefaultPath  string
	Example      string
	Error        string
	Hint         string
	Notice       string
	Result       *resultView
}

func (h *Handler) newPage() *pageData {
	provider := h.cfg.LLM.Provider
	if provider == "" {
		provider = "mistral"
	}
	return &pageData{
		Title:       h.cfg.Display.Title,
		UseReal:     h.cfg.LLM.UseReal,
		Provider:    provider,
		DefaultPath: filepath.Base(h.svc.DefaultInputPath()),
		Example:     exampleDocument,
	}
}

// Page renders the empty form.
func (h *Handler) Page(c *gin.Context) {
	h.render(c, http.StatusOK, h.newPage())
}

// Generate handles the form submit: the uploaded file, or the built-in sample
// when none was chosen, plus the optional instructions.
func (h *Handler) Generate(c *gin.Context) {
	page := h.newPage()
	page.Instructions = c.PostForm("instructions")
	page.UseReal = formBool(c.PostForm("use_real"))

	input, err := h.readUpload(c)
	if err != nil {
		status := http.StatusBadRequest
		if bodyTooLarge(err) {
			status = http.StatusRequestEntityTooLarge
		}
		page.Error = fmt.Sprintf("Could not read the uploaded file: %v", err)
		h.render(c, status, page)
		return
	}
	if input == nil {
		input, err = h.svc.LoadDefaultInput()
		if err != nil {
			logger.Log.Errorf("default input unavailable: %v", err)
			page.Error = fmt.Sprintf("Could not read the built-in sample %s: %v", page.DefaultPath, err)
			h.render(c, http.StatusInternalServerError, page)
			return
		}
		page.Notice = "Using the built-in sample: " + page.DefaultPath
	}

	resp, err := h.svc.Generate(c.Request.Context(), creative.Request{
		Input:        input,
		Instructions: page.Instructions,
		UseReal:      page.UseReal,
	})
	if err != nil {
		page.Error = creative.UserMessage(err)
		page.Hint = creative.Hint(err, h.cfg.LLM.Provider, page.UseReal)
		h.render(c, creative.HTTPStatus(err), page)
		return
	}

	page.Result = h.renderer.resultView(resp.Result, h.cfg.Display.CurrencySymbol)
	h.render(c, http.StatusOK, page)
}

// readUpload returns nil when no file was submitted.
func (h *Handler) readUpload(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Sample serves the built-in input document as a download.
func (h *Handler) Sample(c *gin.Context) {
	path := h.svc.DefaultInputPath()
	if _, err := os.Stat(path); err != nil {
		logger.Log.Warnf("sample file unavailable: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Sample file not available"})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

type creativesRequest struct {
	Input        json.RawMessage `json:"input"`
	Instructions string          `json:"instructions"`
	UseReal      *bool           `json:"use_real"`
}

// CreateCreatives is the JSON counterpart of Generate. A missing input falls
// back to the built-in sample; a missing use_real uses the configured default.
func (h *Handler) CreateCreatives(c *gin.Context) {
	var req creativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if bodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	input := []byte(req.Input)
	if len(bytes.TrimSpace(input)) == 0 || string(bytes.TrimSpace(input)) == "null" {
		data, err := h.svc.LoadDefaultInput()
		if err != nil {
			logger.Log.Errorf("default input unavailable: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Default input not available"})
			return
		}
		input = data
	}

	useReal := h.cfg.LLM.UseReal
	if req.UseReal != nil {
		useReal = *req.UseReal
	}

	resp, err := h.svc.Generate(c.Request.Context(), creative.Request{
		Input:        input,
		Instructions: req.Instructions,
		UseReal:      useReal,
	})
	if err != nil {
		body := gin.H{"error": creative.UserMessage(err)}
		if hint := creative.Hint(err, h.cfg.LLM.Provider, useReal); hint != "" {
			body["hint"] = hint
		}
		c.JSON(creative.HTTPStatus(err), body)
		return
	}
	c.JSON(http.StatusOK, resp.Result)
}

func (h *Handler) render(c *gin.Context, status int, page *pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page", page); err != nil {
		logger.Log.Errorf("template exec error: %v", err)
		c.String(http.StatusInternalServerError, "template exec error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func formBool(v string) bool {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "on") {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
