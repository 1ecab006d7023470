package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/materialbox/internal/export"
	"github.com/hyperifyio/materialbox/internal/ingest"
	"github.com/hyperifyio/materialbox/internal/material"
	"github.com/hyperifyio/materialbox/internal/normalize"
	"github.com/hyperifyio/materialbox/internal/store"
)

// Title lengths, in runes, taken from the summary.
const (
	ListTitleRunes   = 15
	DetailTitleRunes = 20
)

const untitled = "无标题"

type uploadResponse struct {
	Status string  `json:"status"`
	IDs    []int64 `json:"ids"`
	Count  int     `json:"count"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type textUploadRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type chatRequest struct {
	DocID       int64  `json:"doc_id"`
	Message     string `json:"message"`
	Instruction string `json:"instruction"`
	Mode        string `json:"mode"`
}

// card is the JSON view of a document.
type card struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Themes  []string `json:"themes"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Date    string   `json:"date"`
}

func toCard(d store.Document, titleRunes int) card {
	themes := d.Themes
	if themes == nil {
		themes = []string{}
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return card{
		ID:      d.ID,
		Title:   title(d.Summary, titleRunes),
		Type:    d.Category,
		Themes:  themes,
		Content: d.Content,
		Tags:    tags,
		Date:    d.Date(),
	}
}

func title(summary string, n int) string {
	if summary == "" {
		return untitled
	}
	if utf8.RuneCountInString(summary) > n {
		summary = string([]rune(summary)[:n])
	}
	return summary + "..."
}

// fail writes err as a {"detail": ...} payload.
func (s *Server) fail(c *gin.Context, err error) {
	ae := mapError(err)
	if ae.Code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(ae.Code, gin.H{"detail": ae.Message})
}

func (s *Server) uploadResult(c *gin.Context, res ingest.Result, err error) {
	if errors.Is(err, ingest.ErrNothingExtracted) {
		c.JSON(http.StatusOK, statusResponse{Status: "error", Message: err.Error()})
		return
	}
	if err != nil {
		ae := mapError(err)
		log.Error().Err(err).Msg("upload failed")
		c.JSON(ae.Code, statusResponse{Status: "error", Message: ae.Message})
		return
	}
	c.JSON(http.StatusOK, uploadResponse{Status: "success", IDs: res.IDs, Count: res.Count})
}

func (s *Server) handleUploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: msgMissingFile})
		return
	}
	if fh.Size > s.opts.MaxUploadBytes {
		s.rejectTooLarge(c, fh.Filename, fh.Size)
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.uploadResult(c, ingest.Result{}, err)
		return
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, s.opts.MaxUploadBytes+1)); err != nil {
		s.uploadResult(c, ingest.Result{}, err)
		return
	}
	if int64(buf.Len()) > s.opts.MaxUploadBytes {
		s.rejectTooLarge(c, fh.Filename, int64(buf.Len()))
		return
	}
	log.Info().Str("file", fh.Filename).Int64("size", fh.Size).Msg("file upload received")
	res, err := s.uploads.UploadFile(c.Request.Context(), fh.Filename, buf.Bytes())
	s.uploadResult(c, res, err)
}

func (s *Server) rejectTooLarge(c *gin.Context, name string, size int64) {
	log.Info().Str("file", name).Int64("size", size).Int64("limit", s.opts.MaxUploadBytes).Msg("upload rejected: too large")
	c.JSON(http.StatusRequestEntityTooLarge, statusResponse{Status: "error", Message: fmt.Sprintf(msgTooLarge, s.opts.MaxUploadBytes)})
}

func (s *Server) handleUploadText(c *gin.Context) {
	req := textUploadRequest{Type: "text"}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msgBadRequest})
		return
	}
	res, err := s.uploads.UploadText(c.Request.Context(), req.Text, req.Type)
	s.uploadResult(c, res, err)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msgBadRequest})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": s.assistant.Analyze(c.Request.Context(), req.Content)})
}

func (s *Server) handleImitate(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msgBadRequest})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": s.assistant.Imitate(c.Request.Context(), req.Content)})
}

func (s *Server) handleChat(c *gin.Context) {
	req := chatRequest{Mode: "general"}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msgBadRequest})
		return
	}
	msg := req.Instruction
	if msg == "" {
		msg = req.Message
	}
	if msg == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msgEmptyChat})
		return
	}
	log.Info().Int64("doc_id", req.DocID).Str("mode", req.Mode).Msg("chat request")
	doc, ok, err := s.docs.Get(c.Request.Context(), req.DocID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"response": msgDocMissing})
		return
	}
	prompt := normalize.ChatPrompt(doc.Content, req.Mode, msg)
	c.JSON(http.StatusOK, gin.H{"response": s.assistant.Chat(c.Request.Context(), prompt, "")})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.docs.List(c.Request.Context(), store.Filter{
		Query:    c.Query("query"),
		Category: c.Query("type"),
		Theme:    c.Query("theme"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]card, 0, len(docs))
	for _, d := range docs {
		out = append(out, toCard(d, ListTitleRunes))
	}
	c.JSON(http.StatusOK, out)
}

func docID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msgBadRequest})
		return 0, false
	}
	return id, true
}

func (s *Server) lookup(c *gin.Context) (store.Document, bool) {
	id, ok := docID(c)
	if !ok {
		return store.Document{}, false
	}
	doc, found, err := s.docs.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return store.Document{}, false
	}
	if !found {
		s.fail(c, store.ErrNotFound)
		return store.Document{}, false
	}
	return doc, true
}

func (s *Server) handleGetDocument(c *gin.Context) {
	doc, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCard(doc, DetailTitleRunes))
}

func (s *Server) handleUpdateDocument(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msgBadRequest})
		return
	}
	if err := s.docs.UpdateContent(c.Request.Context(), id, req.Content); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{Status: "success"})
}

// Deleting a missing document succeeds.
func (s *Server) handleDeleteDocument(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	if err := s.docs.Delete(c.Request.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{Status: "success"})
}

func (s *Server) handleExportPDF(c *gin.Context) {
	doc, ok := s.lookup(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, doc, s.opts.Export); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=material-"+strconv.FormatInt(doc.ID, 10)+".pdf")
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) handleTaxonomy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": material.Categories, "themes": material.Themes})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.opts.Version, "commit": s.opts.Commit})
}
