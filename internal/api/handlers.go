package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jarvis-docs/server/internal/documents"
	"github.com/jarvis-docs/server/internal/logger"
	"github.com/jarvis-docs/server/internal/rag"
)

// recallN is how many memory entries are pulled into chat context.
const recallN = 6

// maxUploadBytes caps document and audio uploads at 64 MiB.
const maxUploadBytes = 64 << 20

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	result, err := s.ingester.Ingest(r.Context(), data, title)
	if err != nil {
		if errors.Is(err, documents.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Ingest failed for %q: %v", title, err)
		writeError(w, http.StatusInternalServerError, "Document processing failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type chatRequest struct {
	UserID       string `json:"user_id"`
	Query        string `json:"query"`
	K            int    `json:"k"`
	FullRead     bool   `json:"full_read"`
	ReturnImages *bool  `json:"return_images"`
	Remember     *bool  `json:"remember"`
}

type chatResponse struct {
	Answer    string          `json:"answer"`
	Citations []rag.SearchHit `json:"citations"`
	Images    []string        `json:"images"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req := chatRequest{UserID: "alex"}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Missing query")
		return
	}
	if req.K <= 0 {
		req.K = s.defaultK
	}
	wantImages := req.ReturnImages == nil || *req.ReturnImages
	remember := req.Remember == nil || *req.Remember

	ctx := r.Context()
	memories := s.memory.Recall(ctx, req.UserID, req.Query, recallN)

	hits, images, err := s.searcher.Search(ctx, req.Query, req.K, wantImages)
	if err != nil {
		logger.Error("Retrieval failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Retrieval failed: "+err.Error())
		return
	}

	contextBlocks := make([]string, 0, len(memories)+len(hits))
	contextBlocks = append(contextBlocks, memories...)
	for _, h := range hits {
		contextBlocks = append(contextBlocks, h.Snippet)
	}

	var answer string
	if rag.WantsFullRead(req.Query, req.FullRead, len(contextBlocks)) {
		answer, err = s.generator.FullReadSummarize(ctx, contextBlocks, req.Query)
	} else {
		answer, err = s.generator.Answer(ctx, req.Query, contextBlocks)
	}
	if err != nil {
		logger.Error("Generation failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if remember {
		if err := s.memory.Remember(ctx, req.UserID, "user", req.Query); err != nil {
			logger.Warn("Failed to store user turn: %v", err)
		}
		if err := s.memory.Remember(ctx, req.UserID, "assistant", answer); err != nil {
			logger.Warn("Failed to store assistant turn: %v", err)
		}
	}

	if hits == nil {
		hits = []rag.SearchHit{}
	}
	if images == nil {
		images = []string{}
	}
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer, Citations: hits, Images: images})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil || !s.transcriber.Available() {
		writeError(w, http.StatusServiceUnavailable, "Transcription is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing audio upload")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	text, err := s.transcriber.Transcribe(r.Context(), header.Filename, audio)
	if err != nil {
		logger.Error("Transcription failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Transcription failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
