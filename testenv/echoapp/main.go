// Echo web application for scurl end-to-end tests. Every response carries
// an explicit Content-Length so bodies are never chunked.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

func main() {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, "text/plain", []byte("OK"))
	})
	mux.HandleFunc("/hello", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, "text/plain; charset=utf-8", []byte("hello"))
	})
	mux.HandleFunc("GET /json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"name": "scurl", "items": []int{1, 2, 3}})
	})
	mux.HandleFunc("GET /binary", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, "application/octet-stream", bytes.Repeat([]byte{0xde, 0xad}, 512))
	})
	mux.HandleFunc("GET /redirect/{n}", redirectHandler)
	mux.HandleFunc("GET /loop", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/loop")
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/echo", echoHandler)
	mux.HandleFunc("POST /upload", uploadHandler)

	addr := ":8080"
	if v := os.Getenv("ECHOAPP_ADDR"); v != "" {
		addr = v
	}
	log.Printf("Echo test server starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

// redirectHandler answers /redirect/{n} with a 302 to /redirect/{n-1};
// /redirect/0 points at /hello.
//
// GET /redirect/3
func redirectHandler(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be a non-negative integer"})
		return
	}
	next := "/hello"
	if n > 0 {
		next = fmt.Sprintf("/redirect/%d", n-1)
	}
	w.Header().Set("Location", next)
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusFound)
}

// echoHandler reports the request it received as JSON.
func echoHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		headers[k] = strings.Join(v, ", ")
	}
	resp := map[string]any{
		"method":         r.Method,
		"path":           r.URL.RequestURI(),
		"host":           r.Host,
		"headers":        headers,
		"body":           string(body),
		"content_length": r.ContentLength,
	}
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", "42")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type uploadedFile struct {
	Field    string `json:"field"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// uploadHandler parses a multipart/form-data body and lists its parts.
//
// POST /upload
func uploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	files := []uploadedFile{}
	for field, headers := range r.MultipartForm.File {
		for _, h := range headers {
			files = append(files, uploadedFile{Field: field, Filename: h.Filename, Size: h.Size})
		}
	}
	fields := map[string]string{}
	for k, v := range r.MultipartForm.Value {
		fields[k] = strings.Join(v, ", ")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content_length": r.ContentLength,
		"files":          files,
		"fields":         fields,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	w.Write(data)
}

func writeBody(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
