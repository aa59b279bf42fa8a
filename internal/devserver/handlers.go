package devserver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/pathsafe"
)

const maxUploadMemory = 32 << 20

// UploadResponse is the body of a successful upload
type UploadResponse struct {
	Name      string `json:"name"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func sendJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, statusCode int, message string) {
	sendJSON(w, statusCode, errorResponse{Error: message})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"status":     ww.Status(),
			"duration":   time.Since(start),
		}).Debugf("%s %s", r.Method, r.URL.Path)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// uploadHandler stores a multipart upload in the input directory. The first
// of fields present in the form carries the file.
func (s *Server) uploadHandler(fields ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			sendError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		var (
			file   multipart.File
			header *multipart.FileHeader
			err    error
		)
		for _, field := range fields {
			file, header, err = r.FormFile(field)
			if err == nil {
				break
			}
		}
		if err != nil {
			sendError(w, http.StatusBadRequest, "no file in form")
			return
		}
		defer file.Close()

		filename, err := pathsafe.SanitizeFilename(header.Filename)
		if err != nil {
			sendError(w, http.StatusBadRequest, "invalid filename")
			return
		}
		subfolder, err := pathsafe.SanitizeSubfolder(r.FormValue("subfolder"))
		if err != nil {
			sendError(w, http.StatusBadRequest, "invalid subfolder")
			return
		}
		overwrite := r.FormValue("overwrite") == "true" || r.FormValue("overwrite") == "1"

		data, err := io.ReadAll(file)
		if err != nil {
			sendError(w, http.StatusBadRequest, "failed to read upload")
			return
		}

		name, err := s.storeInput(subfolder, filename, data, overwrite)
		if err != nil {
			logrus.Errorf("Failed to store upload %s: %v", filename, err)
			sendError(w, http.StatusInternalServerError, "failed to store upload")
			return
		}

		sendJSON(w, http.StatusOK, UploadResponse{Name: name, Subfolder: subfolder, Type: TypeInput})
	}
}

// storeInput writes data as subfolder/filename. An existing file with the same
// content is reused; a different one moves the upload to "name (n).ext".
func (s *Server) storeInput(subfolder, filename string, data []byte, overwrite bool) (string, error) {
	s.store.Lock()
	defer s.store.Unlock()

	dir, err := s.resolve(TypeInput, subfolder)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	uploaded := hex.EncodeToString(sum[:])

	name := filename
	for i := 1; !overwrite; i++ {
		target := filepath.Join(dir, name)
		info, err := os.Stat(target)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return "", err
		}

		existing, err := s.fileHash(target, info)
		if err != nil {
			return "", err
		}
		if existing == uploaded {
			logrus.Debugf("Upload %s duplicates %s", filename, name)
			return name, nil
		}
		name = pathsafe.WithSuffix(filename, i)
	}

	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", err
	}
	if info, err := os.Stat(target); err == nil {
		s.hashes.Add(hashKey(target, info), uploaded)
	}
	logrus.Infof("Stored upload %s", path.Join(subfolder, name))
	return name, nil
}

func hashKey(p string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", p, info.Size(), info.ModTime().UnixNano())
}

// fileHash returns the sha256 of a file, cached by path, size and mtime
func (s *Server) fileHash(p string, info os.FileInfo) (string, error) {
	key := hashKey(p, info)
	if h, ok := s.hashes.Get(key); ok {
		return h, nil
	}

	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	h := hex.EncodeToString(hasher.Sum(nil))
	s.hashes.Add(key, h)
	return h, nil
}

// resolve joins a sanitized relative path onto an asset directory and checks
// the result stays inside it.
func (s *Server) resolve(assetType, rel string) (string, error) {
	base, ok := s.dirs[assetType]
	if !ok {
		return "", fmt.Errorf("unknown type %q", assetType)
	}
	full := filepath.Join(base, filepath.FromSlash(rel))
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("%q escapes %s", rel, assetType)
	}
	return full, nil
}

// inputFile resolves the name query parameter to a file in the input directory
func (s *Server) inputFile(r *http.Request) (string, string, bool) {
	name := r.URL.Query().Get("name")
	subfolder, filename := pathsafe.Split(name)
	rel, err := pathsafe.BuildRelativePath(subfolder, filename)
	if err != nil {
		return "", "", false
	}
	full, err := s.resolve(TypeInput, rel)
	if err != nil {
		return "", "", false
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", "", false
	}
	return full, rel, true
}

func (s *Server) previewImage(w http.ResponseWriter, r *http.Request) {
	full, rel, ok := s.inputFile(r)
	if !ok {
		sendError(w, http.StatusNotFound, "not found")
		return
	}

	previewRel := path.Join(PreviewDir, media.ThumbnailName(rel))
	previewPath, err := s.resolve(TypeTemp, previewRel)
	if err == nil {
		err = writeThumbnailFile(previewPath, full)
	}
	if err != nil {
		logrus.Warnf("Failed to create preview for %s: %v", rel, err)
		sendError(w, http.StatusInternalServerError, "failed to create preview")
		return
	}

	s.sendPreview(w, previewRel)
}

func (s *Server) previewVideo(w http.ResponseWriter, r *http.Request) {
	full, rel, ok := s.inputFile(r)
	if !ok {
		sendError(w, http.StatusNotFound, "not found")
		return
	}

	previewRel := path.Join(PreviewDir, rel)
	previewPath, err := s.resolve(TypeTemp, previewRel)
	if err == nil {
		err = copyIfMissing(previewPath, full)
	}
	if err != nil {
		logrus.Warnf("Failed to stage preview for %s: %v", rel, err)
		sendError(w, http.StatusInternalServerError, "failed to create preview")
		return
	}

	s.sendPreview(w, previewRel)
}

func (s *Server) sendPreview(w http.ResponseWriter, previewRel string) {
	subfolder, filename := pathsafe.Split(previewRel)
	sendJSON(w, http.StatusOK, editor.OutputEntry{
		Filename:  filename,
		Subfolder: subfolder,
		Type:      TypeTemp,
	})
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	assetType := q.Get("type")
	if assetType == "" {
		assetType = TypeOutput
	}

	rel, err := pathsafe.BuildRelativePath(q.Get("subfolder"), q.Get("filename"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid path")
		return
	}
	full, err := s.resolve(assetType, rel)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := os.Open(full)
	if err != nil {
		sendError(w, http.StatusNotFound, "not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		sendError(w, http.StatusNotFound, "not found")
		return
	}

	if ct := media.TypeForPath(full); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func writeThumbnailFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := media.WriteThumbnail(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func copyIfMissing(dst, src string) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
