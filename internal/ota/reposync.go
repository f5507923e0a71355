package ota

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/snowsensor/snownode/internal/logging"
	"github.com/snowsensor/snownode/internal/version"
)

const (
	// DefaultBaseURL serves raw repository content.
	DefaultBaseURL = "https://raw.githubusercontent.com"

	// DefaultTimeout bounds each file download.
	DefaultTimeout = 30 * time.Second

	maxFileSize = 64 << 20
)

// RepoSync is a Collaborator that mirrors files from a raw-content host
// laid out as {BaseURL}/{owner}/{repo}/{branch}/{path}.
type RepoSync struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     *zap.Logger
}

// NewRepoSync creates a RepoSync against baseURL.
func NewRepoSync(baseURL string, timeout time.Duration, logger *zap.Logger) *RepoSync {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RepoSync{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		logger:     logging.OrNop(logger),
	}
}

type stagedFile struct {
	name   string
	staged string
	target string
}

// Sync downloads every file in the manifest, verifies it, and installs the
// ones whose content differs from what is on disk. Nothing is installed
// unless every file was fetched and verified.
func (s *RepoSync) Sync(ctx context.Context, m Manifest) (bool, error) {
	if len(m.Files) == 0 {
		return false, &UpdateError{Kind: UpdateVerification, Err: errors.New("manifest lists no files")}
	}

	var sums map[string]string
	if m.ChecksumsFile != "" {
		data, err := s.fetch(ctx, m, m.ChecksumsFile)
		if err != nil {
			return false, err
		}
		if sums, err = ParseChecksums(data); err != nil {
			return false, &UpdateError{Kind: UpdateVerification, File: m.ChecksumsFile, Err: err}
		}
	}

	if err := os.MkdirAll(m.InstallDir, 0o755); err != nil {
		return false, &UpdateError{Kind: UpdateVerification, Err: fmt.Errorf("failed to create install directory: %w", err)}
	}
	stageDir, err := os.MkdirTemp(m.InstallDir, ".ota-")
	if err != nil {
		return false, &UpdateError{Kind: UpdateVerification, Err: fmt.Errorf("failed to create staging directory: %w", err)}
	}
	defer os.RemoveAll(stageDir)

	var changed []stagedFile
	for _, name := range m.Files {
		data, err := s.fetch(ctx, m, name)
		if err != nil {
			return false, err
		}

		digest := sha256.Sum256(data)
		sum := hex.EncodeToString(digest[:])

		if sums != nil {
			want, ok := sums[name]
			if !ok {
				return false, &UpdateError{Kind: UpdateVerification, File: name, Err: errors.New("not listed in checksums file")}
			}
			if !strings.EqualFold(want, sum) {
				return false, &UpdateError{Kind: UpdateVerification, File: name, Err: fmt.Errorf("sha256 %s, expected %s", sum, want)}
			}
		}

		target := filepath.Join(m.InstallDir, filepath.FromSlash(name))
		same, err := matchesInstalled(target, digest)
		if err != nil {
			return false, &UpdateError{Kind: UpdateVerification, File: name, Err: err}
		}
		if same {
			s.logger.Debug("file unchanged", zap.String("file", name))
			continue
		}

		staged := filepath.Join(stageDir, filepath.FromSlash(name))
		if err := writeFile(staged, data, fileMode(target)); err != nil {
			return false, &UpdateError{Kind: UpdateVerification, File: name, Err: err}
		}
		changed = append(changed, stagedFile{name: name, staged: staged, target: target})
		s.logger.Info("file changed", zap.String("file", name), zap.String("sha256", sum))
	}

	for _, f := range changed {
		if err := os.MkdirAll(filepath.Dir(f.target), 0o755); err != nil {
			return false, &UpdateError{Kind: UpdateVerification, File: f.name, Err: err}
		}
		if err := os.Rename(f.staged, f.target); err != nil {
			return false, &UpdateError{Kind: UpdateVerification, File: f.name, Err: fmt.Errorf("failed to install: %w", err)}
		}
	}

	return len(changed) > 0, nil
}

func (s *RepoSync) fetch(ctx context.Context, m Manifest, name string) ([]byte, error) {
	u, err := url.JoinPath(s.BaseURL, m.Repository.Owner, m.Repository.Name, m.Repository.Branch, m.WorkingDir, name)
	if err != nil {
		return nil, &UpdateError{Kind: UpdateTransport, File: name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &UpdateError{Kind: UpdateTransport, File: name, Err: err}
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, &UpdateError{Kind: UpdateTransport, File: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpdateError{Kind: UpdateTransport, File: name, Err: fmt.Errorf("GET %s: HTTP %d", u, resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return nil, &UpdateError{Kind: UpdateTransport, File: name, Err: err}
	}
	if len(data) > maxFileSize {
		return nil, &UpdateError{Kind: UpdateVerification, File: name, Err: errors.New("file exceeds size limit")}
	}
	return data, nil
}

// ParseChecksums reads sha256sum output: "<hex>  <name>" per line, with an
// optional '*' before binary-mode names. Blank lines and # comments are
// skipped.
func ParseChecksums(data []byte) (map[string]string, error) {
	sums := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"<sha256>  <name>\"", line)
		}
		sum := fields[0]
		if _, err := hex.DecodeString(sum); err != nil || len(sum) != sha256.Size*2 {
			return nil, fmt.Errorf("line %d: invalid sha256 %q", line, sum)
		}
		sums[strings.TrimPrefix(fields[1], "*")] = strings.ToLower(sum)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return sums, nil
}

func matchesInstalled(path string, digest [sha256.Size]byte) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return bytes.Equal(h.Sum(nil), digest[:]), nil
}

func fileMode(existing string) fs.FileMode {
	if info, err := os.Stat(existing); err == nil {
		return info.Mode().Perm()
	}
	return 0o755
}

func writeFile(path string, data []byte, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, mode)
}
