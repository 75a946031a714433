package sheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"conecta/internal/config"
)

// Source fetches the backing workbook as raw xlsx bytes. The store
// handle is always passed in explicitly, never read from globals.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

func MakeSource(cfg config.Config) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreKind)) {
	case "file":
		return &FileSource{Path: cfg.SheetPath, Dir: cfg.SheetDir}, nil
	case "http":
		if err := cfg.Require("SHEET_URL", cfg.SheetURL); err != nil {
			return nil, err
		}
		return &HTTPSource{URL: cfg.SheetURL, Timeout: time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond}, nil
	case "drive":
		return NewDriveSource(cfg)
	default:
		return nil, fmt.Errorf("unsupported store kind: %s", cfg.StoreKind)
	}
}

// FileSource reads a workbook from disk: an explicit path, or the
// most recently modified .xlsx in a directory.
type FileSource struct {
	Path string
	Dir  string
}

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	path := s.Path
	if path == "" {
		latest, err := s.LatestPath()
		if err != nil {
			return nil, err
		}
		path = latest
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workbook %s: %w", path, err)
	}
	return data, nil
}

// LatestPath resolves the workbook file this source would read.
func (s *FileSource) LatestPath() (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return "", fmt.Errorf("scan sheet dir %s: %w", s.Dir, err)
	}

	var best string
	var bestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".xlsx") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best = filepath.Join(s.Dir, entry.Name())
			bestMod = info.ModTime()
		}
	}
	if best == "" {
		return "", fmt.Errorf("no .xlsx workbook in %s", s.Dir)
	}
	return best, nil
}

// HTTPSource downloads a workbook export URL, e.g. a Google Sheets
// export?format=xlsx link.
type HTTPSource struct {
	URL     string
	Timeout time.Duration
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	client := &http.Client{Timeout: s.Timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download workbook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download workbook: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// DriveSource downloads the workbook file through the Google Drive
// API using an oauth2 refresh token.
type DriveSource struct {
	service *drive.Service
	fileID  string
}

func NewDriveSource(cfg config.Config) (*DriveSource, error) {
	if err := cfg.Require("DRIVE_FILE_ID", cfg.DriveFileID); err != nil {
		return nil, err
	}
	if err := cfg.Require("DRIVE_CLIENT_ID", cfg.DriveClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("DRIVE_CLIENT_SECRET", cfg.DriveClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("DRIVE_REFRESH_TOKEN", cfg.DriveRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.DriveClientID,
		ClientSecret: cfg.DriveClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.DriveRedirectURI,
		Scopes:       []string{drive.DriveReadonlyScope},
	}

	tokenSource := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.DriveRefreshToken})
	svc, err := drive.NewService(context.Background(), option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &DriveSource{service: svc, fileID: cfg.DriveFileID}, nil
}

func (s *DriveSource) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := s.service.Files.Get(s.fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("drive download: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
