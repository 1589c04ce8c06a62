package vision

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileFrameSource is a FrameSource backed by a watched directory: whenever an
// image file lands in it, that image becomes the current frame. It stands in
// for a camera on hosts without one; the facing maps to an optional
// subdirectory of the same name when present.
type FileFrameSource struct {
	root string

	mu      sync.Mutex
	frame   image.Image
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewFileFrameSource(root string) *FileFrameSource {
	return &FileFrameSource{root: root}
}

func (s *FileFrameSource) Open(_ context.Context, facing Facing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		return nil
	}

	dir := s.root
	if facingDir := filepath.Join(s.root, string(facing)); isDir(facingDir) {
		dir = facingDir
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create frame watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch frame directory: %w", err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})
	go s.watch(watcher, s.done)

	// Seed from whatever is already there so the first tick has a frame.
	if path := newestImage(dir); path != "" {
		if frame, err := loadImage(path); err == nil {
			s.frame = frame
		}
	}
	return nil
}

func (s *FileFrameSource) watch(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isImagePath(event.Name) {
				continue
			}

			frame, err := loadImage(event.Name)
			if err != nil {
				log.Printf("Skipping unreadable frame %s: %v", event.Name, err)
				continue
			}
			s.mu.Lock()
			s.frame = frame
			s.mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Frame watcher error: %v", err)
		}
	}
}

func (s *FileFrameSource) Frame() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frame == nil {
		return nil, false
	}
	return s.frame, true
}

func (s *FileFrameSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}

	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	s.frame = nil
	return err
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func newestImage(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var newest string
	var newestMod int64
	for _, entry := range entries {
		if entry.IsDir() || !isImagePath(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = filepath.Join(dir, entry.Name())
			newestMod = mod
		}
	}
	return newest
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
