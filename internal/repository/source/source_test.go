package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, logger.NewNoOp())
	touch(t, filepath.Join(root, "map", "0", "5-10.png"))

	data, ok, err := s.Load(tile.LayerMap, 0, 5, 10)
	if err != nil || !ok || string(data) != "png" {
		t.Fatalf("Load() = %q, %v, %v", data, ok, err)
	}

	if _, ok, err := s.Load(tile.LayerMap, 1, 5, 10); ok || err != nil {
		t.Fatalf("Load() of missing tile = %v, %v; want false, nil", ok, err)
	}
}

func TestScopeUnionOfPlanes(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, logger.NewNoOp())
	touch(t, filepath.Join(root, "map", "0", "10-20.png"))
	touch(t, filepath.Join(root, "map", "0", "12-21.png"))
	touch(t, filepath.Join(root, "map", "0", "thumbs.db"))
	touch(t, filepath.Join(root, "map", "2", "8-25.png"))

	scope, err := s.Scope(tile.LayerMap, []int{0, 1, 2, 3})
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}

	want := tile.Scope{X1: 8, Y1: 20, X2: 12, Y2: 25}
	if scope != want {
		t.Fatalf("Scope() = %+v, want %+v", scope, want)
	}
}

func TestScopeEmpty(t *testing.T) {
	s := NewStore(t.TempDir(), logger.NewNoOp())

	scope, err := s.Scope(tile.LayerMap, []int{0})
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}
	if !scope.Empty() {
		t.Fatalf("Scope() = %+v, want empty", scope)
	}
}
