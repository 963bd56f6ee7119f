package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCollectImagesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	files := map[string]int{
		"IMG_10.jpg": 10,
		"IMG_2.jpg":  10,
		"IMG_1.JPG":  10,
		"notes.txt":  10,
		"big.png":    2048,
	}
	for name, size := range files {
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	accepted, oversized, err := collectImages(dir, 1024)
	if err != nil {
		t.Fatalf("collectImages: %v", err)
	}
	want := []string{"IMG_1.JPG", "IMG_2.jpg", "IMG_10.jpg"}
	if !reflect.DeepEqual(accepted, want) {
		t.Errorf("accepted = %v, want %v", accepted, want)
	}
	if !reflect.DeepEqual(oversized, []string{"big.png"}) {
		t.Errorf("oversized = %v", oversized)
	}
}
