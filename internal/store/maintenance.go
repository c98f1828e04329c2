package store

import (
	"os"
	"path/filepath"
)

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func countDeadLetterFiles(storeDir string) int64 {
	entries, err := os.ReadDir(filepath.Join(storeDir, "deadletter"))
	if err != nil {
		return 0
	}
	var n int64
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}
