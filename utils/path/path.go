package path

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

var (
	rootOnce sync.Once
	root     string
)

// RootPath 專案根目錄（本檔案往上兩層）
func RootPath() string {
	rootOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			// 無 caller 資訊時退回工作目錄
			wd, _ := os.Getwd()
			root = wd
			return
		}
		root = filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	})
	return root
}

// Resolve 相對路徑以 base 為起點，絕對路徑原樣回傳
func Resolve(base string, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Exists 檔案存在且不是目錄
func Exists(p string) (bool, error) {
	info, err := os.Stat(p)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}
