package metrics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"time"
)

var processStart = time.Now()

// SysHealth is a point-in-time snapshot of the planner process: memory
// pressure, goroutine count, uptime and the size of the on-disk data
// directory holding the sqlite database.
type SysHealth struct {
	HeapAllocMB  uint64
	TotalAllocMB uint64
	SysMB        uint64
	NumGC        uint32
	Goroutines   int
	Uptime       time.Duration
	DataDiskSize string
}

// GetSysHealth collects a health snapshot for the admin report.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		HeapAllocMB:  toMB(m.HeapAlloc),
		TotalAllocMB: toMB(m.TotalAlloc),
		SysMB:        toMB(m.Sys),
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		Uptime:       time.Since(processStart).Round(time.Second),
		DataDiskSize: formatBytes(dirSize(dataPath)),
	}
}

func toMB(b uint64) uint64 {
	return b / 1024 / 1024
}

func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size
}

func formatBytes(size int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(size)
	idx := 0
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}
	if idx == 0 {
		return fmt.Sprintf("%d %s", size, units[0])
	}
	return fmt.Sprintf("%.1f %s", value, units[idx])
}
