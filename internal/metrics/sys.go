package metrics

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

var processStart = time.Now()

// SysHealth represents real-time process metrics.
type SysHealth struct {
	AllocMB      uint64 `json:"alloc_mb"`
	SysMB        uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	Goroutines   int    `json:"goroutines"`
	UptimeSec    int64  `json:"uptime_sec"`
	DataDiskSize string `json:"data_disk_size,omitempty"`
}

// GetSysHealth collects real-time health data. dataPath is the metrics
// database file; an empty path skips the disk size.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h := SysHealth{
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		UptimeSec:  int64(time.Since(processStart).Seconds()),
	}
	if dataPath != "" {
		h.DataDiskSize = formatBytes(dbFileSize(dataPath))
	}
	return h
}

// dbFileSize sums the SQLite database file and its WAL and shared-memory
// files. Missing files count as zero.
func dbFileSize(path string) int64 {
	var size int64
	for _, name := range []string{path, path + "-wal", path + "-shm"} {
		if info, err := os.Stat(name); err == nil && info.Mode().IsRegular() {
			size += info.Size()
		}
	}
	return size
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
