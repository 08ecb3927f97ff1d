package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// maxRenderWorkers caps the render pool so frame buffers and scaler
// intermediates do not oversubscribe memory bandwidth.
const maxRenderWorkers = 8

func InitResourceLimits(log zerolog.Logger) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warn().Err(err).Msg("could not read open file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warn().Err(err).Msg("could not raise open file limit")
	} else {
		log.Debug().Uint64("limit", uint64(rLimit.Cur)).Msg("open file limit raised")
	}
}

// RenderWorkers resolves the worker pool size: an explicit configuration
// wins, otherwise physical parallelism capped at maxRenderWorkers.
func RenderWorkers(configured int) int {
	if configured > 0 {
		return configured
	}

	count, err := cpu.Counts(true)
	if err != nil || count < 1 {
		count = runtime.NumCPU()
	}
	if count > maxRenderWorkers {
		count = maxRenderWorkers
	}
	if count < 1 {
		count = 1
	}
	return count
}

// EstimateFrameBudget reports the frame buffer footprint and warns when it
// does not fit the memory currently available.
func EstimateFrameBudget(frames, width, height int, log zerolog.Logger) uint64 {
	estimate := uint64(frames) * uint64(width) * uint64(height) * 4

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Debug().Err(err).Msg("memory probe failed")
		return estimate
	}

	if estimate > vm.Available {
		log.Warn().
			Uint64("need_mb", estimate>>20).
			Uint64("available_mb", vm.Available>>20).
			Msg("frame buffer may not fit in memory")
	} else {
		log.Debug().
			Uint64("need_mb", estimate>>20).
			Uint64("available_mb", vm.Available>>20).
			Msg("frame buffer fits in memory")
	}
	return estimate
}

// FindLatestStoryboard returns the newest PDF in a directory.
func FindLatestStoryboard(dir string) (string, error) {
	path, err := findLatest(dir, []string{".pdf"})
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("в папке %s не найдено PDF-файлов", dir)
	}
	return path, nil
}

// FindLatestAudio returns the newest audio file in a directory.
func FindLatestAudio(dir string) (string, error) {
	path, err := findLatest(dir, []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"})
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("в папке %s не найдено аудио-файлов", dir)
	}
	return path, nil
}

// FindShotOutputs returns the rendered shot files in a directory, ordered
// by shot number. Only files named exactly shot_<N>.mp4 count.
func FindShotOutputs(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type shotFile struct {
		num  int
		path string
	}
	var shots []shotFile

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		var num int
		if _, err := fmt.Sscanf(f.Name(), "shot_%d.mp4", &num); err != nil {
			continue
		}
		if fmt.Sprintf("shot_%d.mp4", num) != f.Name() {
			continue
		}
		shots = append(shots, shotFile{num: num, path: filepath.Join(dir, f.Name())})
	}
	if len(shots) == 0 {
		return nil, fmt.Errorf("в папке %s не найдено готовых шотов", dir)
	}

	sort.Slice(shots, func(i, j int) bool { return shots[i].num < shots[j].num })

	paths := make([]string, len(shots))
	for i, s := range shots {
		paths[i] = s.path
	}
	return paths, nil
}

func findLatest(dir string, extensions []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		matched := false
		for _, ext := range extensions {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	return latestFile, nil
}

func GetAudioDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, err
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration)
	if err != nil {
		return 0, err
	}

	return duration, nil
}

func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Intel/Linux (VAAPI - требует доп. настройки, пока пропустим или добавим позже)
	// 4. Software (libx264)

	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	for _, enc := range encoders {
		cmd := exec.Command("ffmpeg", "-encoders")
		out, err := cmd.CombinedOutput()
		if err == nil && strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}
