package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ivlev/storyreel/internal/assets"
	"github.com/ivlev/storyreel/internal/config"
	"github.com/ivlev/storyreel/internal/engine"
	"github.com/ivlev/storyreel/internal/logging"
	"github.com/ivlev/storyreel/internal/system"
	"github.com/ivlev/storyreel/internal/timeline"
	"github.com/ivlev/storyreel/internal/video"
)

const buildVersion = "storyreel-1.0"

func main() {
	shotPtr := flag.Int("shot", 0, "Номер шота (выбирает assets/shot_N)")
	configPtr := flag.String("config", "", "Путь к YAML-конфигу")
	assetsPtr := flag.String("assets", "", "Папка ассетов (по умолчанию из конфига)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, <output>/shot_N.mp4)")
	storyboardPtr := flag.String("storyboard", "", "PDF-раскадровка вместо изображений сцен (файл или папка)")
	captionsPtr := flag.String("captions", "", "YAML с репликами сцен: построить таймлайн по длительностям озвучки")
	musicPtr := flag.String("music", "", "Фоновая музыка (по умолчанию: самый свежий файл в <assets>/music)")
	musicVolPtr := flag.Float64("music-volume", 0, "Громкость фоновой музыки (0 - из конфига)")
	widthPtr := flag.Int("width", 0, "Ширина (0 - из конфига)")
	heightPtr := flag.Int("height", 0, "Высота (0 - из конфига)")
	fpsPtr := flag.Int("fps", 0, "FPS (0 - из конфига)")
	workersPtr := flag.Int("workers", 0, "Потоки рендеринга (0 - авто)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	qrPtr := flag.String("qr", "", "URL для QR-водяного знака")
	concatPtr := flag.Bool("concat", false, "Склеить готовые шоты из <output> в общий файл и выйти")
	verbosePtr := flag.Bool("verbose", false, "Подробный вывод")
	statsPtr := flag.Bool("stats", false, "Отчет о производительности")
	flag.Parse()

	logging.Init(*verbosePtr)
	log := logging.WithComponent("main")

	if *shotPtr <= 0 && !*concatPtr {
		log.Fatal().Msg("номер шота обязателен: -shot N")
	}

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatal().Err(err).Msg("конфиг не прочитан")
	}
	cfg.BuildVersion = buildVersion

	if *assetsPtr != "" {
		cfg.AssetsDir = *assetsPtr
	}
	if *widthPtr > 0 {
		cfg.Width = *widthPtr
	}
	if *heightPtr > 0 {
		cfg.Height = *heightPtr
	}
	if *fpsPtr > 0 {
		cfg.FPS = *fpsPtr
	}
	if *workersPtr > 0 {
		cfg.Workers = *workersPtr
	}
	if *qualityPtr > 0 {
		cfg.Quality = *qualityPtr
	}
	if *musicPtr != "" {
		cfg.BackgroundAudio = *musicPtr
	}
	if *musicVolPtr > 0 {
		cfg.BackgroundVolume = *musicVolPtr
	}
	if *qrPtr != "" {
		cfg.Watermark.URL = *qrPtr
	}
	if *statsPtr {
		cfg.ShowStats = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("конфиг некорректен")
	}

	if *concatPtr {
		concatShots(cfg, *outputPtr, log)
		return
	}

	system.InitResourceLimits(logging.WithComponent("system"))

	var tl *timeline.Timeline
	if *captionsPtr != "" {
		tl = buildTimeline(cfg, *shotPtr, *captionsPtr, log)
	} else {
		tl, err = timeline.Read(timeline.DocumentPath(cfg.AssetsDir, *shotPtr))
		if err != nil {
			log.Fatal().Err(err).Int("shot", *shotPtr).Msg("таймлайн не прочитан")
		}
	}
	log.Info().
		Int("shot", *shotPtr).
		Int("segments", len(tl.Segments)).
		Int("scenes", len(tl.Scenes())).
		Float64("duration_sec", tl.TotalDuration()).
		Msg("таймлайн загружен")

	var src assets.ImageSource
	if *storyboardPtr != "" {
		path := *storyboardPtr
		if st, statErr := os.Stat(path); statErr == nil && st.IsDir() {
			latest, findErr := system.FindLatestStoryboard(path)
			if findErr != nil {
				log.Fatal().Err(findErr).Msg("раскадровка не найдена")
			}
			path = latest
		}
		src, err = assets.NewStoryboardSource(path, cfg.DPI)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("раскадровка не открыта")
		}
		log.Info().Str("storyboard", path).Int("pages", src.SceneCount()).Msg("используется раскадровка")
	} else {
		src, err = assets.NewDirSource(cfg.AssetsDir, *shotPtr)
		if err != nil {
			log.Fatal().Err(err).Msg("папка шота не открыта")
		}
	}
	defer src.Close()

	if cfg.BackgroundAudio == "" {
		latest, findErr := system.FindLatestAudio(filepath.Join(cfg.AssetsDir, "music"))
		if findErr == nil {
			cfg.BackgroundAudio = latest
			event := log.Info().Str("music", latest)
			if dur, durErr := system.GetAudioDuration(latest); durErr == nil {
				event = event.Float64("duration_sec", dur)
			}
			event.Msg("выбрана фоновая музыка")
		} else {
			log.Warn().Msg("фоновая музыка не найдена, шот будет без неё")
		}
	}

	if cfg.VideoEncoder == "" {
		encoderName, _ := system.GetBestH264Encoder()
		cfg.VideoEncoder = encoderName
		if encoderName != "libx264" {
			log.Info().Str("encoder", encoderName).Msg("обнаружено аппаратное ускорение")
		}
	}
	if cfg.Quality == 0 {
		switch cfg.VideoEncoder {
		case "h264_videotoolbox":
			cfg.Quality = 75 // Хорошее качество для VideoToolbox
		case "h264_nvenc":
			cfg.Quality = 28 // Эквивалент CRF для NVENC
		default:
			cfg.Quality = 23 // Стандартный CRF для x264
		}
	}

	finalOutput := *outputPtr
	if finalOutput == "" {
		os.MkdirAll(cfg.OutputDir, 0755)
		finalOutput = filepath.Join(cfg.OutputDir, fmt.Sprintf("shot_%d.mp4", *shotPtr))
	} else {
		os.MkdirAll(filepath.Dir(finalOutput), 0755)
	}

	project := engine.NewProject(cfg, *shotPtr, tl, src, video.NewFFmpegEncoder(logging.WithComponent("encoder")), finalOutput)
	if err := project.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("шот не собран")
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", finalOutput)
}

// buildTimeline строит таймлайн из реплик: текст каждой сцены режется на
// чанки, а окна чанков делят длительность её озвучки поровну.
func buildTimeline(cfg *config.Config, shot int, captionsPath string, log zerolog.Logger) *timeline.Timeline {
	captions, err := timeline.ReadCaptions(captionsPath)
	if err != nil {
		log.Fatal().Err(err).Str("captions", captionsPath).Msg("реплики не прочитаны")
	}

	tl, err := timeline.Build(shot, captions, func(scene int) (float64, bool) {
		dur, durErr := system.GetAudioDuration(assets.SceneVoicePath(cfg.AssetsDir, shot, scene))
		if durErr != nil {
			log.Warn().Int("scene", scene).Msg("озвучка сцены не найдена, длительность по умолчанию")
			return 0, false
		}
		return dur, true
	}, cfg.Subtitle.MaxChars)
	if err != nil {
		log.Fatal().Err(err).Msg("таймлайн не построен")
	}

	docPath := timeline.DocumentPath(cfg.AssetsDir, shot)
	os.MkdirAll(filepath.Dir(docPath), 0755)
	if err := timeline.Write(tl, docPath); err != nil {
		log.Warn().Err(err).Msg("таймлайн не сохранен")
	} else {
		log.Info().Str("timeline", docPath).Msg("таймлайн построен по озвучке")
	}
	return tl
}

// concatShots склеивает все <output>/shot_N.mp4 в общий файл.
func concatShots(cfg *config.Config, outputPath string, log zerolog.Logger) {
	segments, err := system.FindShotOutputs(cfg.OutputDir)
	if err != nil {
		log.Fatal().Err(err).Msg("шоты для склейки не найдены")
	}

	finalOutput := outputPath
	if finalOutput == "" {
		finalOutput = filepath.Join(cfg.OutputDir, "complete_video.mp4")
	} else {
		os.MkdirAll(filepath.Dir(finalOutput), 0755)
	}

	enc := video.NewFFmpegEncoder(logging.WithComponent("encoder"))
	if err := enc.Concatenate(context.Background(), segments, finalOutput); err != nil {
		log.Fatal().Err(err).Msg("склейка не удалась")
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", finalOutput)
}
