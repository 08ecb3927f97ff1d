package assets

import (
	"fmt"
	"path/filepath"
)

// Asset layout for one shot:
//
//	assets/shot_3/shot_3_timeline.yaml
//	assets/shot_3/images/shot_3_scene_1.png
//	assets/shot_3/audios/shot_3_scene_1.wav
var imageExtensions = []string{".png", ".jpg", ".jpeg"}

// ShotDir returns the root directory of one shot's assets.
func ShotDir(assetsDir string, shot int) string {
	return filepath.Join(assetsDir, fmt.Sprintf("shot_%d", shot))
}

// SceneImagePath returns the conventional image path for a scene. The file
// may not exist; missing images degrade to placeholders downstream.
func SceneImagePath(assetsDir string, shot, scene int) string {
	return filepath.Join(ShotDir(assetsDir, shot), "images",
		fmt.Sprintf("shot_%d_scene_%d.png", shot, scene))
}

// SceneVoicePath returns the conventional voice clip path for a scene.
func SceneVoicePath(assetsDir string, shot, scene int) string {
	return filepath.Join(ShotDir(assetsDir, shot), "audios",
		fmt.Sprintf("shot_%d_scene_%d.wav", shot, scene))
}
