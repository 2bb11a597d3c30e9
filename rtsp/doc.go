// Package rtsp routes decoded camera media units into a live-serving
// pipeline behind an opaque executor: it classifies each unit's codec,
// rebuilds the pipeline description when a format or video source
// changes, forwards raw bytes into named injection points, and declares
// per-path, per-role access rules for stream discovery and playback.
package rtsp
