// Command voxelcast runs the multi-view voxel-carving detector against
// a synthetic camera rig and a scripted moving object, persisting
// detections and tracks to SQLite and serving a monitoring dashboard.
// Each stage (the HTTP server and the detection loop) runs in its own
// goroutine, joined by a sync.WaitGroup and shut down together on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aeroglyph/voxelcast/internal/config"
	"github.com/aeroglyph/voxelcast/internal/detect"
	"github.com/aeroglyph/voxelcast/internal/detect/camera"
	"github.com/aeroglyph/voxelcast/internal/detect/cluster"
	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/aeroglyph/voxelcast/internal/detect/motion"
	"github.com/aeroglyph/voxelcast/internal/detect/track"
	"github.com/aeroglyph/voxelcast/internal/logging"
	"github.com/aeroglyph/voxelcast/internal/monitor"
	"github.com/aeroglyph/voxelcast/internal/store"
)

var (
	listen       = flag.String("listen", ":8090", "monitoring HTTP listen address")
	dbFile       = flag.String("db", "voxelcast.db", "path to the SQLite database file")
	configFile   = flag.String("config", "", "optional JSON tuning overlay (see internal/config.Tuning)")
	ticks        = flag.Int("ticks", 120, "number of synthetic frame pairs to run before idling")
	tickInterval = flag.Duration("tick-interval", 50*time.Millisecond, "wall-clock delay between ticks")
	frameWidth   = flag.Int("frame-width", 160, "synthetic camera frame width in pixels")
	frameHeight  = flag.Int("frame-height", 120, "synthetic camera frame height in pixels")
)

func main() {
	flag.Parse()

	tuning := config.Empty()
	if *configFile != "" {
		loaded, err := config.LoadJSON(*configFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		tuning = loaded
	}
	if err := tuning.Validate(); err != nil {
		log.Fatalf("invalid tuning config: %v", err)
	}
	resolved := tuning.Resolve()

	db, err := store.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	tracker, err := track.New(resolved.Track)
	if err != nil {
		log.Fatalf("failed to build tracker: %v", err)
	}

	rig := buildCameraRig()
	recorder := monitor.NewRecorder()
	srv := monitor.NewServer(*listen, recorder)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(ctx); err != nil {
			log.Printf("monitor server error: %v", err)
		}
		log.Print("monitor server routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runDetectionLoop(ctx, rig, resolved, tracker, recorder, db)
		log.Print("detection loop routine terminated")
	}()

	wg.Wait()
}

// runDetectionLoop ticks through the scripted scene, running the full
// detect -> cluster -> track pipeline each frame and persisting the
// result, until ticks frames have run or ctx is cancelled. After the
// last tick it blocks until ctx is cancelled.
func runDetectionLoop(ctx context.Context, rig []*camera.Camera, resolved config.Resolved, tracker *track.Tracker, recorder *monitor.Recorder, db *store.Store) {
	ticker := time.NewTicker(*tickInterval)
	defer ticker.Stop()

	targetZone := geom.NewVoxel(geom.Vec(0, 0, 0), 20)

	for frame := 0; frame < *ticks; frame++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		curr := objectPositionAtTick(frame)
		prev := objectPositionAtTick(frame - 1)

		frames := make([]detect.CameraFrame, len(rig))
		for i, cam := range rig {
			frames[i] = detect.CameraFrame{
				Camera:   cam,
				Current:  renderFrame(cam, curr),
				Previous: renderFrame(cam, prev),
			}
		}

		detections, err := detect.Detect(targetZone, frames, detect.Params{
			Threshold: resolved.MotionThreshold,
			Carve:     resolved.Carve,
		})
		if err != nil {
			log.Printf("frame %d: detect failed: %v", frame, err)
			continue
		}

		clusters, err := cluster.Cluster(detections, resolved.Carve.SMin, resolved.Cluster)
		if err != nil {
			log.Printf("frame %d: cluster failed: %v", frame, err)
			continue
		}

		tracker.Update(clusters, frame)
		confirmed := tracker.ConfirmedTracks()

		recorder.RecordFrame(frame, detections, confirmed)

		if err := db.SaveDetections(frame, detections); err != nil {
			log.Printf("frame %d: save detections failed: %v", frame, err)
		}
		for _, t := range confirmed {
			if err := db.SaveTrack(t); err != nil {
				log.Printf("frame %d: save track %s failed: %v", frame, t.ID, err)
			}
		}

		logging.Logf("frame %d: %d detections, %d clusters, %d confirmed tracks", frame, len(detections), len(clusters), len(confirmed))
	}

	log.Printf("completed %d ticks, idling until interrupted", *ticks)
	<-ctx.Done()
}

// buildCameraRig places four cameras in a ring around the origin,
// each looking at the world center, giving every point near the
// origin visibility from at least three viewpoints.
func buildCameraRig() []*camera.Camera {
	const radius = 15.0
	const height = 4.0
	aspect := float64(*frameWidth) / float64(*frameHeight)

	positions := []geom.Vector{
		geom.Vec(radius, height, 0),
		geom.Vec(0, height, radius),
		geom.Vec(-radius, height, 0),
		geom.Vec(0, height, -radius),
	}

	rig := make([]*camera.Camera, 0, len(positions))
	for i, pos := range positions {
		cam, err := camera.New(i, pos, geom.Vec(0, 0, 0), geom.Vec(0, 1, 0), 50, aspect, 0.1, 100)
		if err != nil {
			log.Fatalf("failed to build camera %d: %v", i, err)
		}
		rig = append(rig, cam)
	}
	return rig
}

// objectPositionAtTick scripts a single object orbiting the world
// center, so every confirmed camera sees it cross their field of view
// over the course of a run.
func objectPositionAtTick(tick int) geom.Vector {
	if tick < 0 {
		tick = 0
	}
	theta := float64(tick) * 0.05
	const orbitRadius = 3.0
	return geom.Vec(orbitRadius*math.Cos(theta), 0.5, orbitRadius*math.Sin(theta))
}

// renderFrame draws a small motion blob centered on pos's projection
// into cam's image plane, or a blank frame if pos falls outside the
// camera's view.
func renderFrame(cam *camera.Camera, pos geom.Vector) motion.Image {
	img := motion.Image{
		Width:    *frameWidth,
		Height:   *frameHeight,
		Channels: 1,
		Stride:   *frameWidth,
		Pix:      make([]byte, (*frameWidth)*(*frameHeight)),
	}

	x, y, ok := cam.Project(pos, *frameWidth, *frameHeight)
	if !ok {
		return img
	}

	const blockRadius = 2
	for dy := -blockRadius; dy <= blockRadius; dy++ {
		for dx := -blockRadius; dx <= blockRadius; dx++ {
			px, py := x+dx, y+dy
			if px < 0 || px >= img.Width || py < 0 || py >= img.Height {
				continue
			}
			img.Pix[py*img.Stride+px] = 220
		}
	}
	return img
}
