package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"projmap/internal/animation"
	"projmap/internal/catalog"
	"projmap/internal/compositor"
	"projmap/internal/config"
	"projmap/internal/export"
	"projmap/internal/loop"
	"projmap/internal/mathutil"
	"projmap/internal/model"
	"projmap/internal/patterns"
	"projmap/internal/report"
	"projmap/internal/scene"
	"projmap/internal/scenegraph"
	"projmap/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to projmap.json (default: look in the working directory)")
	modelID := flag.String("model", "panasonic_pt_rq25k", "Projector model id")
	count := flag.Int("count", 1, "Number of projectors to place")
	pattern := flag.String("pattern", "calibration", "Test pattern: calibration, checkerboard, colorbars, gradient, crosshatch")
	content := flag.String("content", "", "Image file or content library name to project instead of the pattern")
	outputDir := flag.String("out", "", "Output directory (default: <base>/renders)")
	width := flag.Int("width", 0, "Preview width (default: 960)")
	height := flag.Int("height", 0, "Preview height (default: 540)")
	layoutPath := flag.String("report", "", "Write a top-down layout plot (.png, .svg or .pdf)")
	chartPath := flag.String("chart", "", "Write an HTML lens coverage chart")
	frames := flag.Int("frames", 1, "Scheduler ticks to run before exporting")
	imports := flag.String("import", "", "Comma-separated OBJ/STL models to place in front of the wall")
	watch := flag.Duration("watch", 0, "Keep rendering live for this long, reloading content on change")
	animate := flag.String("animate", "", "Keyframe timeline (JSON) played by the scheduler and exported as a sequence")
	sequence := flag.Int("sequence", 0, "Export this many timeline frames (orbits the preview camera when no -animate is given)")
	format := flag.String("format", "", "Export format: webp or png (default: webp)")

	flag.Parse()

	path := *configFile
	if path == "" {
		cwd, _ := os.Getwd()
		path = config.Find(cwd)
	}
	var cfg config.Config
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		OutputDir: *outputDir,
		Width:     *width,
		Height:    *height,
		Format:    *format,
	})

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		var err error
		cat, err = catalog.Load(cfg.CatalogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
			os.Exit(1)
		}
	}

	graph := scenegraph.NewScene()
	reg, err := scene.New(graph, cat, scene.Options{DepthTargetSize: cfg.DepthTargetSize, Seed: cfg.Seed})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if _, err := reg.CreateWall(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *imports != "" {
		for i, path := range strings.Split(*imports, ",") {
			m, err := model.Load(strings.TrimSpace(path))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			pos := mathutil.Vec3{float64(i)*3 - 3, 1, -5}
			if _, err := reg.AddModel(m.Name, m.Mesh, m.Transform(pos)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Imported %s: %d triangles\n", m.Name, len(m.Mesh.Indices))
		}
	}

	var slide *image.NRGBA
	if *pattern != string(patterns.KindCalibration) {
		slide, err = patterns.Generate(patterns.Kind(*pattern), patterns.Width, patterns.Height)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// Content resolves as a file first, then as a library name.
	var cache *texture.Cache
	contentPath := ""
	if *content != "" {
		index := texture.BuildIndex(cfg.ContentDir)
		cache = texture.NewCache(index)
		if _, err := os.Stat(*content); err == nil {
			contentPath, _ = filepath.Abs(*content)
		} else if p, ok := index.ResolvePath(*content); ok {
			contentPath = p
		} else {
			fmt.Fprintf(os.Stderr, "Error: content %q not found (library %s has %d images)\n", *content, cfg.ContentDir, index.Len())
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		res := <-texture.LoadAsync(ctx, contentPath)
		cancel()
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "Error loading content: %v\n", res.Err)
			os.Exit(1)
		}
		slide = res.Image
	}

	for i := 0; i < *count; i++ {
		p, err := reg.CreateProjector(*modelID, scene.ProjectorOptions{TestPattern: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if slide != nil {
			if err := reg.SetProjectorContent(p.ID, slide); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
	}

	cam, err := reg.CreateCamera()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, slot := range []scene.Slot{scene.SlotViewer, scene.SlotMappingPreview} {
		if err := reg.AssignCamera(cam.ID, slot, true); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	comp, err := compositor.New(graph)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer comp.Close()

	var tl *animation.Timeline
	if *animate != "" {
		tl, err = animation.Load(*animate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		tl.Play()
	}

	sched := loop.New(reg, comp, loop.Options{
		Timeline:    tl,
		Slot:        scene.SlotMappingPreview,
		Width:       cfg.PreviewWidth,
		Height:      cfg.PreviewHeight,
		Supersample: cfg.Supersample,
		FrameRate:   cfg.FrameRate,
	})

	fmt.Printf("Projection mapping planner → %s\n", cfg.OutputDir)
	fmt.Printf("Projectors: %d × %s, Preview: %dx%d (×%d)\n", *count, *modelID, cfg.PreviewWidth, cfg.PreviewHeight, cfg.Supersample)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	sched.RunFrames(*frames)

	if *watch > 0 && contentPath != "" {
		runLive(reg, sched, cache, contentPath, *watch)
	}

	fmt.Printf("Rendered %d frames in %.1fs\n", sched.Stats().Frames, time.Since(start).Seconds())

	results := exportViews(cfg, reg, comp, sched)
	failed := export.Failed(results)
	fmt.Printf("Exported: %s\n", export.Summary(results))
	for _, r := range failed {
		fmt.Printf("  %s: %s\n", r.Name, r.Error)
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := export.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	fmt.Println("------------------------------------------------------------")
	if err := report.Summarize(reg).WriteText(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: report: %v\n", err)
	}
	if *layoutPath != "" {
		if err := report.SaveLayout(reg, *layoutPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			fmt.Printf("Layout: %s\n", *layoutPath)
		}
	}
	if *chartPath != "" {
		if err := writeChart(cat, *modelID, *chartPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			fmt.Printf("Lens chart: %s\n", *chartPath)
		}
	}

	seqFailed := false
	if *sequence > 0 || tl != nil {
		if tl == nil {
			tl, err = orbitTimeline(cam, *sequence, cfg.FrameRate)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		seqFailed = !exportSequence(cfg, reg, comp, tl, *sequence)
	}

	if sched.Stats().Failures > 0 || len(failed) > 0 || seqFailed {
		os.Exit(1)
	}
}

// Orbit geometry for -sequence without a keyframe file: a level circle
// around the middle of the stage in front of the wall.
var (
	orbitCenter = mathutil.Vec3{0, 4, -4}
	orbitRadius = 14.0
)

// orbitTimeline circles cam once over frames at fps.
func orbitTimeline(cam scene.Camera, frames int, fps float64) (*animation.Timeline, error) {
	ref := scene.Ref{Kind: scene.KindCamera, ID: cam.ID}
	tl, err := animation.Orbit(ref, orbitCenter, orbitRadius, float64(frames)/fps, 36)
	if err != nil {
		return nil, err
	}
	tl.FPS = fps
	return tl, nil
}

// exportSequence renders tl through the mapping-preview camera into
// <out>/sequence and reports whether every frame was written.
func exportSequence(cfg config.Config, reg *scene.Registry, comp *compositor.Compositor, tl *animation.Timeline, frames int) bool {
	dir := filepath.Join(cfg.OutputDir, "sequence")
	start := time.Now()
	results, err := export.Sequence(reg, comp, export.SequenceOptions{
		Timeline:    tl,
		Slot:        scene.SlotMappingPreview,
		Width:       cfg.PreviewWidth,
		Height:      cfg.PreviewHeight,
		Supersample: cfg.Supersample,
		Frames:      frames,
	}, export.Config{
		OutputDir: dir,
		Ext:       cfg.ExportFormat,
		Workers:   runtime.NumCPU(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: sequence: %v\n", err)
	}
	fmt.Printf("Sequence: %s in %.1fs → %s\n", export.Summary(results), time.Since(start).Seconds(), dir)
	return err == nil && len(export.Failed(results)) == 0
}

// runLive ticks the scheduler in real time and pushes content edits into
// the scene until d elapses.
func runLive(reg *scene.Registry, sched *loop.Scheduler, cache *texture.Cache, path string, d time.Duration) {
	w, err := texture.NewWatcher(cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: watcher: %v\n", err)
		return
	}
	if err := w.Watch(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: watch %s: %v\n", path, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	go w.Run(ctx)
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	fmt.Printf("Watching %s for %s\n", path, d)
	for res := range w.Updates() {
		if res.Err != nil {
			continue
		}
		img := res.Image
		sched.Enqueue(func(r *scene.Registry) error {
			for _, p := range r.Projectors() {
				if err := r.SetProjectorContent(p.ID, img); err != nil {
					return err
				}
			}
			return nil
		})
		fmt.Printf("  reloaded %s\n", filepath.Base(res.Path))
	}
	<-done
}

func exportViews(cfg config.Config, reg *scene.Registry, comp *compositor.Compositor, sched *loop.Scheduler) []export.Result {
	var frames []export.Frame
	img, err := previewFrame(cfg, reg, comp, sched)
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "Warning: mapping preview: %v\n", err)
		frames = append(frames, export.Frame{Name: "mapping-preview"})
	case img != nil:
		frames = append(frames, export.Frame{Name: "mapping-preview", Image: img})
	default:
		fmt.Println("No camera holds the mapping-preview slot; skipping preview")
	}
	for _, p := range reg.Projectors() {
		w := cfg.PreviewWidth
		h := int(float64(w)/p.Aspect + 0.5)
		img, err := comp.ProjectorOutput(reg, p.ID, w, h)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: projector #%d: %v\n", p.ID, err)
			continue
		}
		frames = append(frames, export.Frame{Name: fmt.Sprintf("projector-%d", p.ID), Image: img})
	}
	return export.Run(export.Config{
		OutputDir: cfg.OutputDir,
		Ext:       cfg.ExportFormat,
		Workers:   runtime.NumCPU(),
	}, frames)
}

// previewFrame returns the scheduler's latest preview, rendering one on
// demand when no tick has produced it. Both results are nil when no camera
// holds the mapping-preview slot.
func previewFrame(cfg config.Config, reg *scene.Registry, comp *compositor.Compositor, sched *loop.Scheduler) (*image.NRGBA, error) {
	if img := sched.Frame(); img != nil {
		return img, nil
	}
	cam, ok := compositor.SlotCamera(reg, scene.SlotMappingPreview)
	if !ok {
		return nil, nil
	}
	return comp.RenderSupersampled(cam, cfg.PreviewWidth, cfg.PreviewHeight, cfg.Supersample)
}

func writeChart(cat *catalog.Catalog, modelID, path string) error {
	lenses, err := cat.CompatibleLenses(modelID)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteLensChart(f, lenses); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
