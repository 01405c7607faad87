// Command vcdemo drives a vconsole session through a scripted guest and
// writes the presented console images to PNG files.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"slices"

	"github.com/gogpu/vconsole"
	"github.com/gogpu/vconsole/backend"
	_ "github.com/gogpu/vconsole/backend/native"
	_ "github.com/gogpu/vconsole/backend/soft"
	"github.com/gogpu/vconsole/present"
	"github.com/gogpu/vconsole/scanout"
)

func main() {
	var (
		backendName = flag.String("backend", "soft", "GPU backend (soft, native); empty picks the first available")
		width       = flag.Int("width", 640, "guest surface width")
		height      = flag.Int("height", 480, "guest surface height")
		output      = flag.String("output", "console", "output file prefix")
		name        = flag.String("name", "demo", "VM name shown in titles")
		verbose     = flag.Bool("v", false, "log debug messages")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	vconsole.SetLogger(logger)

	b, err := openBackend(*backendName)
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
	defer b.Close()
	logger.Info("vcdemo: backend ready", "backend", b.Name())

	g := newGuest(*width, *height)
	snap := present.NewSnapshot(logger)
	s := vconsole.New(b.Provider(), snap,
		vconsole.WithName(*name),
		vconsole.WithLogger(logger),
		vconsole.WithImporter(scanout.ImporterFunc(g.importBuffer)),
		vconsole.WithTitleFunc(func(title string) {
			logger.Info("vcdemo: title", "title", title)
		}),
	)
	if err := s.Enumerate(g.sys); err != nil {
		log.Fatalf("Failed to enumerate: %v", err)
	}
	if err := s.Register(); err != nil {
		log.Fatalf("Failed to register: %v", err)
	}
	defer s.DestroyAll()

	g.run(s)

	for _, i := range slices.Sorted(slices.Values(snap.Consoles())) {
		img, ok := snap.Image(i)
		if !ok {
			logger.Info("vcdemo: console has no image", "console", i, "label", snap.Label(i))
			continue
		}
		file := fmt.Sprintf("%s-%d.png", *output, i)
		if err := writePNG(file, img); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Console %d (%s) saved to %s (%dx%d)\n", i, snap.Label(i), file, img.Rect.Dx(), img.Rect.Dy())
	}
}

func openBackend(name string) (backend.Backend, error) {
	if name == "" {
		return backend.Default()
	}
	return backend.Get(name)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
