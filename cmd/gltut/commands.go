package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/Faultbox/gltut/internal/assets"
	"github.com/Faultbox/gltut/internal/logger"
	"github.com/Faultbox/gltut/internal/model"
	"github.com/Faultbox/gltut/internal/texture"
	"github.com/Faultbox/gltut/pkg/formats"
)

func cmdInfo(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: gltut info <file>")
	}
	path := args[0]

	switch kind := assets.Classify(path); kind {
	case assets.KindTexture:
		bmp, err := formats.ParseBMPFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "File:        %s\n", path)
		fmt.Fprintf(e.stdout, "Kind:        %s\n", kind)
		fmt.Fprintf(e.stdout, "Size:        %dx%d\n", bmp.Width, bmp.Height)
		fmt.Fprintf(e.stdout, "Data offset: %d\n", bmp.Header.DataOffset)
		fmt.Fprintf(e.stdout, "Image size:  %d bytes\n", bmp.Header.ImageSize)
		fmt.Fprintf(e.stdout, "Pixels:      %d bytes (%d per row)\n", len(bmp.Pixels), bmp.RowStride())

	case assets.KindMesh:
		obj, err := formats.ParseOBJFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "File:        %s\n", path)
		fmt.Fprintf(e.stdout, "Kind:        %s\n", kind)
		fmt.Fprintf(e.stdout, "Triangles:   %d\n", obj.FaceCount())
		fmt.Fprintf(e.stdout, "Vertices:    %d\n", len(obj.Positions))
		if mesh := model.BuildMesh(obj, model.BuildOptions{}); mesh != nil {
			printBounds(e, mesh.Bounds)
		}

	default:
		return fmt.Errorf("%s: not a BMP texture or OBJ mesh", path)
	}
	return nil
}

func cmdValidate(e *env, args []string) error {
	m, err := newManager(e, args)
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, verr := m.Validate(ctx, e.cfg.Assets.Workers)
	if results == nil && verr != nil {
		return verr
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	failed := 0
	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(tw, "ok\t%s\t%s\t%s\n", r.Asset.Kind, r.Asset.Name, r.Summary)
			continue
		}
		failed++
		fmt.Fprintf(tw, "FAIL\t%s\t%s\t%v\n", r.Asset.Kind, r.Asset.Name, r.Err)
	}
	tw.Flush()

	fmt.Fprintf(e.stdout, "\n%d assets, %d failed\n", len(results), failed)
	if failed > 0 {
		return errFailed
	}
	return nil
}

func cmdConvert(e *env, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: gltut convert <in.bmp> [out]")
	}
	in := args[0]

	var out string
	if len(args) == 2 {
		out = args[1]
	} else {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + "." + e.cfg.Convert.Format
	}

	bmp, err := formats.ParseBMPFile(in)
	if err != nil {
		return err
	}
	img := texture.FromBMP(bmp)

	key, hasKey, err := texture.ParseColorKey(e.cfg.Convert.ColorKey)
	if err != nil {
		return err
	}
	keyed := 0
	if hasKey {
		keyed = texture.ApplyColorKey(img, key, uint8(e.cfg.Convert.ColorTolerance))
	}

	result := texture.Fit(img, e.cfg.Convert.MaxSize)
	if err := texture.Save(out, result); err != nil {
		return err
	}

	b := result.Bounds()
	logger.Info("texture converted",
		zap.String("in", in),
		zap.String("out", out),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Int("keyed", keyed),
	)
	fmt.Fprintf(e.stdout, "%s -> %s (%dx%d)\n", in, out, b.Dx(), b.Dy())
	return nil
}

var meshOut string

func meshFlags(fs *flag.FlagSet) {
	meshOut = ""
	fs.StringVar(&meshOut, "out", "", "Write the interleaved vertex buffer (float32 LE) to this file")
}

func cmdMesh(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: gltut mesh <in.obj>")
	}

	obj, err := formats.ParseOBJFile(args[0])
	if err != nil {
		return err
	}

	mesh := model.BuildMesh(obj, model.BuildOptions{
		FlipV:           e.cfg.Mesh.FlipV,
		GenerateNormals: e.cfg.Mesh.GenerateNormals,
		Indexed:         e.cfg.Mesh.Indexed,
	})
	if mesh == nil {
		return fmt.Errorf("%s: no faces", args[0])
	}

	fmt.Fprintf(e.stdout, "Triangles:   %d\n", mesh.FaceCount())
	fmt.Fprintf(e.stdout, "Vertices:    %d (stride %d floats)\n", len(mesh.Vertices), model.VertexStride)
	if mesh.Indices != nil {
		fmt.Fprintf(e.stdout, "Indices:     %d\n", len(mesh.Indices))
	}
	printBounds(e, mesh.Bounds)

	if meshOut == "" {
		return nil
	}
	if err := writeVertexBuffer(meshOut, mesh.Interleave()); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Wrote:       %s\n", meshOut)
	return nil
}

func writeVertexBuffer(path string, data []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating vertex buffer: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, data); err != nil {
		f.Close()
		return fmt.Errorf("writing vertex buffer: %w", err)
	}
	return f.Close()
}

func cmdWatch(e *env, args []string) error {
	m, err := newManager(e, args)
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Named("watch")
	events := make(chan assets.Event, 64)
	done := make(chan error, 1)
	go func() {
		done <- m.Watch(ctx, e.cfg.Watch.Debounce, events)
	}()

	log.Info("watching asset roots", zap.Strings("roots", m.Roots()))

	for {
		select {
		case err := <-done:
			return err
		case ev := <-events:
			if ev.Op == assets.OpRemoved {
				fmt.Fprintf(e.stdout, "removed  %s\n", ev.Name)
				continue
			}
			if err := reload(m, ev); err != nil {
				fmt.Fprintf(e.stdout, "FAIL     %s: %v\n", ev.Name, err)
				log.Warn("asset failed to decode", zap.String("name", ev.Name), zap.Error(err))
				continue
			}
			fmt.Fprintf(e.stdout, "reloaded %s\n", ev.Name)
		}
	}
}

func reload(m *assets.Manager, ev assets.Event) error {
	var err error
	switch ev.Kind {
	case assets.KindTexture:
		_, err = m.LoadTexture(ev.Name)
	case assets.KindMesh:
		_, err = m.LoadMesh(ev.Name)
	}
	return err
}

// newManager builds an asset manager over dirs, or the configured roots when
// dirs is empty.
func newManager(e *env, dirs []string) (*assets.Manager, error) {
	if len(dirs) == 0 {
		dirs = e.cfg.Assets.Roots
	}

	opts := []assets.Option{assets.WithLogger(logger.Named("assets"))}
	if !e.cfg.Assets.Cache {
		opts = append(opts, assets.WithoutCache())
	}

	m := assets.NewManager(opts...)
	for _, dir := range dirs {
		if err := m.AddRoot(dir); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func printBounds(e *env, b model.Bounds) {
	fmt.Fprintf(e.stdout, "Bounds:      min %v max %v\n", b.Min, b.Max)
	fmt.Fprintf(e.stdout, "Center:      %v\n", b.Center())
	fmt.Fprintf(e.stdout, "Extent:      %v\n", b.Size())
}
