// Package config loads canvas configuration files.
//
// A file describes one canvas: the graph (inline or in a separate graph JSON
// file), its layout direction and options, the zoom and viewport behavior,
// and an optional layout cache. The decoder is picked by file extension:
//
//	.toml         github.com/BurntSushi/toml
//	.yaml, .yml   gopkg.in/yaml.v3
//	.json         encoding/json
//
// Fields a file omits keep the values from [Default].
//
// Example (TOML):
//
//	direction = "RIGHT"
//	graph = "graph.json"
//	fit = true
//	min_zoom = 0.5
//	max_zoom = 2
//
//	[container]
//	width = 1200
//	height = 800
//	max_width = 4000   # pans keep the layout on a 4000x3000 surface
//	max_height = 3000
//
//	[layout_options]
//	nodesep = "0.6"
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/linkcanvas/pkg/canvas"
	"github.com/matzehuels/linkcanvas/pkg/errors"
	"github.com/matzehuels/linkcanvas/pkg/graph"
	"github.com/matzehuels/linkcanvas/pkg/zoom"
)

// File is a decoded configuration file.
type File struct {
	Direction     string            `toml:"direction" yaml:"direction" json:"direction"`
	LayoutOptions map[string]string `toml:"layout_options" yaml:"layout_options" json:"layout_options"`

	Zoom     float64 `toml:"zoom" yaml:"zoom" json:"zoom"`
	MinZoom  float64 `toml:"min_zoom" yaml:"min_zoom" json:"min_zoom"`
	MaxZoom  float64 `toml:"max_zoom" yaml:"max_zoom" json:"max_zoom"`
	Zoomable bool    `toml:"zoomable" yaml:"zoomable" json:"zoomable"`

	Pannable  bool      `toml:"pannable" yaml:"pannable" json:"pannable"`
	Fit       bool      `toml:"fit" yaml:"fit" json:"fit"`
	Center    bool      `toml:"center" yaml:"center" json:"center"`
	Container Container `toml:"container" yaml:"container" json:"container"`

	Readonly   bool     `toml:"readonly" yaml:"readonly" json:"readonly"`
	Selections []string `toml:"selections" yaml:"selections" json:"selections"`

	// GraphFile is a graph JSON file, relative to the config file. It is
	// mutually exclusive with inline Nodes and Edges.
	GraphFile string       `toml:"graph" yaml:"graph" json:"graph"`
	Nodes     []graph.Node `toml:"nodes" yaml:"nodes" json:"nodes"`
	Edges     []graph.Edge `toml:"edges" yaml:"edges" json:"edges"`

	// Cache is "none", "file" or a redis:// URL. Empty means "none".
	Cache string `toml:"cache" yaml:"cache" json:"cache"`

	// Path is the file the config was loaded from and GraphPath the
	// resolved graph file, if any.
	Path      string `toml:"-" yaml:"-" json:"-"`
	GraphPath string `toml:"-" yaml:"-" json:"-"`
}

// Container is the initial viewport size in points. MaxWidth and MaxHeight
// bound the drawing surface around it; zero leaves an axis unbounded.
type Container struct {
	Width     float64 `toml:"width" yaml:"width" json:"width"`
	Height    float64 `toml:"height" yaml:"height" json:"height"`
	MaxWidth  float64 `toml:"max_width" yaml:"max_width" json:"max_width"`
	MaxHeight float64 `toml:"max_height" yaml:"max_height" json:"max_height"`
}

// Cache settings.
const (
	CacheNone = "none"
	CacheFile = "file"
)

// Default returns the configuration applied before a file is decoded.
func Default() *File {
	return &File{
		Direction: string(graph.DefaultDirection),
		Zoom:      1,
		MinZoom:   zoom.DefaultMin,
		MaxZoom:   zoom.DefaultMax,
		Zoomable:  true,
		Pannable:  true,
		Center:    true,
		Cache:     CacheNone,
	}
}

// Load reads, decodes and validates a configuration file. A referenced graph
// file is read as well.
func Load(path string) (*File, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}

	f := Default()
	if err := Decode(data, filepath.Ext(path), f); err != nil {
		return nil, err
	}
	f.Path = path

	if f.GraphFile != "" {
		if len(f.Nodes) > 0 || len(f.Edges) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s: graph file and inline nodes/edges are mutually exclusive", path)
		}
		f.GraphPath = f.GraphFile
		if !filepath.IsAbs(f.GraphPath) {
			f.GraphPath = filepath.Join(filepath.Dir(path), f.GraphPath)
		}
		g, err := graph.ReadGraphFile(f.GraphPath)
		if err != nil {
			return nil, err
		}
		f.Nodes, f.Edges = g.Nodes, g.Edges
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Decode decodes data into f using the decoder for ext.
func Decode(data []byte, ext string, f *File) error {
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(data, f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, f)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(f)
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported config format %q (use .toml, .yaml or .json)", ext)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s config", strings.TrimPrefix(ext, "."))
	}
	return nil
}

// Validate checks field values. Zoom bounds are not checked: the canvas
// corrects them.
func (f *File) Validate() error {
	dir, err := graph.ParseDirection(f.Direction)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDirection, err, "config")
	}
	f.Direction = string(dir)

	for k := range f.LayoutOptions {
		if err := errors.ValidateLayoutOption(k); err != nil {
			return err
		}
	}
	c := f.Container
	if c.Width < 0 || c.Height < 0 || c.MaxWidth < 0 || c.MaxHeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "container size cannot be negative")
	}

	switch {
	case f.Cache == "", f.Cache == CacheNone, f.Cache == CacheFile:
	case strings.HasPrefix(f.Cache, "redis://"), strings.HasPrefix(f.Cache, "rediss://"):
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache must be %q, %q or a redis:// URL, got %q", CacheNone, CacheFile, f.Cache)
	}
	return nil
}

// CanvasConfig converts the file to a canvas configuration. Callbacks are
// left for the caller to set.
func (f *File) CanvasConfig() canvas.Config {
	return canvas.Config{
		Nodes:           f.Nodes,
		Edges:           f.Edges,
		Direction:       graph.Direction(f.Direction),
		LayoutOptions:   f.LayoutOptions,
		Zoom:            f.Zoom,
		MinZoom:         f.MinZoom,
		MaxZoom:         f.MaxZoom,
		Zoomable:        f.Zoomable,
		Pannable:        f.Pannable,
		Fit:             f.Fit,
		Center:          f.Center,
		ContainerWidth:  f.Container.Width,
		ContainerHeight: f.Container.Height,
		MaxWidth:        f.Container.MaxWidth,
		MaxHeight:       f.Container.MaxHeight,
		Readonly:        f.Readonly,
		Selections:      f.Selections,
	}
}

// Graph returns the configured nodes and edges.
func (f *File) Graph() graph.Graph {
	return graph.Graph{Nodes: f.Nodes, Edges: f.Edges}
}

// WatchPaths returns the files whose changes should trigger a reload.
func (f *File) WatchPaths() []string {
	paths := []string{f.Path}
	if f.GraphPath != "" {
		paths = append(paths, f.GraphPath)
	}
	return paths
}
