package main

// Flag structs decouple cobra from the command logic for testing.

// GlobalFlags holds persistent flags. They override the config file and
// environment when set.
type GlobalFlags struct {
	ConfigPath      string
	DB              string
	LogLevel        string
	MetricsTextfile string
}

// CanvasFlags selects the surface replays and live renders draw on.
type CanvasFlags struct {
	Surface     string
	Width       int
	Height      int
	Transparent bool
}

type RecordFlags struct {
	Input  string
	Layer  string
	Preset string
	Out    string
	Canvas CanvasFlags
}

type ReplayFlags struct {
	Layers   []string
	Out      string
	SplitDir string
	Workers  int
	Canvas   CanvasFlags
}

type SwapBrushFlags struct {
	Layer  string
	Preset string
	Index  int
}

type TranslateFlags struct {
	Layer string
	DX    float64
	DY    float64
}

type InspectFlags struct {
	Layer string
}

type DumpFlags struct {
	Layer string
	Index int
	Out   string
}

type UndoFlags struct {
	Layer string
}

type DeleteFlags struct {
	Layer string
}

type ArchiveFlags struct {
	Path   string
	Layers []string
}
