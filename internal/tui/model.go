package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	lru "github.com/hashicorp/golang-lru/v2"

	"choromap/internal/config"
	"choromap/internal/engine"
	"choromap/internal/loader"
)

type keyMap struct {
	Pan       key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Fit       key.Binding
	Basemap   key.Binding
	OpacityUp key.Binding
	OpacityDn key.Binding
	Legend    key.Binding
	Retry     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pan:       key.NewBinding(key.WithKeys("up", "down", "left", "right"), key.WithHelp("↑↓←→", "pan")),
		ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Fit:       key.NewBinding(key.WithKeys("f", "0"), key.WithHelp("f", "fit")),
		Basemap:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "basemap")),
		OpacityUp: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "opacity +")),
		OpacityDn: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "opacity -")),
		Legend:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "legend")),
		Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Help:      key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pan, k.ZoomIn, k.ZoomOut, k.Fit, k.Basemap, k.OpacityUp, k.OpacityDn, k.Legend, k.Retry, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pan, k.ZoomIn, k.ZoomOut, k.Fit},
		{k.Basemap, k.OpacityUp, k.OpacityDn, k.Legend},
		{k.Retry, k.Help, k.Quit},
	}
}

type Model struct {
	cfg *config.Config

	width  int
	height int

	surface  *termSurface
	ldr      *loader.Loader
	manager  *engine.Manager
	notifier *Notifier

	keys keyMap
	help help.Model
	spin spinner.Model

	showLegend bool
	helpFull   bool

	status string

	// last rendered map size (for hit testing)
	mapW int
	mapH int

	// hover state
	hoverID     int
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// cached basemap graticule, keyed by viewport geometry
	basemap *lru.Cache[string, []string]
}

// New assembles the full application: loader, engine, and terminal surface.
func New(cfg *config.Config) *Model {
	n := NewNotifier()
	surface := newTermSurface()
	ldr := loader.New(cfg.Timing, cfg.Source, n.Notify)
	mgr := engine.NewManager(cfg, surface, ldr.Collection, n.Notify, func(ri *engine.RegionInfo) {
		surface.setInfo(ri)
		n.Notify()
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	cache, _ := lru.New[string, []string](64)

	return &Model{
		cfg:        cfg,
		surface:    surface,
		ldr:        ldr,
		manager:    mgr,
		notifier:   n,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spin:       sp,
		showLegend: true,
		status:     "choromap ready",
		hoverID:    -1,
		basemap:    cache,
	}
}

// Notifier exposes the repaint bridge so main can bind it to the program.
func (m *Model) Notifier() *Notifier { return m.notifier }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		m.ldr.Load()
		return RefreshMsg{}
	})
}
