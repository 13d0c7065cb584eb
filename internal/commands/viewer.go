package commands

import (
	"flag"
	"fmt"
	"strings"

	"moto-viewer/internal/config"
	"moto-viewer/internal/model"
	"moto-viewer/internal/palette"
	"moto-viewer/internal/session"
)

// Viewer is what the viewer commands act on.
type Viewer struct {
	Session *session.Session
	Models  []config.Model
	// Print receives command output, one line per call.
	Print func(string)
	// SetGrid and SetFPS toggle overlays; nil leaves the command unregistered.
	SetGrid func(bool)
	SetFPS  func(bool)
}

// RegisterViewer adds the viewer commands to r.
func RegisterViewer(r *Registry, v Viewer) {
	out := v.Print
	if out == nil {
		out = func(string) {}
	}
	s := v.Session

	r.Register("help", "help", nil, func(*flag.FlagSet) error {
		for _, name := range r.Names() {
			u, _ := r.Usage(name)
			out(u)
		}
		return nil
	})

	r.Register("models", "models", nil, func(*flag.FlagSet) error {
		for _, m := range v.Models {
			mark := " "
			if m.ID == s.Manager().Identifier() {
				mark = "*"
			}
			out(fmt.Sprintf("%s %-10s %s", mark, m.ID, m.Label))
		}
		return nil
	})

	r.Register("load", "load <model>", nil, func(fs *flag.FlagSet) error {
		if fs.NArg() != 1 {
			return ErrUsage
		}
		return s.SelectModel(catalogID(v.Models, fs.Arg(0)))
	})

	r.Register("parts", "parts", nil, func(*flag.FlagSet) error {
		root := s.Current()
		if root == nil {
			out("no model loaded")
			return nil
		}
		for _, p := range root.Parts() {
			mark := " "
			if s.Selection().Contains(p) {
				mark = "*"
			}
			m := p.Mesh.Material
			out(fmt.Sprintf("%s %-20s %-16s %s", mark, p.Label(), m.Name, palette.Hex(m.Color)))
		}
		return nil
	})

	r.Register("select", "select <part>...", nil, func(fs *flag.FlagSet) error {
		if fs.NArg() == 0 {
			return ErrUsage
		}
		for _, name := range fs.Args() {
			p := findPart(s.Current(), name)
			if p == nil {
				return fmt.Errorf("no part named %q", name)
			}
			s.Selection().Toggle(p)
		}
		out(fmt.Sprintf("%d part(s) selected", s.Selection().Len()))
		return nil
	})

	r.Register("clear", "clear", nil, func(*flag.FlagSet) error {
		s.ClearSelection()
		return nil
	})

	r.Register("color", "color <swatch|#rrggbb>", nil, func(fs *flag.FlagSet) error {
		if fs.NArg() != 1 {
			return ErrUsage
		}
		return s.CommitColor(fs.Arg(0))
	})

	tintFlags := flag.NewFlagSet("tint", flag.ContinueOnError)
	material := tintFlags.String("material", "", "material name to tint")
	r.Register("tint", "tint -material <name> <swatch|#rrggbb>", tintFlags, func(fs *flag.FlagSet) error {
		if *material == "" || fs.NArg() != 1 {
			return ErrUsage
		}
		n, err := s.TintMaterial(*material, fs.Arg(0))
		if err != nil {
			return err
		}
		out(fmt.Sprintf("tinted %d part(s)", n))
		return nil
	})

	if v.SetGrid != nil {
		r.Register("grid", "grid on|off", nil, toggle(v.SetGrid))
	}
	if v.SetFPS != nil {
		r.Register("fps", "fps on|off", nil, toggle(v.SetFPS))
	}
}

// catalogID maps a catalog label to its identifier; anything else passes through.
func catalogID(models []config.Model, arg string) string {
	for _, m := range models {
		if strings.EqualFold(m.Label, arg) {
			return m.ID
		}
	}
	return arg
}

func findPart(root *model.Node, name string) *model.Node {
	if root == nil {
		return nil
	}
	for _, p := range root.Parts() {
		if strings.EqualFold(p.Label(), name) {
			return p
		}
	}
	return nil
}

func toggle(set func(bool)) func(*flag.FlagSet) error {
	return func(fs *flag.FlagSet) error {
		if fs.NArg() != 1 {
			return ErrUsage
		}
		switch strings.ToLower(fs.Arg(0)) {
		case "on", "true", "1":
			set(true)
		case "off", "false", "0":
			set(false)
		default:
			return ErrUsage
		}
		return nil
	}
}
