// Package host provides a minimal implementation of vm.Host suitable for
// running scripts standalone, outside any multimedia authoring runtime.
// It supplies the §6.3 intrinsic function mapping (abs, sqrt, rect, ...),
// a per-Host globals table, and a receiver object per script
// instance so properties behave as the specification requires.
package host

import (
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/scorelang/scorec/internal/config"
	"github.com/scorelang/scorec/internal/vm"
)

// Host runs one script: it owns the compiled handler table, the VM-wide
// globals the VM consults through ResolveGlobal/SetGlobal, and a single
// receiver object shared across every top-level call into the script so
// that properties persist between calls the way scenario 5 requires.
type Host struct {
	Out      io.Writer
	handlers map[string]*vm.Chunk
	globals  map[string]vm.Value
	Receiver vm.Value
	cfg      config.HostConfig
}

// New builds a Host over handlers (as returned by vm.EmitScript) writing
// PUT output to out. The receiver is a fresh property-list object so
// `property` declarations have somewhere to live. cfg overrides the
// built-in `the` defaults; pass the zero value to keep them.
func New(handlers map[string]*vm.Chunk, out io.Writer, cfg config.HostConfig) *Host {
	return &Host{
		Out:      out,
		handlers: handlers,
		globals:  make(map[string]vm.Value),
		Receiver: vm.PropListRef(vm.NewPropList()),
		cfg:      cfg,
	}
}

func (h *Host) Put(v vm.Value) {
	fmt.Fprintln(h.Out, v.String())
}

func (h *Host) ResolveScriptHandler(name string) (*vm.Chunk, bool) {
	c, ok := h.handlers[name]
	return c, ok
}

// ResolveMethod never finds a script handler on a receiver in this
// standalone host: there is no scene-graph object model here, only the
// VM's own built-in container kinds, which vm_exec.go's builtinIntrinsic
// already handles before ResolveMethod is ever consulted.
func (h *Host) ResolveMethod(receiver vm.Value, name string) (*vm.Chunk, vm.Intrinsic, bool) {
	return nil, nil, false
}

func (h *Host) ResolveFunction(name string) (vm.Intrinsic, bool) {
	fn, ok := mathIntrinsics[name]
	return fn, ok
}

func (h *Host) ResolveGlobal(name string) (vm.Value, bool) {
	v, ok := h.globals[name]
	return v, ok
}

func (h *Host) SetGlobal(name string, v vm.Value) {
	h.globals[name] = v
}

func (h *Host) The(id vm.TheID) (vm.Value, error) {
	switch id {
	case vm.TheMoviePath:
		return vm.StringRef(vm.NewString(h.cfg.MoviePath)), nil
	case vm.TheFrame:
		return vm.Int(1), nil
	case vm.TheDirSeparator:
		sep := h.cfg.DirSeparator
		if sep == "" {
			sep = config.DefaultDirSeparator
		}
		return vm.StringRef(vm.NewString(sep)), nil
	case vm.TheRandomSeed:
		return vm.Int(h.cfg.RandomSeed), nil
	case vm.TheMilliseconds:
		return vm.Int(0), nil
	case vm.ThePlatform:
		platform := h.cfg.Platform
		if platform == "" {
			platform = runtime.GOOS
		}
		return vm.StringRef(vm.NewString(platform)), nil
	default:
		return vm.Value{}, fmt.Errorf("unknown environment query id %d", id)
	}
}

func oneFloatArg(args []vm.Value) (float64, error) {
	if len(args) != 1 || !args[0].IsNumeric() {
		return 0, fmt.Errorf("expected one numeric argument")
	}
	return args[0].AsFloat64(), nil
}

var mathIntrinsics = map[string]vm.Intrinsic{
	"abs": func(_ *vm.VM, _ vm.Value, args []vm.Value) (vm.Value, error) {
		f, err := oneFloatArg(args)
		if err != nil {
			return vm.Value{}, err
		}
		if len(args) == 1 && args[0].Type == vm.TInt {
			n := args[0].Int()
			if n < 0 {
				n = -n
			}
			return vm.Int(n), nil
		}
		return vm.Float(math.Abs(f)), nil
	},
	"atan": mathFn(math.Atan),
	"cos":  mathFn(math.Cos),
	"exp":  mathFn(math.Exp),
	"log":  mathFn(math.Log),
	"sin":  mathFn(math.Sin),
	"sqrt": mathFn(math.Sqrt),
	"string": func(_ *vm.VM, _ vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 {
			return vm.Value{}, fmt.Errorf("string() takes exactly one argument")
		}
		return vm.StringRef(vm.NewString(args[0].String())), nil
	},
	"float": func(_ *vm.VM, _ vm.Value, args []vm.Value) (vm.Value, error) {
		f, err := oneFloatArg(args)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Float(f), nil
	},
	"point": func(_ *vm.VM, _ vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 2 || !args[0].IsNumeric() || !args[1].IsNumeric() {
			return vm.Value{}, fmt.Errorf("point() takes exactly two numeric arguments")
		}
		return vm.PointRef(&vm.PointObj{X: args[0].AsFloat64(), Y: args[1].AsFloat64()}), nil
	},
	"rect": func(_ *vm.VM, _ vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 4 {
			return vm.Value{}, fmt.Errorf("rect() takes exactly four numeric arguments")
		}
		for _, a := range args {
			if !a.IsNumeric() {
				return vm.Value{}, fmt.Errorf("rect() takes exactly four numeric arguments")
			}
		}
		return vm.QuadRef(&vm.QuadObj{A: args[0].AsFloat64(), B: args[1].AsFloat64(), C: args[2].AsFloat64(), D: args[3].AsFloat64()}), nil
	},
}

func mathFn(f func(float64) float64) vm.Intrinsic {
	return func(_ *vm.VM, _ vm.Value, args []vm.Value) (vm.Value, error) {
		x, err := oneFloatArg(args)
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Float(f(x)), nil
	}
}
